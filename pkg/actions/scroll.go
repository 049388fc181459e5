package actions

import (
	"context"
	"fmt"
)

const defaultScrollPixels = 600

// scrollAction scrolls the page vertically.
type scrollAction struct{}

func (a *scrollAction) Name() string {
	return "scroll"
}

func (a *scrollAction) Description() string {
	return "Scroll the page up or down to reveal more content."
}

func (a *scrollAction) Schema() map[string]interface{} {
	return objectSchema(
		map[string]interface{}{
			"direction": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"up", "down"},
				"description": "Scroll direction",
			},
			"amount": map[string]interface{}{
				"type":        "integer",
				"description": "Distance in pixels (defaults to 600)",
			},
		},
		[]string{"direction"},
	)
}

func (a *scrollAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	direction, err := stringArg(args, "direction")
	if err != nil {
		return "", err
	}

	amount := optNumberArg(args, "amount", defaultScrollPixels)
	switch direction {
	case "down":
	case "up":
		amount = -amount
	default:
		return "", fmt.Errorf("direction must be \"up\" or \"down\", got %q", direction)
	}

	if err := actx.Surface.Scroll(ctx, amount); err != nil {
		return "", err
	}
	return fmt.Sprintf("Scrolled %s", direction), nil
}

func (a *scrollAction) Mutates() bool  { return false }
func (a *scrollAction) Terminal() bool { return false }
