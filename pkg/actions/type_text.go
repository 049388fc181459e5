package actions

import (
	"context"
	"fmt"
)

// typeTextAction replaces the value of an input element.
type typeTextAction struct{}

func (a *typeTextAction) Name() string {
	return "type_text"
}

func (a *typeTextAction) Description() string {
	return "Type text into an input element by its number, replacing any existing value. Optionally press Enter afterwards to submit."
}

func (a *typeTextAction) Schema() map[string]interface{} {
	return objectSchema(
		map[string]interface{}{
			"element": map[string]interface{}{
				"type":        "integer",
				"description": "Number of the input element",
			},
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Text to type",
			},
			"submit": map[string]interface{}{
				"type":        "boolean",
				"description": "Press Enter after typing (defaults to false)",
			},
		},
		[]string{"element", "text"},
	)
}

func (a *typeTextAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	selector, err := resolveElement(actx, args)
	if err != nil {
		return "", err
	}
	text, err := stringArg(args, "text")
	if err != nil {
		return "", err
	}

	if err := actx.Surface.Fill(ctx, selector, text); err != nil {
		return "", err
	}

	id, _ := elementArg(args, "element")
	if submit, _ := args["submit"].(bool); submit {
		if err := actx.Surface.Press(ctx, selector, "Enter"); err != nil {
			return "", fmt.Errorf("typed into element [%d] but submit failed: %w", id, err)
		}
		return fmt.Sprintf("Typed %q into element [%d] and pressed Enter", text, id), nil
	}
	return fmt.Sprintf("Typed %q into element [%d]", text, id), nil
}

func (a *typeTextAction) Mutates() bool  { return true }
func (a *typeTextAction) Terminal() bool { return false }
