package actions

import (
	"context"
	"fmt"
)

// clickAction clicks a numbered element from the current view.
type clickAction struct{}

func (a *clickAction) Name() string {
	return "click"
}

func (a *clickAction) Description() string {
	return "Click an element by its number from the current view, e.g. a link, button, or checkbox."
}

func (a *clickAction) Schema() map[string]interface{} {
	return objectSchema(
		map[string]interface{}{
			"element": map[string]interface{}{
				"type":        "integer",
				"description": "Number of the element to click",
			},
		},
		[]string{"element"},
	)
}

func (a *clickAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	selector, err := resolveElement(actx, args)
	if err != nil {
		return "", err
	}
	if err := actx.Surface.Click(ctx, selector); err != nil {
		return "", err
	}
	id, _ := elementArg(args, "element")
	return fmt.Sprintf("Clicked element [%d]; page is now %s", id, actx.Surface.URL()), nil
}

func (a *clickAction) Mutates() bool  { return true }
func (a *clickAction) Terminal() bool { return false }
