package actions

import (
	"context"
	"fmt"
)

// pressKeyAction sends a keyboard key to an element, or to the page
// body when no element is given.
type pressKeyAction struct{}

func (a *pressKeyAction) Name() string {
	return "press_key"
}

func (a *pressKeyAction) Description() string {
	return "Press a keyboard key such as Enter, Escape, Tab, ArrowDown, or PageDown. Targets a numbered element when given, otherwise the page."
}

func (a *pressKeyAction) Schema() map[string]interface{} {
	return objectSchema(
		map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"description": "Key name, e.g. Enter, Escape, Tab, ArrowDown",
			},
			"element": map[string]interface{}{
				"type":        "integer",
				"description": "Optional number of the element to send the key to",
			},
		},
		[]string{"key"},
	)
}

func (a *pressKeyAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return "", err
	}

	selector := "body"
	if _, hasElement := args["element"]; hasElement {
		selector, err = resolveElement(actx, args)
		if err != nil {
			return "", err
		}
	}

	if err := actx.Surface.Press(ctx, selector, key); err != nil {
		return "", err
	}
	return fmt.Sprintf("Pressed %s", key), nil
}

func (a *pressKeyAction) Mutates() bool  { return true }
func (a *pressKeyAction) Terminal() bool { return false }
