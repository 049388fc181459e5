package actions

import (
	"context"
	"fmt"
	"strings"
)

// navigateAction loads a URL on the active surface.
type navigateAction struct{}

func (a *navigateAction) Name() string {
	return "navigate"
}

func (a *navigateAction) Description() string {
	return "Navigate the current tab to a URL. Use a full URL including the protocol, e.g. https://example.com."
}

func (a *navigateAction) Schema() map[string]interface{} {
	return objectSchema(
		map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Destination URL, including protocol",
			},
		},
		[]string{"url"},
	)
}

func (a *navigateAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	url, err := stringArg(args, "url")
	if err != nil {
		return "", err
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}

	if err := actx.Surface.Navigate(ctx, url); err != nil {
		return "", err
	}
	return fmt.Sprintf("Navigated to %s (title: %s)", actx.Surface.URL(), actx.Surface.Title()), nil
}

func (a *navigateAction) Mutates() bool  { return true }
func (a *navigateAction) Terminal() bool { return false }
