package actions

import (
	"context"
	"fmt"
	"strings"
)

const defaultExtractLength = 10000

// extractContentAction pulls the readable text out of the current page.
type extractContentAction struct{}

func (a *extractContentAction) Name() string {
	return "extract_content"
}

func (a *extractContentAction) Description() string {
	return "Extract the readable text content of the current page, with link destinations preserved. Use this to read articles, search results, or other text too long for the element view."
}

func (a *extractContentAction) Schema() map[string]interface{} {
	return objectSchema(
		map[string]interface{}{
			"max_length": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum characters to return (defaults to 10000)",
			},
		},
		nil,
	)
}

func (a *extractContentAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	maxLength := int(optNumberArg(args, "max_length", defaultExtractLength))
	if maxLength <= 0 {
		maxLength = defaultExtractLength
	}

	raw, err := actx.Surface.Evaluate(ctx, "document.documentElement.outerHTML")
	if err != nil {
		return "", err
	}
	rawHTML, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("page returned no HTML content")
	}

	page, err := extractPageText(rawHTML, maxLength)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if page.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", page.Title)
	}
	if page.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", page.Description)
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(page.Body)
	return sb.String(), nil
}

func (a *extractContentAction) Mutates() bool  { return false }
func (a *extractContentAction) Terminal() bool { return false }
