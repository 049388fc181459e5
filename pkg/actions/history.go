package actions

import (
	"context"
	"fmt"
)

// goBackAction navigates one entry back in the tab history.
type goBackAction struct{}

func (a *goBackAction) Name() string {
	return "go_back"
}

func (a *goBackAction) Description() string {
	return "Go back to the previous page in this tab's history."
}

func (a *goBackAction) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{}, nil)
}

func (a *goBackAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	if err := actx.Surface.Back(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Went back to %s", actx.Surface.URL()), nil
}

func (a *goBackAction) Mutates() bool  { return true }
func (a *goBackAction) Terminal() bool { return false }

// refreshAction reloads the current page.
type refreshAction struct{}

func (a *refreshAction) Name() string {
	return "refresh"
}

func (a *refreshAction) Description() string {
	return "Reload the current page. Useful when content seems stale or a load failed partway."
}

func (a *refreshAction) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{}, nil)
}

func (a *refreshAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	if err := actx.Surface.Refresh(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Reloaded %s", actx.Surface.URL()), nil
}

func (a *refreshAction) Mutates() bool  { return true }
func (a *refreshAction) Terminal() bool { return false }
