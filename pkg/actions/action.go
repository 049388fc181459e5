// Package actions defines the closed set of operations the reasoner
// can take against a browser surface, and the registry that dispatches
// them. Every action failure is converted to text the reasoner can
// read; nothing here ever panics through to the loop.
package actions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/webpilot-ai/webpilot/pkg/perception"
)

// Surface is the browser access actions need. The browser package's
// Surface satisfies it.
type Surface interface {
	URL() string
	Title() string
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Refresh(ctx context.Context) error
	Evaluate(ctx context.Context, script string) (interface{}, error)
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Press(ctx context.Context, selector, key string) error
	Scroll(ctx context.Context, deltaY float64) error
}

// Context carries the per-step state an action executes against.
// Snapshot is the perception capture the element ids in the arguments
// refer to; it may be nil before the first capture.
type Context struct {
	Surface  Surface
	Snapshot *perception.Snapshot
}

// Result is the uniform outcome of a dispatched action.
type Result struct {
	Success bool
	Output  string
}

// Action is a single operation the reasoner can invoke.
type Action interface {
	// Name returns the action name used in tool calls.
	Name() string

	// Description tells the reasoner when to use this action.
	Description() string

	// Schema returns the JSON schema of the action's parameters.
	Schema() map[string]interface{}

	// Execute runs the action. An error becomes a failed Result whose
	// output is the error text.
	Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error)

	// Mutates reports whether the action changes page state, which
	// makes the loop wait for the surface to settle afterwards.
	Mutates() bool

	// Terminal reports whether the action ends the task loop.
	Terminal() bool
}

// objectSchema builds a JSON schema for an action's parameters.
func objectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", key)
	}
	return s, nil
}

func optStringArg(args map[string]interface{}, key, fallback string) string {
	if s, ok := args[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// elementArg reads an element id, tolerating the numeric shapes JSON
// decoding and model output produce.
func elementArg(args map[string]interface{}, key string) (int, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required parameter %q", key)
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parameter %q must be an element number, got %q", key, v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("parameter %q must be an element number", key)
	}
}

func optNumberArg(args map[string]interface{}, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// resolveElement turns an element id argument into a selector against
// the current snapshot.
func resolveElement(actx *Context, args map[string]interface{}) (string, error) {
	id, err := elementArg(args, "element")
	if err != nil {
		return "", err
	}
	if actx.Snapshot == nil {
		return "", fmt.Errorf("no page has been observed yet")
	}
	return actx.Snapshot.Selector(id)
}
