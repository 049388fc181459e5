package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/logging"
)

var actionLog *logging.Logger

func init() {
	var err error
	actionLog, err = logging.NewLogger("actions")
	if err != nil {
		actionLog.Warnf("Failed to initialize actions logger, using stderr fallback: %v", err)
	}
}

// Registry holds the closed action set. Actions are resolved by exact
// name; there is no pattern matching or fallback resolution.
type Registry struct {
	order   []string
	actions map[string]Action
}

// NewRegistry returns a registry with the standard browsing action set.
func NewRegistry() *Registry {
	r := &Registry{actions: make(map[string]Action)}
	r.register(
		&navigateAction{},
		&clickAction{},
		&typeTextAction{},
		&pressKeyAction{},
		&scrollAction{},
		&goBackAction{},
		&refreshAction{},
		&extractContentAction{},
		&waitAction{},
		&doneAction{},
	)
	return r
}

func (r *Registry) register(actions ...Action) {
	for _, a := range actions {
		if _, dup := r.actions[a.Name()]; dup {
			panic(fmt.Sprintf("duplicate action %q", a.Name()))
		}
		r.actions[a.Name()] = a
		r.order = append(r.order, a.Name())
	}
}

// Lookup returns the named action.
func (r *Registry) Lookup(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the registered action names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns provider tool definitions for every action.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		a := r.actions[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        a.Name(),
			Description: a.Description(),
			Schema:      a.Schema(),
		})
	}
	return defs
}

// Dispatch executes the named action and always returns a Result the
// reasoner can read. Unknown names, errors, and panics all become
// failed results; only the process-level context can stop a task.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]interface{}, actx *Context) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			actionLog.Errorf("action %s panicked: %v", name, rec)
			result = Result{Success: false, Output: fmt.Sprintf("action %s failed unexpectedly: %v", name, rec)}
		}
	}()

	action, ok := r.actions[name]
	if !ok {
		return Result{
			Success: false,
			Output:  fmt.Sprintf("unknown action %q; available actions: %s", name, strings.Join(r.order, ", ")),
		}
	}

	output, err := action.Execute(ctx, args, actx)
	if err != nil {
		actionLog.Debugf("action %s failed: %v", name, err)
		return Result{Success: false, Output: err.Error()}
	}
	return Result{Success: true, Output: output}
}

// TargetOf derives the detector target for a dispatched action: the
// element number for element actions, the URL for navigation, the
// direction for scrolls. Actions without a meaningful target return "".
func TargetOf(name string, args map[string]interface{}) string {
	switch name {
	case "click", "type_text", "press_key":
		if id, err := elementArg(args, "element"); err == nil {
			return fmt.Sprintf("element:%d", id)
		}
	case "navigate":
		return optStringArg(args, "url", "")
	case "scroll":
		return optStringArg(args, "direction", "down")
	}
	return ""
}
