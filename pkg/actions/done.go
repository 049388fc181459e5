package actions

import (
	"context"
)

// doneAction is the terminal completion signal. It performs no browser
// work; it echoes the declared summary, and the loop reads the success
// flag straight from the call arguments.
type doneAction struct{}

func (a *doneAction) Name() string {
	return "done"
}

func (a *doneAction) Description() string {
	return "Finish the current task. Call this when the task is complete, or when it cannot be completed, with success set accordingly and a summary of the outcome including any information the task asked for."
}

func (a *doneAction) Schema() map[string]interface{} {
	return objectSchema(
		map[string]interface{}{
			"success": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether the task was accomplished",
			},
			"summary": map[string]interface{}{
				"type":        "string",
				"description": "Outcome summary, including any extracted information the task asked for",
			},
		},
		[]string{"success", "summary"},
	)
}

func (a *doneAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	summary, err := stringArg(args, "summary")
	if err != nil {
		return "", err
	}
	return summary, nil
}

func (a *doneAction) Mutates() bool  { return false }
func (a *doneAction) Terminal() bool { return true }
