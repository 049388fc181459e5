package actions

import (
	"context"
	"fmt"
	"time"
)

const maxWaitSeconds = 10

// waitAction pauses before the next observation, for pages that load
// content asynchronously.
type waitAction struct{}

func (a *waitAction) Name() string {
	return "wait"
}

func (a *waitAction) Description() string {
	return "Wait a few seconds for the page to finish loading or updating before observing it again."
}

func (a *waitAction) Schema() map[string]interface{} {
	return objectSchema(
		map[string]interface{}{
			"seconds": map[string]interface{}{
				"type":        "integer",
				"description": "Seconds to wait, between 1 and 10 (defaults to 2)",
			},
		},
		nil,
	)
}

func (a *waitAction) Execute(ctx context.Context, args map[string]interface{}, actx *Context) (string, error) {
	seconds := optNumberArg(args, "seconds", 2)
	if seconds < 1 {
		seconds = 1
	}
	if seconds > maxWaitSeconds {
		seconds = maxWaitSeconds
	}

	select {
	case <-time.After(time.Duration(seconds) * time.Second):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("Waited %g seconds", seconds), nil
}

func (a *waitAction) Mutates() bool  { return false }
func (a *waitAction) Terminal() bool { return false }
