// Package agent runs the per-task think-act-observe loop: capture a
// perception snapshot, ask the reasoner for actions, dispatch them,
// and repeat until the task completes, the step budget runs out, or a
// loop detector fires. Each loop owns one browser session and never
// shares it.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/actions"
	"github.com/webpilot-ai/webpilot/pkg/graph"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/memory"
	"github.com/webpilot-ai/webpilot/pkg/perception"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

var agentLog *logging.Logger

func init() {
	var err error
	agentLog, err = logging.NewLogger("agent")
	if err != nil {
		agentLog.Warnf("Failed to initialize agent logger, using stderr fallback: %v", err)
	}
}

const (
	switchTabAction = "switch_tab"
	closeTabAction  = "close_tab"
)

// Surface is the page access the loop needs. The browser package's
// Surface satisfies it.
type Surface interface {
	ID() string
	URL() string
	Title() string
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Refresh(ctx context.Context) error
	Screenshot(ctx context.Context) ([]byte, error)
	Evaluate(ctx context.Context, script string) (interface{}, error)
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Press(ctx context.Context, selector, key string) error
	Scroll(ctx context.Context, deltaY float64) error
	WaitForSettle(ctx context.Context)
}

// SurfaceInfo describes one open tab for the state message.
type SurfaceInfo struct {
	ID     string
	URL    string
	Title  string
	Active bool
}

// Session is the multi-tab browser session the loop drives.
type Session interface {
	Active() (Surface, error)
	Surfaces() []SurfaceInfo
	SwitchTo(id string) error
	CloseSurface(id string) error
	CleanupSecondary()
}

// Perceiver captures page snapshots. *perception.Service satisfies it.
type Perceiver interface {
	Snapshot(ctx context.Context, surf perception.Surface) (*perception.Snapshot, error)
}

// Outcome is the terminal result of one task loop.
type Outcome struct {
	Success bool
	Summary string
	Steps   int
}

// loopState names the phases of one iteration. Transitions all pass
// through Run's context check, so cancellation is observed at every
// boundary rather than at implicit suspension points.
type loopState int

const (
	statePerceive loopState = iota
	stateReason
	stateAct
	stateCheckLoop
	stateCheckCompletion
	stateCheckBudget
	stateDone
)

// Options wires a Loop's collaborators.
type Options struct {
	Provider  llm.Provider
	Perceiver Perceiver
	Registry  *actions.Registry
	Session   Session
	Memory    *memory.Conversation

	// Emit publishes loop events; nil means no event stream.
	Emit func(*types.Event)

	// MaxSteps is the iteration budget (defaults to 25).
	MaxSteps int

	// StepDelay is an optional pause between iterations.
	StepDelay time.Duration
}

// Loop runs the think-act-observe cycle for a single task.
type Loop struct {
	provider  llm.Provider
	perceiver Perceiver
	registry  *actions.Registry
	session   Session
	memory    *memory.Conversation
	emit      func(*types.Event)
	maxSteps  int
	stepDelay time.Duration
}

// NewLoop creates a loop from its options.
func NewLoop(opts Options) *Loop {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 25
	}
	if opts.Emit == nil {
		opts.Emit = func(*types.Event) {}
	}
	return &Loop{
		provider:  opts.Provider,
		perceiver: opts.Perceiver,
		registry:  opts.Registry,
		session:   opts.Session,
		memory:    opts.Memory,
		emit:      opts.Emit,
		maxSteps:  opts.MaxSteps,
		stepDelay: opts.StepDelay,
	}
}

// Run executes the loop for one task. A returned error means the task
// failed outside the action protocol (perception or reasoner failure);
// detector aborts and budget exhaustion return a failed Outcome
// instead. Secondary tabs are always cleaned up on exit.
func (l *Loop) Run(ctx context.Context, task *graph.Task) (*Outcome, error) {
	defer l.session.CleanupSecondary()

	l.memory.Append(types.RoleUser, "Task: "+task.Description)

	var (
		step       int
		records    []ActionRecord
		snap       *perception.Snapshot
		gen        *llm.Generation
		completion *Outcome
		outcome    *Outcome
	)

	state := statePerceive
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state {
		case statePerceive:
			step++
			var err error
			snap, err = l.perceive(ctx)
			if err != nil {
				return nil, fmt.Errorf("perception failed on step %d: %w", step, err)
			}
			state = stateReason

		case stateReason:
			var err error
			gen, err = l.reason(ctx, task, snap, records)
			if err != nil {
				return nil, fmt.Errorf("reasoning failed on step %d: %w", step, err)
			}
			if gen.Text != "" {
				l.emit(types.NewThoughtEvent(task.ID, gen.Text))
				l.memory.Append(types.RoleAssistant, gen.Text)
			}
			state = stateAct

		case stateAct:
			var dispatched []ActionRecord
			completion, dispatched = l.act(ctx, task, step, snap, gen.ToolCalls)
			records = append(records, dispatched...)
			state = stateCheckLoop

		case stateCheckLoop:
			if reason, stuck := detectRepetition(records); stuck {
				outcome = &Outcome{Success: false, Summary: "stuck in a loop: " + reason, Steps: step}
				state = stateDone
				break
			}
			if detectOscillation(records) {
				outcome = &Outcome{Success: false, Summary: "stuck in a loop: alternating clicks between two elements", Steps: step}
				state = stateDone
				break
			}
			state = stateCheckCompletion

		case stateCheckCompletion:
			if completion != nil {
				completion.Steps = step
				outcome = completion
				state = stateDone
				break
			}
			state = stateCheckBudget

		case stateCheckBudget:
			if step >= l.maxSteps {
				outcome = &Outcome{Success: false, Summary: "max steps reached", Steps: step}
				state = stateDone
				break
			}
			if l.stepDelay > 0 {
				select {
				case <-time.After(l.stepDelay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			state = statePerceive

		case stateDone:
			agentLog.Printf("task %s finished after %d steps (success=%v)", task.ID, outcome.Steps, outcome.Success)
			return outcome, nil
		}
	}
}

// perceive snapshots the active surface, retrying once after a settle
// wait. Mid-navigation captures fail transiently and usually succeed
// on the second attempt; anything still failing then fails the task.
func (l *Loop) perceive(ctx context.Context) (*perception.Snapshot, error) {
	surf, err := l.session.Active()
	if err != nil {
		return nil, err
	}

	snap, err := l.perceiver.Snapshot(ctx, surf)
	if err == nil {
		return snap, nil
	}
	agentLog.Debugf("snapshot failed, retrying after settle: %v", err)

	surf.WaitForSettle(ctx)
	if surf, err = l.session.Active(); err != nil {
		return nil, err
	}
	return l.perceiver.Snapshot(ctx, surf)
}

// reason asks the provider for the next move given the instructions,
// the rolling memory, and the current observation.
func (l *Loop) reason(ctx context.Context, task *graph.Task, snap *perception.Snapshot, records []ActionRecord) (*llm.Generation, error) {
	messages := []*types.Message{types.NewSystemMessage(systemInstructions)}
	messages = append(messages, l.memory.Context(ctx)...)
	messages = append(messages, buildStateMessage(task.Description, snap, l.session.Surfaces(), records))

	return l.provider.Generate(ctx, messages, &llm.GenerateOptions{
		Tools: append(l.registry.Definitions(), surfaceToolDefinitions()...),
	})
}

// act dispatches the iteration's tool calls. A terminal call short-
// circuits the rest; its outcome comes back as a non-nil completion.
func (l *Loop) act(ctx context.Context, task *graph.Task, step int, snap *perception.Snapshot, calls []llm.ToolCall) (*Outcome, []ActionRecord) {
	if len(calls) == 0 {
		l.memory.Append(types.RoleUser, "You did not call any action. Call one of the available actions, or done if the task is finished.")
		return nil, nil
	}

	var dispatched []ActionRecord
	for _, call := range calls {
		if call.Name == switchTabAction || call.Name == closeTabAction {
			result := l.manageSurfaces(call)
			dispatched = append(dispatched, newActionRecord(step, call.Name, optTabArg(call.Arguments), result.Success, result.Output))
			l.recordResult(task, call.Name, result)
			continue
		}

		surf, err := l.session.Active()
		if err != nil {
			result := actions.Result{Success: false, Output: err.Error()}
			dispatched = append(dispatched, newActionRecord(step, call.Name, "", false, result.Output))
			l.recordResult(task, call.Name, result)
			continue
		}

		target := actions.TargetOf(call.Name, call.Arguments)
		l.emit(types.NewActionEvent(task.ID, call.Name, target))

		result := l.registry.Dispatch(ctx, call.Name, call.Arguments, &actions.Context{
			Surface:  surf,
			Snapshot: snap,
		})
		dispatched = append(dispatched, newActionRecord(step, call.Name, target, result.Success, result.Output))
		l.recordResult(task, call.Name, result)

		if action, ok := l.registry.Lookup(call.Name); ok && result.Success {
			if action.Terminal() {
				success, _ := call.Arguments["success"].(bool)
				return &Outcome{Success: success, Summary: result.Output}, dispatched
			}
			if action.Mutates() {
				surf.WaitForSettle(ctx)
			}
		}
	}
	return nil, dispatched
}

// manageSurfaces handles the tab calls the registry does not own.
func (l *Loop) manageSurfaces(call llm.ToolCall) actions.Result {
	tab := optTabArg(call.Arguments)
	if tab == "" {
		return actions.Result{Success: false, Output: "missing required parameter \"tab\""}
	}

	var err error
	switch call.Name {
	case switchTabAction:
		err = l.session.SwitchTo(tab)
	case closeTabAction:
		err = l.session.CloseSurface(tab)
	}
	if err != nil {
		return actions.Result{Success: false, Output: err.Error()}
	}
	return actions.Result{Success: true, Output: fmt.Sprintf("%s %s done", call.Name, tab)}
}

func (l *Loop) recordResult(task *graph.Task, name string, result actions.Result) {
	status := "succeeded"
	if !result.Success {
		status = "failed"
	}
	l.memory.Append(types.RoleUser, fmt.Sprintf("Action %s %s: %s", name, status, result.Output))
	l.emit(types.NewResultEvent(task.ID, result.Output))
}

func optTabArg(args map[string]interface{}) string {
	tab, _ := args["tab"].(string)
	return tab
}

// surfaceToolDefinitions exposes the tab-management calls to the
// reasoner alongside the registry actions.
func surfaceToolDefinitions() []llm.ToolDefinition {
	tabProp := map[string]interface{}{
		"type":        "object",
		"properties": map[string]interface{}{
			"tab": map[string]interface{}{
				"type":        "string",
				"description": "Tab identifier from the open tabs list, e.g. tab-2",
			},
		},
		"required": []string{"tab"},
	}
	return []llm.ToolDefinition{
		{
			Name:        switchTabAction,
			Description: "Make another open tab the active one.",
			Schema:      tabProp,
		},
		{
			Name:        closeTabAction,
			Description: "Close a secondary tab opened during this task.",
			Schema:      tabProp,
		},
	}
}
