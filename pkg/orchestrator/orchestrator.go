// Package orchestrator drives a goal end to end: classify intent, plan
// tasks, run one agent loop per execution path concurrently, and stream
// the aggregated answer. It owns the plan lifecycle (pending → active →
// completed) and the observability event stream the host consumes.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/webpilot-ai/webpilot/pkg/actions"
	"github.com/webpilot-ai/webpilot/pkg/agent"
	"github.com/webpilot-ai/webpilot/pkg/config"
	"github.com/webpilot-ai/webpilot/pkg/graph"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/memory"
	"github.com/webpilot-ai/webpilot/pkg/planner"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

var orchLog *logging.Logger

func init() {
	var err error
	orchLog, err = logging.NewLogger("orchestrator")
	if err != nil {
		orchLog.Warnf("Failed to initialize orchestrator logger, using stderr fallback: %v", err)
	}
}

// SessionFactory allocates an isolated browser session for one
// execution path. The returned func releases the session; it is called
// exactly once when the path finishes.
type SessionFactory func(pathID string) (agent.Session, func(), error)

// Options wires an Orchestrator's collaborators.
type Options struct {
	Provider  llm.Provider
	Perceiver agent.Perceiver
	Registry  *actions.Registry
	Sessions  SessionFactory
	Agent     config.AgentConfig

	// EventBuffer sizes the event channel (defaults to 256). The host
	// must drain Events; a full buffer blocks the loops.
	EventBuffer int
}

// Orchestrator coordinates planning and concurrent path execution for
// one goal at a time.
type Orchestrator struct {
	provider  llm.Provider
	planner   *planner.Planner
	perceiver agent.Perceiver
	registry  *actions.Registry
	sessions  SessionFactory
	agentCfg  config.AgentConfig

	events chan *types.Event

	mu      sync.Mutex
	goal    string
	plan    *graph.Plan
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	return &Orchestrator{
		provider:  opts.Provider,
		planner:   planner.New(opts.Provider),
		perceiver: opts.Perceiver,
		registry:  opts.Registry,
		sessions:  opts.Sessions,
		agentCfg:  opts.Agent,
		events:    make(chan *types.Event, opts.EventBuffer),
		done:      closedChan(),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Events returns the observability stream. The channel stays open for
// the orchestrator's lifetime; one goal's events end with a result
// event carrying the final answer.
func (o *Orchestrator) Events() <-chan *types.Event {
	return o.events
}

// Done returns a channel closed when the current goal finishes. It
// returns a closed channel when nothing is running.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Plan returns the current plan, or nil before the first Start.
func (o *Orchestrator) Plan() *graph.Plan {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.plan
}

// Start takes a goal and either answers it directly (non-browsing
// intent) or proposes a plan and waits for ApprovePlan. Only one goal
// runs at a time.
func (o *Orchestrator) Start(ctx context.Context, goal string) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("a goal is already running")
	}
	o.goal = goal
	o.mu.Unlock()

	if !o.needsBrowsing(ctx, goal) {
		orchLog.Printf("goal classified as non-browsing, answering directly")
		return o.answerDirectly(ctx, goal)
	}

	steps := o.planner.MakePlan(ctx, goal, "")
	plan := graph.NewPlan(goal, steps)
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("planner produced an invalid plan: %w", err)
	}

	o.mu.Lock()
	o.plan = plan
	o.mu.Unlock()

	o.emit(types.NewPlanEvent(plan.ID, plan.StepDescriptions()))
	return nil
}

// RevisePlan replaces the proposed plan using host feedback. Only a
// plan that has not been approved yet can be revised.
func (o *Orchestrator) RevisePlan(ctx context.Context, feedback string) error {
	o.mu.Lock()
	plan := o.plan
	goal := o.goal
	o.mu.Unlock()

	if plan == nil || plan.Status != graph.PlanStatusPending {
		return fmt.Errorf("no pending plan to revise")
	}

	steps := o.planner.RePlan(ctx, goal, plan.StepDescriptions(), feedback)
	revised := graph.NewPlan(goal, steps)
	if err := revised.Validate(); err != nil {
		return fmt.Errorf("revised plan is invalid: %w", err)
	}

	o.mu.Lock()
	o.plan = revised
	o.mu.Unlock()

	o.emit(types.NewPlanEvent(revised.ID, revised.StepDescriptions()))
	return nil
}

// ApprovePlan activates the pending plan and runs its execution paths
// concurrently. It returns immediately; progress arrives on Events and
// completion closes Done.
func (o *Orchestrator) ApprovePlan(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.plan == nil || o.plan.Status != graph.PlanStatusPending {
		return fmt.Errorf("no pending plan to approve")
	}
	if o.running {
		return fmt.Errorf("a plan is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.plan.Status = graph.PlanStatusActive
	o.running = true
	o.cancel = cancel
	o.done = make(chan struct{})

	go o.run(runCtx, o.plan)
	return nil
}

// Stop cancels the running goal, if any.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (o *Orchestrator) run(ctx context.Context, plan *graph.Plan) {
	defer o.finish(plan)

	if plan.Deadlocked() {
		err := fmt.Errorf("plan %s is deadlocked: pending tasks but none runnable", plan.ID)
		orchLog.Errorf("%v", err)
		o.emit(types.NewErrorEvent(err))
		failRemaining(plan.Tasks, "plan deadlocked")
		return
	}

	paths := graph.DerivePaths(plan)
	orchLog.Printf("plan %s activated with %d tasks across %d paths", plan.ID, len(plan.Tasks), len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		pathID := fmt.Sprintf("path-%d", i+1)
		p := path
		// Path failures are absorbed inside runPath so sibling paths
		// keep running; the group only propagates cancellation.
		g.Go(func() error {
			o.runPath(ctx, pathID, p)
			return nil
		})
	}
	_ = g.Wait()

	o.streamFinalAnswer(ctx, plan)
}

func (o *Orchestrator) finish(plan *graph.Plan) {
	o.mu.Lock()
	plan.Status = graph.PlanStatusCompleted
	o.running = false
	o.cancel = nil
	done := o.done
	o.mu.Unlock()
	close(done)
}

// runPath executes one path's tasks strictly in order. The first
// failure marks the remaining tasks failed without running them.
func (o *Orchestrator) runPath(ctx context.Context, pathID string, path graph.Path) {
	session, release, err := o.sessions(pathID)
	if err != nil {
		err = fmt.Errorf("%s: could not allocate a browser session: %w", pathID, err)
		orchLog.Errorf("%v", err)
		o.emit(types.NewErrorEvent(err))
		failRemaining(path, "no browser session available")
		return
	}
	defer release()

	for i, task := range path {
		if task.Status != graph.TaskStatusPending {
			continue
		}

		task.Status = graph.TaskStatusRunning
		outcome, err := o.runTask(ctx, session, task)

		switch {
		case err != nil:
			task.Status = graph.TaskStatusFailed
			task.Error = err.Error()
			o.emit(types.NewTaskErrorEvent(task.ID, err))
			failRemaining(path[i+1:], "upstream task failed")
			return
		case !outcome.Success:
			task.Status = graph.TaskStatusFailed
			task.Error = outcome.Summary
			task.Result = outcome.Summary
			o.emit(types.NewTaskErrorEvent(task.ID, fmt.Errorf("%s", outcome.Summary)))
			failRemaining(path[i+1:], "upstream task failed")
			return
		default:
			task.Status = graph.TaskStatusCompleted
			task.Result = outcome.Summary
			o.emit(types.NewResultEvent(task.ID, outcome.Summary))
		}
	}
}

func (o *Orchestrator) runTask(ctx context.Context, session agent.Session, task *graph.Task) (*agent.Outcome, error) {
	conversation := memory.NewConversation(o.provider, memory.Options{
		BudgetTokens:  o.agentCfg.MemoryBudgetTokens,
		KeepRecent:    o.agentCfg.KeepRecentEntries,
		EntryCapChars: o.agentCfg.EntryCapChars,
	})

	loop := agent.NewLoop(agent.Options{
		Provider:  o.provider,
		Perceiver: o.perceiver,
		Registry:  o.registry,
		Session:   session,
		Memory:    conversation,
		Emit:      o.emit,
		MaxSteps:  o.agentCfg.MaxSteps,
	})
	return loop.Run(ctx, task)
}

// failRemaining marks every still-pending task in tasks as failed.
func failRemaining(tasks []*graph.Task, reason string) {
	for _, task := range tasks {
		if task.Status == graph.TaskStatusPending || task.Status == graph.TaskStatusBlocked {
			task.Status = graph.TaskStatusFailed
			task.Error = reason
		}
	}
}

// streamFinalAnswer folds every task's final state into one prompt and
// streams the user-visible answer. Aggregation reads task state, never
// completion order.
func (o *Orchestrator) streamFinalAnswer(ctx context.Context, plan *graph.Plan) {
	messages := []*types.Message{
		types.NewSystemMessage("You are WebPilot. Summarize the outcome of the browsing tasks below into a direct answer to the user's goal. Include the concrete information found. If some tasks failed, say what is missing."),
		types.NewUserMessage(buildAggregationPrompt(plan)),
	}

	chunks, err := o.provider.Stream(ctx, messages)
	if err != nil {
		orchLog.Errorf("final answer stream failed to start: %v", err)
		o.emit(types.NewErrorEvent(fmt.Errorf("final answer unavailable: %w", err)))
		return
	}

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.IsError() {
			o.emit(types.NewErrorEvent(chunk.Err))
			return
		}
		if chunk.Content != "" {
			sb.WriteString(chunk.Content)
			o.emit(types.NewResultStreamEvent(chunk.Content))
		}
	}
	o.emit(types.NewResultEvent("", sb.String()))
}

func buildAggregationPrompt(plan *graph.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal: %s\n\nTask outcomes:\n", plan.Goal)
	for i, task := range plan.Tasks {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, task.Status, task.Description)
		if task.Result != "" {
			fmt.Fprintf(&sb, "   result: %s\n", task.Result)
		}
		if task.Error != "" && task.Error != task.Result {
			fmt.Fprintf(&sb, "   error: %s\n", task.Error)
		}
	}
	return sb.String()
}

func (o *Orchestrator) emit(event *types.Event) {
	o.events <- event
}
