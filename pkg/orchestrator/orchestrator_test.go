package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/actions"
	"github.com/webpilot-ai/webpilot/pkg/agent"
	"github.com/webpilot-ai/webpilot/pkg/config"
	"github.com/webpilot-ai/webpilot/pkg/graph"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/perception"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// queueProvider serves scripted generations in call order and streams
// a fixed final answer. Plans here are linear chains, so one path runs
// at a time and the order is deterministic.
type queueProvider struct {
	mu          sync.Mutex
	generations []*llm.Generation
	calls       int
	streamText  []string
	streamErr   error
}

func (p *queueProvider) Generate(context.Context, []*types.Message, *llm.GenerateOptions) (*llm.Generation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.generations) == 0 {
		return nil, errors.New("unexpected generate call")
	}
	p.calls++
	gen := p.generations[0]
	if len(p.generations) > 1 {
		p.generations = p.generations[1:]
	}
	return gen, nil
}

func (p *queueProvider) Stream(context.Context, []*types.Message) (<-chan *llm.StreamChunk, error) {
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	ch := make(chan *llm.StreamChunk, len(p.streamText)+1)
	for _, delta := range p.streamText {
		ch <- &llm.StreamChunk{Content: delta}
	}
	ch <- &llm.StreamChunk{Finished: true}
	close(ch)
	return ch, nil
}

func textGen(text string) *llm.Generation {
	return &llm.Generation{Text: text}
}

func toolGen(name string, args map[string]interface{}) *llm.Generation {
	return &llm.Generation{Text: "ok", ToolCalls: []llm.ToolCall{{Name: name, Arguments: args}}}
}

// orchSurface and orchSession are minimal in-memory fakes.
type orchSurface struct{ url string }

func (s *orchSurface) ID() string                                         { return "tab-1" }
func (s *orchSurface) URL() string                                        { return s.url }
func (s *orchSurface) Title() string                                      { return "Page" }
func (s *orchSurface) Navigate(_ context.Context, u string) error         { s.url = u; return nil }
func (s *orchSurface) Back(context.Context) error                         { return nil }
func (s *orchSurface) Refresh(context.Context) error                      { return nil }
func (s *orchSurface) Screenshot(context.Context) ([]byte, error)         { return []byte("png"), nil }
func (s *orchSurface) Evaluate(context.Context, string) (interface{}, error) {
	return "<html></html>", nil
}
func (s *orchSurface) Click(context.Context, string) error         { return nil }
func (s *orchSurface) Fill(context.Context, string, string) error  { return nil }
func (s *orchSurface) Press(context.Context, string, string) error { return nil }
func (s *orchSurface) Scroll(context.Context, float64) error       { return nil }
func (s *orchSurface) WaitForSettle(context.Context)               {}

type orchSession struct{ surface *orchSurface }

func (s *orchSession) Active() (agent.Surface, error) { return s.surface, nil }
func (s *orchSession) Surfaces() []agent.SurfaceInfo {
	return []agent.SurfaceInfo{{ID: "tab-1", URL: s.surface.url, Active: true}}
}
func (s *orchSession) SwitchTo(string) error     { return nil }
func (s *orchSession) CloseSurface(string) error { return nil }
func (s *orchSession) CleanupSecondary()         {}

// countingPerceiver counts snapshots so browsing-free routes can be
// verified to never perceive.
type countingPerceiver struct {
	mu    sync.Mutex
	count int
}

func (p *countingPerceiver) Snapshot(_ context.Context, surf perception.Surface) (*perception.Snapshot, error) {
	p.mu.Lock()
	p.count++
	p.mu.Unlock()
	return perception.NewSnapshot(surf.URL(), surf.Title(), []*perception.Node{
		{ID: 1, Tag: "button", Text: "Go", Interactive: true, Marker: 1},
	}), nil
}

type fixture struct {
	provider   *queueProvider
	perceiver  *countingPerceiver
	sessions   int
	sessionsMu sync.Mutex
	orch       *Orchestrator
}

func newFixture(provider *queueProvider) *fixture {
	f := &fixture{provider: provider, perceiver: &countingPerceiver{}}
	f.orch = New(Options{
		Provider:  provider,
		Perceiver: f.perceiver,
		Registry:  actions.NewRegistry(),
		Agent:     config.Default().Agent,
		Sessions: func(pathID string) (agent.Session, func(), error) {
			f.sessionsMu.Lock()
			f.sessions++
			f.sessionsMu.Unlock()
			return &orchSession{surface: &orchSurface{url: "https://example.com"}}, func() {}, nil
		},
	})
	return f
}

// drainEvents collects everything emitted for the current goal.
func drainEvents(t *testing.T, o *Orchestrator) []*types.Event {
	t.Helper()
	var events []*types.Event
	for {
		select {
		case e := <-o.Events():
			events = append(events, e)
		case <-o.Done():
			for {
				select {
				case e := <-o.Events():
					events = append(events, e)
				default:
					return events
				}
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for goal to finish")
		}
	}
}

func eventsOfType(events []*types.Event, et types.EventType) []*types.Event {
	var out []*types.Event
	for _, e := range events {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

func TestNonBrowsingGoalStreamsDirectAnswer(t *testing.T) {
	provider := &queueProvider{
		generations: []*llm.Generation{textGen(`{"browse": false}`)},
		streamText:  []string{"Paris is ", "the capital of France."},
	}
	f := newFixture(provider)

	require.NoError(t, f.orch.Start(context.Background(), "What is the capital of France?"))
	events := drainEvents(t, f.orch)

	plan := f.orch.Plan()
	require.NotNil(t, plan)
	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, graph.TaskStatusCompleted, plan.Tasks[0].Status)
	assert.Equal(t, "Paris is the capital of France.", plan.Tasks[0].Result)
	assert.Equal(t, graph.PlanStatusCompleted, plan.Status)

	assert.Len(t, eventsOfType(events, types.EventTypeResultStream), 2)
	assert.Equal(t, 0, f.perceiver.count, "non-browsing goals must never perceive")
	assert.Equal(t, 0, f.sessions, "non-browsing goals must not allocate surfaces")
}

func TestBrowsingGoalProposesPlanAndWaitsForApproval(t *testing.T) {
	provider := &queueProvider{
		generations: []*llm.Generation{
			textGen(`{"browse": true}`),
			textGen(`{"steps": ["open the releases page", "read the latest version"]}`),
		},
	}
	f := newFixture(provider)

	require.NoError(t, f.orch.Start(context.Background(), "find the latest Go version"))

	plan := f.orch.Plan()
	require.NotNil(t, plan)
	assert.Equal(t, graph.PlanStatusPending, plan.Status)
	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, []string{plan.Tasks[0].ID}, plan.Tasks[1].Dependencies)

	select {
	case e := <-f.orch.Events():
		assert.Equal(t, types.EventTypePlan, e.Type)
	default:
		t.Fatal("expected a plan event")
	}
}

func TestApprovedPlanRunsTasksInOrder(t *testing.T) {
	provider := &queueProvider{
		generations: []*llm.Generation{
			textGen(`{"browse": true}`),
			textGen(`{"steps": ["first task", "second task"]}`),
			toolGen("done", map[string]interface{}{"success": true, "summary": "first result"}),
			toolGen("done", map[string]interface{}{"success": true, "summary": "second result"}),
		},
		streamText: []string{"both tasks finished"},
	}
	f := newFixture(provider)

	require.NoError(t, f.orch.Start(context.Background(), "two step goal"))
	require.NoError(t, f.orch.ApprovePlan(context.Background()))
	events := drainEvents(t, f.orch)

	plan := f.orch.Plan()
	assert.Equal(t, graph.PlanStatusCompleted, plan.Status)
	for _, task := range plan.Tasks {
		assert.Equal(t, graph.TaskStatusCompleted, task.Status)
	}
	assert.Equal(t, "first result", plan.Tasks[0].Result)
	assert.Equal(t, "second result", plan.Tasks[1].Result)
	assert.Equal(t, 1, f.sessions, "a linear plan is one path, one session")

	streamed := eventsOfType(events, types.EventTypeResultStream)
	require.NotEmpty(t, streamed)
	assert.Equal(t, "both tasks finished", streamed[0].Content)
}

func TestTaskFailureCascadesDownThePath(t *testing.T) {
	provider := &queueProvider{
		generations: []*llm.Generation{
			textGen(`{"browse": true}`),
			textGen(`{"steps": ["log in", "read the dashboard"]}`),
			toolGen("done", map[string]interface{}{"success": false, "summary": "login requires 2FA"}),
		},
		streamText: []string{"could not finish: login requires 2FA"},
	}
	f := newFixture(provider)

	require.NoError(t, f.orch.Start(context.Background(), "read my dashboard"))
	require.NoError(t, f.orch.ApprovePlan(context.Background()))
	events := drainEvents(t, f.orch)

	plan := f.orch.Plan()
	assert.Equal(t, graph.TaskStatusFailed, plan.Tasks[0].Status)
	assert.Equal(t, "login requires 2FA", plan.Tasks[0].Error)
	assert.Equal(t, graph.TaskStatusFailed, plan.Tasks[1].Status)
	assert.Equal(t, "upstream task failed", plan.Tasks[1].Error)

	// The second task never ran: one loop's worth of perception only.
	assert.Equal(t, 1, f.perceiver.count)

	// The final answer still streams, referencing the partial outcome.
	require.NotEmpty(t, eventsOfType(events, types.EventTypeResultStream))
	assert.Equal(t, graph.PlanStatusCompleted, plan.Status)
}

func TestRevisePlanReplacesPendingPlan(t *testing.T) {
	provider := &queueProvider{
		generations: []*llm.Generation{
			textGen(`{"browse": true}`),
			textGen(`{"steps": ["search the web"]}`),
			textGen(`{"steps": ["search the docs", "summarize findings"]}`),
		},
	}
	f := newFixture(provider)

	require.NoError(t, f.orch.Start(context.Background(), "research topic"))
	first := f.orch.Plan()
	require.Len(t, first.Tasks, 1)

	require.NoError(t, f.orch.RevisePlan(context.Background(), "also check the docs"))
	revised := f.orch.Plan()
	require.Len(t, revised.Tasks, 2)
	assert.NotEqual(t, first.ID, revised.ID)
	assert.Equal(t, graph.PlanStatusPending, revised.Status)
}

func TestApproveWithoutPendingPlanFails(t *testing.T) {
	f := newFixture(&queueProvider{})
	assert.Error(t, f.orch.ApprovePlan(context.Background()))
	assert.Error(t, f.orch.RevisePlan(context.Background(), "feedback"))
}

func TestSessionAllocationFailureFailsOnlyThatPath(t *testing.T) {
	provider := &queueProvider{
		generations: []*llm.Generation{
			textGen(`{"browse": true}`),
			textGen(`{"steps": ["only task"]}`),
		},
		streamText: []string{"nothing could be done"},
	}
	f := newFixture(provider)
	f.orch.sessions = func(string) (agent.Session, func(), error) {
		return nil, nil, errors.New("browser exploded")
	}

	require.NoError(t, f.orch.Start(context.Background(), "doomed goal"))
	require.NoError(t, f.orch.ApprovePlan(context.Background()))
	events := drainEvents(t, f.orch)

	plan := f.orch.Plan()
	assert.Equal(t, graph.TaskStatusFailed, plan.Tasks[0].Status)
	require.NotEmpty(t, eventsOfType(events, types.EventTypeError))
	assert.Equal(t, graph.PlanStatusCompleted, plan.Status, "aggregation still runs")
}
