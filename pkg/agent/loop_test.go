package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/actions"
	"github.com/webpilot-ai/webpilot/pkg/graph"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/memory"
	"github.com/webpilot-ai/webpilot/pkg/perception"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// scriptedProvider replays canned generations; the last one repeats
// once the script runs out.
type scriptedProvider struct {
	generations []*llm.Generation
	calls       int
	err         error
}

func (p *scriptedProvider) Generate(context.Context, []*types.Message, *llm.GenerateOptions) (*llm.Generation, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.calls++
	idx := p.calls - 1
	if idx >= len(p.generations) {
		idx = len(p.generations) - 1
	}
	return p.generations[idx], nil
}

func (p *scriptedProvider) Stream(context.Context, []*types.Message) (<-chan *llm.StreamChunk, error) {
	ch := make(chan *llm.StreamChunk)
	close(ch)
	return ch, nil
}

// loopSurface is an in-memory Surface.
type loopSurface struct {
	id     string
	url    string
	clicks int
}

func (s *loopSurface) ID() string                                 { return s.id }
func (s *loopSurface) URL() string                                { return s.url }
func (s *loopSurface) Title() string                              { return "Test Page" }
func (s *loopSurface) Navigate(_ context.Context, u string) error { s.url = u; return nil }
func (s *loopSurface) Back(context.Context) error                 { return nil }
func (s *loopSurface) Refresh(context.Context) error              { return nil }
func (s *loopSurface) Screenshot(context.Context) ([]byte, error) { return []byte("png"), nil }
func (s *loopSurface) Evaluate(context.Context, string) (interface{}, error) {
	return "<html></html>", nil
}
func (s *loopSurface) Click(context.Context, string) error         { s.clicks++; return nil }
func (s *loopSurface) Fill(context.Context, string, string) error  { return nil }
func (s *loopSurface) Press(context.Context, string, string) error { return nil }
func (s *loopSurface) Scroll(context.Context, float64) error       { return nil }
func (s *loopSurface) WaitForSettle(context.Context)               {}

// loopSession tracks tab management calls.
type loopSession struct {
	surface   *loopSurface
	switched  []string
	closed    []string
	cleanups  int
	activeErr error
}

func (s *loopSession) Active() (Surface, error) {
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	return s.surface, nil
}

func (s *loopSession) Surfaces() []SurfaceInfo {
	return []SurfaceInfo{{ID: s.surface.id, URL: s.surface.url, Title: "Test Page", Active: true}}
}

func (s *loopSession) SwitchTo(id string) error     { s.switched = append(s.switched, id); return nil }
func (s *loopSession) CloseSurface(id string) error { s.closed = append(s.closed, id); return nil }
func (s *loopSession) CleanupSecondary()            { s.cleanups++ }

// fakePerceiver returns a fixed two-element snapshot, optionally
// failing the first n captures.
type fakePerceiver struct {
	failures  int
	snapshots int
}

func (p *fakePerceiver) Snapshot(_ context.Context, surf perception.Surface) (*perception.Snapshot, error) {
	if p.failures > 0 {
		p.failures--
		return nil, errors.New("surface mid-navigation")
	}
	p.snapshots++
	return perception.NewSnapshot(surf.URL(), surf.Title(), []*perception.Node{
		{ID: 1, Tag: "button", Text: "One", Interactive: true, Marker: 11},
		{ID: 2, Tag: "button", Text: "Two", Interactive: true, Marker: 22},
	}), nil
}

func callGen(name string, args map[string]interface{}) *llm.Generation {
	return &llm.Generation{
		Text:      "thinking about " + name,
		ToolCalls: []llm.ToolCall{{Name: name, Arguments: args}},
	}
}

func doneGen(success bool, summary string) *llm.Generation {
	return callGen("done", map[string]interface{}{"success": success, "summary": summary})
}

type loopFixture struct {
	provider  *scriptedProvider
	session   *loopSession
	perceiver *fakePerceiver
	events    []*types.Event
	loop      *Loop
}

func newLoopFixture(t *testing.T, provider *scriptedProvider, maxSteps int) *loopFixture {
	t.Helper()
	f := &loopFixture{
		provider:  provider,
		session:   &loopSession{surface: &loopSurface{id: "tab-1", url: "https://example.com"}},
		perceiver: &fakePerceiver{},
	}
	f.loop = NewLoop(Options{
		Provider:  provider,
		Perceiver: f.perceiver,
		Registry:  actions.NewRegistry(),
		Session:   f.session,
		Memory:    memory.NewConversation(provider, memory.Options{}),
		Emit:      func(e *types.Event) { f.events = append(f.events, e) },
		MaxSteps:  maxSteps,
	})
	return f
}

func (f *loopFixture) eventTypes() []types.EventType {
	out := make([]types.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func TestLoopEndsOnCompletionCall(t *testing.T) {
	f := newLoopFixture(t, &scriptedProvider{generations: []*llm.Generation{
		doneGen(true, "found the release date: February 2025"),
	}}, 25)

	outcome, err := f.loop.Run(context.Background(), graph.NewTask("find the release date"))
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, "found the release date: February 2025", outcome.Summary)
	assert.Equal(t, 1, outcome.Steps)
	assert.Equal(t, 1, f.session.cleanups)
	assert.Contains(t, f.eventTypes(), types.EventTypeThought)
}

func TestLoopCompletionWithDeclaredFailure(t *testing.T) {
	f := newLoopFixture(t, &scriptedProvider{generations: []*llm.Generation{
		doneGen(false, "the page requires a login"),
	}}, 25)

	outcome, err := f.loop.Run(context.Background(), graph.NewTask("read the dashboard"))
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, "the page requires a login", outcome.Summary)
}

func TestLoopExhaustsStepBudget(t *testing.T) {
	f := newLoopFixture(t, &scriptedProvider{generations: []*llm.Generation{
		callGen("extract_content", nil),
	}}, 3)

	outcome, err := f.loop.Run(context.Background(), graph.NewTask("keep reading"))
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, "max steps reached", outcome.Summary)
	assert.Equal(t, 3, outcome.Steps)
	assert.Equal(t, 3, f.perceiver.snapshots)
}

func TestLoopAbortsOnRepetition(t *testing.T) {
	f := newLoopFixture(t, &scriptedProvider{generations: []*llm.Generation{
		callGen("click", map[string]interface{}{"element": 1.0}),
	}}, 25)

	outcome, err := f.loop.Run(context.Background(), graph.NewTask("click forever"))
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Summary, "stuck in a loop")
	assert.Equal(t, repetitionThreshold, f.session.surface.clicks)
}

func TestLoopAbortsOnOscillation(t *testing.T) {
	f := newLoopFixture(t, &scriptedProvider{generations: []*llm.Generation{
		callGen("click", map[string]interface{}{"element": 1.0}),
		callGen("click", map[string]interface{}{"element": 2.0}),
		callGen("click", map[string]interface{}{"element": 1.0}),
		callGen("click", map[string]interface{}{"element": 2.0}),
	}}, 25)

	outcome, err := f.loop.Run(context.Background(), graph.NewTask("toggle forever"))
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Summary, "alternating clicks")
	assert.Equal(t, 4, outcome.Steps)
}

func TestLoopRetriesPerceptionOnceThenFails(t *testing.T) {
	recovered := newLoopFixture(t, &scriptedProvider{generations: []*llm.Generation{
		doneGen(true, "done"),
	}}, 25)
	recovered.perceiver.failures = 1

	_, err := recovered.loop.Run(context.Background(), graph.NewTask("transient failure"))
	assert.NoError(t, err, "a single transient failure must be retried")

	failing := newLoopFixture(t, &scriptedProvider{generations: []*llm.Generation{
		doneGen(true, "done"),
	}}, 25)
	failing.perceiver.failures = 2

	_, err = failing.loop.Run(context.Background(), graph.NewTask("persistent failure"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "perception failed")
	assert.Equal(t, 1, failing.session.cleanups, "cleanup runs even on failure")
}

func TestLoopHandlesTabCallsDirectly(t *testing.T) {
	f := newLoopFixture(t, &scriptedProvider{generations: []*llm.Generation{
		callGen("switch_tab", map[string]interface{}{"tab": "tab-2"}),
		callGen("close_tab", map[string]interface{}{"tab": "tab-2"}),
		doneGen(true, "tabs managed"),
	}}, 25)

	outcome, err := f.loop.Run(context.Background(), graph.NewTask("manage tabs"))
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, []string{"tab-2"}, f.session.switched)
	assert.Equal(t, []string{"tab-2"}, f.session.closed)
}

func TestLoopFailsTaskWhenReasonerFails(t *testing.T) {
	f := newLoopFixture(t, &scriptedProvider{err: fmt.Errorf("rate limited")}, 25)

	_, err := f.loop.Run(context.Background(), graph.NewTask("never reasons"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reasoning failed")
}

func TestLoopStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newLoopFixture(t, &scriptedProvider{generations: []*llm.Generation{
		doneGen(true, "never reached"),
	}}, 25)

	_, err := f.loop.Run(ctx, graph.NewTask("cancelled"))
	assert.ErrorIs(t, err, context.Canceled)
}
