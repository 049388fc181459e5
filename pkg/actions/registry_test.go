package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/perception"
)

// snapshotWithButton builds a one-element view whose element [1]
// re-resolves through the given marker.
func snapshotWithButton(t *testing.T, marker int) *perception.Snapshot {
	t.Helper()
	return perception.NewSnapshot("https://example.com", "Example", []*perception.Node{
		{ID: 1, Tag: "button", Text: "Go", Interactive: true, Marker: marker},
	})
}

// fakeSurface records interactions and returns scripted results.
type fakeSurface struct {
	url      string
	title    string
	html     string
	clicks   []string
	fills    map[string]string
	presses  []string
	scrolls  []float64
	failWith error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		url:   "https://example.com",
		title: "Example",
		fills: make(map[string]string),
	}
}

func (f *fakeSurface) URL() string   { return f.url }
func (f *fakeSurface) Title() string { return f.title }

func (f *fakeSurface) Navigate(_ context.Context, url string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.url = url
	return nil
}

func (f *fakeSurface) Back(context.Context) error    { return f.failWith }
func (f *fakeSurface) Refresh(context.Context) error { return f.failWith }

func (f *fakeSurface) Evaluate(context.Context, string) (interface{}, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.html, nil
}

func (f *fakeSurface) Click(_ context.Context, selector string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.clicks = append(f.clicks, selector)
	return nil
}

func (f *fakeSurface) Fill(_ context.Context, selector, value string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.fills[selector] = value
	return nil
}

func (f *fakeSurface) Press(_ context.Context, selector, key string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.presses = append(f.presses, selector+":"+key)
	return nil
}

func (f *fakeSurface) Scroll(_ context.Context, deltaY float64) error {
	f.scrolls = append(f.scrolls, deltaY)
	return nil
}

func TestRegistryContainsClosedActionSet(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{
		"navigate", "click", "type_text", "press_key", "scroll",
		"go_back", "refresh", "extract_content", "wait", "done",
	}, r.Names())

	defs := r.Definitions()
	require.Len(t, defs, 10)
	for _, def := range defs {
		assert.NotEmpty(t, def.Name)
		assert.NotEmpty(t, def.Description)
		assert.Equal(t, "object", def.Schema["type"])
	}
}

func TestDispatchUnknownActionFailsWithKnownNames(t *testing.T) {
	r := NewRegistry()
	result := r.Dispatch(context.Background(), "teleport", nil, &Context{Surface: newFakeSurface()})

	assert.False(t, result.Success)
	assert.Contains(t, result.Output, `unknown action "teleport"`)
	assert.Contains(t, result.Output, "navigate")
}

func TestDispatchConvertsErrorsToFailedResults(t *testing.T) {
	r := NewRegistry()
	surf := newFakeSurface()
	surf.failWith = errors.New("net::ERR_NAME_NOT_RESOLVED")

	result := r.Dispatch(context.Background(), "navigate",
		map[string]interface{}{"url": "https://nope.invalid"}, &Context{Surface: surf})

	assert.False(t, result.Success)
	assert.Contains(t, result.Output, "ERR_NAME_NOT_RESOLVED")
}

func TestDispatchRecoversPanics(t *testing.T) {
	r := NewRegistry()
	// A nil surface makes every browser-touching action panic.
	result := r.Dispatch(context.Background(), "go_back", nil, &Context{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Output, "failed unexpectedly")
}

func TestNavigateAddsProtocolWhenMissing(t *testing.T) {
	r := NewRegistry()
	surf := newFakeSurface()

	result := r.Dispatch(context.Background(), "navigate",
		map[string]interface{}{"url": "example.org/page"}, &Context{Surface: surf})

	require.True(t, result.Success, result.Output)
	assert.Equal(t, "https://example.org/page", surf.url)
}

func TestElementActionsResolveThroughSnapshot(t *testing.T) {
	snap := snapshotWithButton(t, 7)
	surf := newFakeSurface()
	actx := &Context{Surface: surf, Snapshot: snap}
	r := NewRegistry()

	result := r.Dispatch(context.Background(), "click",
		map[string]interface{}{"element": 1.0}, actx)

	require.True(t, result.Success, result.Output)
	require.Len(t, surf.clicks, 1)
	assert.Equal(t, `[data-wp-marker="7"]`, surf.clicks[0])
}

func TestStaleElementIDFailsReadably(t *testing.T) {
	snap := snapshotWithButton(t, 7)
	r := NewRegistry()

	result := r.Dispatch(context.Background(), "click",
		map[string]interface{}{"element": 99.0},
		&Context{Surface: newFakeSurface(), Snapshot: snap})

	assert.False(t, result.Success)
	assert.Contains(t, result.Output, "not in the current view")
}

func TestTypeTextFillsAndOptionallySubmits(t *testing.T) {
	snap := snapshotWithButton(t, 3)
	surf := newFakeSurface()
	r := NewRegistry()

	result := r.Dispatch(context.Background(), "type_text",
		map[string]interface{}{"element": 1.0, "text": "golang playwright", "submit": true},
		&Context{Surface: surf, Snapshot: snap})

	require.True(t, result.Success, result.Output)
	assert.Equal(t, "golang playwright", surf.fills[`[data-wp-marker="3"]`])
	require.Len(t, surf.presses, 1)
	assert.Equal(t, `[data-wp-marker="3"]:Enter`, surf.presses[0])
}

func TestScrollDirectionControlsSign(t *testing.T) {
	surf := newFakeSurface()
	r := NewRegistry()
	actx := &Context{Surface: surf}

	require.True(t, r.Dispatch(context.Background(), "scroll",
		map[string]interface{}{"direction": "down"}, actx).Success)
	require.True(t, r.Dispatch(context.Background(), "scroll",
		map[string]interface{}{"direction": "up", "amount": 200.0}, actx).Success)

	require.Len(t, surf.scrolls, 2)
	assert.Equal(t, float64(defaultScrollPixels), surf.scrolls[0])
	assert.Equal(t, -200.0, surf.scrolls[1])
}

func TestDoneEchoesSummary(t *testing.T) {
	r := NewRegistry()
	result := r.Dispatch(context.Background(), "done",
		map[string]interface{}{"success": true, "summary": "found the answer: 42"},
		&Context{})

	require.True(t, result.Success)
	assert.Equal(t, "found the answer: 42", result.Output)

	action, ok := r.Lookup("done")
	require.True(t, ok)
	assert.True(t, action.Terminal())
}

func TestTargetOf(t *testing.T) {
	cases := []struct {
		name   string
		action string
		args   map[string]interface{}
		want   string
	}{
		{"click element", "click", map[string]interface{}{"element": 4.0}, "element:4"},
		{"type element", "type_text", map[string]interface{}{"element": 2.0, "text": "x"}, "element:2"},
		{"navigate url", "navigate", map[string]interface{}{"url": "https://a.example"}, "https://a.example"},
		{"scroll direction", "scroll", map[string]interface{}{"direction": "up"}, "up"},
		{"no target", "extract_content", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TargetOf(tc.action, tc.args))
		})
	}
}
