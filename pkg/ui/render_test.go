package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

func TestRenderPlanNumbersSteps(t *testing.T) {
	e := types.NewPlanEvent("plan-1", []string{"open the page", "read the headline"})
	out := RenderEvent(e)

	if !strings.Contains(out, "1. open the page") {
		t.Errorf("expected numbered first step, got:\n%s", out)
	}
	if !strings.Contains(out, "2. read the headline") {
		t.Errorf("expected numbered second step, got:\n%s", out)
	}
}

func TestRenderActionShowsNameAndTarget(t *testing.T) {
	out := RenderEvent(types.NewActionEvent("task-1", "click", "element:7"))
	if !strings.Contains(out, "click element:7") {
		t.Errorf("expected action name and target, got: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("action lines should be newline terminated")
	}
}

func TestRenderStreamDeltaIsInline(t *testing.T) {
	out := RenderEvent(types.NewResultStreamEvent("partial "))
	if strings.HasSuffix(out, "\n") {
		t.Errorf("stream deltas must not be newline terminated, got: %q", out)
	}
	if !strings.Contains(out, "partial ") {
		t.Errorf("expected delta content, got: %q", out)
	}
}

func TestRenderErrorPrefersErrField(t *testing.T) {
	out := RenderEvent(types.NewErrorEvent(errors.New("surface gone")))
	if !strings.Contains(out, "surface gone") {
		t.Errorf("expected error text, got: %q", out)
	}
}

func TestRenderEmptyResultProducesNothing(t *testing.T) {
	if out := RenderEvent(types.NewResultEvent("task-1", "")); out != "" {
		t.Errorf("expected empty output, got: %q", out)
	}
}

func TestRenderMultilineResultIndentsEveryLine(t *testing.T) {
	out := RenderEvent(types.NewResultEvent("task-1", "line one\nline two"))
	for _, want := range []string{"  line one", "  line two"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}
