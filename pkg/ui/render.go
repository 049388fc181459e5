package ui

import (
	"fmt"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// Banner renders the startup header.
func Banner() string {
	return headerStyle.Render(`
	██╗    ██╗███████╗██████╗ ██████╗ ██╗██╗      ██████╗ ████████╗
	██║    ██║██╔════╝██╔══██╗██╔══██╗██║██║     ██╔═══██╗╚══██╔══╝
	██║ █╗ ██║█████╗  ██████╔╝██████╔╝██║██║     ██║   ██║   ██║
	██║███╗██║██╔══╝  ██╔══██╗██╔═══╝ ██║██║     ██║   ██║   ██║
	╚███╔███╔╝███████╗██████╔╝██║     ██║███████╗╚██████╔╝   ██║
	 ╚══╝╚══╝ ╚══════╝╚═════╝ ╚═╝     ╚═╝╚══════╝ ╚═════╝    ╚═╝`)
}

// Prompt styles an interactive prompt line.
func Prompt(text string) string {
	return promptStyle.Render(text)
}

// RenderEvent formats one event for terminal output. Stream deltas come
// back unterminated so the host can print them inline; everything else
// is a complete line.
func RenderEvent(e *types.Event) string {
	switch e.Type {
	case types.EventTypePlan:
		return renderPlan(e)
	case types.EventTypeThought:
		return thoughtStyle.Render("  "+e.Content) + "\n"
	case types.EventTypeAction:
		return actionStyle.Render(fmt.Sprintf("  > %s %s", e.ActionName, e.Target)) + "\n"
	case types.EventTypeResult:
		if e.Content == "" {
			return ""
		}
		return resultStyle.Render(indent(e.Content, "  ")) + "\n"
	case types.EventTypeResultStream:
		return streamStyle.Render(e.Content)
	case types.EventTypeError:
		if e.Err != nil {
			return errorStyle.Render("  error: "+e.Err.Error()) + "\n"
		}
		return errorStyle.Render("  error: "+e.Content) + "\n"
	case types.EventTypeCodePreview:
		return thoughtStyle.Render(indent(e.Content, "  | ")) + "\n"
	default:
		return ""
	}
}

func renderPlan(e *types.Event) string {
	var sb strings.Builder
	sb.WriteString(planStyle.Render("Proposed plan:"))
	sb.WriteString("\n")

	steps, _ := e.Metadata["steps"].([]string)
	if len(steps) == 0 {
		sb.WriteString(planStyle.Render(indent(e.Content, "  ")))
		sb.WriteString("\n")
		return sb.String()
	}
	for i, step := range steps {
		sb.WriteString(planStyle.Render(fmt.Sprintf("  %d. %s", i+1, step)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
