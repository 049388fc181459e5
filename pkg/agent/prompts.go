package agent

import (
	"fmt"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/perception"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// recentRecordCount is how many log entries the state message shows.
const recentRecordCount = 8

// systemInstructions is re-supplied on every iteration so the core
// protocol can never be summarized out of the context window.
const systemInstructions = `You are WebPilot, an autonomous web browsing agent. You complete one task at a time by observing the page and taking actions.

How observation works:
- You receive a screenshot of the page with numbered boxes drawn around interactive elements, plus a list of those elements in the form [N] <tag> text.
- Element numbers are only valid for the current observation. After the page changes, wait for the next observation and use the new numbers.

How to act:
- Respond with your reasoning, then call exactly one action per turn.
- Use element numbers from the CURRENT observation only.
- If an action fails, read the error, reconsider, and try a different approach instead of repeating it.
- Never repeat the same action on the same target if it did not change anything. Trying the same thing more than twice means you are stuck and must change strategy.
- Prefer extract_content over reading the element list when you need the text of an article or a results page.
- Use switch_tab when a link opened a new tab you are done with, and close_tab to discard it.

Finishing:
- When the task is complete, call done with success true and a summary that includes every piece of information the task asked for.
- If the task cannot be completed, call done with success false and explain what blocked you.
- Do not call done before you have verified the result on the page.`

// buildStateMessage assembles the per-iteration observation: current
// page, open tabs, interactive elements, and recent history, with the
// annotated screenshot attached for the vision model.
func buildStateMessage(task string, snap *perception.Snapshot, surfaces []SurfaceInfo, records []ActionRecord) *types.Message {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Current task: %s\n\n", task)
	fmt.Fprintf(&sb, "Page: %s (%s)\n", snap.Title, snap.URL)

	if len(surfaces) > 1 {
		sb.WriteString("Open tabs:\n")
		for _, s := range surfaces {
			active := ""
			if s.Active {
				active = " (active)"
			}
			fmt.Fprintf(&sb, "  %s%s: %s (%s)\n", s.ID, active, s.Title, s.URL)
		}
	}

	sb.WriteString("\nInteractive elements:\n")
	sb.WriteString(formatInteractive(snap.InteractiveNodes()))

	sb.WriteString("\n\nRecent actions:\n")
	sb.WriteString(formatRecords(records, recentRecordCount))

	msg := types.NewUserMessage(sb.String())
	if len(snap.Annotated) > 0 {
		msg = msg.WithImage(snap.Annotated)
	}
	return msg
}

// formatInteractive renders the reduced element list: numbers, tags,
// and just enough attributes to tell similar elements apart.
func formatInteractive(nodes []*perception.Node) string {
	if len(nodes) == 0 {
		return "(none visible)"
	}

	var sb strings.Builder
	for _, n := range nodes {
		fmt.Fprintf(&sb, "[%d] <%s>", n.ID, n.Tag)
		if n.Text != "" {
			sb.WriteString(" " + n.Text)
		}
		writeAttr(&sb, "type", n.Type)
		writeAttr(&sb, "role", n.Role)
		writeAttr(&sb, "aria-label", n.AriaLabel)
		writeAttr(&sb, "placeholder", n.Placeholder)
		writeAttr(&sb, "value", n.Value)
		writeAttr(&sb, "href", n.Href)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeAttr(sb *strings.Builder, name, value string) {
	if value != "" {
		fmt.Fprintf(sb, " (%s=%q)", name, value)
	}
}
