package agent

import (
	"fmt"
	"strings"
)

// recordResultCap bounds how much of an action result is kept in the
// loop-local log; the full text still goes to conversation memory.
const recordResultCap = 200

// ActionRecord is one dispatched action in the loop-local log. The
// detectors and the recent-history prompt section both read from it.
type ActionRecord struct {
	Step    int
	Action  string
	Target  string
	Success bool
	Result  string
}

func newActionRecord(step int, action, target string, success bool, result string) ActionRecord {
	result = strings.Join(strings.Fields(result), " ")
	if len(result) > recordResultCap {
		result = result[:recordResultCap] + "…"
	}
	return ActionRecord{
		Step:    step,
		Action:  action,
		Target:  target,
		Success: success,
		Result:  result,
	}
}

// formatRecords renders the most recent n records for the prompt.
func formatRecords(records []ActionRecord, n int) string {
	if len(records) == 0 {
		return "(none yet)"
	}
	if len(records) > n {
		records = records[len(records)-n:]
	}

	var sb strings.Builder
	for _, r := range records {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&sb, "step %d: %s", r.Step, r.Action)
		if r.Target != "" {
			fmt.Fprintf(&sb, " %s", r.Target)
		}
		fmt.Fprintf(&sb, " -> %s", status)
		if r.Result != "" {
			fmt.Fprintf(&sb, ": %s", r.Result)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
