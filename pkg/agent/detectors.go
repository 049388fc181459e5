package agent

import "fmt"

const (
	// repetitionThreshold aborts a task on the Nth identical action.
	repetitionThreshold = 4

	// oscillationWindow is how many trailing clicks the alternation
	// check inspects.
	oscillationWindow = 4
)

// detectRepetition reports whether any (action, target) pair has been
// dispatched repetitionThreshold times. It fires on the occurrence
// that reaches the threshold, not after it.
func detectRepetition(records []ActionRecord) (string, bool) {
	counts := make(map[string]int, len(records))
	for _, r := range records {
		key := r.Action + "\x00" + r.Target
		counts[key]++
		if counts[key] >= repetitionThreshold {
			return fmt.Sprintf("action %s on %q repeated %d times", r.Action, r.Target, counts[key]), true
		}
	}
	return "", false
}

// detectOscillation reports whether the last oscillationWindow clicks
// alternate between exactly two distinct targets (A,B,A,B).
func detectOscillation(records []ActionRecord) bool {
	var clicks []string
	for _, r := range records {
		if r.Action == "click" {
			clicks = append(clicks, r.Target)
		}
	}
	if len(clicks) < oscillationWindow {
		return false
	}

	tail := clicks[len(clicks)-oscillationWindow:]
	a, b := tail[0], tail[1]
	if a == b {
		return false
	}
	for i, target := range tail {
		if i%2 == 0 && target != a {
			return false
		}
		if i%2 == 1 && target != b {
			return false
		}
	}
	return true
}
