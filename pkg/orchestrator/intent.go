package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/graph"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

const intentPrompt = `Decide whether answering the user's goal requires browsing the live web (visiting pages, reading current content, interacting with sites), or can be answered directly from general knowledge.

Respond with JSON: {"browse": true} or {"browse": false}.`

type intentResponse struct {
	Browse bool `json:"browse"`
}

// needsBrowsing runs the boolean intent classification. Any failure
// defaults to browsing, which is always safe, just slower.
func (o *Orchestrator) needsBrowsing(ctx context.Context, goal string) bool {
	gen, err := o.provider.Generate(ctx, []*types.Message{
		types.NewSystemMessage(intentPrompt),
		types.NewUserMessage(goal),
	}, &llm.GenerateOptions{JSONOutput: true})
	if err != nil {
		orchLog.Warnf("intent classification failed, assuming browsing: %v", err)
		return true
	}

	var resp intentResponse
	text := gen.Text
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		orchLog.Warnf("malformed intent response %q, assuming browsing", gen.Text)
		return true
	}
	return resp.Browse
}

// answerDirectly streams a direct answer for a non-browsing goal and
// records a single synthetic completed task so every goal leaves a
// consistent plan behind. No surface is allocated and no perception
// runs on this route.
func (o *Orchestrator) answerDirectly(ctx context.Context, goal string) error {
	plan := graph.NewPlan(goal, []string{goal})
	task := plan.Tasks[0]

	o.mu.Lock()
	o.plan = plan
	o.running = true
	o.done = make(chan struct{})
	o.mu.Unlock()

	go func() {
		defer o.finish(plan)

		chunks, err := o.provider.Stream(ctx, []*types.Message{
			types.NewSystemMessage("You are WebPilot, a helpful assistant. Answer the user's question directly and concisely."),
			types.NewUserMessage(goal),
		})
		if err != nil {
			task.Status = graph.TaskStatusFailed
			task.Error = err.Error()
			o.emit(types.NewErrorEvent(fmt.Errorf("direct answer failed: %w", err)))
			return
		}

		var sb strings.Builder
		for chunk := range chunks {
			if chunk.IsError() {
				task.Status = graph.TaskStatusFailed
				task.Error = chunk.Err.Error()
				o.emit(types.NewErrorEvent(chunk.Err))
				return
			}
			if chunk.Content != "" {
				sb.WriteString(chunk.Content)
				o.emit(types.NewResultStreamEvent(chunk.Content))
			}
		}

		task.Status = graph.TaskStatusCompleted
		task.Result = sb.String()
		o.emit(types.NewResultEvent(task.ID, task.Result))
	}()
	return nil
}
