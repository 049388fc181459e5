// Package planner turns a natural-language goal into an ordered list of
// subgoal descriptions, and revises that list given feedback.
//
// Planner output is requested as structured JSON. A malformed response
// degrades to a single step wrapping the raw goal
// (or, on re-plan, to the unchanged current steps) and is never fatal.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

var plannerLog *logging.Logger

func init() {
	var err error
	plannerLog, err = logging.NewLogger("planner")
	if err != nil {
		plannerLog.Warnf("Failed to initialize planner logger, using stderr fallback: %v", err)
	}
}

// Planner decomposes goals into step lists using the LLM provider.
type Planner struct {
	provider llm.Provider
}

// New creates a planner backed by the given provider.
func New(provider llm.Provider) *Planner {
	return &Planner{provider: provider}
}

// planResponse is the structured shape requested from the model.
type planResponse struct {
	Steps []string `json:"steps"`
}

// MakePlan produces ordered subgoal descriptions for the goal.
// pageSummary is an optional coarse description of the current page and
// may be empty on a fresh turn. Never fails: parse errors degrade to a
// single step wrapping the raw goal.
func (p *Planner) MakePlan(ctx context.Context, goal, pageSummary string) []string {
	prompt := buildPlanPrompt(goal, pageSummary)

	steps, err := p.requestSteps(ctx, prompt)
	if err != nil {
		plannerLog.Warnf("plan generation degraded to single-task fallback: %v", err)
		return []string{goal}
	}
	return steps
}

// RePlan revises the current steps given user feedback. On any failure
// the current steps are returned unchanged.
func (p *Planner) RePlan(ctx context.Context, goal string, currentSteps []string, feedback string) []string {
	prompt := buildRePlanPrompt(goal, currentSteps, feedback)

	steps, err := p.requestSteps(ctx, prompt)
	if err != nil {
		plannerLog.Warnf("re-plan failed, keeping current steps: %v", err)
		return currentSteps
	}
	return steps
}

// requestSteps runs one structured-output generation and parses the
// step list out of it.
func (p *Planner) requestSteps(ctx context.Context, prompt string) ([]string, error) {
	messages := []*types.Message{
		types.NewSystemMessage(
			"You are a planning assistant for a browser automation agent. " +
				"You decompose goals into short, concrete browsing steps. " +
				"Respond with JSON only.",
		),
		types.NewUserMessage(prompt),
	}

	gen, err := p.provider.Generate(ctx, messages, &llm.GenerateOptions{JSONOutput: true})
	if err != nil {
		return nil, fmt.Errorf("planner generation failed: %w", err)
	}

	steps, err := parseSteps(gen.Text)
	if err != nil {
		return nil, fmt.Errorf("planner output unparseable: %w", err)
	}
	return steps, nil
}

// parseSteps extracts the step list from model output. The model is
// asked for a bare JSON object, but fenced or prefixed output is common
// enough that the first {...} span is tried as a fallback.
func parseSteps(text string) ([]string, error) {
	var resp planResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("no JSON object in planner output")
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
			return nil, fmt.Errorf("invalid planner JSON: %w", err)
		}
	}

	steps := make([]string, 0, len(resp.Steps))
	for _, s := range resp.Steps {
		s = strings.TrimSpace(s)
		if s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("planner returned no steps")
	}
	return steps, nil
}

func buildPlanPrompt(goal, pageSummary string) string {
	var b strings.Builder

	b.WriteString("Decompose the following goal into an ordered list of browsing steps.\n\n")
	b.WriteString(fmt.Sprintf("Goal: %s\n\n", goal))

	if pageSummary != "" {
		b.WriteString("Current page:\n")
		b.WriteString(pageSummary)
		b.WriteString("\n\n")
	}

	b.WriteString("Rules:\n")
	b.WriteString("- Each step is one self-contained subgoal an agent can complete on its own.\n")
	b.WriteString("- Steps run strictly in order; do not assume any two steps run in parallel.\n")
	b.WriteString("- Use as few steps as possible; merge trivial steps.\n\n")
	b.WriteString(`Respond with a JSON object: {"steps": ["step 1", "step 2", ...]}`)

	return b.String()
}

func buildRePlanPrompt(goal string, currentSteps []string, feedback string) string {
	var b strings.Builder

	b.WriteString("Revise the plan below based on the user's feedback.\n\n")
	b.WriteString(fmt.Sprintf("Goal: %s\n\nCurrent plan:\n", goal))
	for i, step := range currentSteps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}
	b.WriteString(fmt.Sprintf("\nFeedback: %s\n\n", feedback))
	b.WriteString(`Respond with the complete revised plan as a JSON object: {"steps": ["step 1", ...]}`)

	return b.String()
}
