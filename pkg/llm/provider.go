// Package llm defines the capability boundary between the agent core and
// any concrete LLM vendor.
//
// Providers expose exactly two operations: Generate, a tool-calling
// completion that returns text plus zero or more tool calls, and Stream,
// a lazy, finite, non-restartable sequence of text deltas. Everything
// else (event emission, memory, orchestration) lives above this
// boundary so vendors stay swappable.
package llm

import (
	"context"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// ToolDefinition describes one callable capability offered to the model.
// The vendor adapter maps it onto its native function-calling mechanism.
type ToolDefinition struct {
	// Name is the exact identifier the model must use to invoke the tool.
	Name string

	// Description tells the model what the tool does and when to use it.
	Description string

	// Schema is a JSON-schema object describing the tool's parameters.
	Schema map[string]interface{}
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	// Name is the tool being invoked.
	Name string

	// Arguments holds the decoded JSON arguments of the call.
	Arguments map[string]interface{}
}

// Generation is the result of a Generate call.
type Generation struct {
	// Text is the model's free-text output (reasoning, commentary).
	Text string

	// ToolCalls holds the tool invocations requested by the model, in order.
	ToolCalls []ToolCall
}

// GenerateOptions configures a Generate call.
type GenerateOptions struct {
	// Tools is the closed set of tools the model may call. Nil disables
	// tool calling for this request.
	Tools []ToolDefinition

	// JSONOutput requests a structured JSON response body.
	JSONOutput bool
}

// StreamChunk is a single delta from a streaming completion.
type StreamChunk struct {
	// Content is the text delta.
	Content string

	// Err is set when the stream failed; the channel closes afterwards.
	Err error

	// Finished is set on the final chunk of a successful stream.
	Finished bool
}

// IsError reports whether the chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Err != nil
}

// Provider is the pluggable LLM vendor integration.
type Provider interface {
	// Generate sends the history to the model and returns its text plus
	// any tool calls. Blocking; honors ctx cancellation.
	Generate(ctx context.Context, messages []*types.Message, opts *GenerateOptions) (*Generation, error)

	// Stream sends the history to the model and streams back text deltas.
	// The returned channel is closed when the stream completes or fails;
	// callers must drain it. The sequence cannot be restarted.
	Stream(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)
}
