// Package memory provides the bounded, summarizing conversation log used
// by each think-act-observe loop. One Conversation instance belongs to
// exactly one loop and is never shared.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

var memoryLog *logging.Logger

func init() {
	var err error
	memoryLog, err = logging.NewLogger("memory")
	if err != nil {
		memoryLog.Warnf("Failed to initialize memory logger, using stderr fallback: %v", err)
	}
}

const (
	// entryOverheadTokens is the fixed per-entry overhead added to the
	// size estimate (role tag and message framing).
	entryOverheadTokens = 4

	// summaryCapChars bounds the rolling summary length.
	summaryCapChars = 4000
)

// tokenCounter lazily initializes a tiktoken encoding shared by all
// conversations. When initialization fails (e.g., no embedded BPE data),
// estimation falls back to characters divided by four.
var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
)

func countTokens(text string) int {
	tokenizerOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			memoryLog.Warnf("tiktoken unavailable, estimating tokens as chars/4: %v", err)
			return
		}
		tokenizer = enc
	})

	if tokenizer != nil {
		return len(tokenizer.Encode(text, nil, nil))
	}
	return len(text) / 4
}

// Entry is one role-tagged item in the conversation log.
type Entry struct {
	Role    types.MessageRole
	Content string
}

// Options configures a Conversation.
type Options struct {
	// BudgetTokens is the estimated-size budget before summarization.
	BudgetTokens int

	// KeepRecent is how many trailing entries stay verbatim when the
	// older remainder is summarized away.
	KeepRecent int

	// EntryCapChars truncates any single appended entry.
	EntryCapChars int
}

// Conversation is an append-only, bounded conversation log with an
// optional rolling summary replacing older history.
type Conversation struct {
	provider llm.Provider
	opts     Options
	entries  []Entry
	summary  string
}

// NewConversation creates a conversation bound to the provider used for
// summarization. Zero option fields get working defaults.
func NewConversation(provider llm.Provider, opts Options) *Conversation {
	if opts.BudgetTokens <= 0 {
		opts.BudgetTokens = 16000
	}
	if opts.KeepRecent <= 0 {
		opts.KeepRecent = 6
	}
	if opts.EntryCapChars <= 0 {
		opts.EntryCapChars = 8000
	}
	return &Conversation{provider: provider, opts: opts}
}

// Append adds an entry to the log, truncating it to the entry cap.
func (c *Conversation) Append(role types.MessageRole, content string) {
	if len(content) > c.opts.EntryCapChars {
		content = content[:c.opts.EntryCapChars] + "\n[truncated]"
	}
	c.entries = append(c.entries, Entry{Role: role, Content: content})
}

// Len returns the number of verbatim entries currently held.
func (c *Conversation) Len() int {
	return len(c.entries)
}

// Summary returns the current rolling summary, empty if none.
func (c *Conversation) Summary() string {
	return c.summary
}

// Context returns the conversation as messages for the next reasoning
// call. If the estimated size exceeds the budget, everything older than
// the most recent KeepRecent entries is compressed into the rolling
// summary first. Summarization failure degrades to dropping the older
// entries; Context never blocks forward progress on it.
func (c *Conversation) Context(ctx context.Context) []*types.Message {
	if c.estimate() > c.opts.BudgetTokens && len(c.entries) > c.opts.KeepRecent {
		c.compact(ctx)
	}

	messages := make([]*types.Message, 0, len(c.entries)+1)
	if c.summary != "" {
		messages = append(messages, types.NewSystemMessage("Summary of earlier progress:\n"+c.summary))
	}
	for _, e := range c.entries {
		messages = append(messages, &types.Message{Role: e.Role, Content: e.Content})
	}
	return messages
}

// estimate returns the approximate token size of the log including the
// rolling summary.
func (c *Conversation) estimate() int {
	total := 0
	if c.summary != "" {
		total += countTokens(c.summary) + entryOverheadTokens
	}
	for _, e := range c.entries {
		total += countTokens(e.Content) + entryOverheadTokens
	}
	return total
}

// compact replaces all entries except the KeepRecent most recent with a
// fresh rolling summary folding in the previous one.
func (c *Conversation) compact(ctx context.Context) {
	cut := len(c.entries) - c.opts.KeepRecent
	older := c.entries[:cut]
	recent := c.entries[cut:]

	summary, err := c.summarize(ctx, older)
	if err != nil {
		// Silent degrade: drop the older entries rather than stall the loop.
		memoryLog.Warnf("summarization failed, dropping %d older entries: %v", len(older), err)
		c.entries = append([]Entry(nil), recent...)
		return
	}

	if len(summary) > summaryCapChars {
		summary = summary[:summaryCapChars]
	}
	c.summary = summary
	c.entries = append([]Entry(nil), recent...)
}

// summarize asks the model to compress the older entries, together with
// any prior summary, into a new bounded summary.
func (c *Conversation) summarize(ctx context.Context, older []Entry) (string, error) {
	prompt := buildSummaryPrompt(c.summary, older)

	gen, err := c.provider.Generate(ctx, []*types.Message{
		types.NewSystemMessage(
			"You are a memory encoder for a browser automation agent. " +
				"Your summary replaces part of the agent's conversation history, so it must let " +
				"the agent continue seamlessly from the summary alone. Be dense, specific, and factual.",
		),
		types.NewUserMessage(prompt),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}
	if strings.TrimSpace(gen.Text) == "" {
		return "", fmt.Errorf("summary generation returned empty text")
	}
	return gen.Text, nil
}

func buildSummaryPrompt(priorSummary string, older []Entry) string {
	var b strings.Builder

	b.WriteString("Compress the following agent history into a single compact summary.\n")
	b.WriteString("Cover: pages visited, actions taken and their outcomes, information found, ")
	b.WriteString("approaches that failed (so they are not retried), and what remains to do.\n")
	b.WriteString("MUST PRESERVE: URLs, element descriptions, extracted values, error messages.\n")
	b.WriteString("MUST NOT INCLUDE: filler, hedging, restatements of the goal.\n\n")

	if priorSummary != "" {
		b.WriteString("Previous summary (fold this in):\n")
		b.WriteString(priorSummary)
		b.WriteString("\n\n")
	}

	b.WriteString("History to summarize:\n\n")
	for i, e := range older {
		b.WriteString(fmt.Sprintf("%d. %s: %s\n\n", i+1, e.Role, e.Content))
	}

	return b.String()
}
