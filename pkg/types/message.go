package types

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	// RoleSystem is used for system instructions and injected context.
	RoleSystem MessageRole = "system"

	// RoleUser is used for user input and observation messages fed back
	// to the model (action results, page state).
	RoleUser MessageRole = "user"

	// RoleAssistant is used for model output.
	RoleAssistant MessageRole = "assistant"
)

// Message is a single entry in an LLM conversation.
type Message struct {
	// Role identifies the author of the message.
	Role MessageRole

	// Content is the text body of the message.
	Content string

	// Images holds optional raw image bytes (PNG) attached to the message.
	// Vision-capable providers encode these as image parts; others ignore them.
	Images [][]byte
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// WithImage returns the message with the given image attached.
func (m *Message) WithImage(png []byte) *Message {
	m.Images = append(m.Images, png)
	return m
}
