package types

// EventType defines the type of event emitted on the observability stream.
type EventType string

const (
	EventTypeThought      EventType = "thought"       // EventTypeThought carries the agent's free-text reasoning for a step.
	EventTypePlan         EventType = "plan"          // EventTypePlan announces a new or revised plan awaiting approval.
	EventTypeAction       EventType = "action"        // EventTypeAction indicates an action is being dispatched against a surface.
	EventTypeResult       EventType = "result"        // EventTypeResult carries the outcome of an action or a task.
	EventTypeResultStream EventType = "result_stream" // EventTypeResultStream carries a delta of the streamed final answer.
	EventTypeError        EventType = "error"         // EventTypeError indicates a failure somewhere in the pipeline.
	EventTypeCodePreview  EventType = "code_preview"  // EventTypeCodePreview carries code generated for the sandboxed file-analysis flow.
)

// Event is a single entry on the observability stream consumed by the host.
type Event struct {
	// Type indicates the kind of event.
	Type EventType

	// Content holds the text payload (thought text, result text, stream delta).
	Content string

	// TaskID identifies the task this event belongs to, when applicable.
	TaskID string

	// ActionName is the name of the action being dispatched (action events).
	ActionName string

	// Target is the marker id or URL the action operates on (action events).
	Target string

	// Err contains error information for error events.
	Err error

	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}
}

// NewThoughtEvent creates a thought event for a task.
func NewThoughtEvent(taskID, content string) *Event {
	return &Event{
		Type:     EventTypeThought,
		TaskID:   taskID,
		Content:  content,
		Metadata: make(map[string]interface{}),
	}
}

// NewPlanEvent creates a plan event listing the proposed step descriptions.
func NewPlanEvent(planID string, steps []string) *Event {
	return &Event{
		Type:    EventTypePlan,
		Content: joinSteps(steps),
		Metadata: map[string]interface{}{
			"plan_id": planID,
			"steps":   steps,
		},
	}
}

// NewActionEvent creates an action event.
func NewActionEvent(taskID, actionName, target string) *Event {
	return &Event{
		Type:       EventTypeAction,
		TaskID:     taskID,
		ActionName: actionName,
		Target:     target,
		Metadata:   make(map[string]interface{}),
	}
}

// NewResultEvent creates a result event.
func NewResultEvent(taskID, content string) *Event {
	return &Event{
		Type:     EventTypeResult,
		TaskID:   taskID,
		Content:  content,
		Metadata: make(map[string]interface{}),
	}
}

// NewResultStreamEvent creates a result stream delta event.
func NewResultStreamEvent(delta string) *Event {
	return &Event{
		Type:     EventTypeResultStream,
		Content:  delta,
		Metadata: make(map[string]interface{}),
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) *Event {
	return &Event{
		Type:     EventTypeError,
		Err:      err,
		Metadata: make(map[string]interface{}),
	}
}

// NewTaskErrorEvent creates an error event scoped to a task.
func NewTaskErrorEvent(taskID string, err error) *Event {
	return &Event{
		Type:     EventTypeError,
		TaskID:   taskID,
		Err:      err,
		Metadata: make(map[string]interface{}),
	}
}

// NewCodePreviewEvent creates a code preview event for the file-analysis flow.
func NewCodePreviewEvent(language, code string) *Event {
	return &Event{
		Type:    EventTypeCodePreview,
		Content: code,
		Metadata: map[string]interface{}{
			"language": language,
		},
	}
}

func joinSteps(steps []string) string {
	var out string
	for i, s := range steps {
		if i > 0 {
			out += "\n"
		}
		out += s
	}
	return out
}
