package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventConstructors(t *testing.T) {
	t.Run("thought event", func(t *testing.T) {
		ev := NewThoughtEvent("task-1", "checking the search box")
		assert.Equal(t, EventTypeThought, ev.Type)
		assert.Equal(t, "task-1", ev.TaskID)
		assert.Equal(t, "checking the search box", ev.Content)
		assert.NotNil(t, ev.Metadata)
	})

	t.Run("plan event carries steps in metadata", func(t *testing.T) {
		steps := []string{"open example.com", "read the headline"}
		ev := NewPlanEvent("plan-1", steps)
		assert.Equal(t, EventTypePlan, ev.Type)
		assert.Equal(t, steps, ev.Metadata["steps"])
		assert.Equal(t, "plan-1", ev.Metadata["plan_id"])
		assert.Equal(t, "open example.com\nread the headline", ev.Content)
	})

	t.Run("action event", func(t *testing.T) {
		ev := NewActionEvent("task-2", "click", "14")
		assert.Equal(t, EventTypeAction, ev.Type)
		assert.Equal(t, "click", ev.ActionName)
		assert.Equal(t, "14", ev.Target)
	})

	t.Run("error event", func(t *testing.T) {
		err := errors.New("surface unreachable")
		ev := NewTaskErrorEvent("task-3", err)
		assert.Equal(t, EventTypeError, ev.Type)
		assert.Equal(t, "task-3", ev.TaskID)
		assert.Equal(t, err, ev.Err)
	})

	t.Run("result stream delta", func(t *testing.T) {
		ev := NewResultStreamEvent("Par")
		assert.Equal(t, EventTypeResultStream, ev.Type)
		assert.Equal(t, "Par", ev.Content)
	})

	t.Run("code preview", func(t *testing.T) {
		ev := NewCodePreviewEvent("python", "print(1)")
		assert.Equal(t, EventTypeCodePreview, ev.Type)
		assert.Equal(t, "python", ev.Metadata["language"])
	})
}

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, RoleSystem, NewSystemMessage("x").Role)
	assert.Equal(t, RoleUser, NewUserMessage("x").Role)
	assert.Equal(t, RoleAssistant, NewAssistantMessage("x").Role)

	msg := NewUserMessage("with image").WithImage([]byte{0x89, 0x50})
	assert.Len(t, msg.Images, 1)
}
