// Package graph holds the plan and task-dependency model: tasks with
// explicit dependency edges, plan-level validation, and the derivation
// of disjoint root-to-leaf execution paths.
package graph

import (
	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusBlocked   TaskStatus = "blocked"
)

// Task is one unit of work inside a plan. Tasks are created by the
// planner and mutated only by the orchestrator or the loop that owns
// them; completed and failed are terminal.
type Task struct {
	// ID is unique within the owning plan.
	ID string

	// Description is the subgoal text produced by the planner.
	Description string

	// Status is the current lifecycle state.
	Status TaskStatus

	// Dependencies lists the ids of tasks that must complete first.
	Dependencies []string

	// Result holds the task outcome summary once terminal.
	Result string

	// Error holds the failure reason when Status is failed.
	Error string
}

// NewTask creates a pending task with a fresh id.
func NewTask(description string, dependencies ...string) *Task {
	return &Task{
		ID:           uuid.New().String(),
		Description:  description,
		Status:       TaskStatusPending,
		Dependencies: dependencies,
	}
}

// Terminal reports whether the task reached a terminal status.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
