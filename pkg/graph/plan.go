package graph

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlanStatus is the lifecycle state of a plan. Transitions are one-way:
// pending → active → completed.
type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "pending"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
)

// Plan is the dependency-ordered decomposition of one goal. There is one
// live plan per turn; a re-plan replaces it wholesale before approval.
//
// Concurrently running execution paths share the plan but write only the
// fields of their own tasks; task sets are disjoint by construction, so
// there are no cross-path write races.
type Plan struct {
	ID        string
	Goal      string
	Status    PlanStatus
	Tasks     []*Task
	CreatedAt time.Time
}

// NewPlan builds a plan from ordered step descriptions, with each step
// depending on the previous one. Dependency chains are always linear:
// the planner never emits parallel-task hints.
func NewPlan(goal string, steps []string) *Plan {
	plan := &Plan{
		ID:        uuid.New().String(),
		Goal:      goal,
		Status:    PlanStatusPending,
		CreatedAt: time.Now(),
	}

	var prev *Task
	for _, step := range steps {
		var task *Task
		if prev == nil {
			task = NewTask(step)
		} else {
			task = NewTask(step, prev.ID)
		}
		plan.Tasks = append(plan.Tasks, task)
		prev = task
	}

	return plan
}

// Lookup returns the task with the given id, or nil.
func (p *Plan) Lookup(id string) *Task {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// StepDescriptions returns the task descriptions in plan order.
func (p *Plan) StepDescriptions() []string {
	out := make([]string, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		out = append(out, t.Description)
	}
	return out
}

// Validate checks the plan's structural invariants: unique task ids,
// every dependency resolving to an existing task, and an acyclic
// dependency graph. It runs at activation time so cycles are a planning
// error, not a runtime deadlock discovery.
func (p *Plan) Validate() error {
	seen := make(map[string]*Task, len(p.Tasks))
	for _, t := range p.Tasks {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate task id %q", t.ID)
		}
		seen[t.ID] = t
	}

	for _, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("task %q depends on unknown task %q", t.ID, dep)
			}
		}
	}

	return p.checkAcyclic(seen)
}

// checkAcyclic runs a three-color DFS over the id→dependency edges.
func (p *Plan) checkAcyclic(tasks map[string]*Task) error {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(tasks))

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case gray:
			return fmt.Errorf("dependency cycle involving task %q", id)
		case black:
			return nil
		}
		color[id] = gray
		for _, dep := range tasks[id].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for id := range tasks {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// Runnable reports whether the task can start now: pending with every
// dependency completed.
func (p *Plan) Runnable(t *Task) bool {
	if t.Status != TaskStatusPending {
		return false
	}
	for _, dep := range t.Dependencies {
		depTask := p.Lookup(dep)
		if depTask == nil || depTask.Status != TaskStatusCompleted {
			return false
		}
	}
	return true
}

// Deadlocked reports whether the plan still has pending tasks but
// nothing runnable or running anywhere. This configuration cannot make
// progress and is fatal for the plan.
func (p *Plan) Deadlocked() bool {
	pending := false
	for _, t := range p.Tasks {
		switch {
		case t.Status == TaskStatusRunning:
			return false
		case t.Status == TaskStatusPending:
			pending = true
			if p.Runnable(t) {
				return false
			}
		}
	}
	return pending
}
