package tasks

import (
	"slices"
	"time"
)

// RecurringMode selects the date a completed task's next instance is computed from
type RecurringMode string

const (
	// ModeDueDate anchors the next instance at the current due date
	ModeDueDate RecurringMode = "dueDate"
	// ModeCompletedAt anchors at the completion time, but never before the due date
	ModeCompletedAt RecurringMode = "completedAt"
	// ModeAutoRollover is driven by an external rollover job; completion treats it like ModeDueDate
	ModeAutoRollover RecurringMode = "autoRollover"
)

// ParseRecurringMode maps a stored mode string to a RecurringMode. Unknown values fall back to ModeDueDate.
func ParseRecurringMode(s string) RecurringMode {
	switch RecurringMode(s) {
	case ModeCompletedAt:
		return ModeCompletedAt
	case ModeAutoRollover:
		return ModeAutoRollover
	default:
		return ModeDueDate
	}
}

// Subtask is a checklist item of a task
type Subtask struct {
	ID        string
	Title     string
	Completed bool
}

// Task is a to-do item, optionally recurring
type Task struct {
	ID    string
	Title string
	Notes string

	DueDate       *time.Time
	Recurring     string // One or more "RRULE:" lines, empty when the task does not repeat
	RecurringMode RecurringMode

	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time

	Subtasks []Subtask
}

// IsRecurring reports whether the task carries a recurrence spec
func (t Task) IsRecurring() bool {
	return t.Recurring != ""
}

// Clone returns a deep copy of t
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	c.Subtasks = slices.Clone(t.Subtasks)
	return c
}
