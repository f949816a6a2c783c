package tasks

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested task doesn't exist
	ErrNotFound = errors.New("task not found")
	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input parameters")
	// ErrConflict is returned when there's a conflict with an existing task
	ErrConflict = errors.New("task conflict")
)

// ListOptions filters ListTasks
type ListOptions struct {
	IncludeCompleted bool
	DueBefore        *time.Time // Only tasks due strictly before this time
}

// Store persists tasks. The recurrence engine never writes; the Completer hands
// finished tasks and generated instances to a Store.
type Store interface {
	// GetTask finds a task by id; ErrNotFound if missing
	GetTask(ctx context.Context, id string) (*Task, error)
	// ListTasks returns tasks ordered by due date, undated tasks last
	ListTasks(ctx context.Context, opts ListOptions) ([]Task, error)
	// CreateTask stores a new task. An empty ID is filled in; an existing ID is ErrConflict.
	CreateTask(ctx context.Context, task *Task) error
	// UpdateTask replaces an existing task; ErrNotFound if missing
	UpdateTask(ctx context.Context, task *Task) error
	// DeleteTask removes a task; ErrNotFound if missing
	DeleteTask(ctx context.Context, id string) error
}

// Transactor is implemented by stores that can run several operations atomically.
// fn receives a Store bound to the transaction; returning an error rolls everything back.
// The Completer uses it when available so that concurrent completions of one task serialize.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Store) error) error
}
