package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/samber/mo"
)

// CompletionResult is the outcome of completing a task
type CompletionResult struct {
	Completed Task
	Next      mo.Option[Task] // The generated instance, absent when the task does not recur any more
}

// Completer marks tasks as done and persists the next instance of recurring ones
type Completer struct {
	store     Store
	generator *Generator
	now       func() time.Time
	logger    *slog.Logger
}

// CompleterOption represents a configuration option for the Completer
type CompleterOption func(*Completer)

// WithGenerator sets the instance generator
func WithGenerator(g *Generator) CompleterOption {
	return func(c *Completer) {
		if g != nil {
			c.generator = g
		}
	}
}

// WithCompletionClock sets the source of completion timestamps
func WithCompletionClock(now func() time.Time) CompleterOption {
	return func(c *Completer) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCompleterLogger sets the logger for the completer
func WithCompleterLogger(logger *slog.Logger) CompleterOption {
	return func(c *Completer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCompleter creates a Completer over store
func NewCompleter(store Store, opts ...CompleterOption) *Completer {
	c := &Completer{
		store:     store,
		generator: NewGenerator(),
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete marks the task id as completed and, for recurring tasks, stores the next instance.
// Errors only come from the store; a task whose recurrence has ended is a normal result.
//
// A store implementing Transactor runs the whole completion in one transaction. Otherwise the
// next instance is stored before the original is marked completed, and removed again if that
// update fails, so a failed completion can always be retried.
func (c *Completer) Complete(ctx context.Context, id string) (CompletionResult, error) {
	tx, ok := c.store.(Transactor)
	if !ok {
		return c.complete(ctx, c.store, id)
	}

	var result CompletionResult
	err := tx.WithinTx(ctx, func(store Store) error {
		var err error
		result, err = c.complete(ctx, store, id)
		return err
	})
	if err != nil {
		return CompletionResult{}, err
	}
	return result, nil
}

func (c *Completer) complete(ctx context.Context, store Store, id string) (CompletionResult, error) {
	task, err := store.GetTask(ctx, id)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("failed to load task %s: %w", id, err)
	}
	if task.Completed {
		return CompletionResult{}, fmt.Errorf("task %s is already completed: %w", id, ErrConflict)
	}

	at := c.now()
	task.Completed = true
	task.CompletedAt = &at

	result := CompletionResult{Completed: *task, Next: c.generator.GenerateNextInstance(*task)}
	next, hasNext := result.Next.Get()
	if hasNext {
		if err := store.CreateTask(ctx, &next); err != nil {
			return CompletionResult{}, fmt.Errorf("failed to store next instance of %s: %w", id, err)
		}
		result.Next = mo.Some(next)
	}

	if err := store.UpdateTask(ctx, task); err != nil {
		err = fmt.Errorf("failed to update task %s: %w", id, err)
		if hasNext {
			if derr := store.DeleteTask(ctx, next.ID); derr != nil {
				c.logger.Error("failed to remove next instance after update failure",
					"task", id, "next", next.ID, "error", derr)
				err = errors.Join(err, derr)
			}
		}
		return CompletionResult{}, err
	}

	if hasNext {
		c.logger.Info("task completed", "task", id, "next", next.ID, "due", next.DueDate)
	} else if task.IsRecurring() {
		c.logger.Info("recurrence ended", "task", id)
	}
	return result, nil
}
