// memory based implementation for testing purposes
package memory

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/cyp0633/librecur/tasks"
	"github.com/google/uuid"
)

// Store implements tasks.Store using an in-memory map
type Store struct {
	mu     sync.RWMutex
	txMu   sync.Mutex // serializes WithinTx callers
	tasks  map[string]tasks.Task
	logger *slog.Logger
}

var (
	_ tasks.Store      = (*Store)(nil)
	_ tasks.Transactor = (*Store)(nil)
)

// Option represents a configuration option for the Store
type Option func(*Store)

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new in-memory task store
func New(opts ...Option) *Store {
	s := &Store{
		tasks:  make(map[string]tasks.Task),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) GetTask(_ context.Context, id string) (*tasks.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, tasks.ErrNotFound)
	}
	c := t.Clone()
	return &c, nil
}

func (s *Store) ListTasks(_ context.Context, opts tasks.ListOptions) ([]tasks.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []tasks.Task
	for _, t := range s.tasks {
		if t.Completed && !opts.IncludeCompleted {
			continue
		}
		if opts.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*opts.DueBefore)) {
			continue
		}
		out = append(out, t.Clone())
	}

	slices.SortFunc(out, func(a, b tasks.Task) int {
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return cmp.Compare(a.ID, b.ID)
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) CreateTask(_ context.Context, task *tasks.Task) error {
	if task == nil {
		return fmt.Errorf("nil task: %w", tasks.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if _, exists := s.tasks[task.ID]; exists {
		s.logger.Warn("failed to create task: already exists", "task", task.ID)
		return fmt.Errorf("task %s: %w", task.ID, tasks.ErrConflict)
	}

	s.tasks[task.ID] = task.Clone()
	s.logger.Debug("task created", "task", task.ID)
	return nil
}

func (s *Store) UpdateTask(_ context.Context, task *tasks.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("task without id: %w", tasks.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		return fmt.Errorf("task %s: %w", task.ID, tasks.ErrNotFound)
	}
	s.tasks[task.ID] = task.Clone()
	s.logger.Debug("task updated", "task", task.ID)
	return nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return fmt.Errorf("task %s: %w", id, tasks.ErrNotFound)
	}
	delete(s.tasks, id)
	s.logger.Debug("task deleted", "task", id)
	return nil
}

// WithinTx runs fn with other WithinTx callers excluded and restores the previous contents
// when fn fails. Plain method calls from outside are not excluded.
func (s *Store) WithinTx(_ context.Context, fn func(tasks.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := maps.Clone(s.tasks)
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.tasks = snapshot
		s.mu.Unlock()
		s.logger.Debug("transaction rolled back", "error", err)
		return err
	}
	return nil
}
