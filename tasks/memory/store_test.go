package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cyp0633/librecur/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func due(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	task := &tasks.Task{Title: "Stretch", DueDate: due(2025, 1, 10), Subtasks: []tasks.Subtask{{ID: "s1", Title: "legs"}}}
	require.NoError(t, s.CreateTask(ctx, task))
	require.NotEmpty(t, task.ID)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stretch", got.Title)

	// Returned tasks are copies
	got.Subtasks[0].Completed = true
	again, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, again.Subtasks[0].Completed)

	got.Title = "Stretch more"
	require.NoError(t, s.UpdateTask(ctx, got))
	again, err = s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stretch more", again.Title)

	assert.ErrorIs(t, s.CreateTask(ctx, &tasks.Task{ID: task.ID}), tasks.ErrConflict)

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	_, err = s.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, tasks.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, task.ID), tasks.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTask(ctx, &tasks.Task{ID: "missing"}), tasks.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTask(ctx, &tasks.Task{}), tasks.ErrInvalidInput)
	assert.ErrorIs(t, s.CreateTask(ctx, nil), tasks.ErrInvalidInput)
}

func TestStore_ListTasks(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, task := range []*tasks.Task{
		{ID: "c", DueDate: due(2025, 1, 12)},
		{ID: "undated"},
		{ID: "a", DueDate: due(2025, 1, 10)},
		{ID: "b", DueDate: due(2025, 1, 10)},
		{ID: "done", DueDate: due(2025, 1, 1), Completed: true},
	} {
		require.NoError(t, s.CreateTask(ctx, task))
	}

	ids := func(list []tasks.Task) []string {
		var out []string
		for _, task := range list {
			out = append(out, task.ID)
		}
		return out
	}

	tests := []struct {
		name string
		opts tasks.ListOptions
		want []string
	}{
		{"open tasks", tasks.ListOptions{}, []string{"a", "b", "c", "undated"}},
		{"include completed", tasks.ListOptions{IncludeCompleted: true}, []string{"done", "a", "b", "c", "undated"}},
		{"due before", tasks.ListOptions{DueBefore: due(2025, 1, 12)}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListTasks(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list))
		})
	}
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateTask(ctx, &tasks.Task{ID: "a", Title: "before"}))

	errAbort := errors.New("abort")
	err := s.WithinTx(ctx, func(store tasks.Store) error {
		require.NoError(t, store.CreateTask(ctx, &tasks.Task{ID: "b"}))
		require.NoError(t, store.UpdateTask(ctx, &tasks.Task{ID: "a", Title: "after"}))
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	got, err := s.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "before", got.Title)
	_, err = s.GetTask(ctx, "b")
	assert.ErrorIs(t, err, tasks.ErrNotFound)

	require.NoError(t, s.WithinTx(ctx, func(store tasks.Store) error {
		return store.CreateTask(ctx, &tasks.Task{ID: "b"})
	}))
	_, err = s.GetTask(ctx, "b")
	assert.NoError(t, err)
}
