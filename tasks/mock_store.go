package tasks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore implements the Store interface for testing
type MockStore struct {
	mock.Mock
}

// GetTask implements the Store interface
func (m *MockStore) GetTask(ctx context.Context, id string) (*Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

// ListTasks implements the Store interface
func (m *MockStore) ListTasks(ctx context.Context, opts ListOptions) ([]Task, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Task), args.Error(1)
}

// CreateTask implements the Store interface
func (m *MockStore) CreateTask(ctx context.Context, task *Task) error {
	return m.Called(ctx, task).Error(0)
}

// UpdateTask implements the Store interface
func (m *MockStore) UpdateTask(ctx context.Context, task *Task) error {
	return m.Called(ctx, task).Error(0)
}

// DeleteTask implements the Store interface
func (m *MockStore) DeleteTask(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
