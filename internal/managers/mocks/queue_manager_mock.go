package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockQueueManager is a mock of the QueueMgr interface.
type MockQueueManager struct {
	mock.Mock
}

func (m *MockQueueManager) EnqueueActivationEmail(ctx context.Context, userId int64, activationLink string) error {
	args := m.Called(ctx, userId, activationLink)
	return args.Error(0)
}

func (m *MockQueueManager) Close() error {
	args := m.Called()
	return args.Error(0)
}
