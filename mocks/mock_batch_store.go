package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"declbot/internal/domain"
)

// MockBatchStore is a mock implementation of port.BatchStore.
type MockBatchStore struct {
	mock.Mock
}

func (m *MockBatchStore) Put(ctx context.Context, result *domain.BatchResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockBatchStore) Get(ctx context.Context, userID int64) (*domain.BatchResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockBatchStore) Delete(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
