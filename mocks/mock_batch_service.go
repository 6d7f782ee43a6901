package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"declbot/internal/domain"
	"declbot/internal/service"
)

// MockBatchService is a mock implementation of service.BatchService.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) Process(ctx context.Context, userID int64, name string, data []byte) (*service.BatchOutcome, error) {
	args := m.Called(ctx, userID, name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchOutcome), args.Error(1)
}

func (m *MockBatchService) Finalize(ctx context.Context, userID int64) (*domain.Artifact, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artifact), args.Error(1)
}

func (m *MockBatchService) HasPending(ctx context.Context, userID int64) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}
