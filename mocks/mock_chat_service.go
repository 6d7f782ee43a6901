package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"declbot/internal/domain"
)

// MockChatService is a mock implementation of service.ChatService.
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) HandleMessage(ctx context.Context, userID int64, text string) ([]domain.Reply, error) {
	args := m.Called(ctx, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reply), args.Error(1)
}

func (m *MockChatService) HandleDocument(ctx context.Context, userID int64, name string, data []byte) ([]domain.Reply, error) {
	args := m.Called(ctx, userID, name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reply), args.Error(1)
}
