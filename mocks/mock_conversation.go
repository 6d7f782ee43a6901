package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"declbot/internal/domain"
)

// MockConversation is a mock implementation of service.Conversation.
type MockConversation struct {
	mock.Mock
}

func (m *MockConversation) Start(ctx context.Context, userID int64) (domain.Reply, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Reply), args.Error(1)
}

func (m *MockConversation) Cancel(ctx context.Context, userID int64) (domain.Reply, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Reply), args.Error(1)
}

func (m *MockConversation) Help() domain.Reply {
	args := m.Called()
	return args.Get(0).(domain.Reply)
}

func (m *MockConversation) Handle(ctx context.Context, userID int64, text string) (domain.Reply, error) {
	args := m.Called(ctx, userID, text)
	return args.Get(0).(domain.Reply), args.Error(1)
}
