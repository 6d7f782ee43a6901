package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"declbot/internal/port"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendDeclaration(ctx context.Context, msg port.DeclarationEmail) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
