package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"declbot/internal/declaration"
	"declbot/internal/domain"
)

// MockDeclarationRenderer is a mock implementation of port.DeclarationRenderer.
type MockDeclarationRenderer struct {
	mock.Mock
}

func (m *MockDeclarationRenderer) Render(ctx context.Context, userID int64, table *declaration.Table) (*domain.Artifact, error) {
	args := m.Called(ctx, userID, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artifact), args.Error(1)
}
