package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"declbot/internal/port"
)

// MockOCREngine is a mock implementation of port.OCREngine.
type MockOCREngine struct {
	mock.Mock
}

func (m *MockOCREngine) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockOCREngine) Recognize(ctx context.Context, input port.OCRInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}
