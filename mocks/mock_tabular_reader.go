package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"declbot/internal/domain"
)

// MockTabularReader is a mock implementation of port.TabularReader.
type MockTabularReader struct {
	mock.Mock
}

func (m *MockTabularReader) ReadRows(ctx context.Context, r io.Reader) ([][]domain.Cell, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]domain.Cell), args.Error(1)
}
