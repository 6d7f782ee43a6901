package mocks

import (
	"io"

	"github.com/stretchr/testify/mock"

	"declbot/internal/declaration"
)

// MockTableWriter is a mock implementation of port.TableWriter.
type MockTableWriter struct {
	mock.Mock
}

func (m *MockTableWriter) Write(w io.Writer, table *declaration.Table) error {
	args := m.Called(w, table)
	return args.Error(0)
}

func (m *MockTableWriter) Extension() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockTableWriter) ContentType() string {
	args := m.Called()
	return args.String(0)
}
