package mocks

import (
	"github.com/stretchr/testify/mock"

	"declbot/internal/port"
)

// MockArchiveReader is a mock implementation of port.ArchiveReader.
type MockArchiveReader struct {
	mock.Mock
}

func (m *MockArchiveReader) Open(name string, data []byte) ([]port.ArchiveFile, []port.SkippedFile, error) {
	args := m.Called(name, data)
	var files []port.ArchiveFile
	if v := args.Get(0); v != nil {
		files = v.([]port.ArchiveFile)
	}
	var skipped []port.SkippedFile
	if v := args.Get(1); v != nil {
		skipped = v.([]port.SkippedFile)
	}
	return files, skipped, args.Error(2)
}
