package port

import "declbot/internal/domain"

// ArchiveFile is one supported file unpacked from an upload.
type ArchiveFile struct {
	Name string
	Ext  string
	Kind domain.DocumentKind
	Data []byte
}

// SkippedFile is an archive member that was not unpacked.
type SkippedFile struct {
	Name   string
	Reason string
}

// ArchiveReader unpacks an uploaded bundle into its supported files, in archive order.
type ArchiveReader interface {
	Open(name string, data []byte) ([]ArchiveFile, []SkippedFile, error)
}
