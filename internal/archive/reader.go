// Package archive unpacks uploaded bundles into the files the batch pipeline understands.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"declbot/internal/domain"
	"declbot/internal/port"
)

// Reader unpacks .zip uploads and passes single supported files through.
type Reader struct {
	maxFiles int
	maxBytes int64
}

// NewReader limits archives to maxFiles supported members and maxBytes of uncompressed data.
func NewReader(maxFiles int, maxBytes int64) *Reader {
	return &Reader{maxFiles: maxFiles, maxBytes: maxBytes}
}

var _ port.ArchiveReader = (*Reader)(nil)

// Extension returns the lower-case extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// Open returns the supported files of the upload in archive order, plus what was skipped.
func (r *Reader) Open(name string, data []byte) ([]port.ArchiveFile, []port.SkippedFile, error) {
	ext := Extension(name)
	if ext == "zip" {
		return r.openZip(data)
	}
	kind, ok := domain.ExtensionKinds[ext]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, name)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrArchiveTooLarge, name)
	}
	return []port.ArchiveFile{{Name: path.Base(name), Ext: ext, Kind: kind, Data: data}}, nil, nil
}

func (r *Reader) openZip(data []byte) ([]port.ArchiveFile, []port.SkippedFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: not a readable zip archive: %v", domain.ErrUnsupportedFileType, err)
	}

	var files []port.ArchiveFile
	var skipped []port.SkippedFile
	var total int64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		if strings.HasPrefix(base, ".") || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		ext := Extension(base)
		kind, ok := domain.ExtensionKinds[ext]
		if !ok {
			skipped = append(skipped, port.SkippedFile{Name: f.Name, Reason: "unsupported file type"})
			continue
		}
		if len(files) == r.maxFiles {
			return nil, nil, fmt.Errorf("%w: more than %d files", domain.ErrArchiveTooLarge, r.maxFiles)
		}
		content, err := r.readMember(f, r.maxBytes-total)
		if errors.Is(err, domain.ErrArchiveTooLarge) {
			return nil, nil, err
		}
		if err != nil {
			// A damaged member costs only itself.
			skipped = append(skipped, port.SkippedFile{Name: f.Name, Reason: "unreadable: " + err.Error()})
			continue
		}
		total += int64(len(content))
		files = append(files, port.ArchiveFile{Name: f.Name, Ext: ext, Kind: kind, Data: content})
	}
	return files, skipped, nil
}

// readMember reads at most budget bytes; declared sizes in the zip header are not trusted.
func (r *Reader) readMember(f *zip.File, budget int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(budget) {
		return nil, fmt.Errorf("%w: uncompressed data exceeds %d bytes", domain.ErrArchiveTooLarge, r.maxBytes)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	content, err := io.ReadAll(io.LimitReader(rc, budget+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	if int64(len(content)) > budget {
		return nil, fmt.Errorf("%w: uncompressed data exceeds %d bytes", domain.ErrArchiveTooLarge, r.maxBytes)
	}
	return content, nil
}
