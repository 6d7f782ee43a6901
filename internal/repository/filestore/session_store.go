// Package filestore keeps one JSON snapshot file per user in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"declbot/internal/domain"
	"declbot/internal/port"
	"declbot/internal/snapshot"
)

const (
	snapshotExt = ".json"
	tempPattern = ".session-*.tmp"
)

type sessionStore struct {
	dir string
	log *zap.Logger
}

// NewSessionStore creates dir if needed and returns a file-backed SessionStore.
// Snapshots are written to a temp file, fsynced, then renamed over the old file.
func NewSessionStore(dir string, log *zap.Logger) (port.SessionStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	return &sessionStore{dir: dir, log: log.Named("filestore")}, nil
}

func (s *sessionStore) path(userID int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(userID, 10)+snapshotExt)
}

func (s *sessionStore) LoadAll(ctx context.Context) ([]*domain.Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("filestore.LoadAll: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var sessions []*domain.Session
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".tmp") {
			// left behind by a crash between write and rename
			_ = os.Remove(filepath.Join(s.dir, name))
			continue
		}
		if filepath.Ext(name) != snapshotExt {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("filestore.LoadAll: %w", err)
		}
		session, err := snapshot.Decode(data)
		if err != nil {
			s.log.Warn("skipping corrupt session snapshot", zap.String("file", name), zap.Error(err))
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *sessionStore) Save(_ context.Context, session *domain.Session) error {
	data, err := snapshot.Encode(session)
	if err != nil {
		return fmt.Errorf("filestore.Save: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return fmt.Errorf("filestore.Save: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore.Save: writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore.Save: syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("filestore.Save: %w", err)
	}
	if err := os.Rename(tmpName, s.path(session.UserID)); err != nil {
		cleanup()
		return fmt.Errorf("filestore.Save: replacing snapshot: %w", err)
	}
	return syncDir(s.dir)
}

func (s *sessionStore) Delete(_ context.Context, userID int64) error {
	if err := os.Remove(s.path(userID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore.Delete: %w", err)
	}
	return nil
}

func (s *sessionStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("filestore: opening dir: %w", err)
	}
	defer func() { _ = d.Close() }()
	// Not supported on every platform.
	_ = d.Sync()
	return nil
}
