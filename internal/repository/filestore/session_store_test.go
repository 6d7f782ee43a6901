package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"declbot/internal/domain"
	"declbot/internal/repository/filestore"
)

func TestSessionStore_SaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.NewSessionStore(dir, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	s := domain.NewSession(5, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, s))
	s.Step = domain.StepAddMore
	require.NoError(t, store.Save(ctx, s))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "5.json", files[0].Name())

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.StepAddMore, loaded[0].Step)
}

func TestSessionStore_LoadAllSkipsCorruptAndTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.NewSessionStore(dir, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession(1, time.Now())))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.json"), []byte(`{"schema_version":1,"sess`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".session-123.tmp"), []byte(`partial`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte(`ignored`), 0o600))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(1), loaded[0].UserID)
	assert.NoFileExists(t, filepath.Join(dir, ".session-123.tmp"))
}

func TestSessionStore_Delete(t *testing.T) {
	store, err := filestore.NewSessionStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession(3, time.Now())))
	require.NoError(t, store.Delete(ctx, 3))
	require.NoError(t, store.Delete(ctx, 3))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.NoError(t, store.Ping(ctx))
}
