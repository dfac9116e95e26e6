package revision

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRestore_MissingBackupLeavesFilesystemUnchanged(t *testing.T) {
	s, clock := newTestStore(t, nil)
	ctx := context.Background()

	writeCanonical(t, s, clock, "m-a.png", []byte("current"))

	rawBefore := dirNames(t, s.cfg.RawDir)
	backupBefore := dirNames(t, s.cfg.BackupDir)

	ok, err := s.Restore(ctx, "m-a", ".png", "20240101000000")
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, rawBefore, dirNames(t, s.cfg.RawDir))
	require.Equal(t, backupBefore, dirNames(t, s.cfg.BackupDir))

	data, err := os.ReadFile(filepath.Join(s.cfg.RawDir, "m-a.png"))
	require.NoError(t, err)
	require.Equal(t, []byte("current"), data)
}

func TestRestore_BacksUpCurrentFileFirst(t *testing.T) {
	s, clock := newTestStore(t, nil)
	ctx := context.Background()

	path := writeCanonical(t, s, clock, "m-a.png", []byte("v1"))
	old, _, err := s.BackupIfExists(ctx, path)
	require.NoError(t, err)

	clock.Advance(time.Second)
	writeCanonical(t, s, clock, "m-a.png", []byte("v2"))
	clock.Advance(time.Second)

	ok, err := s.Restore(ctx, "m-a", "png", old.Timestamp)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), data)

	backups, err := s.ListBackups("m-a", ".png")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	require.Equal(t, "20250101120002", backups[0].Timestamp)

	prev, err := os.ReadFile(backups[0].Path)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), prev)
}

func TestRestore_SourceBackupSurvivesRetention(t *testing.T) {
	s, clock := newTestStore(t, func(c *Config) { c.MaxBackupVersions = 1 })
	ctx := context.Background()

	path := writeCanonical(t, s, clock, "m-a.png", []byte("v1"))
	old, _, err := s.BackupIfExists(ctx, path)
	require.NoError(t, err)

	clock.Advance(time.Second)
	writeCanonical(t, s, clock, "m-a.png", []byte("v2"))

	ok, err := s.Restore(ctx, "m-a", ".png", old.Timestamp)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), data)

	backups, err := s.ListBackups("m-a", ".png")
	require.NoError(t, err)
	require.Len(t, backups, 1)
}

func TestRestore_WithoutCurrentFile(t *testing.T) {
	s, clock := newTestStore(t, nil)
	ctx := context.Background()

	path := writeCanonical(t, s, clock, "m-a.png", []byte("v1"))
	old, _, err := s.BackupIfExists(ctx, path)
	require.NoError(t, err)

	ok, err := s.Restore(ctx, "m-a", ".png", old.Timestamp)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, []string{"m-a.png"}, dirNames(t, s.cfg.RawDir))
	require.Empty(t, dirNames(t, s.cfg.BackupDir))
}

func TestRestore_RejectsBadInput(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.Restore(ctx, "m-a", ".exe", "20250101120000")
	require.ErrorIs(t, err, ErrUnsupportedExtension)

	_, err = s.Restore(ctx, "m-a", ".png", "latest")
	require.ErrorIs(t, err, ErrInvalidTimestamp)
}
