package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/model"
	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/queue"
)

func TestBackupRestoreAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.svc.Store

	for _, body := range []string{"one", "two", "three"} {
		_, err := st.Save(ctx, "m-slime", upload("m-slime.png", body), []string{})
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	list, err := f.svc.Backups.List(ctx, "m-slime", ".png")
	require.NoError(t, err)
	require.Len(t, list.Backups, 2)

	oldest := list.Backups[1].BackupTimestamp

	resp, err := f.svc.Backups.Restore(ctx, "m-slime", "png", oldest)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "Successfully restored m-slime.png from backup "+oldest, resp.Message)

	data, err := os.ReadFile(filepath.Join(f.cfg.RawDir, "m-slime.png"))
	require.NoError(t, err)
	require.Equal(t, "one", string(data))

	resp, err = f.svc.Backups.Restore(ctx, "m-slime", "png", "19990101000000")
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "Failed to restore m-slime.png from backup 19990101000000. Backup file not found.", resp.Message)

	resp, err = f.svc.Backups.Restore(ctx, "m-slime", "png", "../../etc")
	require.NoError(t, err)
	require.False(t, resp.Success)

	list, err = f.svc.Backups.List(ctx, "m-slime", ".png")
	require.NoError(t, err)
	require.Len(t, list.Backups, 2)

	target := list.Backups[0].BackupTimestamp

	resp, err = f.svc.Backups.Delete(ctx, "m-slime", ".png", target)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "Successfully deleted backup "+target+" for m-slime.png", resp.Message)

	resp, err = f.svc.Backups.Delete(ctx, "m-slime", ".png", target)
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "Failed to delete backup "+target+" for m-slime.png. Backup file not found.", resp.Message)

	var rows []model.BackupManifest
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)

	topics := f.events.topics()
	require.Contains(t, topics, queue.TopicBackupRestored)
	require.Contains(t, topics, queue.TopicBackupDeleted)
}

func TestBackupList_RejectsUnknownExtension(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Backups.List(context.Background(), "m-slime", "exe")
	require.ErrorIs(t, err, revision.ErrUnsupportedExtension)
}

func TestBackupPruneAndReconcile(t *testing.T) {
	f := newFixture(t, func(c *configs.AssetsConfig) { c.MaxBackupVersions = 1 })
	ctx := context.Background()

	for _, body := range []string{"a", "b", "c"} {
		_, err := f.svc.Store.Save(ctx, "map-florence", upload("map-florence.png", body), []string{})
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	list, err := f.svc.Backups.List(ctx, "map-florence", ".png")
	require.NoError(t, err)
	require.Len(t, list.Backups, 1)

	n, err := f.svc.Backups.Prune(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	// 绕过存储直接删除文件，清单行成为孤儿
	require.NoError(t, os.Remove(filepath.Join(f.cfg.BackupDir, list.Backups[0].FileName)))

	n, err = f.svc.Backups.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var count int64
	require.NoError(t, f.db.Model(&model.BackupManifest{}).Count(&count).Error)
	require.Zero(t, count)
}
