package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/internal/types"
	"github.com/yeisme/assetvault/pkg/tracing"
)

// BackupService 列出、恢复与删除备份文件.
type BackupService struct {
	store    *revision.Store
	manifest *ManifestObserver
	logger   zerolog.Logger
}

// List 列出 key + ext 的备份，从新到旧，附带清单中记录的源文件校验和.
func (s *BackupService) List(ctx context.Context, key, ext string) (*types.BackupListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "BackupService.List")
	defer span.End()

	ext = revision.NormalizeExt(ext)

	backups, err := s.store.ListBackups(key, ext)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(backups))
	for _, b := range backups {
		names = append(names, b.Name)
	}

	checksums, err := s.manifest.Checksums(ctx, names)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load backup checksums failed")

		checksums = map[string]string{}
	}

	resp := &types.BackupListResponse{
		AssetKey:  key,
		Extension: ext,
		Backups:   make([]types.BackupFileInfo, 0, len(backups)),
	}

	for _, b := range backups {
		resp.Backups = append(resp.Backups, types.BackupFileInfo{
			FileName:        b.Name,
			FileSize:        b.Size,
			CreatedAt:       b.ModTime,
			BackupTimestamp: b.Timestamp,
			Checksum:        checksums[b.Name],
		})
	}

	return resp, nil
}

// Restore 用备份替换当前文件，备份不存在时 Success 为 false.
func (s *BackupService) Restore(ctx context.Context, key, ext, ts string) (*types.BackupActionResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "BackupService.Restore")
	defer span.End()

	ext = revision.NormalizeExt(ext)

	ok, err := s.store.Restore(ctx, key, ext, ts)
	if err != nil && !errors.Is(err, revision.ErrInvalidTimestamp) {
		return nil, err
	}

	if !ok {
		return &types.BackupActionResponse{
			Message: fmt.Sprintf("Failed to restore %s%s from backup %s. Backup file not found.", key, ext, ts),
		}, nil
	}

	return &types.BackupActionResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully restored %s%s from backup %s", key, ext, ts),
	}, nil
}

// Delete 删除一个备份，备份不存在时 Success 为 false.
func (s *BackupService) Delete(ctx context.Context, key, ext, ts string) (*types.BackupActionResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "BackupService.Delete")
	defer span.End()

	ext = revision.NormalizeExt(ext)

	ok, err := s.store.DeleteBackup(ctx, key, ext, ts)
	if err != nil && !errors.Is(err, revision.ErrInvalidTimestamp) {
		return nil, err
	}

	if !ok {
		return &types.BackupActionResponse{
			Message: fmt.Sprintf("Failed to delete backup %s for %s%s. Backup file not found.", ts, key, ext),
		}, nil
	}

	return &types.BackupActionResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully deleted backup %s for %s%s", ts, key, ext),
	}, nil
}

// Prune 对所有资产执行备份保留策略.
func (s *BackupService) Prune(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "BackupService.Prune")
	defer span.End()

	n, err := s.store.PruneAll(ctx)
	if err != nil {
		return n, err
	}

	if n > 0 {
		s.logger.Info().Int("removed", n).Msg("backup retention sweep finished")
	}

	return n, nil
}

// Reconcile 清理失去备份文件的清单记录.
func (s *BackupService) Reconcile(ctx context.Context) (int, error) {
	return s.manifest.Reconcile(ctx)
}
