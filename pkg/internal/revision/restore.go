package revision

import (
	"context"
	"errors"
)

// Restore 用指定备份替换资产的规范文件.
//
// 备份不存在时返回 false 且不产生任何副作用；规范路径已有文件且启用备份时，
// 当前文件会先被备份，被恢复的备份不参与这次清理.
// 备份当前文件与移入恢复文件之间不是原子的，进程在两步之间崩溃会留下空的规范路径，
// 此时两个备份文件都仍在备份目录中.
func (s *Store) Restore(ctx context.Context, key, ext, ts string) (bool, error) {
	if s.cfg.ReadOnly {
		return false, ErrReadOnly
	}

	ext, err := s.checkExt(ext)
	if err != nil {
		return false, err
	}

	if !ValidTimestamp(ts) {
		return false, ErrInvalidTimestamp
	}

	canonical, err := s.canonicalPath(key, ext)
	if err != nil {
		return false, err
	}

	unlock := s.locks.lock(canonical)
	defer unlock()

	b, err := s.GetBackup(key, ext, ts)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	if err := s.ensureDir(s.cfg.RawDir); err != nil {
		return false, err
	}

	if s.cfg.EnableBackup {
		if _, _, err := s.backupLocked(ctx, canonical, b.Name); err != nil {
			return false, err
		}
	}

	if err := moveFile(b.Path, canonical); err != nil {
		return false, err
	}

	backupOps.WithLabelValues("restored").Inc()
	s.logger.Info().Str("asset_key", key).Str("backup", b.Name).Msg("backup restored")

	if s.observer != nil {
		s.observer.BackupRemoved(ctx, b, RemovedRestored)
	}

	return true, nil
}
