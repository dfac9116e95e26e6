package revision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// BackupFile 备份目录中的一个备份文件.
type BackupFile struct {
	Name      string
	Path      string
	Stem      string
	Ext       string
	Timestamp string
	Size      int64
	ModTime   time.Time
	// Checksum 仅在注册了 Observer 时于备份创建时计算.
	Checksum string
}

// BackupIfExists 把 path 处的文件移入备份目录，文件不存在时返回 false.
func (s *Store) BackupIfExists(ctx context.Context, path string) (BackupFile, bool, error) {
	if s.cfg.ReadOnly {
		return BackupFile{}, false, ErrReadOnly
	}

	unlock := s.locks.lock(filepath.Clean(path))
	defer unlock()

	return s.backupLocked(ctx, path)
}

// backupLocked 在已持有路径锁时执行备份与清理.
// protect 中的文件名不参与清理，也不计入保留数量.
func (s *Store) backupLocked(ctx context.Context, path string, protect ...string) (BackupFile, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return BackupFile{}, false, nil
	}

	if err != nil {
		return BackupFile{}, false, storageErr("stat", path, err)
	}

	if err := s.ensureDir(s.cfg.BackupDir); err != nil {
		return BackupFile{}, false, err
	}

	var checksum string
	if s.observer != nil {
		if checksum, _, err = HashFile(path); err != nil {
			return BackupFile{}, false, err
		}
	}

	base := filepath.Base(path)
	suffix := filepath.Ext(base)
	stem := strings.TrimSuffix(base, suffix)
	ts := Timestamp(s.now())

	var name, dest string

	for n := 0; ; n++ {
		name = backupName(stem, ts, suffix, n)
		dest = filepath.Join(s.cfg.BackupDir, name)

		found, err := exists(dest)
		if err != nil {
			return BackupFile{}, false, err
		}

		if !found {
			break
		}
	}

	if err := moveFile(path, dest); err != nil {
		return BackupFile{}, false, err
	}

	b := BackupFile{
		Name:      name,
		Path:      dest,
		Stem:      stem,
		Ext:       suffix,
		Timestamp: strings.TrimSuffix(strings.TrimPrefix(name, stem+"-"), suffix),
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Checksum:  checksum,
	}

	backupOps.WithLabelValues("created").Inc()
	s.logger.Info().Str("source", base).Str("backup", name).Msg("backup created")

	if s.observer != nil {
		s.observer.BackupCreated(ctx, b)
	}

	if _, err := s.pruneLocked(ctx, stem, suffix, protect...); err != nil {
		return b, true, err
	}

	return b, true, nil
}

// pruneLocked 只保留最新的 MaxBackupVersions 个备份，返回删除数量.
func (s *Store) pruneLocked(ctx context.Context, stem, suffix string, protect ...string) (int, error) {
	backups, err := s.listBackups(stem, suffix)
	if err != nil {
		return 0, err
	}

	candidates := backups[:0]
	for _, b := range backups {
		if !slices.Contains(protect, b.Name) {
			candidates = append(candidates, b)
		}
	}

	if len(candidates) <= s.cfg.MaxBackupVersions {
		return 0, nil
	}

	removed := 0

	for _, old := range candidates[s.cfg.MaxBackupVersions:] {
		if err := os.Remove(old.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, storageErr("remove", old.Path, err)
		}

		removed++

		backupOps.WithLabelValues("pruned").Inc()
		s.logger.Debug().Str("backup", old.Name).Msg("old backup pruned")

		if s.observer != nil {
			s.observer.BackupRemoved(ctx, old, RemovedPruned)
		}
	}

	return removed, nil
}

// ListBackups 列出资产 key + ext 的全部备份，按修改时间从新到旧排列.
func (s *Store) ListBackups(key, ext string) ([]BackupFile, error) {
	ext, err := s.checkExt(ext)
	if err != nil {
		return nil, err
	}

	safe := SafeKey(key)
	if safe == "" {
		return nil, ErrInvalidAssetKey
	}

	return s.listBackups(safe, ext)
}

// GetBackup 返回指定时间戳的备份.
func (s *Store) GetBackup(key, ext, ts string) (BackupFile, error) {
	ext, err := s.checkExt(ext)
	if err != nil {
		return BackupFile{}, err
	}

	if !ValidTimestamp(ts) {
		return BackupFile{}, ErrInvalidTimestamp
	}

	name := backupName(SafeKey(key), ts, ext, 0)
	path := filepath.Join(s.cfg.BackupDir, name)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return BackupFile{}, ErrNotFound
	}

	if err != nil {
		return BackupFile{}, storageErr("stat", path, err)
	}

	return BackupFile{
		Name:      name,
		Path:      path,
		Stem:      SafeKey(key),
		Ext:       ext,
		Timestamp: ts,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

// listBackups 匹配 {stem}-{timestamp}{suffix}，按修改时间倒序，同一时间按名称倒序.
func (s *Store) listBackups(stem, suffix string) ([]BackupFile, error) {
	entries, err := os.ReadDir(s.cfg.BackupDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, storageErr("readdir", s.cfg.BackupDir, err)
	}

	var backups []BackupFile

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		bStem, ts, bSuffix, ok := parseBackupName(e.Name())
		if !ok || bStem != stem || !strings.EqualFold(bSuffix, suffix) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			// 并发删除
			continue
		}

		backups = append(backups, BackupFile{
			Name:      e.Name(),
			Path:      filepath.Join(s.cfg.BackupDir, e.Name()),
			Stem:      bStem,
			Ext:       bSuffix,
			Timestamp: ts,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
	}

	sortBackups(backups)

	return backups, nil
}

func sortBackups(backups []BackupFile) {
	sort.SliceStable(backups, func(i, j int) bool {
		if !backups[i].ModTime.Equal(backups[j].ModTime) {
			return backups[i].ModTime.After(backups[j].ModTime)
		}

		return backups[i].Name > backups[j].Name
	})
}

// DeleteBackup 删除指定备份，不存在时返回 false.
func (s *Store) DeleteBackup(ctx context.Context, key, ext, ts string) (bool, error) {
	if s.cfg.ReadOnly {
		return false, ErrReadOnly
	}

	b, err := s.GetBackup(key, ext, ts)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	canonical, err := s.canonicalPath(key, b.Ext)
	if err != nil {
		return false, err
	}

	unlock := s.locks.lock(canonical)
	defer unlock()

	if err := os.Remove(b.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, storageErr("remove", b.Path, err)
	}

	backupOps.WithLabelValues("deleted").Inc()

	if s.observer != nil {
		s.observer.BackupRemoved(ctx, b, RemovedDeleted)
	}

	return true, nil
}

// PruneAll 对备份目录中每个 (stem, 后缀) 组执行保留策略，返回删除总数.
func (s *Store) PruneAll(ctx context.Context) (int, error) {
	if s.cfg.ReadOnly {
		return 0, ErrReadOnly
	}

	entries, err := os.ReadDir(s.cfg.BackupDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	if err != nil {
		return 0, storageErr("readdir", s.cfg.BackupDir, err)
	}

	type group struct{ stem, suffix string }

	seen := make(map[group]struct{})

	var groups []group

	for _, e := range entries {
		stem, _, suffix, ok := parseBackupName(e.Name())
		if !ok || e.IsDir() {
			continue
		}

		g := group{stem, suffix}
		if _, dup := seen[g]; !dup {
			seen[g] = struct{}{}
			groups = append(groups, g)
		}
	}

	total := 0

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		unlock := s.locks.lock(filepath.Join(s.cfg.RawDir, g.stem+g.suffix))
		n, err := s.pruneLocked(ctx, g.stem, g.suffix)
		unlock()

		total += n

		if err != nil {
			return total, err
		}
	}

	return total, nil
}
