package revision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Upload 待写入的上传内容，FileName 仅用于取扩展名.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// StoredFile 写入完成后的文件元数据.
type StoredFile struct {
	FileName     string
	RelativePath string
	AbsolutePath string
	FileSize     int64
	Checksum     string
	ContentType  string
	// Backup 写入前被移入备份目录的规范文件，没有时为 nil.
	Backup *BackupFile
}

// Save 将上传内容写为 assetKey 的一个新修订.
//
// existing 为数据库中已有修订的文件名；规范文件名不在其中时直接使用，
// 否则使用 {base}-{UTC 时间戳}{ext}，同秒冲突时追加 -1、-2 ….
func (s *Store) Save(ctx context.Context, assetKey string, up Upload, existing []string) (*StoredFile, error) {
	if s.cfg.ReadOnly {
		return nil, ErrReadOnly
	}

	if strings.TrimSpace(up.FileName) == "" {
		return nil, ErrMissingFileName
	}

	ext, err := s.checkExt(filepath.Ext(up.FileName))
	if err != nil {
		return nil, err
	}

	canonical, err := s.canonicalPath(assetKey, ext)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(canonical)
	defer unlock()

	if err := s.ensureDir(s.cfg.RawDir); err != nil {
		return nil, err
	}

	var backup *BackupFile

	if s.cfg.EnableBackup {
		b, created, err := s.backupLocked(ctx, canonical)
		if err != nil {
			return nil, err
		}

		if created {
			backup = &b
		}
	}

	name, err := s.chooseName(SafeKey(assetKey), ext, existing)
	if err != nil {
		return nil, err
	}

	dest := filepath.Join(s.cfg.RawDir, name)

	stored, err := s.write(ctx, dest, up)
	if err != nil {
		s.rollback(ctx, canonical, backup)

		return nil, err
	}

	stored.FileName = name
	stored.RelativePath = name
	stored.Backup = backup

	savedBytes.WithLabelValues(ext).Add(float64(stored.FileSize))
	s.logger.Debug().
		Str("asset_key", assetKey).
		Str("file", name).
		Int64("size", stored.FileSize).
		Str("checksum", stored.Checksum).
		Msg("revision stored")

	return stored, nil
}

// chooseName 选择修订文件名，同时避开磁盘上已存在的文件.
func (s *Store) chooseName(base, ext string, existing []string) (string, error) {
	known := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		known[filepath.Base(e)] = struct{}{}
	}

	free := func(name string) (bool, error) {
		if _, ok := known[name]; ok {
			return false, nil
		}

		found, err := exists(filepath.Join(s.cfg.RawDir, name))

		return !found, err
	}

	candidate := base + ext
	if _, ok := known[candidate]; !ok {
		return candidate, nil
	}

	ts := Timestamp(s.now())
	for n := 0; ; n++ {
		candidate = revisionName(base, ts, ext, n)

		ok, err := free(candidate)
		if err != nil {
			return "", err
		}

		if ok {
			return candidate, nil
		}
	}
}

// write 分块写入 dest，同时计算 SHA-256 与大小；失败时删除残留文件.
func (s *Store) write(ctx context.Context, dest string, up Upload) (_ *StoredFile, err error) {
	if up.Body == nil {
		return nil, storageErr("write", dest, errors.New("empty upload body"))
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, storageErr("create", dest, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = storageErr("close", dest, cerr)
		}

		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	hasher := sha256.New()
	buf := make([]byte, ChunkSize)

	var (
		size  int64
		sniff []byte
	)

	for {
		if cerr := ctx.Err(); cerr != nil {
			return nil, storageErr("write", dest, cerr)
		}

		n, rerr := up.Body.Read(buf)
		if n > 0 {
			if sniff == nil {
				sniff = append([]byte(nil), buf[:min(n, 3072)]...)
			}

			if _, werr := f.Write(buf[:n]); werr != nil {
				return nil, storageErr("write", dest, werr)
			}

			hasher.Write(buf[:n])
			size += int64(n)
		}

		if errors.Is(rerr, io.EOF) {
			break
		}

		if rerr != nil {
			return nil, storageErr("read upload", dest, rerr)
		}
	}

	if err := f.Sync(); err != nil {
		return nil, storageErr("sync", dest, err)
	}

	now := s.now()
	if err := os.Chtimes(dest, now, now); err != nil {
		return nil, storageErr("touch", dest, err)
	}

	return &StoredFile{
		AbsolutePath: dest,
		FileSize:     size,
		Checksum:     hex.EncodeToString(hasher.Sum(nil)),
		ContentType:  contentType(up.ContentType, sniff),
	}, nil
}

// rollback 写入失败时把本次创建的备份移回规范路径.
func (s *Store) rollback(ctx context.Context, canonical string, backup *BackupFile) {
	if backup == nil {
		return
	}

	if err := moveFile(backup.Path, canonical); err != nil {
		s.logger.Error().Err(err).Str("backup", backup.Name).Msg("failed to roll back backup after write error")

		return
	}

	if s.observer != nil {
		s.observer.BackupRemoved(ctx, *backup, RemovedRolledBack)
	}
}

// Discard 撤销一次成功的 Save：删除写入的修订文件，规范路径空出时把本次的备份移回.
func (s *Store) Discard(ctx context.Context, assetKey string, stored *StoredFile) error {
	canonical, err := s.canonicalPath(assetKey, NormalizeExt(filepath.Ext(stored.FileName)))
	if err != nil {
		return err
	}

	unlock := s.locks.lock(canonical)
	defer unlock()

	path := filepath.Join(s.cfg.RawDir, filepath.Base(stored.FileName))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return storageErr("remove", path, err)
	}

	if stored.Backup == nil {
		return nil
	}

	occupied, err := exists(canonical)
	if err != nil {
		return err
	}

	if !occupied {
		s.rollback(ctx, canonical, stored.Backup)
	}

	return nil
}

// contentType 优先使用客户端声明的类型，缺失时按内容识别.
func contentType(declared string, head []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	if len(head) == 0 {
		return "application/octet-stream"
	}

	return mimetype.Detect(head).String()
}

// HashFile 计算文件的 SHA-256 与大小.
func HashFile(path string) (checksum string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, storageErr("open", path, err)
	}
	defer f.Close()

	h := sha256.New()

	size, err = io.CopyBuffer(h, f, make([]byte, ChunkSize))
	if err != nil {
		return "", 0, storageErr("read", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// DetectContentType 按文件内容识别 MIME 类型.
func DetectContentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}

	return mt.String()
}

// moveFile 重命名文件，跨设备时退化为复制后删除.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	if !errors.Is(err, syscall.EXDEV) {
		return storageErr("rename", src, err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return storageErr("stat", src, err)
	}

	if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
		return err
	}

	if err := os.Chtimes(dst, time.Now(), info.ModTime()); err != nil {
		return storageErr("touch", dst, err)
	}

	if err := os.Remove(src); err != nil {
		return storageErr("remove", src, err)
	}

	return nil
}

func copyFile(src, dst string, perm os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return storageErr("open", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return storageErr("create", dst, err)
	}

	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = storageErr("close", dst, cerr)
		}
	}()

	if _, err := io.CopyBuffer(out, in, make([]byte, ChunkSize)); err != nil {
		return storageErr("copy", src, err)
	}

	return nil
}
