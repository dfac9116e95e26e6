package revision

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RawFile raw 目录中的一个候选文件.
type RawFile struct {
	Name    string
	Path    string
	Stem    string
	Ext     string
	Size    int64
	ModTime time.Time
}

// ScanRaw 列出 raw 目录中扩展名允许的文件，跳过隐藏文件与子目录，按文件名排序.
func (s *Store) ScanRaw() ([]RawFile, error) {
	entries, err := os.ReadDir(s.cfg.RawDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, storageErr("readdir", s.cfg.RawDir, err)
	}

	var files []RawFile

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		if !s.Allowed(ext) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		files = append(files, RawFile{
			Name:    name,
			Path:    filepath.Join(s.cfg.RawDir, name),
			Stem:    strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return files, nil
}

// RemoveRaw 删除 raw 目录中属于 key 的修订文件，文件不存在时返回 false.
func (s *Store) RemoveRaw(key, name string) (bool, error) {
	if s.cfg.ReadOnly {
		return false, ErrReadOnly
	}

	if name == "" || filepath.Base(name) != name {
		return false, ErrNotFound
	}

	canonical, err := s.canonicalPath(key, NormalizeExt(filepath.Ext(name)))
	if err != nil {
		return false, err
	}

	unlock := s.locks.lock(canonical)
	defer unlock()

	path := filepath.Join(s.cfg.RawDir, name)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, storageErr("remove", path, err)
	}

	return true, nil
}
