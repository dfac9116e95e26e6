// Package revision 实现资产文件的修订写入、备份轮转与从备份恢复.
//
// 同一规范路径上的写入、备份、恢复和删除都在同一把进程内锁中完成，
// 规范路径为 {raw_dir}/{safe(asset_key)}{ext}.
package revision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/configs"
)

// ChunkSize 流式写入时的分块大小.
const ChunkSize = 1 << 20

// Config 修订存储所需的配置，由调用方显式构造并注入.
type Config struct {
	RawDir            string
	BackupDir         string
	AllowedExtensions []string
	EnableBackup      bool
	MaxBackupVersions int
	ReadOnly          bool
}

// ConfigFromAssets 从应用配置的 assets 段构建 Config.
func ConfigFromAssets(c configs.AssetsConfig) Config {
	return Config{
		RawDir:            c.RawDir,
		BackupDir:         c.BackupDir,
		AllowedExtensions: c.AllowedExtensions,
		EnableBackup:      c.EnableBackup,
		MaxBackupVersions: c.MaxBackupVersions,
		ReadOnly:          c.ReadOnly,
	}
}

// Observer 接收备份文件的生命周期通知，在持有路径锁时同步调用.
type Observer interface {
	BackupCreated(ctx context.Context, b BackupFile)
	BackupRemoved(ctx context.Context, b BackupFile, reason RemoveReason)
}

// RemoveReason 备份被移除的原因.
type RemoveReason string

const (
	RemovedPruned     RemoveReason = "pruned"
	RemovedRestored   RemoveReason = "restored"
	RemovedDeleted    RemoveReason = "deleted"
	RemovedRolledBack RemoveReason = "rolled_back"
)

// Store 基于本地文件系统的修订存储.
type Store struct {
	cfg      Config
	allowed  []string
	locks    *keyLocks
	logger   zerolog.Logger
	now      func() time.Time
	observer Observer
}

// Option 配置 Store.
type Option func(*Store)

// WithLogger 设置日志.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock 替换时间来源，测试中用于控制时间戳.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithObserver 注册备份生命周期观察者.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New 创建 Store.
func New(cfg Config, opts ...Option) (*Store, error) {
	if cfg.RawDir == "" || cfg.BackupDir == "" {
		return nil, errors.New("revision: raw and backup directories are required")
	}

	if cfg.MaxBackupVersions < 1 {
		return nil, fmt.Errorf("revision: max backup versions must be >= 1, got %d", cfg.MaxBackupVersions)
	}

	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = configs.DefaultAllowedExtensions
	}

	allowed := make([]string, 0, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		if e := NormalizeExt(ext); e != "" && !slices.Contains(allowed, e) {
			allowed = append(allowed, e)
		}
	}

	sort.Strings(allowed)

	s := &Store{
		cfg:     cfg,
		allowed: allowed,
		locks:   newKeyLocks(),
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Config 返回存储配置的副本.
func (s *Store) Config() Config {
	return s.cfg
}

// AllowedExtensions 返回排序后的允许扩展名.
func (s *Store) AllowedExtensions() []string {
	return slices.Clone(s.allowed)
}

// Allowed 判断扩展名是否允许.
func (s *Store) Allowed(ext string) bool {
	_, found := slices.BinarySearch(s.allowed, NormalizeExt(ext))

	return found
}

// checkExt 校验并返回规范化扩展名.
func (s *Store) checkExt(ext string) (string, error) {
	ext = NormalizeExt(ext)
	if !s.Allowed(ext) {
		return "", &ExtensionError{Ext: ext, Allowed: s.AllowedExtensions()}
	}

	return ext, nil
}

// canonicalPath 返回 key + ext 的规范路径.
func (s *Store) canonicalPath(key, ext string) (string, error) {
	safe := SafeKey(key)
	if safe == "" || safe == "." || safe == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidAssetKey, key)
	}

	return filepath.Join(s.cfg.RawDir, safe+ext), nil
}

// RawPath 返回 raw 目录中文件的绝对路径.
func (s *Store) RawPath(name string) string {
	return filepath.Join(s.cfg.RawDir, filepath.Base(name))
}

func (s *Store) ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storageErr("mkdir", dir, err)
	}

	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, storageErr("stat", path, err)
}
