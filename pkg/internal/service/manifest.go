package service

import (
	"context"
	crand "crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yeisme/assetvault/pkg/internal/model"
	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/queue"
)

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(crand.Reader, 0)
)

// newManifestID 生成按时间排序的 ULID.
func newManifestID(t time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), ulidEntropy).String()
}

// ManifestObserver 把备份生命周期同步到 backup_manifests 表，并转发为事件与镜像任务.
// 由 revision.Store 在持有路径锁时同步调用.
type ManifestObserver struct {
	db        *gorm.DB
	rawDir    string
	backupDir string
	events    *Events
	mirror    *Mirror
	logger    zerolog.Logger
	now       func() time.Time
}

var _ revision.Observer = (*ManifestObserver)(nil)

// NewManifestObserver 创建观察者，events 与 mirror 可为 nil.
func NewManifestObserver(db *gorm.DB, rawDir, backupDir string, events *Events, mirror *Mirror, l zerolog.Logger) *ManifestObserver {
	return &ManifestObserver{
		db:        db,
		rawDir:    rawDir,
		backupDir: backupDir,
		events:    events,
		mirror:    mirror,
		logger:    l,
		now:       time.Now,
	}
}

// BackupCreated 写入清单并发布 av.backup.created.
func (o *ManifestObserver) BackupCreated(ctx context.Context, b revision.BackupFile) {
	now := o.now().UTC()
	row := model.BackupManifest{
		ID:             newManifestID(now),
		AssetKey:       b.Stem,
		Extension:      b.Ext,
		FileName:       b.Name,
		Timestamp:      b.Timestamp,
		SourceChecksum: b.Checksum,
		FileSize:       b.Size,
		CreatedAt:      now,
	}

	if err := o.db.WithContext(ctx).Create(&row).Error; err != nil {
		o.logger.Error().Err(err).Str("backup", b.Name).Msg("record backup manifest failed")
	}

	o.mirror.BackupCreated(b)
	emit(ctx, o.events, queue.TopicBackupCreated, backupPayload(b))
}

// BackupRemoved 删除清单行，按原因发布对应事件.
func (o *ManifestObserver) BackupRemoved(ctx context.Context, b revision.BackupFile, reason revision.RemoveReason) {
	if err := o.db.WithContext(ctx).Where("file_name = ?", b.Name).Delete(&model.BackupManifest{}).Error; err != nil {
		o.logger.Error().Err(err).Str("backup", b.Name).Msg("remove backup manifest failed")
	}

	switch reason {
	case revision.RemovedRestored, revision.RemovedRolledBack:
		o.mirror.BackupRestored(b, filepath.Join(o.rawDir, b.Stem+b.Ext))
	default:
		o.mirror.BackupRemoved(b)
	}

	switch reason {
	case revision.RemovedRestored:
		emit(ctx, o.events, queue.TopicBackupRestored, backupPayload(b))
	case revision.RemovedDeleted:
		emit(ctx, o.events, queue.TopicBackupDeleted, backupPayload(b))
	case revision.RemovedPruned:
		emit(ctx, o.events, queue.TopicBackupPruned, backupPayload(b))
	case revision.RemovedRolledBack:
		o.logger.Debug().Str("backup", b.Name).Msg("backup rolled back after failed write")
	}
}

// Checksums 返回文件名到源文件校验和的映射.
func (o *ManifestObserver) Checksums(ctx context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}

	var rows []model.BackupManifest
	if err := o.db.WithContext(ctx).Where("file_name IN ?", names).Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, r := range rows {
		out[r.FileName] = r.SourceChecksum
	}

	return out, nil
}

// Reconcile 删除备份文件已不存在的清单行，返回删除数量.
func (o *ManifestObserver) Reconcile(ctx context.Context) (int, error) {
	var rows []model.BackupManifest
	if err := o.db.WithContext(ctx).Select("id", "file_name").Find(&rows).Error; err != nil {
		return 0, err
	}

	var stale []string

	for _, r := range rows {
		_, err := os.Stat(filepath.Join(o.backupDir, filepath.Base(r.FileName)))
		if errors.Is(err, os.ErrNotExist) {
			stale = append(stale, r.ID)
		}
	}

	if len(stale) == 0 {
		return 0, nil
	}

	res := o.db.WithContext(ctx).Where("id IN ?", stale).Delete(&model.BackupManifest{})
	if res.Error != nil {
		return 0, res.Error
	}

	o.logger.Info().Int64("removed", res.RowsAffected).Msg("stale backup manifests removed")

	return int(res.RowsAffected), nil
}

func backupPayload(b revision.BackupFile) queue.BackupPayload {
	return queue.BackupPayload{
		AssetKey:  b.Stem,
		Extension: b.Ext,
		FileName:  b.Name,
		Timestamp: b.Timestamp,
		FileSize:  b.Size,
		Checksum:  b.Checksum,
	}
}
