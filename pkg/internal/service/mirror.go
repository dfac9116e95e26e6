package service

import (
	"context"
	"errors"
	"os"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/metrics"
)

// 对象存储中的前缀.
const (
	mirrorRawPrefix    = "raw"
	mirrorBackupPrefix = "backups"
)

// DefaultMirrorQueue 镜像任务队列长度.
const DefaultMirrorQueue = 256

var mirrorOps = metrics.NewCounter(
	"mirror_operations_total",
	"Object mirror operations by kind and result",
	[]string{"op", "result"},
)

var mirrorLatency = metrics.NewHistogram(
	"mirror_operation_seconds",
	"Object mirror operation latency",
	[]float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	[]string{"op"},
)

// ObjectStore 镜像所需的对象存储能力，s3.Client 满足该接口.
type ObjectStore interface {
	PutFile(ctx context.Context, key, path, contentType string) error
	Delete(ctx context.Context, key string) error
	MoveObject(ctx context.Context, fromKey, toKey string) error
}

type mirrorJob struct {
	op  string
	run func(ctx context.Context) error
}

// Mirror 把 raw 与备份目录的变更按顺序复制到对象存储.
// 单个 worker 顺序执行，保证同一文件的上传、移动与删除不会乱序.
type Mirror struct {
	objects ObjectStore
	jobs    chan mirrorJob
	logger  zerolog.Logger
	timeout time.Duration

	mu      sync.RWMutex
	closed  atomic.Bool
	started atomic.Bool
	done    chan struct{}
}

// NewMirror 创建镜像器，需调用 Start 才开始处理任务.
func NewMirror(objects ObjectStore, queueSize int, l zerolog.Logger) *Mirror {
	if queueSize <= 0 {
		queueSize = DefaultMirrorQueue
	}

	return &Mirror{
		objects: objects,
		jobs:    make(chan mirrorJob, queueSize),
		logger:  l,
		timeout: time.Minute,
		done:    make(chan struct{}),
	}
}

// Start 启动 worker，Close 后或 ctx 取消时执行完已入队的任务再退出.
func (m *Mirror) Start(ctx context.Context) {
	if m == nil || !m.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer close(m.done)

		for {
			select {
			case <-ctx.Done():
				m.drain(ctx)

				return
			case job, ok := <-m.jobs:
				if !ok {
					return
				}

				m.exec(ctx, job)
			}
		}
	}()
}

// Close 停止接收任务并等待队列中的任务完成.
func (m *Mirror) Close() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if m.closed.CompareAndSwap(false, true) {
		close(m.jobs)
	}
	m.mu.Unlock()

	if m.started.Load() {
		<-m.done
	}
}

// drain 执行队列中剩余的任务，不等待新任务.
func (m *Mirror) drain(ctx context.Context) {
	for {
		select {
		case job, ok := <-m.jobs:
			if !ok {
				return
			}

			m.exec(ctx, job)
		default:
			return
		}
	}
}

func (m *Mirror) exec(ctx context.Context, job mirrorJob) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	start := time.Now()
	err := job.run(ctx)
	mirrorLatency.WithLabelValues(job.op).Observe(time.Since(start).Seconds())

	if err != nil {
		mirrorOps.WithLabelValues(job.op, "error").Inc()
		m.logger.Warn().Err(err).Str("op", job.op).Msg("mirror operation failed")

		return
	}

	mirrorOps.WithLabelValues(job.op, "ok").Inc()
}

// enqueue 队列已满时丢弃任务，调用方持有路径锁，不能阻塞.
func (m *Mirror) enqueue(op string, run func(ctx context.Context) error) {
	if m == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() {
		mirrorOps.WithLabelValues(op, "dropped").Inc()

		return
	}

	select {
	case m.jobs <- mirrorJob{op: op, run: run}:
	default:
		mirrorOps.WithLabelValues(op, "dropped").Inc()
		m.logger.Warn().Str("op", op).Msg("mirror queue full, dropping job")
	}
}

func rawObjectKey(name string) string    { return path.Join(mirrorRawPrefix, name) }
func backupObjectKey(name string) string { return path.Join(mirrorBackupPrefix, name) }

// RevisionStored 上传新写入的修订文件.
func (m *Mirror) RevisionStored(name, localPath, contentType string) {
	m.enqueue("put_revision", func(ctx context.Context) error {
		return m.objects.PutFile(ctx, rawObjectKey(name), localPath, contentType)
	})
}

// RevisionRemoved 删除修订文件的副本.
func (m *Mirror) RevisionRemoved(name string) {
	m.enqueue("delete_revision", func(ctx context.Context) error {
		return m.objects.Delete(ctx, rawObjectKey(name))
	})
}

// BackupCreated 规范文件被移入备份目录：优先移动对象，源对象不存在时上传本地备份.
func (m *Mirror) BackupCreated(b revision.BackupFile) {
	m.enqueue("backup_created", func(ctx context.Context) error {
		err := m.objects.MoveObject(ctx, rawObjectKey(b.Stem+b.Ext), backupObjectKey(b.Name))
		if err == nil {
			return nil
		}

		if _, statErr := os.Stat(b.Path); statErr != nil {
			// 备份已被清理或恢复
			return nil
		}

		return m.objects.PutFile(ctx, backupObjectKey(b.Name), b.Path, "")
	})
}

// BackupRestored 备份被移回规范路径.
func (m *Mirror) BackupRestored(b revision.BackupFile, canonicalPath string) {
	m.enqueue("backup_restored", func(ctx context.Context) error {
		canonical := rawObjectKey(b.Stem + b.Ext)
		if err := m.objects.MoveObject(ctx, backupObjectKey(b.Name), canonical); err == nil {
			return nil
		}

		return errors.Join(
			m.objects.PutFile(ctx, canonical, canonicalPath, ""),
			m.objects.Delete(ctx, backupObjectKey(b.Name)),
		)
	})
}

// BackupRemoved 删除备份的副本.
func (m *Mirror) BackupRemoved(b revision.BackupFile) {
	m.enqueue("backup_removed", func(ctx context.Context) error {
		return m.objects.Delete(ctx, backupObjectKey(b.Name))
	})
}
