package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/assetvault/pkg/configs"
	ctxPkg "github.com/yeisme/assetvault/pkg/context"
	"github.com/yeisme/assetvault/pkg/queue"
)

// eventProducer 事件头中的生产者标识.
const eventProducer = "assetvault"

// Events 按配置开关发布领域事件；发布失败只记录日志，不影响主流程.
type Events struct {
	cfg    configs.EventsConfig
	pub    queue.Publisher
	logger zerolog.Logger
}

// NewEvents 创建事件发布器，pub 为 nil 时所有事件被丢弃.
func NewEvents(cfg configs.EventsConfig, pub queue.Publisher, l zerolog.Logger) *Events {
	return &Events{cfg: cfg, pub: pub, logger: l}
}

// Enabled 判断主题是否需要发布.
func (e *Events) Enabled(topic string) bool {
	if e == nil || e.pub == nil || !e.cfg.Enabled {
		return false
	}

	switch topic {
	case queue.TopicAssetCreated:
		return e.cfg.Asset.Created
	case queue.TopicAssetUpdated:
		return e.cfg.Asset.Updated
	case queue.TopicAssetDeleted:
		return e.cfg.Asset.Deleted
	case queue.TopicRevisionStored:
		return e.cfg.Asset.Revision
	case queue.TopicBackupCreated:
		return e.cfg.Backup.Created
	case queue.TopicBackupRestored:
		return e.cfg.Backup.Restored
	case queue.TopicBackupDeleted:
		return e.cfg.Backup.Deleted
	case queue.TopicBackupPruned:
		return e.cfg.Backup.Pruned
	default:
		return false
	}
}

func emit[T any](ctx context.Context, e *Events, topic string, payload T) {
	if !e.Enabled(topic) {
		return
	}

	opts := []func(*queue.EventHeader){queue.WithProducer(eventProducer)}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	if id := ctxPkg.RequestID(ctx); id != "" {
		opts = append(opts, queue.WithRequestID(id))
	}

	if err := queue.Publish(ctx, e.pub, topic, payload, opts...); err != nil {
		e.logger.Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}
