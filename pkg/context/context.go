// Package context 在请求 context 中传递存储管理器与请求 ID，并为日志附加追踪字段.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/assetvault/pkg/internal/storage"
	dbc "github.com/yeisme/assetvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/assetvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/assetvault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/assetvault/pkg/internal/storage/s3"
)

type (
	managerKey   struct{}
	requestIDKey struct{}
)

// WithStorageManager 把 Manager 放入 context.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, mgr)
}

// GetManager 取出 Manager，不存在时返回 nil.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey{}).(*storage.Manager)
	return mgr
}

// GetDBClient 取出数据库客户端.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetKVClient 取出缓存客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// GetS3Client 取出对象存储客户端，镜像未启用时为 nil.
func GetS3Client(ctx context.Context) *s3c.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetS3Client()
	}

	return nil
}

// GetMQClient 取出事件总线客户端，事件未启用时为 nil.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// WithRequestID 记录当前请求 ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID 返回 WithRequestID 记录的 ID，后台任务中为空.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithTraceContext 为 logger 附加 trace_id、span_id 与 request_id.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	lc := logger.With()

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		lc = lc.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}

	if id := RequestID(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}

	return lc.Logger()
}
