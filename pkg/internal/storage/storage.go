// Package storage 聚合数据库、对象存储、消息队列与 KV 客户端.
//
//	mgr, err := storage.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer mgr.Close()
//
//	dbClient := mgr.GetDBClient()
//	s3Client := mgr.GetS3Client() // 未启用时为 nil
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/configs"
	dbc "github.com/yeisme/assetvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/assetvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/assetvault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/assetvault/pkg/internal/storage/s3"
	"github.com/yeisme/assetvault/pkg/metrics"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB *dbc.Client
	S3 *s3c.Client
	MQ *mqc.Client
	KV *kvc.Client
}

// New 按配置初始化存储. DB 与 KV 必需；S3 仅在 s3.enabled 时连接；
// MQ 仅在 events.enabled 时创建.
func New(ctx context.Context, cfg *configs.AppConfig, l zerolog.Logger) (*Manager, error) {
	m := &Manager{}

	dbLogger := l.With().Str("component", "db").Logger()

	dbi, err := dbc.New(ctx, cfg.DB, dbc.Options{
		Logger:        &dbLogger,
		EnableMetrics: cfg.Metrics.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	m.DB = dbi

	if m.KV, err = kvc.NewKVClient(ctx, cfg.KV); err != nil {
		m.Close()

		return nil, fmt.Errorf("init kv (%s): %w", cfg.KV.Type, err)
	}

	if cfg.S3.IsConfigured() {
		if m.S3, err = s3c.New(ctx, cfg.S3, l); err != nil {
			m.Close()

			return nil, fmt.Errorf("init s3: %w", err)
		}
	}

	if cfg.Events.Enabled {
		opts := []mqc.Option{mqc.WithLogger(l)}
		if cfg.Metrics.Enabled {
			opts = append(opts, mqc.WithMetrics(metrics.GetRegistry()))
		}

		if m.MQ, err = mqc.New(ctx, cfg.MQ, opts...); err != nil {
			m.Close()

			return nil, err
		}
	}

	l.Info().
		Str("db", string(cfg.DB.Type)).
		Str("kv", cfg.KV.Type).
		Bool("s3", m.S3 != nil).
		Bool("mq", m.MQ != nil).
		Msg("storage manager initialized")

	return m, nil
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// Close 关闭所有已初始化的资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
