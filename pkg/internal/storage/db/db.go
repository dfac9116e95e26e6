// Package db 打开资产清单所用的 GORM 连接，驱动按构建标签注册.
package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/assetvault/pkg/configs"
)

// DialectorFactory 由 DSN 构造 dialector.
type DialectorFactory func(dsn string) gorm.Dialector

var dialectorFactories = map[configs.DBType]DialectorFactory{}

// RegisterDialectorFactory 在驱动文件的 init 中调用.
func RegisterDialectorFactory(driver configs.DBType, factory DialectorFactory) {
	dialectorFactories[driver] = factory
}

// GetRegisteredDBTypes 返回编译进来的驱动族，已排序.
func GetRegisteredDBTypes() []configs.DBType {
	types := make([]configs.DBType, 0, len(dialectorFactories))
	for t := range dialectorFactories {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// withQuery 把驱动专属参数追加到 DSN.
func withQuery(dsn, query string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + query
	}

	return dsn + "?" + query
}

// Client 包装 GORM DB 客户端.
type Client struct {
	*gorm.DB
}

// Options 创建客户端时的可选项.
type Options struct {
	Logger        *zerolog.Logger
	EnableMetrics bool
}

// New 按配置打开连接池并 ping 一次.
func New(ctx context.Context, cfg configs.DBConfig, opts Options) (*Client, error) {
	driver := cfg.Driver()

	factory, ok := dialectorFactories[driver]
	if !ok {
		return nil, fmt.Errorf("db: driver %q not compiled in (have %v)", cfg.Type, GetRegisteredDBTypes())
	}

	l := zerolog.Nop()
	if opts.Logger != nil {
		l = *opts.Logger
	}

	gdb, err := gorm.Open(factory(cfg.DSN()), &gorm.Config{
		Logger: logger.New(&l, logger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if driver == configs.SQLite {
		// 单写者
		maxOpen = 1
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("db: ping %s: %w", driver, err)
	}

	client := &Client{DB: gdb}

	if opts.EnableMetrics {
		if err := client.Use(gormPrometheus.New(gormPrometheus.Config{
			DBName:          metricsName(cfg),
			RefreshInterval: 15,
		})); err != nil {
			return nil, fmt.Errorf("db: register metrics: %w", err)
		}
	}

	l.Info().Str("driver", string(driver)).Str("database", cfg.Database).Msg("database ready")

	return client, nil
}

// metricsName gorm 指标的 db 标签，SQLite 路径只取文件名.
func metricsName(cfg configs.DBConfig) string {
	name := cfg.Database
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	return strings.TrimSuffix(name, ".db")
}

// GetDB 返回 GORM DB 实例.
func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

// Ping 供健康检查使用.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
