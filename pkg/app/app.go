// Package app 装配存储、业务服务、调度器与 HTTP 引擎.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/jobs"
	"github.com/yeisme/assetvault/pkg/internal/model"
	"github.com/yeisme/assetvault/pkg/internal/router"
	"github.com/yeisme/assetvault/pkg/internal/service"
	"github.com/yeisme/assetvault/pkg/internal/storage"
	"github.com/yeisme/assetvault/pkg/log"
	"github.com/yeisme/assetvault/pkg/metrics"
	"github.com/yeisme/assetvault/pkg/middleware"
	"github.com/yeisme/assetvault/pkg/scheduler"
	"github.com/yeisme/assetvault/pkg/tracing"
)

const defaultShutdownTimeout = 10 * time.Second

// App 持有进程内全部组件.
type App struct {
	Engine    *gin.Engine
	Services  *service.Services
	Manager   *storage.Manager
	Scheduler *scheduler.Scheduler

	config *configs.AppConfig
	logger zerolog.Logger
}

// New 初始化存储与服务，不启动任何后台任务.
func New(ctx context.Context, cfg *configs.AppConfig) (*App, error) {
	log.Init(cfg)
	l := log.Component("app")

	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	mgr, svc, err := NewServices(ctx, cfg, *log.Logger())
	if err != nil {
		return nil, err
	}

	sched, err := scheduler.New(log.Component("scheduler"))
	if err != nil {
		_ = mgr.Close()

		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.Register(sched, svc, cfg.Assets.Jobs, log.Component("jobs")); err != nil {
		l.Warn().Err(err).Msg("some jobs were not registered")
	}

	a := &App{
		Services:  svc,
		Manager:   mgr,
		Scheduler: sched,
		config:    cfg,
		logger:    l,
	}
	a.Engine = a.newEngine()

	return a, nil
}

// NewServices 连接存储、迁移表结构并装配业务服务，CLI 子命令也复用它.
func NewServices(ctx context.Context, cfg *configs.AppConfig, l zerolog.Logger) (*storage.Manager, *service.Services, error) {
	mgr, err := storage.New(ctx, cfg, l)
	if err != nil {
		return nil, nil, err
	}

	db := mgr.DB.GetDB()
	if err := model.Migrate(db); err != nil {
		_ = mgr.Close()

		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	deps := service.Deps{
		Assets: cfg.Assets,
		Events: cfg.Events,
		DB:     db,
		Logger: l,
	}

	// 未启用的客户端保持接口为 nil.
	if mgr.KV != nil {
		deps.KV = mgr.KV
	}

	if mgr.MQ != nil {
		deps.Publisher = mgr.MQ
	}

	if mgr.S3 != nil {
		deps.Objects = mgr.S3
	}

	svc, err := service.New(deps)
	if err != nil {
		_ = mgr.Close()

		return nil, nil, err
	}

	return mgr, svc, nil
}

func (a *App) newEngine() *gin.Engine {
	cfg := a.config
	httpLogger := log.Component("http")

	gin.DefaultWriter = log.NewGinWriter(&httpLogger, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(&httpLogger, zerolog.ErrorLevel)

	engine := gin.New()
	engine.MaxMultipartMemory = 32 << 20

	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.CORSMiddleware(cfg.Auth),
		middleware.TracingMiddleware(),
		middleware.GinLoggerMiddleware(httpLogger),
		middleware.CompressMiddleware(cfg.Assets.PublicRawPrefix, cfg.Metrics.Path),
		middleware.RateLimitMiddleware(cfg.RateLimit, cfg.Auth),
	)

	if cfg.Metrics.Enabled {
		engine.Use(middleware.PrometheusMiddleware())
		_ = metrics.StartMetricsServer(cfg.Metrics, engine)
	}

	router.Register(engine, router.Deps{
		Config:    cfg,
		Services:  a.Services,
		Manager:   a.Manager,
		Scheduler: a.Scheduler,
		Logger:    *log.Logger(),
	})

	return engine
}

// Bootstrap 在资产表为空时从 raw 目录导入.
func (a *App) Bootstrap(ctx context.Context) {
	if !a.config.Assets.BootstrapOnStart {
		return
	}

	n, err := a.Services.Bootstrap.Run(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("bootstrap failed")
		return
	}

	if n > 0 {
		a.logger.Info().Int("assets", n).Msg("bootstrapped assets from raw directory")
	}
}

// Run 启动后台任务与 HTTP 服务，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	a.Bootstrap(ctx)
	a.Services.Start(ctx)
	a.Scheduler.Start()

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.config.Server.ReadTimeout,
		ConnState:         trackConn,
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.Close()

		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	a.Close()

	return err
}

// Close 停止调度器、排空镜像队列并关闭存储.
func (a *App) Close() {
	if err := a.Scheduler.Stop(); err != nil {
		a.logger.Warn().Err(err).Msg("stop scheduler")
	}

	a.Services.Close()

	if err := a.Manager.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close storage")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	_ = tracing.ShutdownTracer(ctx)
}

func (a *App) shutdownTimeout() time.Duration {
	if t := a.config.Server.ShutdownTimeout; t > 0 {
		return t
	}

	return defaultShutdownTimeout
}

func trackConn(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		metrics.ActiveConnections.Inc()
	case http.StateHijacked, http.StateClosed:
		metrics.ActiveConnections.Dec()
	}
}
