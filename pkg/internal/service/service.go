// Package service 实现资产、备份、目录与启动导入的业务逻辑.
//
// 所有组件通过 New 一次性装配，配置由调用方显式传入.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yeisme/assetvault/pkg/cache"
	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/internal/storage/kv"
	"github.com/yeisme/assetvault/pkg/queue"
)

// Deps 装配服务所需的依赖，KV、Publisher、Objects 可为 nil.
type Deps struct {
	Assets configs.AssetsConfig
	Events configs.EventsConfig
	DB     *gorm.DB
	// KV 查询与目录缓存的后端.
	KV kv.KVStore
	// Publisher 事件发布.
	Publisher queue.Publisher
	// Objects 对象存储镜像，仅在 assets.mirror 开启时使用.
	Objects ObjectStore
	Logger  zerolog.Logger
	// Clock 测试中替换修订存储的时间来源.
	Clock func() time.Time
}

// Services 聚合全部业务服务.
type Services struct {
	Store     *revision.Store
	Assets    *AssetService
	Backups   *BackupService
	Catalog   *CatalogService
	Bootstrap *Bootstrapper
	Manifest  *ManifestObserver
	Mirror    *Mirror
	// Cache 共享的 KV 缓存，未配置 KV 时为 nil.
	Cache *cache.Cache
}

// CacheNamespace 服务写入的缓存键前缀.
const CacheNamespace = "av"

// New 装配服务.
func New(d Deps) (*Services, error) {
	if d.DB == nil {
		return nil, errors.New("service: db is required")
	}

	l := d.Logger

	var c *cache.Cache
	if d.KV != nil {
		c = cache.NewCache(d.KV, cache.WithNamespace(CacheNamespace))
	}

	events := NewEvents(d.Events, d.Publisher, l.With().Str("component", "events").Logger())

	var mirror *Mirror
	if d.Assets.Mirror && d.Objects != nil {
		mirror = NewMirror(d.Objects, DefaultMirrorQueue, l.With().Str("component", "mirror").Logger())
	}

	manifest := NewManifestObserver(d.DB, d.Assets.RawDir, d.Assets.BackupDir, events, mirror,
		l.With().Str("component", "manifest").Logger())

	opts := []revision.Option{
		revision.WithLogger(l.With().Str("component", "revision").Logger()),
		revision.WithObserver(manifest),
	}
	if d.Clock != nil {
		opts = append(opts, revision.WithClock(d.Clock))
		manifest.now = d.Clock
	}

	store, err := revision.New(revision.ConfigFromAssets(d.Assets), opts...)
	if err != nil {
		return nil, err
	}

	catalog := NewCatalogService(d.Assets.CatalogDir, d.Assets.CatalogTTL(), c,
		l.With().Str("component", "catalog").Logger())

	return &Services{
		Store:   store,
		Catalog: catalog,
		Assets: &AssetService{
			db:      d.DB,
			store:   store,
			catalog: catalog,
			cache:   c,
			events:  events,
			mirror:  mirror,
			cfg:     d.Assets,
			logger:  l.With().Str("component", "assets").Logger(),
		},
		Backups: &BackupService{
			store:    store,
			manifest: manifest,
			logger:   l.With().Str("component", "backups").Logger(),
		},
		Bootstrap: &Bootstrapper{
			db:      d.DB,
			store:   store,
			catalog: catalog,
			probe:   d.Assets.ProbeImages,
			workers: defaultWorkers(),
			logger:  l.With().Str("component", "bootstrap").Logger(),
		},
		Manifest: manifest,
		Mirror:   mirror,
		Cache:    c,
	}, nil
}

// Start 启动后台镜像 worker.
func (s *Services) Start(ctx context.Context) {
	s.Mirror.Start(ctx)
}

// Close 等待镜像队列排空.
func (s *Services) Close() {
	s.Mirror.Close()
}
