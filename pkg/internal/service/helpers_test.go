package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/model"
	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/internal/storage/kv"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type published struct {
	topic string
	msg   *message.Message
}

type capturePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (c *capturePublisher) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range msgs {
		c.msgs = append(c.msgs, published{topic: topic, msg: m})
	}

	return nil
}

func (c *capturePublisher) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		out = append(out, m.topic)
	}

	return out
}

type fixture struct {
	svc    *Services
	db     *gorm.DB
	cfg    configs.AssetsConfig
	clock  *fakeClock
	events *capturePublisher
}

const (
	monsterBlueprints = `[
		{"id": "m-slime", "name": "史莱姆", "realmTier": 2},
		{"id": "boss-king", "name": "King", "realmTier": 12},
		{"id": "npc-guard", "name": "Guard"}
	]`
	monsterPositions = `{"map-florence": {"m-slime": {"x": 1}}}`
	mapMetadata      = `{"maps": [{"id": "map-florence", "name": "佛罗伦萨"}], "defaultMapId": "map-default-town"}`
	skillMetadata    = `[{"id": "fire_ball", "name": "火球"}, {"id": "fire_ball", "name": "大火球"}]`
)

func writeCatalog(t *testing.T, dir string) {
	t.Helper()

	files := map[string]string{
		MonsterBlueprintsFile: monsterBlueprints,
		MonsterPositionsFile:  monsterPositions,
		MapMetadataFile:       mapMetadata,
		SkillMetadataFile:     skillMetadata,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func newFixture(t *testing.T, mutate ...func(*configs.AssetsConfig)) *fixture {
	t.Helper()

	root := t.TempDir()
	cfg := configs.AssetsConfig{
		RawDir:                 filepath.Join(root, "raw"),
		BackupDir:              filepath.Join(root, "backups"),
		CatalogDir:             filepath.Join(root, "catalog"),
		AllowedExtensions:      configs.DefaultAllowedExtensions,
		EnableBackup:           true,
		MaxBackupVersions:      3,
		PaginationDefaultLimit: 20,
		PaginationMaxLimit:     100,
		CatalogCacheSeconds:    60,
		ProbeImages:            true,
		PublicRawPrefix:        "/files/raw",
	}
	for _, m := range mutate {
		m(&cfg)
	}

	require.NoError(t, os.MkdirAll(cfg.CatalogDir, 0o755))
	writeCatalog(t, cfg.CatalogDir)

	db, err := gorm.Open(sqlite.Open(filepath.Join(root, "assets.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.Migrate(db))

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	events := &capturePublisher{}

	svc, err := New(Deps{
		Assets:    cfg,
		Events:    allEvents(),
		DB:        db,
		KV:        store,
		Publisher: events,
		Logger:    zerolog.Nop(),
		Clock:     clock.Now,
	})
	require.NoError(t, err)

	return &fixture{svc: svc, db: db, cfg: cfg, clock: clock, events: events}
}

func allEvents() configs.EventsConfig {
	return configs.EventsConfig{
		Enabled: true,
		Asset:   configs.AssetEventsConfig{Created: true, Updated: true, Deleted: true, Revision: true},
		Backup:  configs.BackupEventsConfig{Created: true, Restored: true, Deleted: true, Pruned: true},
	}
}

func upload(name, body string) revision.Upload {
	return revision.Upload{FileName: name, ContentType: "image/png", Body: strings.NewReader(body)}
}

var testURLs = URLBuilder{BaseURL: "http://assets.test", Prefix: "/files/raw"}

func bytesReader(s string) *strings.Reader { return strings.NewReader(s) }
