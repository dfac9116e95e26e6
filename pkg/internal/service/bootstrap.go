package service

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yeisme/assetvault/pkg/internal/model"
	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/tracing"
)

// Bootstrapper 在资产表为空时，从 raw 目录中已有的文件建立资产与修订记录.
type Bootstrapper struct {
	db      *gorm.DB
	store   *revision.Store
	catalog *CatalogService
	probe   bool
	workers int
	logger  zerolog.Logger
}

type scannedFile struct {
	revision.RawFile
	checksum    string
	contentType string
	width       int
	height      int
}

// Run 执行导入，返回创建的资产数量；资产表非空时什么都不做.
func (b *Bootstrapper) Run(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "Bootstrapper.Run")
	defer span.End()

	var existing int64
	if err := b.db.WithContext(ctx).Model(&model.Asset{}).Count(&existing).Error; err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}

	if existing > 0 {
		b.logger.Debug().Int64("assets", existing).Msg("skipping bootstrap, database already populated")

		return 0, nil
	}

	raw, err := b.store.ScanRaw()
	if err != nil {
		return 0, err
	}

	if len(raw) == 0 {
		b.logger.Info().Str("dir", b.store.Config().RawDir).Msg("no raw asset files found, skipping bootstrap")

		return 0, nil
	}

	files, err := b.hashAll(ctx, raw)
	if err != nil {
		return 0, err
	}

	groups := map[string][]scannedFile{}
	for _, f := range files {
		key := revision.RevisionBase(f.Stem)
		groups[key] = append(groups[key], f)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	lookups := b.catalog.Lookups(ctx)
	assets := make([]model.Asset, 0, len(keys))

	for _, key := range keys {
		typ := InferAssetType(key, lookups)

		tags := []string{}
		if typ == model.AssetTypeMonster {
			tags = b.catalog.MonsterTags(ctx, key, nil)
		}

		asset := model.Asset{
			AssetKey:  key,
			AssetType: typ,
			Title:     GuessTitle(key, typ, lookups),
			Tags:      tags,
		}
		attachRevisions(&asset, groups[key])
		assets = append(assets, asset)
	}

	if err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&assets).Error
	}); err != nil {
		return 0, fmt.Errorf("bootstrap assets: %w", err)
	}

	b.logger.Info().Int("assets", len(assets)).Int("files", len(files)).Msg("bootstrapped assets from raw directory")

	return len(assets), nil
}

// hashAll 并发计算校验和与内容类型.
func (b *Bootstrapper) hashAll(ctx context.Context, raw []revision.RawFile) ([]scannedFile, error) {
	out := make([]scannedFile, len(raw))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.workers, 1))

	for i, f := range raw {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			sum, _, err := revision.HashFile(f.Path)
			if err != nil {
				return err
			}

			sf := scannedFile{RawFile: f, checksum: sum, contentType: contentTypeFor(f.Path)}
			if b.probe {
				sf.width, sf.height, _ = probeImage(f.Path, sf.contentType)
			}

			out[i] = sf

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// attachRevisions 按修改时间生成修订，最新在前；资产的创建与更新时间取最早与最新修订.
func attachRevisions(a *model.Asset, files []scannedFile) {
	slices.SortFunc(files, func(x, y scannedFile) int { return y.ModTime.Compare(x.ModTime) })

	for _, f := range files {
		a.Revisions = append(a.Revisions, model.AssetRevision{
			FileName:    f.Name,
			FilePath:    f.Name,
			ContentType: f.contentType,
			FileSize:    f.Size,
			Checksum:    f.checksum,
			Width:       f.width,
			Height:      f.height,
			CreatedAt:   f.ModTime.UTC(),
		})
	}

	if len(files) == 0 {
		now := time.Now().UTC()
		a.CreatedAt, a.UpdatedAt = now, now

		return
	}

	a.UpdatedAt = files[0].ModTime.UTC()
	a.CreatedAt = files[len(files)-1].ModTime.UTC()
}

// InferAssetType 先按目录归属判断，再按前缀：m-/boss- 怪物，map- 地图，skill- 技能，其余 misc.
func InferAssetType(key string, lookups map[string]map[string]string) string {
	for _, t := range []string{model.AssetTypeMonster, model.AssetTypeMap, model.AssetTypeSkill} {
		if _, ok := lookups[t][key]; ok {
			return t
		}
	}

	k := strings.ToLower(key)

	switch {
	case strings.HasPrefix(k, "m-"), strings.HasPrefix(k, "boss-"):
		return model.AssetTypeMonster
	case strings.HasPrefix(k, "map-"):
		return model.AssetTypeMap
	case strings.HasPrefix(k, "skill-"):
		return model.AssetTypeSkill
	default:
		return model.AssetTypeMisc
	}
}

// GuessTitle 从目录中查找标题，找不到时把 key 转为可读文本.
func GuessTitle(key, typ string, lookups map[string]map[string]string) string {
	lookup := lookups[typ]
	if label, ok := lookup[key]; ok {
		return label
	}

	if typ == model.AssetTypeMap {
		if label, ok := lookup[strings.TrimPrefix(key, "map-")]; ok {
			return label
		}
	}

	if typ == model.AssetTypeSkill {
		normalized := strings.ReplaceAll(strings.TrimPrefix(key, "skill-"), "-", "_")
		if label, ok := lookup[normalized]; ok {
			return label
		}
	}

	for _, t := range []string{model.AssetTypeMonster, model.AssetTypeMap, model.AssetTypeSkill} {
		if label, ok := lookups[t][key]; ok {
			return label
		}
	}

	// m-faerie-1 这类变体沿用基础怪物的名称
	if i := strings.LastIndex(key, "-"); i > 0 {
		base, suffix := key[:i], key[i+1:]
		if label, ok := lookup[base]; ok && isDigits(suffix) {
			return label + " " + suffix
		}
	}

	return titleize(key)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// contentTypeFor 优先按扩展名判断，未知扩展名再按内容识别.
func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}

	return revision.DetectContentType(path)
}

// defaultWorkers bootstrap 哈希并发数.
func defaultWorkers() int {
	return min(runtime.NumCPU(), 8)
}
