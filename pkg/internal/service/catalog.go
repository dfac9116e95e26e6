package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/assetvault/pkg/cache"
	"github.com/yeisme/assetvault/pkg/internal/model"
	"github.com/yeisme/assetvault/pkg/internal/types"
)

// 目录数据文件.
const (
	MonsterBlueprintsFile = "monster-blueprints.json"
	SkillMetadataFile     = "skill-metadata.json"
	MapMetadataFile       = "map-metadata.json"
	MonsterPositionsFile  = "monster-positions.json"
)

// variantSuffixes 带数字后缀的怪物变体继承基础怪物的境界与地图.
var variantSuffixes = []string{"-1", "-2", "-3", "-4", "-5"}

// realmNames 境界等级到标签.
var realmNames = map[int]string{
	1: "一级", 2: "二级", 3: "三级", 4: "四级", 5: "五级",
	6: "六级", 7: "七级", 8: "八级", 9: "九级",
}

const catalogCachePrefix = "catalog:"

// CatalogResponsePrefix 目录接口响应缓存的键前缀，Refresh 会一并清除.
const CatalogResponsePrefix = catalogCachePrefix + "http:"

// catalogSpec 描述一种目录类型的数据来源.
type catalogSpec struct {
	file    string
	extract func(data any) []types.CatalogItem
}

var catalogSpecs = map[string]catalogSpec{
	model.AssetTypeMonster: {file: MonsterBlueprintsFile, extract: extractMonsters},
	model.AssetTypeSkill:   {file: SkillMetadataFile, extract: extractNamed},
	model.AssetTypeMap:     {file: MapMetadataFile, extract: extractMaps},
}

// CatalogService 读取游戏数据目录 JSON，结果按 TTL 缓存.
type CatalogService struct {
	dir    string
	ttl    time.Duration
	cache  *cache.Cache
	group  singleflight.Group
	logger zerolog.Logger
}

// NewCatalogService 创建目录服务，c 为 nil 时每次都读文件（仍合并并发读取）.
func NewCatalogService(dir string, ttl time.Duration, c *cache.Cache, l zerolog.Logger) *CatalogService {
	return &CatalogService{dir: dir, ttl: ttl, cache: c, logger: l}
}

// Types 返回支持的目录类型.
func (s *CatalogService) Types() []string {
	out := make([]string, 0, len(catalogSpecs))
	for t := range catalogSpecs {
		out = append(out, t)
	}

	sort.Strings(out)

	return out
}

// Load 返回某类型的目录条目，按 id 去重排序. 未知类型返回空列表.
func (s *CatalogService) Load(ctx context.Context, assetType string) ([]types.CatalogItem, error) {
	assetType = strings.ToLower(assetType)

	spec, ok := catalogSpecs[assetType]
	if !ok {
		return []types.CatalogItem{}, nil
	}

	return cached(ctx, s, "items:"+assetType, func() ([]types.CatalogItem, error) {
		data, err := s.readJSON(spec.file)
		if isNotExist(err) {
			s.logger.Warn().Str("file", spec.file).Msg("catalog file missing")

			return []types.CatalogItem{}, nil
		}

		if err != nil {
			return nil, err
		}

		items := spec.extract(data)
		if assetType == model.AssetTypeMap {
			items = mergeDefaultMap(items, defaultMapID(data))
		}

		return uniqueItems(items), nil
	})
}

// Lookups 返回 类型 -> (id -> label)，缺失的目录文件视为空.
func (s *CatalogService) Lookups(ctx context.Context) map[string]map[string]string {
	out := make(map[string]map[string]string, len(catalogSpecs))

	for _, t := range []string{model.AssetTypeMonster, model.AssetTypeMap, model.AssetTypeSkill} {
		items, err := s.Load(ctx, t)
		if err != nil {
			s.logger.Warn().Err(err).Str("type", t).Msg("catalog unavailable, continuing without titles")
		}

		m := make(map[string]string, len(items))
		for _, it := range items {
			m[it.ID] = it.Label
		}

		out[t] = m
	}

	return out
}

// MonsterExtra 计算怪物的境界与出没地图，没有任何信息时返回 nil.
func (s *CatalogService) MonsterExtra(ctx context.Context, assetID string) *types.MonsterExtra {
	if assetID == "" {
		return nil
	}

	realms, err := cached(ctx, s, "realms", s.loadRealms)
	if err != nil {
		s.logger.Debug().Err(err).Msg("monster realm lookup unavailable")
	}

	maps, err := cached(ctx, s, "monster-maps", s.loadMonsterMaps)
	if err != nil {
		s.logger.Debug().Err(err).Msg("monster position lookup unavailable")
	}

	tier, hasTier := realms[assetID]
	mapIDs := maps[assetID]

	if !hasTier && len(mapIDs) == 0 {
		return nil
	}

	names, err := cached(ctx, s, "map-names", s.loadMapNames)
	if err != nil {
		s.logger.Debug().Err(err).Msg("map name lookup unavailable")
	}

	extra := &types.MonsterExtra{MapIDs: mapIDs, MapNames: make([]string, 0, len(mapIDs))}
	if hasTier {
		extra.RealmTier = &tier
	}

	for _, id := range mapIDs {
		if name, ok := names[id]; ok {
			extra.MapNames = append(extra.MapNames, name)
		} else {
			extra.MapNames = append(extra.MapNames, id)
		}
	}

	return extra
}

// MonsterTags 把目录派生的境界与地图标签合并到用户标签，去重排序.
func (s *CatalogService) MonsterTags(ctx context.Context, assetID string, userTags []string) []string {
	tags := append([]string{}, userTags...)

	if extra := s.MonsterExtra(ctx, assetID); extra != nil {
		if extra.RealmTier != nil {
			tags = append(tags, RealmTag(*extra.RealmTier))
		}

		tags = append(tags, extra.MapNames...)
	}

	return uniqueSorted(tags)
}

// RealmTag 境界等级的标签文本.
func RealmTag(tier int) string {
	if name, ok := realmNames[tier]; ok {
		return name
	}

	return "境界 " + strconv.Itoa(tier)
}

// Refresh 清除目录缓存，下次读取时重新加载文件.
func (s *CatalogService) Refresh(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}

	return s.cache.DeletePattern(ctx, catalogCachePrefix+"*")
}

func cached[T any](ctx context.Context, s *CatalogService, key string, load func() (T, error)) (T, error) {
	if s.cache != nil {
		return cache.GetOrSet(ctx, s.cache, catalogCachePrefix+key, load, s.ttl)
	}

	v, err, _ := s.group.Do(key, func() (any, error) { return load() })
	if err != nil {
		var zero T

		return zero, err
	}

	return v.(T), nil
}

func (s *CatalogService) readJSON(name string) (any, error) {
	path := filepath.Join(s.dir, name)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", name, err)
	}

	var data any
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return data, nil
}

// readOptional 文件缺失时返回 nil 数据，结果照常缓存.
func (s *CatalogService) readOptional(name string) (any, error) {
	data, err := s.readJSON(name)
	if isNotExist(err) {
		return nil, nil
	}

	return data, err
}

func (s *CatalogService) loadRealms() (map[string]int, error) {
	data, err := s.readOptional(MonsterBlueprintsFile)
	if err != nil {
		return map[string]int{}, err
	}

	out := map[string]int{}

	for _, entry := range asList(data) {
		id, ok := entry["id"].(string)
		tier, isInt := asInt(entry["realmTier"])

		if !ok || !isInt {
			continue
		}

		out[id] = tier
		for _, suffix := range variantSuffixes {
			out[id+suffix] = tier
		}
	}

	return out, nil
}

func (s *CatalogService) loadMonsterMaps() (map[string][]string, error) {
	data, err := s.readOptional(MonsterPositionsFile)
	if err != nil {
		return map[string][]string{}, err
	}

	byMap, _ := data.(map[string]any)
	sets := map[string]map[string]struct{}{}

	add := func(monster, mapID string) {
		if sets[monster] == nil {
			sets[monster] = map[string]struct{}{}
		}

		sets[monster][mapID] = struct{}{}
	}

	for mapID, entries := range byMap {
		monsters, ok := entries.(map[string]any)
		if !ok {
			continue
		}

		for monster := range monsters {
			add(monster, mapID)

			for _, suffix := range variantSuffixes {
				add(monster+suffix, mapID)
			}
		}
	}

	out := make(map[string][]string, len(sets))

	for monster, set := range sets {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}

		sort.Strings(ids)
		out[monster] = ids
	}

	return out, nil
}

func (s *CatalogService) loadMapNames() (map[string]string, error) {
	data, err := s.readOptional(MapMetadataFile)
	if err != nil {
		return map[string]string{}, err
	}

	out := map[string]string{}
	for _, it := range extractMaps(data) {
		out[it.ID] = it.Label
	}

	if id := defaultMapID(data); id != "" {
		if _, ok := out[id]; !ok {
			out[id] = titleize(id)
		}
	}

	return out, nil
}

func asList(data any) []map[string]any {
	list, _ := data.([]any)

	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}

	return out
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case int64:
		return int(n), true
	case int:
		return n, true
	}

	return 0, false
}

func extractNamed(data any) []types.CatalogItem {
	var out []types.CatalogItem

	for _, entry := range asList(data) {
		id, okID := entry["id"].(string)
		name, okName := entry["name"].(string)

		if okID && okName {
			out = append(out, types.CatalogItem{ID: id, Label: name})
		}
	}

	return out
}

func extractMonsters(data any) []types.CatalogItem {
	var out []types.CatalogItem

	for _, it := range extractNamed(data) {
		if strings.HasPrefix(it.ID, "m-") || strings.HasPrefix(it.ID, "boss-") {
			out = append(out, it)
		}
	}

	return out
}

func extractMaps(data any) []types.CatalogItem {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}

	return extractNamed(obj["maps"])
}

func defaultMapID(data any) string {
	obj, ok := data.(map[string]any)
	if !ok {
		return ""
	}

	id, _ := obj["defaultMapId"].(string)

	return id
}

func mergeDefaultMap(items []types.CatalogItem, defaultID string) []types.CatalogItem {
	if defaultID == "" {
		return items
	}

	for _, it := range items {
		if it.ID == defaultID {
			return items
		}
	}

	return append(items, types.CatalogItem{ID: defaultID, Label: titleize(defaultID)})
}

// uniqueItems 同 id 后出现的覆盖先出现的，结果按 id 排序.
func uniqueItems(items []types.CatalogItem) []types.CatalogItem {
	seen := make(map[string]types.CatalogItem, len(items))
	for _, it := range items {
		seen[it.ID] = it
	}

	out := make([]types.CatalogItem, 0, len(seen))
	for _, it := range seen {
		out = append(out, it)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// titleize 把 "map-florence" 变为 "Map Florence".
func titleize(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}

	return strings.Join(words, " ")
}

// isNotExist 判断目录文件是否缺失.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
