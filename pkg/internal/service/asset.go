package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/assetvault/pkg/cache"
	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/model"
	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/internal/types"
	"github.com/yeisme/assetvault/pkg/queue"
	"github.com/yeisme/assetvault/pkg/rule"
	"github.com/yeisme/assetvault/pkg/tracing"
)

const (
	assetCachePrefix = "assets:"
	assetCacheTTL    = 30 * time.Second
)

// CreateInput 创建资产的表单与上传文件.
type CreateInput struct {
	Form   types.CreateAssetForm
	Upload revision.Upload
}

// UpdateInput 更新资产的表单，Upload 为 nil 表示不上传新修订.
type UpdateInput struct {
	Form   types.UpdateAssetForm
	Upload *revision.Upload
}

// AssetService 资产与修订记录的查询和写入.
//
// 文件先通过 revision.Store 落盘，再在一个事务中写数据库；
// 数据库写入失败时删除刚写入的修订文件.
type AssetService struct {
	db      *gorm.DB
	store   *revision.Store
	catalog *CatalogService
	cache   *cache.Cache
	events  *Events
	mirror  *Mirror
	cfg     configs.AssetsConfig
	logger  zerolog.Logger
}

// List 按条件分页列出资产，列表项只包含最新修订.
func (s *AssetService) List(ctx context.Context, q types.ListAssetsQuery, urls URLBuilder) (*types.AssetListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetService.List")
	defer span.End()

	q.Page = max(q.Page, 1)
	if q.PageSize <= 0 {
		q.PageSize = s.cfg.PaginationDefaultLimit
	}

	q.PageSize = min(q.PageSize, s.cfg.PaginationMaxLimit)
	if q.Sort == "" {
		q.Sort = types.SortUpdatedDesc
	}

	key := "list:" + hashKey(q.AssetType, q.Q, q.Tags, q.Sort, strconv.Itoa(q.Page), strconv.Itoa(q.PageSize), urls.BaseURL, urls.Prefix)

	return cachedAsset(ctx, s, key, func() (*types.AssetListResponse, error) {
		return s.list(ctx, q, urls)
	})
}

func (s *AssetService) list(ctx context.Context, q types.ListAssetsQuery, urls URLBuilder) (*types.AssetListResponse, error) {
	filter := listFilter(q)

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Asset{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count assets: %w", err)
	}

	pages := max(int((total+int64(q.PageSize)-1)/int64(q.PageSize)), 1)
	if q.Page > pages && total > 0 {
		return nil, ErrPageOutOfRange
	}

	var assets []model.Asset

	err := s.db.WithContext(ctx).
		Scopes(filter, withRevisions).
		Order(listOrder(q.Sort)).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	resp := &types.AssetListResponse{
		Items: make([]types.AssetOut, 0, len(assets)),
		Pagination: types.PaginationMeta{
			Total:    total,
			Page:     q.Page,
			PageSize: q.PageSize,
			Pages:    pages,
		},
	}

	for i := range assets {
		resp.Items = append(resp.Items, AssetOut(&assets[i], urls, false))
	}

	return resp, nil
}

// listFilter 类型精确匹配；q 对 key、标题、描述做不区分大小写的子串匹配；
// 标签需全部命中，按 JSON 文本中的 "tag" 匹配.
func listFilter(q types.ListAssetsQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.AssetType != "" {
			db = db.Where("asset_type = ?", q.AssetType)
		}

		if kw := strings.TrimSpace(q.Q); kw != "" {
			p := "%" + strings.ToLower(kw) + "%"
			db = db.Where("(LOWER(asset_key) LIKE ? OR LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", p, p, p)
		}

		for _, tag := range SplitFilterTags(q.Tags) {
			quoted, err := sonic.ConfigStd.MarshalToString(tag)
			if err != nil {
				continue
			}

			db = db.Where("tags LIKE ?", "%"+quoted+"%")
		}

		return db
	}
}

func listOrder(sort string) string {
	switch sort {
	case types.SortUpdatedDesc:
		return "updated_at DESC, id DESC"
	case types.SortID:
		return "id"
	default:
		return "LOWER(asset_key), id"
	}
}

// withRevisions 预加载修订，最新在前.
func withRevisions(db *gorm.DB) *gorm.DB {
	return db.Preload("Revisions", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC, id DESC")
	})
}

// Get 返回资产及其全部修订.
func (s *AssetService) Get(ctx context.Context, key string, urls URLBuilder) (*types.AssetOut, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetService.Get")
	defer span.End()

	return cachedAsset(ctx, s, "get:"+key+":"+hashKey(urls.BaseURL, urls.Prefix), func() (*types.AssetOut, error) {
		a, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}

		out := AssetOut(a, urls, true)

		return &out, nil
	})
}

// Load 按 key 读取资产模型.
func (s *AssetService) Load(ctx context.Context, key string) (*model.Asset, error) {
	return s.load(ctx, key)
}

func (s *AssetService) load(ctx context.Context, key string) (*model.Asset, error) {
	var a model.Asset

	err := s.db.WithContext(ctx).Scopes(withRevisions).Where("asset_key = ?", key).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("load asset %s: %w", key, err)
	}

	return &a, nil
}

// Create 以首个修订创建资产.
func (s *AssetService) Create(ctx context.Context, in CreateInput, urls URLBuilder) (*types.AssetOut, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetService.Create")
	defer span.End()

	if s.cfg.ReadOnly {
		return nil, revision.ErrReadOnly
	}

	key := strings.TrimSpace(in.Form.ID)
	if !slices.Contains(model.AssetTypes, in.Form.AssetType) {
		return nil, &AssetTypeError{Type: in.Form.AssetType}
	}

	if !rule.IsAssetID(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAssetID, key)
	}

	unlock := s.store.LockAsset(key)
	defer unlock()

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Asset{}).Where("asset_key = ?", key).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check asset %s: %w", key, err)
	}

	if count > 0 {
		return nil, ErrAssetExists
	}

	if strings.TrimSpace(in.Upload.FileName) == "" {
		return nil, revision.ErrMissingFileName
	}

	if err := checkFileName(key, in.Upload.FileName); err != nil {
		return nil, err
	}

	stored, err := s.store.Save(ctx, key, in.Upload, nil)
	if err != nil {
		tracing.RecordError(span, err)

		return nil, err
	}

	tags := ParseTags(in.Form.Tags)
	if in.Form.AssetType == model.AssetTypeMonster {
		tags = s.catalog.MonsterTags(ctx, key, tags)
	}

	if tags == nil {
		tags = []string{}
	}

	asset := model.Asset{
		AssetKey:    key,
		AssetType:   in.Form.AssetType,
		Title:       in.Form.Title,
		Description: in.Form.Description,
		Tags:        tags,
		Revisions:   []model.AssetRevision{s.newRevision(stored, in.Form.Notes, in.Form.UploadedBy)},
	}

	if err := s.db.WithContext(ctx).Create(&asset).Error; err != nil {
		s.discard(ctx, key, stored)

		if isDuplicate(err) {
			return nil, ErrAssetExists
		}

		return nil, fmt.Errorf("create asset %s: %w", key, err)
	}

	s.logger.Info().Str("asset_key", key).Str("file", stored.FileName).Msg("asset created")
	s.invalidate(ctx)
	s.revisionStored(ctx, key, stored, in.Form.UploadedBy)
	emit(ctx, s.events, queue.TopicAssetCreated, assetPayload(&asset))

	out := AssetOut(&asset, urls, true)

	return &out, nil
}

// checkFileName 上传文件名去掉扩展名后必须等于资产 ID.
func checkFileName(key, fileName string) error {
	base := filepath.Base(fileName)
	ext := filepath.Ext(base)

	if strings.TrimSuffix(base, ext) == key {
		return nil
	}

	return &FilenameError{Expected: key + ext, Got: fileName}
}

// Update 修改元数据，可选地追加一个新修订.
func (s *AssetService) Update(ctx context.Context, key string, in UpdateInput, urls URLBuilder) (*types.AssetOut, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetService.Update")
	defer span.End()

	if s.cfg.ReadOnly {
		return nil, revision.ErrReadOnly
	}

	unlock := s.store.LockAsset(key)
	defer unlock()

	asset, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	f := in.Form
	if f.Title != nil {
		asset.Title = *f.Title
	}

	if f.Description != nil {
		asset.Description = *f.Description
	}

	if f.Tags != nil {
		tags := ParseTags(*f.Tags)
		if asset.AssetType == model.AssetTypeMonster {
			tags = s.catalog.MonsterTags(ctx, asset.AssetKey, tags)
		}

		if tags == nil {
			tags = []string{}
		}

		asset.Tags = tags
	}

	var stored *revision.StoredFile

	if in.Upload != nil {
		// 文件写入在事务之外完成，备份观察者需要独立写清单表
		if stored, err = s.store.Save(ctx, asset.AssetKey, *in.Upload, asset.FilePaths()); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(asset).Error; err != nil {
			return err
		}

		if stored != nil {
			rev := s.newRevision(stored, deref(f.Notes), deref(f.UploadedBy))
			rev.AssetID = asset.ID

			return tx.Create(&rev).Error
		}

		latest := asset.LatestRevision()
		if latest == nil || (f.Notes == nil && f.UploadedBy == nil) {
			return nil
		}

		if f.Notes != nil {
			latest.Notes = *f.Notes
		}

		if f.UploadedBy != nil {
			latest.UploadedBy = *f.UploadedBy
		}

		return tx.Save(latest).Error
	})
	if err != nil {
		if stored != nil {
			s.discard(ctx, asset.AssetKey, stored)
		}

		return nil, fmt.Errorf("update asset %s: %w", key, err)
	}

	if asset, err = s.load(ctx, key); err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	if stored != nil {
		s.revisionStored(ctx, asset.AssetKey, stored, deref(f.UploadedBy))
	}

	emit(ctx, s.events, queue.TopicAssetUpdated, assetPayload(asset))

	out := AssetOut(asset, urls, true)

	return &out, nil
}

// Delete 删除资产、全部修订记录及其 raw 文件，备份保留.
func (s *AssetService) Delete(ctx context.Context, key string) error {
	ctx, span := tracing.StartSpan(ctx, "AssetService.Delete")
	defer span.End()

	if s.cfg.ReadOnly {
		return revision.ErrReadOnly
	}

	unlock := s.store.LockAsset(key)
	defer unlock()

	asset, err := s.load(ctx, key)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("asset_id = ?", asset.ID).Delete(&model.AssetRevision{}).Error; err != nil {
			return err
		}

		return tx.Delete(&model.Asset{}, asset.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", key, err)
	}

	for _, r := range asset.Revisions {
		if _, err := s.store.RemoveRaw(asset.AssetKey, r.FilePath); err != nil {
			s.logger.Warn().Err(err).Str("file", r.FilePath).Msg("remove revision file failed")

			continue
		}

		s.mirror.RevisionRemoved(r.FilePath)
	}

	s.logger.Info().Str("asset_key", key).Int("revisions", len(asset.Revisions)).Msg("asset deleted")
	s.invalidate(ctx)
	emit(ctx, s.events, queue.TopicAssetDeleted, assetPayload(asset))

	return nil
}

func (s *AssetService) newRevision(stored *revision.StoredFile, notes, uploadedBy string) model.AssetRevision {
	rev := model.AssetRevision{
		FileName:    stored.FileName,
		FilePath:    stored.RelativePath,
		ContentType: stored.ContentType,
		FileSize:    stored.FileSize,
		Checksum:    stored.Checksum,
		Notes:       notes,
		UploadedBy:  uploadedBy,
	}

	if s.cfg.ProbeImages {
		w, h, err := probeImage(stored.AbsolutePath, stored.ContentType)
		if err != nil {
			s.logger.Debug().Err(err).Str("file", stored.FileName).Msg("image probe skipped")
		}

		rev.Width, rev.Height = w, h
	}

	return rev
}

// discard 数据库写入失败后撤销落盘的修订文件，并把被顶替的规范文件还原.
func (s *AssetService) discard(ctx context.Context, key string, stored *revision.StoredFile) {
	if err := s.store.Discard(ctx, key, stored); err != nil {
		s.logger.Error().Err(err).Str("file", stored.FileName).Msg("failed to discard orphan revision file")
	}
}

// isDuplicate 唯一约束冲突；驱动未翻译错误时按各数据库的报错文本判断.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()

	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}

func (s *AssetService) revisionStored(ctx context.Context, key string, stored *revision.StoredFile, uploadedBy string) {
	s.mirror.RevisionStored(stored.FileName, stored.AbsolutePath, stored.ContentType)

	payload := queue.RevisionStoredPayload{
		AssetKey:   key,
		Revision:   revisionRef(stored),
		UploadedBy: uploadedBy,
	}
	if stored.Backup != nil {
		payload.BackupName = stored.Backup.Name
	}

	emit(ctx, s.events, queue.TopicRevisionStored, payload)
}

// invalidate 清除资产查询缓存.
func (s *AssetService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}

	if _, err := s.cache.DeletePattern(ctx, assetCachePrefix+"*"); err != nil {
		s.logger.Warn().Err(err).Msg("invalidate asset cache failed")
	}
}

func cachedAsset[T any](ctx context.Context, s *AssetService, key string, load func() (T, error)) (T, error) {
	if s.cache == nil {
		return load()
	}

	return cache.GetOrSet(ctx, s.cache, assetCachePrefix+key, load, assetCacheTTL)
}

func hashKey(parts ...string) string {
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(parts, "\x00")), 16)
}

func revisionRef(stored *revision.StoredFile) queue.RevisionRef {
	return queue.RevisionRef{
		FileName:    stored.FileName,
		FilePath:    stored.RelativePath,
		FileSize:    stored.FileSize,
		Checksum:    stored.Checksum,
		ContentType: stored.ContentType,
	}
}

func assetPayload(a *model.Asset) queue.AssetPayload {
	p := queue.AssetPayload{
		AssetKey:  a.AssetKey,
		AssetType: a.AssetType,
		Tags:      a.Tags,
		Revisions: len(a.Revisions),
	}

	if latest := a.LatestRevision(); latest != nil {
		p.Revision = &queue.RevisionRef{
			FileName:    latest.FileName,
			FilePath:    latest.FilePath,
			FileSize:    latest.FileSize,
			Checksum:    latest.Checksum,
			ContentType: latest.ContentType,
		}
	}

	return p
}

func deref(p *string) string {
	if p == nil {
		return ""
	}

	return *p
}
