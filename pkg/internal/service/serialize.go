package service

import (
	"strings"

	"github.com/yeisme/assetvault/pkg/internal/model"
	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/internal/types"
)

// URLBuilder 拼接修订文件的下载地址.
type URLBuilder struct {
	// BaseURL 请求的 scheme://host，为空时生成相对地址.
	BaseURL string
	// Prefix 静态文件路由前缀，如 /files/raw.
	Prefix string
}

// Download 返回 relative 的下载地址.
func (u URLBuilder) Download(relative string) string {
	return strings.TrimRight(u.BaseURL, "/") + revision.PublicPath(u.Prefix, relative)
}

// RevisionOut 转换修订为响应结构.
func RevisionOut(r *model.AssetRevision, urls URLBuilder) types.RevisionOut {
	return types.RevisionOut{
		ID:          r.ID,
		FileName:    r.FileName,
		FilePath:    r.FilePath,
		ContentType: r.ContentType,
		FileSize:    r.FileSize,
		Checksum:    r.Checksum,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UploadedBy:  r.UploadedBy,
		Width:       r.Width,
		Height:      r.Height,
		DownloadURL: urls.Download(r.FilePath),
	}
}

// AssetOut 转换资产为响应结构；withRevisions 为 false 时只输出最新修订.
func AssetOut(a *model.Asset, urls URLBuilder, withRevisions bool) types.AssetOut {
	out := types.AssetOut{
		ID:          a.AssetKey,
		AssetType:   a.AssetType,
		Title:       a.Title,
		Description: a.Description,
		Tags:        a.Tags,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Revisions:   []types.RevisionOut{},
	}

	if out.Tags == nil {
		out.Tags = []string{}
	}

	if latest := a.LatestRevision(); latest != nil {
		r := RevisionOut(latest, urls)
		out.LatestRevision = &r
	}

	if withRevisions {
		for i := range a.Revisions {
			out.Revisions = append(out.Revisions, RevisionOut(&a.Revisions[i], urls))
		}
	}

	return out
}
