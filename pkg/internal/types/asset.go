// Package types 定义 HTTP 请求与响应结构.
package types

import "time"

// RevisionOut 修订的响应结构.
type RevisionOut struct {
	ID          uint      `json:"id"`
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"file_path"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	Checksum    string    `json:"checksum"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UploadedBy  string    `json:"uploaded_by"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	DownloadURL string    `json:"download_url"`
}

// AssetOut 资产的响应结构，列表中 Revisions 为空.
type AssetOut struct {
	ID             string        `json:"id"`
	AssetType      string        `json:"asset_type"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Tags           []string      `json:"tags"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	LatestRevision *RevisionOut  `json:"latest_revision"`
	Revisions      []RevisionOut `json:"revisions"`
}

// PaginationMeta 分页信息.
type PaginationMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int   `json:"pages"`
}

// AssetListResponse 资产列表响应.
type AssetListResponse struct {
	Items      []AssetOut     `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// 排序选项.
const (
	SortUpdatedDesc = "updated_desc"
	SortID          = "id"
)

// ListAssetsQuery 资产列表查询参数.
type ListAssetsQuery struct {
	AssetType string `form:"asset_type"`
	Q         string `form:"q"`
	Tags      string `form:"tags"`
	Sort      string `form:"sort"`
	Page      int    `form:"page"      rule:"omitempty,min=1"`
	PageSize  int    `form:"page_size" rule:"omitempty,min=1"`
}

// CreateAssetForm 创建资产的 multipart 表单字段（文件单独读取）.
type CreateAssetForm struct {
	ID          string `form:"id"          rule:"required,asset_id"`
	AssetType   string `form:"asset_type"  rule:"required"`
	Title       string `form:"title"`
	Description string `form:"description"`
	Tags        string `form:"tags"`
	Notes       string `form:"notes"`
	UploadedBy  string `form:"uploaded_by"`
}

// UpdateAssetForm PATCH 表单，nil 表示未提供.
type UpdateAssetForm struct {
	Title       *string `form:"title"`
	Description *string `form:"description"`
	Tags        *string `form:"tags"`
	Notes       *string `form:"notes"`
	UploadedBy  *string `form:"uploaded_by"`
}

// ErrorResponse 错误响应.
type ErrorResponse struct {
	Error string `json:"error"`
}
