package model

import "time"

// AssetRevision 资产的一个文件修订，随资产级联删除.
type AssetRevision struct {
	ID          uint      `gorm:"primaryKey"                json:"id"`
	AssetID     uint      `gorm:"index;not null"            json:"-"`
	FileName    string    `gorm:"size:255;not null"         json:"file_name"`
	FilePath    string    `gorm:"size:512;uniqueIndex"      json:"file_path"`
	ContentType string    `gorm:"size:128"                  json:"content_type"`
	FileSize    int64     `gorm:"not null"                  json:"file_size"`
	Checksum    string    `gorm:"size:64"                   json:"checksum"`
	Notes       string    `gorm:"type:text"                 json:"notes"`
	UploadedBy  string    `gorm:"size:128"                  json:"uploaded_by"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	CreatedAt   time.Time `gorm:"index"                     json:"created_at"`
}

// TableName 表名.
func (AssetRevision) TableName() string { return "asset_revisions" }
