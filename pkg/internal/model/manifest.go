package model

import "time"

// BackupManifest 记录备份目录中的一个备份文件.
// ID 为 ULID，按创建时间有序.
type BackupManifest struct {
	ID             string    `gorm:"primaryKey;size:26"         json:"id"`
	AssetKey       string    `gorm:"size:128;index:idx_key_ext" json:"asset_key"`
	Extension      string    `gorm:"size:16;index:idx_key_ext"  json:"extension"`
	FileName       string    `gorm:"size:255;uniqueIndex"       json:"file_name"`
	Timestamp      string    `gorm:"size:32"                    json:"backup_timestamp"`
	SourceChecksum string    `gorm:"size:64"                    json:"checksum"`
	FileSize       int64     `json:"file_size"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName 表名.
func (BackupManifest) TableName() string { return "backup_manifests" }
