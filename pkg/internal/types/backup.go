package types

import "time"

// BackupFileInfo 单个备份文件.
type BackupFileInfo struct {
	FileName        string    `json:"file_name"`
	FileSize        int64     `json:"file_size"`
	CreatedAt       time.Time `json:"created_at"`
	BackupTimestamp string    `json:"backup_timestamp"`
	Checksum        string    `json:"checksum,omitempty"`
}

// BackupListResponse 备份列表.
type BackupListResponse struct {
	AssetKey  string           `json:"asset_key"`
	Extension string           `json:"extension"`
	Backups   []BackupFileInfo `json:"backups"`
}

// BackupActionResponse 恢复或删除的结果.
type BackupActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
