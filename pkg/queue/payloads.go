package queue

import "time"

// EventHeader 所有事件的通用头部.
type EventHeader struct {
	// Topic 冗余记录消息主题，离线转储后仍可定位来源.
	Topic string `json:"topic"`
	// TraceID 请求链路 ID.
	TraceID string `json:"trace_id,omitempty"`
	// RequestID 触发事件的 HTTP 请求 ID，后台任务产生的事件为空.
	RequestID string `json:"request_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 负载版本.
	Version string `json:"version,omitempty"`
}

// Message 统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// RevisionRef 标识 raw 目录中的一个修订文件.
type RevisionRef struct {
	FileName    string `json:"file_name"`
	FilePath    string `json:"file_path"`
	FileSize    int64  `json:"file_size"`
	Checksum    string `json:"checksum"`
	ContentType string `json:"content_type,omitempty"`
}

// AssetPayload 资产创建、更新与删除.
type AssetPayload struct {
	AssetKey  string       `json:"asset_key"`
	AssetType string       `json:"asset_type"`
	Tags      []string     `json:"tags,omitempty"`
	Revision  *RevisionRef `json:"revision,omitempty"`
	Revisions int          `json:"revisions,omitempty"`
}

// RevisionStoredPayload 修订文件写入完成.
type RevisionStoredPayload struct {
	AssetKey   string      `json:"asset_key"`
	Revision   RevisionRef `json:"revision"`
	BackupName string      `json:"backup_name,omitempty"`
	UploadedBy string      `json:"uploaded_by,omitempty"`
}

// BackupPayload 备份的创建、恢复、删除与清理.
type BackupPayload struct {
	AssetKey  string `json:"asset_key"`
	Extension string `json:"extension"`
	FileName  string `json:"file_name"`
	Timestamp string `json:"backup_timestamp"`
	FileSize  int64  `json:"file_size,omitempty"`
	Checksum  string `json:"checksum,omitempty"`
}
