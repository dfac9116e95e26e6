// Package model 定义数据库模型.
package model

import (
	"time"
)

// 资产类型.
const (
	AssetTypeMonster = "monster"
	AssetTypeMap     = "map"
	AssetTypeSkill   = "skill"
	AssetTypeMisc    = "misc"
)

// AssetTypes 允许的资产类型.
var AssetTypes = []string{AssetTypeMonster, AssetTypeMap, AssetTypeSkill, AssetTypeMisc}

// Asset 资产模型，asset_key 全局唯一.
type Asset struct {
	ID          uint   `gorm:"primaryKey"                    json:"-"`
	AssetKey    string `gorm:"size:128;uniqueIndex;not null" json:"id"`
	AssetType   string `gorm:"size:32;index;not null"        json:"asset_type"`
	Title       string `gorm:"size:255"                      json:"title"`
	Description string `gorm:"type:text"                     json:"description"`
	// Tags 以 JSON 文本存储，标签过滤使用 LIKE 匹配 "tag"
	Tags      []string  `gorm:"type:text;serializer:json" json:"tags"`
	CreatedAt time.Time `gorm:"index"                     json:"created_at"`
	UpdatedAt time.Time `gorm:"index"                     json:"updated_at"`
	// Revisions 按创建时间倒序
	Revisions []AssetRevision `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"revisions"`
}

// TableName 表名.
func (Asset) TableName() string { return "assets" }

// LatestRevision 返回最新修订，没有修订时返回 nil.
func (a *Asset) LatestRevision() *AssetRevision {
	if len(a.Revisions) == 0 {
		return nil
	}

	return &a.Revisions[0]
}

// FilePaths 返回所有修订的相对路径.
func (a *Asset) FilePaths() []string {
	paths := make([]string, 0, len(a.Revisions))
	for _, r := range a.Revisions {
		paths = append(paths, r.FilePath)
	}

	return paths
}
