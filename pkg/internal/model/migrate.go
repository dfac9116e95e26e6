package model

import "gorm.io/gorm"

// All 返回需要迁移的全部模型.
func All() []any {
	return []any{&Asset{}, &AssetRevision{}, &BackupManifest{}}
}

// Migrate 自动迁移表结构.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
