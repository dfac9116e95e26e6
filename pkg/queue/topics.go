// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：av.<域>.<动作>，保持稳定且向后兼容.
const (
	// 资产领域.
	TopicAssetCreated   = "av.asset.created"   // 首次上传创建资产
	TopicAssetUpdated   = "av.asset.updated"   // 元数据或修订变更
	TopicAssetDeleted   = "av.asset.deleted"   // 资产及其修订被删除
	TopicRevisionStored = "av.revision.stored" // 新修订文件写入 raw 目录

	// 备份领域.
	TopicBackupCreated  = "av.backup.created"  // 覆盖前生成备份
	TopicBackupRestored = "av.backup.restored" // 从备份恢复
	TopicBackupDeleted  = "av.backup.deleted"  // 手动删除备份
	TopicBackupPruned   = "av.backup.pruned"   // 超出保留数量被清理
)

var (
	// AssetTopics 资产相关主题.
	AssetTopics = []string{TopicAssetCreated, TopicAssetUpdated, TopicAssetDeleted, TopicRevisionStored}

	// BackupTopics 备份相关主题.
	BackupTopics = []string{TopicBackupCreated, TopicBackupRestored, TopicBackupDeleted, TopicBackupPruned}
)

// AllTopics 返回全部主题.
func AllTopics() []string {
	out := make([]string, 0, len(AssetTopics)+len(BackupTopics))
	out = append(out, AssetTopics...)

	return append(out, BackupTopics...)
}
