package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool               `mapstructure:"enabled"` // 总开关
	Asset   AssetEventsConfig  `mapstructure:"asset"`
	Backup  BackupEventsConfig `mapstructure:"backup"`
}

// AssetEventsConfig 资产与修订相关事件开关。
type AssetEventsConfig struct {
	Created  bool `mapstructure:"created"`
	Updated  bool `mapstructure:"updated"`
	Deleted  bool `mapstructure:"deleted"`
	Revision bool `mapstructure:"revision"`
}

// BackupEventsConfig 备份相关事件开关。
type BackupEventsConfig struct {
	Created  bool `mapstructure:"created"`
	Restored bool `mapstructure:"restored"`
	Deleted  bool `mapstructure:"deleted"`
	Pruned   bool `mapstructure:"pruned"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.asset.created", true)
	v.SetDefault("events.asset.updated", true)
	v.SetDefault("events.asset.deleted", true)
	v.SetDefault("events.asset.revision", true)

	v.SetDefault("events.backup.created", true)
	v.SetDefault("events.backup.restored", true)
	v.SetDefault("events.backup.deleted", true)
	// 清理事件量可能较大，默认关闭
	v.SetDefault("events.backup.pruned", false)
}
