package configs

import (
	"github.com/spf13/viper"
)

// 日志输出格式.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// LogConfig 控制台输出加可选的轮转文件.
//
// 文件始终写 JSON，Format 只影响 stderr，容器里跑时设为 json 便于采集.
type LogConfig struct {
	Level  string        `mapstructure:"level"  rule:"oneof=trace debug info warn error fatal panic disabled"`
	Format string        `mapstructure:"format" rule:"oneof=console json"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig lumberjack 轮转参数.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"         rule:"required_if=Enabled true"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"  rule:"min=0"`
	MaxBackups int    `mapstructure:"max_backups"  rule:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" rule:"min=0"`
	Compress   bool   `mapstructure:"compress"`
}

func (l *LogConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", LogFormatConsole)
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "logs/assetvault.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.max_age_days", 28)
	v.SetDefault("log.file.compress", true)
}
