package configs

import (
	"time"

	"github.com/spf13/viper"
)

// ServerConfig HTTP 服务配置.
type ServerConfig struct {
	Host            string        `mapstructure:"host"             rule:"ip"`
	Port            int           `mapstructure:"port"             rule:"min=1,max=65535"`
	Debug           bool          `mapstructure:"debug"`         // gin debug 模式，同时开放 swagger
	ReloadConfig    bool          `mapstructure:"reload_config"` // 监听配置文件变化
	MaxUploadMB     int64         `mapstructure:"max_upload_mb"    rule:"min=1"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`     // 包含上传请求体，0 表示不限
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // 优雅退出等待时间
	// PublicBaseURL 反向代理后生成下载地址用的外部地址，为空时取请求的 Host.
	PublicBaseURL string `mapstructure:"public_base_url" rule:"omitempty,url"`
}

// MaxUploadBytes 单个上传请求允许的最大字节数.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.reload_config", false)
	v.SetDefault("server.max_upload_mb", 64)
	v.SetDefault("server.read_timeout", "5m")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.public_base_url", "")
}
