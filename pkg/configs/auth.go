package configs

import "github.com/spf13/viper"

// DefaultAPIKeyHeader 携带共享密钥的请求头.
const DefaultAPIKeyHeader = "X-API-Key"

// AuthConfig 控制共享密钥认证，密钥本身位于 assets.api_key.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"` // 关闭后写接口不再校验密钥，仅用于本地调试
	Header  string `mapstructure:"header"`  // 读取密钥的请求头
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.header", DefaultAPIKeyHeader)
}
