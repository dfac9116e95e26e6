package configs

import (
	"net/url"
	"path"
	"strings"

	"github.com/spf13/viper"
)

// S3Config 镜像目标 bucket，兼容 MinIO 与任意 S3 实现.
type S3Config struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint 可以是 host:port，也可以带 http:// 或 https://，后者覆盖 UseSSL
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"       rule:"omitempty,min=3,max=63"`
	Region          string `mapstructure:"region"`
	// KeyPrefix 所有对象键的公共前缀，多个环境共用一个 bucket 时使用
	KeyPrefix string `mapstructure:"key_prefix"`
}

// IsConfigured 启用且端点与 bucket 都不为空.
func (c *S3Config) IsConfigured() bool {
	return c.Enabled && c.Endpoint != "" && c.BucketName != ""
}

// HostAndTLS 拆出 minio 需要的裸 host 与是否使用 TLS.
func (c *S3Config) HostAndTLS() (string, bool) {
	if u, err := url.Parse(c.Endpoint); err == nil && u.Host != "" {
		return u.Host, u.Scheme == "https"
	}

	return c.Endpoint, c.UseSSL
}

// ObjectKey 在 key 前拼上 KeyPrefix.
func (c *S3Config) ObjectKey(key string) string {
	prefix := strings.Trim(c.KeyPrefix, "/")
	if prefix == "" {
		return key
	}

	return path.Join(prefix, key)
}

func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.endpoint", "localhost:9000")
	v.SetDefault("s3.access_key_id", "minioadmin")
	v.SetDefault("s3.secret_access_key", "minioadmin")
	v.SetDefault("s3.bucket_name", "assetvault")
	v.SetDefault("s3.region", "us-east-1")
}
