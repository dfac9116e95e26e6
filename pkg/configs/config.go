// Package configs 管理应用程序配置，包括数据库、对象存储、消息队列与资产目录的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	cfg, err := configs.Load("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(cfg.Server.Port)
//	fmt.Println(cfg.Assets.RawDir)
//
// Example accessing DB config:
//
//	dsn := cfg.DB.DSN()
//	fmt.Println("DSN:", dsn)
//
// 进程级别的副本仍然可以通过 InitConfig / GetConfig 使用，供 CLI 与热重载读取.
package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/assetvault/pkg/rule"
)

// AppVersion 应用版本，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.1.0"

// EnvPrefix 环境变量前缀，例如 ASSETVAULT_ASSETS_API_KEY.
const EnvPrefix = "ASSETVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器配置，端口、调试模式等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 缓存配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 指标配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪配置
		Auth           AuthConfig           `mapstructure:"auth"`            // AuthConfig API Key 认证
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件开关
		Assets         AssetsConfig         `mapstructure:"assets"`          // AssetsConfig 资产目录、备份策略
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
	mu       sync.RWMutex
)

// NewViper 创建带默认值与环境变量绑定的 Viper 实例.
func NewViper() *viper.Viper {
	v := viper.New()
	setAllDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load 读取 path（文件或目录）下的配置并返回独立的配置对象.
// path 为空或目录中没有配置文件时仅使用默认值和环境变量.
func Load(path string) (*AppConfig, error) {
	v, err := readViper(path)
	if err != nil {
		return nil, err
	}

	return decode(v)
}

// InitConfig 加载应用程序配置并保存为进程级副本，按 server.reload_config 启用热重载.
func InitConfig(path string) error {
	v, err := readViper(path)
	if err != nil {
		return err
	}

	cfg, err := decode(v)
	if err != nil {
		return err
	}

	mu.Lock()
	appViper = v
	globalConfig = *cfg
	mu.Unlock()

	reloadConfigs(v, cfg.Server.ReloadConfig)

	return nil
}

func readViper(path string) (*viper.Viper, error) {
	v := NewViper()

	if path == "" {
		return v, nil
	}

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		v.SetConfigFile(path)
	} else {
		found := false

		for _, dir := range []string{path, filepath.Join(path, "configs")} {
			for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
				cfg := filepath.Join(dir, "config."+ext)
				if _, err := os.Stat(cfg); err == nil {
					v.SetConfigFile(cfg)

					found = true

					break
				}
			}

			if found {
				break
			}
		}

		if !found {
			return v, nil
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 按 rule 标签校验配置.
func (c *AppConfig) Validate() error {
	if err := rule.ValidateStruct(c.Assets); err != nil {
		return fmt.Errorf("invalid assets config: %w", err)
	}

	sections := []struct {
		name string
		conf any
	}{
		{"server", c.Server},
		{"rate_limit", c.RateLimit},
		{"circuit_breaker", c.CircuitBreaker},
		{"tracing", c.Tracing},
		{"metrics", c.Metrics},
		{"log", c.Log},
		{"db", c.DB},
		{"kv", c.KV},
		{"s3", c.S3},
	}

	for _, sec := range sections {
		if err := rule.ValidateStruct(sec.conf); err != nil {
			return fmt.Errorf("invalid %s config: %w", sec.name, err)
		}
	}

	if c.Assets.PaginationDefaultLimit > c.Assets.PaginationMaxLimit {
		return fmt.Errorf("invalid assets config: pagination_default_limit %d exceeds pagination_max_limit %d",
			c.Assets.PaginationDefaultLimit, c.Assets.PaginationMaxLimit)
	}

	return nil
}

// Default 返回仅由默认值构成的配置.
func Default() *AppConfig {
	cfg, err := decode(NewViper())
	if err != nil {
		// 默认值本身不合法属于编程错误
		panic(err)
	}

	return cfg
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	new(ServerConfig).setDefaults(v)
	new(LogConfig).setDefaults(v)
	new(DBConfig).setDefaults(v)
	new(S3Config).setDefaults(v)
	new(MQConfig).setDefaults(v)
	new(KVConfig).setDefaults(v)
	new(MetricsConfig).setDefaults(v)
	new(TracingConfig).setDefaults(v)
	new(AuthConfig).setDefaults(v)
	new(RateLimitConfig).setDefaults(v)
	new(CircuitBreakerConfig).setDefaults(v)
	new(EventsConfig).setDefaults(v)
	new(AssetsConfig).setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		cfg, err := decode(v)
		if err != nil {
			fmt.Printf("Error reloading config: %v\n", err)

			return
		}

		mu.Lock()
		globalConfig = *cfg
		mu.Unlock()
	})
	v.WatchConfig()
}

// GetConfig 返回进程级配置副本.
func GetConfig() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()

	cfg := globalConfig

	return &cfg
}

// GetViper 返回 InitConfig 使用的 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	mu.RLock()
	defer mu.RUnlock()

	return appViper
}
