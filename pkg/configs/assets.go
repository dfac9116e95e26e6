package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAssetsRawDir              = "data/raw"     // 当前资产文件目录
	DefaultAssetsBackupDir           = "data/backups" // 备份目录
	DefaultAssetsCatalogDir          = "data/catalog" // 目录 JSON 所在目录
	DefaultAssetsEnableBackup        = true
	DefaultAssetsMaxBackupVersions   = 10
	DefaultAssetsReadOnly            = false
	DefaultAssetsAPIKey              = "change-me"
	DefaultPaginationDefaultLimit    = 20
	DefaultPaginationMaxLimit        = 100
	DefaultCatalogCacheSeconds       = 300
	DefaultAssetsMirror              = false
	DefaultAssetsProbeImages         = true
	DefaultAssetsBootstrapOnStart    = true
	DefaultAssetsBackupSweepCron     = "*/30 * * * *" // 备份保留策略巡检
	DefaultAssetsManifestReconcile   = "0 * * * *"    // 备份清单对账
	DefaultAssetsCatalogRefreshCron  = "*/5 * * * *"  // 刷新目录缓存
	DefaultAssetsPublicRawPathPrefix = "/files/raw"
)

// AssetsConfig 资产文件、备份与分页相关配置.
type AssetsConfig struct {
	RawDir                 string   `mapstructure:"raw_dir"                  rule:"required"`
	BackupDir              string   `mapstructure:"backup_dir"               rule:"required"`
	CatalogDir             string   `mapstructure:"catalog_dir"`
	AllowedExtensions      []string `mapstructure:"allowed_extensions"       rule:"required,min=1,dive,startswith=."`
	EnableBackup           bool     `mapstructure:"enable_backup"`
	MaxBackupVersions      int      `mapstructure:"max_backup_versions"      rule:"min=1,max=50"`
	ReadOnly               bool     `mapstructure:"read_only"`
	APIKey                 string   `mapstructure:"api_key"`
	PaginationDefaultLimit int      `mapstructure:"pagination_default_limit" rule:"min=1,max=200"`
	PaginationMaxLimit     int      `mapstructure:"pagination_max_limit"     rule:"min=1,max=500"`
	CatalogCacheSeconds    int      `mapstructure:"catalog_cache_seconds"    rule:"min=0"`
	Mirror                 bool     `mapstructure:"mirror"`
	ProbeImages            bool     `mapstructure:"probe_images"`
	BootstrapOnStart       bool     `mapstructure:"bootstrap_on_start"`
	PublicRawPrefix        string   `mapstructure:"public_raw_prefix"        rule:"startswith=/"`

	// Jobs 后台任务调度.
	Jobs AssetJobsConfig `mapstructure:"jobs"`
}

// AssetJobsConfig 后台定时任务的 cron 表达式，为空表示不注册.
type AssetJobsConfig struct {
	BackupSweep       string `mapstructure:"backup_sweep"`
	ManifestReconcile string `mapstructure:"manifest_reconcile"`
	CatalogRefresh    string `mapstructure:"catalog_refresh"`
}

// DefaultAllowedExtensions 允许上传的扩展名.
var DefaultAllowedExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif", ".mp4"}

// CatalogTTL 返回目录缓存时长.
func (c *AssetsConfig) CatalogTTL() time.Duration {
	return time.Duration(c.CatalogCacheSeconds) * time.Second
}

// setDefaults 设置资产配置的默认值.
func (c *AssetsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("assets.raw_dir", DefaultAssetsRawDir)
	v.SetDefault("assets.backup_dir", DefaultAssetsBackupDir)
	v.SetDefault("assets.catalog_dir", DefaultAssetsCatalogDir)
	v.SetDefault("assets.allowed_extensions", DefaultAllowedExtensions)
	v.SetDefault("assets.enable_backup", DefaultAssetsEnableBackup)
	v.SetDefault("assets.max_backup_versions", DefaultAssetsMaxBackupVersions)
	v.SetDefault("assets.read_only", DefaultAssetsReadOnly)
	v.SetDefault("assets.api_key", DefaultAssetsAPIKey)
	v.SetDefault("assets.pagination_default_limit", DefaultPaginationDefaultLimit)
	v.SetDefault("assets.pagination_max_limit", DefaultPaginationMaxLimit)
	v.SetDefault("assets.catalog_cache_seconds", DefaultCatalogCacheSeconds)
	v.SetDefault("assets.mirror", DefaultAssetsMirror)
	v.SetDefault("assets.probe_images", DefaultAssetsProbeImages)
	v.SetDefault("assets.bootstrap_on_start", DefaultAssetsBootstrapOnStart)
	v.SetDefault("assets.public_raw_prefix", DefaultAssetsPublicRawPathPrefix)
	v.SetDefault("assets.jobs.backup_sweep", DefaultAssetsBackupSweepCron)
	v.SetDefault("assets.jobs.manifest_reconcile", DefaultAssetsManifestReconcile)
	v.SetDefault("assets.jobs.catalog_refresh", DefaultAssetsCatalogRefreshCron)
}
