package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, DefaultAssetsRawDir, cfg.Assets.RawDir)
	require.Equal(t, DefaultAssetsBackupDir, cfg.Assets.BackupDir)
	require.Equal(t, DefaultAllowedExtensions, cfg.Assets.AllowedExtensions)
	require.Equal(t, DefaultAssetsMaxBackupVersions, cfg.Assets.MaxBackupVersions)
	require.Equal(t, DefaultAssetsPublicRawPathPrefix, cfg.Assets.PublicRawPrefix)
	require.Equal(t, 5*time.Minute, cfg.Assets.CatalogTTL())
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, DefaultAPIKeyHeader, cfg.Auth.Header)
	require.Equal(t, "ip", cfg.RateLimit.Key)
	require.Equal(t, 10*time.Minute, cfg.RateLimit.IdleTTL)
	require.Equal(t, int64(64<<20), cfg.Server.MaxUploadBytes())
	require.Equal(t, 30*time.Second, cfg.CircuitBreaker.OpenTimeout)
	require.True(t, cfg.Events.Enabled)
	require.False(t, cfg.Events.Backup.Pruned)
}

func TestLoad_FromConfigsDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte(`
assets:
  raw_dir: /srv/assets/raw
  max_backup_versions: 3
  allowed_extensions: [".png", ".webp"]
  catalog_cache_seconds: 0
  jobs:
    backup_sweep: ""
`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "/srv/assets/raw", cfg.Assets.RawDir)
	require.Equal(t, 3, cfg.Assets.MaxBackupVersions)
	require.Equal(t, []string{".png", ".webp"}, cfg.Assets.AllowedExtensions)
	require.Zero(t, cfg.Assets.CatalogTTL())
	require.Empty(t, cfg.Assets.Jobs.BackupSweep)
	require.Equal(t, DefaultAssetsManifestReconcile, cfg.Assets.Jobs.ManifestReconcile)
	// 未出现在文件中的键保持默认值
	require.Equal(t, DefaultAssetsBackupDir, cfg.Assets.BackupDir)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ASSETVAULT_ASSETS_API_KEY", "from-env")
	t.Setenv("ASSETVAULT_ASSETS_READ_ONLY", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "from-env", cfg.Assets.APIKey)
	require.True(t, cfg.Assets.ReadOnly)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		section string
	}{
		{name: "extension without dot", yaml: "assets:\n  allowed_extensions: [\"png\"]\n", section: "assets"},
		{name: "backup versions out of range", yaml: "assets:\n  max_backup_versions: 0\n", section: "assets"},
		{name: "default limit above max", yaml: "assets:\n  pagination_default_limit: 150\n  pagination_max_limit: 100\n", section: "assets"},
		{name: "relative raw prefix", yaml: "assets:\n  public_raw_prefix: files\n", section: "assets"},
		{name: "unknown cache backend", yaml: "kv:\n  type: etcd\n", section: "kv"},
		{name: "groupcache peer not a url", yaml: "kv:\n  groupcache:\n    peers: [\"10.0.0.1\"]\n", section: "kv"},
		{name: "unknown db driver", yaml: "db:\n  type: duckdb\n", section: "db"},
		{name: "log file without path", yaml: "log:\n  file:\n    enabled: true\n    path: \"\"\n", section: "log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := Load(path)
			require.ErrorContains(t, err, "invalid "+tt.section+" config")
		})
	}
}
