package configs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDBConfig_DSN(t *testing.T) {
	tests := []struct {
		name   string
		cfg    DBConfig
		driver DBType
		dsn    string
	}{
		{
			name:   "sqlite path gains suffix",
			cfg:    DBConfig{Type: "sqlite", Database: "data/assetvault"},
			driver: SQLite,
			dsn:    "file:data/assetvault.db",
		},
		{
			name:   "sqlite memory",
			cfg:    DBConfig{Type: "sqlite", Database: ":memory:"},
			driver: SQLite,
			dsn:    "file::memory:",
		},
		{
			name:   "pg alias with default port",
			cfg:    DBConfig{Type: "PG", Host: "db", User: "av", Password: "p@ss", Database: "assets", SSLMode: "disable"},
			driver: PostgreSQL,
			dsn:    "postgres://av:p%40ss@db:5432/assets?sslmode=disable",
		},
		{
			name:   "mariadb alias",
			cfg:    DBConfig{Type: "mariadb", Host: "10.0.0.2", Port: 3307, User: "root", Password: "x", Database: "assets"},
			driver: MySQL,
			dsn:    "root:x@tcp(10.0.0.2:3307)/assets?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "unknown driver",
			cfg:    DBConfig{Type: "duckdb", Database: "x"},
			driver: "duckdb",
			dsn:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.driver, tt.cfg.Driver())
			require.Equal(t, tt.dsn, tt.cfg.DSN())
		})
	}
}
