package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/configs"
)

func TestWithQuery(t *testing.T) {
	require.Equal(t, "file:a.db?x=1", withQuery("file:a.db", "x=1"))
	require.Equal(t, "file:a.db?mode=ro&x=1", withQuery("file:a.db?mode=ro", "x=1"))
}

func TestMetricsName(t *testing.T) {
	require.Equal(t, "assetvault", metricsName(configs.DBConfig{Database: "data/assetvault.db"}))
	require.Equal(t, "assets", metricsName(configs.DBConfig{Database: "assets"}))
}

func TestNew_SQLiteMemory(t *testing.T) {
	client, err := New(context.Background(), configs.DBConfig{Type: "sqlite", Database: ":memory:"}, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()))

	sqlDB, err := client.GetDB().DB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), configs.DBConfig{Type: "duckdb", Database: "x"}, Options{})
	require.ErrorContains(t, err, "not compiled in")
	require.Contains(t, GetRegisteredDBTypes(), configs.SQLite)
}
