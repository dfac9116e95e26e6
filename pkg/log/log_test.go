package log

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/configs"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	l := New(configs.LogConfig{Level: "warn", Format: configs.LogFormatJSON}, false, &buf)
	l.Info().Msg("dropped")
	l.Warn().Str("asset_id", "m-slime").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var ev map[string]any
	require.NoError(t, sonic.UnmarshalString(lines[0], &ev))
	require.Equal(t, "warn", ev["level"])
	require.Equal(t, "m-slime", ev["asset_id"])
	require.Contains(t, ev, "time")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer

	l := New(configs.LogConfig{Level: "loud", Format: configs.LogFormatJSON}, false, &buf)
	require.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestNew_FileOutput(t *testing.T) {
	var buf bytes.Buffer

	path := filepath.Join(t.TempDir(), "av.log")
	l := New(configs.LogConfig{
		Level:  "info",
		Format: configs.LogFormatConsole,
		File:   configs.LogFileConfig{Enabled: true, Path: path, MaxSizeMB: 1},
	}, true, &buf)
	l.Info().Msg("hello")

	require.Contains(t, buf.String(), "hello")
	require.FileExists(t, path)
}

func TestGinWriter(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf)
	w := NewGinWriter(&l, zerolog.WarnLevel)

	in := []byte("[GIN-debug] GET /api/assets\n[GIN-debug] POST /api/assets\n\n")
	n, err := w.Write(in)
	require.NoError(t, err)
	require.Equal(t, len(in), n)

	out := buf.String()
	require.Equal(t, 2, strings.Count(out, `"level":"warn"`))
	require.Contains(t, out, `"message":"GET /api/assets"`)
}
