// Package log 构建进程级 zerolog logger，stderr 输出可选 console 或 JSON，文件经 lumberjack 轮转.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yeisme/assetvault/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
)

// Init 用配置安装全局 logger，只有第一次调用生效.
func Init(cfg *configs.AppConfig) {
	initOnce.Do(func() { install(cfg) })
}

// Logger 返回全局 logger，未调用 Init 时按进程级配置初始化.
func Logger() *zerolog.Logger {
	initOnce.Do(func() { install(configs.GetConfig()) })

	return &logger
}

// Component 返回带 component 字段的子 logger.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

func install(cfg *configs.AppConfig) {
	logger = New(cfg.Log, cfg.Server.Debug, os.Stderr)
	log.Logger = logger

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

// New 按配置构建 logger，不修改全局状态. debug 为 true 时附带调用位置.
func New(cfg configs.LogConfig, debug bool, stderr io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		if cfg.Level != "" {
			fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", cfg.Level)
		}

		lvl = zerolog.InfoLevel
	}

	out := stderr
	if cfg.Format != configs.LogFormatJSON {
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}
	}

	if cfg.File.Enabled {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	}

	lc := zerolog.New(out).Level(lvl).With().Timestamp()
	if debug {
		lc = lc.Caller()
	}

	return lc.Logger()
}

// GinWriter 把 gin 自己打印的文本行转成 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

// NewGinWriter 用于 gin.DefaultWriter 与 gin.DefaultErrorWriter.
func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if line = strings.TrimSpace(strings.TrimPrefix(line, "[GIN-debug]")); line != "" {
			w.logger.WithLevel(w.level).Msg(line)
		}
	}

	return len(p), nil
}
