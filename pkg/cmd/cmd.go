// Package cmd 实现 assetvault 命令行.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/assetvault/pkg/app"
	"github.com/yeisme/assetvault/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "assetvault",
		Short: "Asset revision store for game art assets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configs.InitConfig(configPath)
		},
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := loadConfig()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}

			return a.Run(ctx)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(serveCmd)

	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerBootstrapCommands()
	registerBackupCommands()
}

// loadConfig 返回进程级配置，--debug 覆盖配置文件中的 server.debug.
func loadConfig() *configs.AppConfig {
	cfg := configs.GetConfig()
	if debug {
		cfg.Server.Debug = true
	}

	return cfg
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
