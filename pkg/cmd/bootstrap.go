package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/assetvault/pkg/app"
	"github.com/yeisme/assetvault/pkg/internal/service"
	"github.com/yeisme/assetvault/pkg/log"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "import files in the raw directory when the asset table is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(ctx context.Context, svc *service.Services) error {
			n, err := svc.Bootstrap.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d assets\n", n)

			return nil
		})
	},
}

// withServices 为一次性命令装配服务，结束后排空镜像队列并关闭存储.
func withServices(ctx context.Context, fn func(ctx context.Context, svc *service.Services) error) error {
	cfg := loadConfig()
	log.Init(cfg)

	mgr, svc, err := app.NewServices(ctx, cfg, log.Component("cli"))
	if err != nil {
		return err
	}

	svc.Start(ctx)

	defer func() {
		svc.Close()
		_ = mgr.Close()
	}()

	return fn(ctx, svc)
}

func registerBootstrapCommands() {
	rootCmd.AddCommand(bootstrapCmd)
}
