package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/assetvault/pkg/configs"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		Run: func(cmd *cobra.Command, args []string) {
			v := configs.GetViper()
			if v == nil || v.ConfigFileUsed() == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and environment only)")
				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), v.ConfigFileUsed())
		},
	}

	configShowCmd = &cobra.Command{
		Use:     "show",
		Short:   "print the effective config as JSON",
		Aliases: []string{"debug"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			shown := *cfg
			for _, secret := range []*string{
				&shown.Assets.APIKey,
				&shown.DB.Password,
				&shown.S3.SecretAccessKey,
				&shown.KV.Redis.Password,
				&shown.KV.NATS.Password,
				&shown.MQ.Common.Password,
				&shown.MQ.Redis.Password,
			} {
				if *secret != "" {
					*secret = "******"
				}
			}

			b, err := sonic.ConfigStd.MarshalIndent(&shown, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// registerConfigsCommands 注册 config 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(configPathCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
