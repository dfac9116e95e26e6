package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yeisme/assetvault/pkg/internal/service"
	kv "github.com/yeisme/assetvault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "inspect the response and catalog cache",
		Aliases: []string{"cache"},
	}

	kvTypesCmd = &cobra.Command{
		Use:     "types",
		Short:   "list compiled-in cache backends",
		Aliases: []string{"list", "ls"},
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}

	kvKeysCmd = &cobra.Command{
		Use:   "keys [PATTERN]",
		Short: "list cached keys, e.g. 'catalog:*'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}

			return withKV(cmd.Context(), func(ctx context.Context, client *kv.Client) error {
				keys, err := client.Keys(ctx, service.CacheNamespace+":"+pattern)
				if err != nil {
					return err
				}

				sort.Strings(keys)

				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}

				return nil
			})
		},
	}

	kvFlushCmd = &cobra.Command{
		Use:   "flush [PATTERN]",
		Short: "drop cached entries so the next request reloads them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}

			return withKV(cmd.Context(), func(ctx context.Context, client *kv.Client) error {
				keys, err := client.Keys(ctx, service.CacheNamespace+":"+pattern)
				if err != nil {
					return err
				}

				if err := client.DeleteMany(ctx, keys...); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "flushed %d keys\n", len(keys))

				return nil
			})
		},
	}
)

// withKV 按配置打开缓存后端，memory 后端只能看到本进程写入的键.
func withKV(ctx context.Context, fn func(ctx context.Context, client *kv.Client) error) error {
	cfg := loadConfig()

	client, err := kv.NewKVClient(ctx, cfg.KV)
	if err != nil {
		return fmt.Errorf("open %s cache: %w", cfg.KV.Type, err)
	}
	defer client.Close()

	return fn(ctx, client)
}

func registerKVCommands() {
	kvCmd.AddCommand(kvTypesCmd, kvKeysCmd, kvFlushCmd)
	rootCmd.AddCommand(kvCmd)
}
