package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/assetvault/pkg/internal/service"
	"github.com/yeisme/assetvault/pkg/internal/types"
)

var (
	backupsCmd = &cobra.Command{
		Use:   "backups",
		Short: "inspect and manage backup files",
	}

	backupsListCmd = &cobra.Command{
		Use:     "list FILE",
		Short:   "list backups of an asset file, e.g. m-slime.png",
		Aliases: []string{"ls"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ext, err := splitFileArg(args[0])
			if err != nil {
				return err
			}

			return withServices(cmd.Context(), func(ctx context.Context, svc *service.Services) error {
				res, err := svc.Backups.List(ctx, key, ext)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TIMESTAMP\tSIZE\tCREATED\tCHECKSUM")

				for _, b := range res.Backups {
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", b.BackupTimestamp, b.FileSize,
						b.CreatedAt.Format("2006-01-02 15:04:05"), b.Checksum)
				}

				return w.Flush()
			})
		},
	}

	backupsRestoreCmd = &cobra.Command{
		Use:   "restore FILE TIMESTAMP",
		Short: "replace the current file with a backup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return backupAction(cmd, args, func(ctx context.Context, svc *service.Services, key, ext, ts string) (*types.BackupActionResponse, error) {
				return svc.Backups.Restore(ctx, key, ext, ts)
			})
		},
	}

	backupsRemoveCmd = &cobra.Command{
		Use:     "remove FILE TIMESTAMP",
		Short:   "delete one backup file",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return backupAction(cmd, args, func(ctx context.Context, svc *service.Services, key, ext, ts string) (*types.BackupActionResponse, error) {
				return svc.Backups.Delete(ctx, key, ext, ts)
			})
		},
	}

	backupsPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "apply the backup retention limit to every asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svc *service.Services) error {
				n, err := svc.Backups.Prune(ctx)
				if err != nil {
					return err
				}

				stale, err := svc.Backups.Reconcile(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "removed %d backups, %d stale manifest rows\n", n, stale)

				return nil
			})
		},
	}
)

type backupFunc func(ctx context.Context, svc *service.Services, key, ext, ts string) (*types.BackupActionResponse, error)

func backupAction(cmd *cobra.Command, args []string, fn backupFunc) error {
	key, ext, err := splitFileArg(args[0])
	if err != nil {
		return err
	}

	return withServices(cmd.Context(), func(ctx context.Context, svc *service.Services) error {
		res, err := fn(ctx, svc, key, ext, args[1])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Message)

		if !res.Success {
			return fmt.Errorf("backup %s not found", args[1])
		}

		return nil
	})
}

func splitFileArg(file string) (key, ext string, err error) {
	ext = filepath.Ext(file)
	key = strings.TrimSuffix(file, ext)

	if key == "" || ext == "" || ext == "." {
		return "", "", fmt.Errorf("expected {asset_key}.{extension}, got %q", file)
	}

	return key, ext, nil
}

func registerBackupCommands() {
	backupsCmd.AddCommand(backupsListCmd, backupsRestoreCmd, backupsRemoveCmd, backupsPruneCmd)
	rootCmd.AddCommand(backupsCmd)
}
