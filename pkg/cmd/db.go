package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/assetvault/pkg/internal/model"
	"github.com/yeisme/assetvault/pkg/internal/storage/db"
	"github.com/yeisme/assetvault/pkg/log"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered database types",
		Aliases: []string{"ls"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")

			for _, t := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or update the asset tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			log.Init(cfg)
			l := log.Component("db")

			client, err := db.New(cmd.Context(), cfg.DB, db.Options{Logger: &l})
			if err != nil {
				return err
			}
			defer client.Close()

			if err := model.Migrate(client.GetDB()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables on %s\n", len(model.All()), cfg.DB.Type)

			return nil
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	dbCmd.AddCommand(dbListCmd, dbMigrateCmd)
	rootCmd.AddCommand(dbCmd)
}
