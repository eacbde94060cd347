package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dev-ALPM/imixs-workflow/internal/store"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending Postgres schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.StoreDriver != "postgres" {
			return fmt.Errorf("migrate requires STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
		}
		if err := store.Migrate(cmd.Context(), cfg.DatabaseDSN); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}
