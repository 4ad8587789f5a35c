package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/neurocare/internal/assessment"
	"github.com/mind-engage/neurocare/internal/config"
	"github.com/mind-engage/neurocare/internal/db"
	"github.com/mind-engage/neurocare/internal/storage"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML catalog into the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedFile == "" {
			return fmt.Errorf("--file is required")
		}
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if cfg.DBDriver == "memory" {
			return fmt.Errorf("db driver %q does not persist; nothing to seed", cfg.DBDriver)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		store := assessment.NewSQLStore(dbh, cfg.DBDriver)
		defer store.Close()

		bs, err := storage.NewFSStore(cfg.BlobBasePath, "/assets/")
		if err != nil {
			return fmt.Errorf("blob store: %w", err)
		}
		n, err := assessment.SeedFile(ctx, store, bs, seedFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d conditions into %s\n", n, cfg.DBDriver)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Catalog YAML file")
}
