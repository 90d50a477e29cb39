package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphummel/lessee/internal/db"
	"github.com/tphummel/lessee/internal/leasing"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := db.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", cfg.DBPath, database.SchemaVersion())
			return err
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the platform registry when it is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := db.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			n, err := leasing.New(database).SeedPlatforms(commandContext(cmd), cfg.Platforms)
			if err != nil {
				return err
			}
			if n == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "platforms already present, nothing seeded")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d platforms\n", n)
			return err
		},
	}
}
