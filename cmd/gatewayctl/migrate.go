package main

import (
	"fmt"

	pgStorage "seller-gateway/internal/adapter/storage/postgres"

	"github.com/spf13/cobra"
)

func migrateCmd(load loader) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply every embedded migration not yet recorded in schema_migrations.

Examples:
  gatewayctl migrate
  gatewayctl migrate --list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				migrations, err := pgStorage.Migrations()
				if err != nil {
					return err
				}
				for _, m := range migrations {
					fmt.Fprintln(cmd.OutOrStdout(), m.Version)
				}
				return nil
			}

			cfg, log, err := load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			applied, err := pgStorage.Migrate(ctx, pool, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", applied)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print embedded migration versions and exit")
	return cmd
}
