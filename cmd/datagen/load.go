package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	pgInfra "github.com/fastygo/shopgen/internal/infrastructure/postgres"
	"github.com/fastygo/shopgen/repository/postgres"
	"github.com/fastygo/shopgen/usecase/load"
)

func newLoadCommand(a *app) *cobra.Command {
	var (
		dir     string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Reload the Postgres source database from generated CSV files",
		Long: `Truncate the source tables and copy customers, orders, order items and clickstream
events from the CSV files in one transaction, then run validation queries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = a.cfg.Output.Dir
			}
			if cmd.Flags().Changed("migrate") {
				a.cfg.Migrations.Enabled = migrate
			}

			ctx, cancel := a.runContext(cmd.Context())
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, a.cfg.Context.LoadTimeout)
			defer cancelTimeout()

			if err := pgInfra.RunMigrations(a.cfg.Database, a.cfg.Migrations, a.logger); err != nil {
				return err
			}
			pool, err := pgInfra.NewPool(ctx, a.cfg.Database, a.logger)
			if err != nil {
				return err
			}
			a.manager.Register("postgres", func(context.Context) error {
				pgInfra.Close(pool, a.logger)
				return nil
			})

			uc := load.New(postgres.NewSeedRepository(pool), tableBar(!a.quiet), a.logger)
			res, err := uc.Run(ctx, dir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d customers, %d orders, %d order items, %d events in %s\n",
				res.Stats.Customers, res.Stats.Orders, res.Stats.OrderItems, res.Stats.Events,
				res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory holding the CSV files (defaults to DATAGEN_OUTPUT_DIR)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply schema migrations before loading (RUN_MIGRATIONS)")
	return cmd
}
