package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/internal/infrastructure/manifest"
	"github.com/fastygo/shopgen/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/shopgen/internal/infrastructure/postgres"
)

func newDoctorCommand(a *app) *cobra.Command {
	var needDB bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the output directory, manifest, migrations and database before a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.runContext(cmd.Context())
			defer cancel()

			var pg monitor.Pinger
			if needDB {
				pool, err := pgInfra.NewPool(ctx, a.cfg.Database, a.logger)
				if err != nil {
					pg = unreachable{err: err}
				} else {
					a.manager.Register("postgres", func(context.Context) error {
						pgInfra.Close(pool, a.logger)
						return nil
					})
					pg = pool
				}
			}

			var runs monitor.RunCounter
			store, err := manifest.Open(a.cfg.Output.ManifestPath, "")
			if err != nil {
				a.logger.Debug("manifest unavailable", zap.Error(err))
			} else {
				a.manager.Register("manifest", func(context.Context) error { return store.Close() })
				runs = store
			}

			status := monitor.New(pg, runs, monitor.Paths{
				OutputDir:     a.cfg.Output.Dir,
				MigrationsDir: a.cfg.Migrations.Path,
			}, a.logger).Check(ctx)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "output dir   %-5t %s\n", status.OutputDir, a.cfg.Output.Dir)
			fmt.Fprintf(out, "manifest     %-5t %s (%d runs)\n", status.Manifest, a.cfg.Output.ManifestPath, status.ManifestRuns)
			fmt.Fprintf(out, "migrations   %-5t %s\n", status.Migrations, a.cfg.Migrations.Path)
			if status.PostgreSQLChecked {
				fmt.Fprintf(out, "postgres     %-5t\n", status.PostgreSQL)
			} else {
				fmt.Fprintln(out, "postgres     skipped (use --database)")
			}
			for _, p := range status.Problems {
				fmt.Fprintf(out, "  - %s\n", p)
			}

			if !status.ReadyToGenerate() || (needDB && !status.ReadyToLoad()) {
				return domain.NewError(domain.ErrCodeNotFound, "environment is not ready")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&needDB, "database", false, "Also connect to Postgres and require migrations (needed by load)")
	return cmd
}

// unreachable reports a pool that could not be opened as a failed ping.
type unreachable struct {
	err error
}

func (u unreachable) Ping(context.Context) error { return u.err }
