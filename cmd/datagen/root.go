package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/shopgen/internal/config"
	"github.com/fastygo/shopgen/internal/services/lifecycle"
	"github.com/fastygo/shopgen/pkg/logger"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager *lifecycle.Manager
	quiet   bool
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "datagen",
		Short:         "Generate and load synthetic e-commerce datasets",
		Long:          "datagen produces customers, orders, order items and clickstream events that are internally consistent and deterministic for a given seed, writes them as CSV (and optionally Parquet), and can reload them into the Postgres source database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Hide progress bars")

	root.AddCommand(
		newGenerateCommand(a),
		newCheckCommand(a),
		newLoadCommand(a),
		newHistoryCommand(a),
		newDoctorCommand(a),
	)
	return root, a
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = zapLogger.With(zap.String("app", cfg.AppName))
	a.manager = lifecycle.New(cfg.Context.ShutdownTimeout, a.logger)
	return nil
}

// close releases registered resources. It is safe to call when init never ran.
func (a *app) close() error {
	if a.manager == nil {
		return nil
	}
	err := a.manager.Shutdown(context.Background())
	_ = a.logger.Sync()
	return err
}

// runContext is cancelled on SIGINT/SIGTERM and tagged with a fresh run id.
func (a *app) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := a.manager.Listen(parent)
	return logger.ContextWithRunID(ctx, uuid.NewString()), cancel
}
