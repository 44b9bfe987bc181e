package generator

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/internal/config"
)

// cancelCheckEvery bounds how many rows are produced between context checks.
const cancelCheckEvery = 1000

// Progress receives stage notifications, typically to drive a progress bar.
type Progress interface {
	StageStarted(entity string, total int)
	RowsGenerated(n int)
	StageFinished(entity string, rows int)
}

type nopProgress struct{}

func (nopProgress) StageStarted(string, int)  {}
func (nopProgress) RowsGenerated(int)         {}
func (nopProgress) StageFinished(string, int) {}

// Generator runs the four generation stages against one Source.
type Generator struct {
	cfg      config.GeneratorConfig
	src      *Source
	logger   *zap.Logger
	progress Progress
}

// New wires a generator. A nil logger or progress is replaced by a no-op.
func New(cfg config.GeneratorConfig, src *Source, logger *zap.Logger, progress Progress) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = nopProgress{}
	}
	return &Generator{
		cfg:      cfg,
		src:      src,
		logger:   logger,
		progress: progress,
	}
}

// Run validates the configuration and produces the whole dataset. Stages run in a fixed
// order because later stages read earlier output and all of them share the stream.
func (g *Generator) Run(ctx context.Context) (*domain.Dataset, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}

	g.logger.Info("starting data generation",
		zap.Uint64("seed", g.cfg.Seed),
		zap.Time("reference_date", g.cfg.ReferenceDate),
		zap.Int("customers", g.cfg.Customers),
		zap.Int("orders", g.cfg.Orders),
		zap.Int("events", g.cfg.Events))

	customers, err := g.Customers(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := g.Orders(ctx, customers)
	if err != nil {
		return nil, err
	}
	items, err := g.OrderItems(ctx, orders)
	if err != nil {
		return nil, err
	}
	events, err := g.Events(ctx, customers)
	if err != nil {
		return nil, err
	}

	return &domain.Dataset{
		Customers:  customers,
		Orders:     orders,
		OrderItems: items,
		Events:     events,
	}, nil
}

func (g *Generator) tick(ctx context.Context, i int) error {
	if i%cancelCheckEvery != 0 {
		return nil
	}
	if i > 0 {
		g.progress.RowsGenerated(cancelCheckEvery)
	}
	return ctx.Err()
}

// finish reports the rows processed since the last tick and closes the stage.
func (g *Generator) finish(entity string, processed, rows int) {
	if rem := processed % cancelCheckEvery; rem != 0 {
		g.progress.RowsGenerated(rem)
	} else if processed > 0 {
		g.progress.RowsGenerated(cancelCheckEvery)
	}
	g.progress.StageFinished(entity, rows)
}

func distribution[T any, K comparable](rows []T, key func(T) K) map[K]int {
	out := make(map[K]int)
	for _, r := range rows {
		out[key(r)]++
	}
	return out
}
