package load

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/internal/infrastructure/export"
	"github.com/fastygo/shopgen/internal/quality"
	"github.com/fastygo/shopgen/pkg/logger"
	"github.com/fastygo/shopgen/repository"
)

// Result summarizes a load.
type Result struct {
	Stats      repository.LoadStats
	Validation repository.Validation
	Duration   time.Duration
}

type UseCase struct {
	seeds   repository.SeedRepository
	observe repository.TableObserver
	logger  *zap.Logger
}

func New(seeds repository.SeedRepository, observe repository.TableObserver, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		seeds:   seeds,
		observe: observe,
		logger:  logger,
	}
}

// Run reads the CSV files in dir, refuses datasets with broken references, reloads the source
// database and validates what landed.
func (uc *UseCase) Run(ctx context.Context, dir string) (*Result, error) {
	log := logger.WithRunID(ctx, uc.logger)
	started := time.Now()

	ds, err := export.ReadCSVDataset(dir)
	if err != nil {
		return nil, err
	}
	counts := ds.Counts()
	log.Info("read dataset",
		zap.String("dir", dir),
		zap.Int(domain.EntityCustomers, counts[domain.EntityCustomers]),
		zap.Int(domain.EntityOrders, counts[domain.EntityOrders]),
		zap.Int(domain.EntityOrderItems, counts[domain.EntityOrderItems]),
		zap.Int(domain.EntityClickstream, counts[domain.EntityClickstream]))

	if err := Preflight(ds); err != nil {
		return nil, err
	}

	stats, err := uc.seeds.Reload(ctx, ds, uc.observe)
	if err != nil {
		return nil, fmt.Errorf("reload source database: %w", err)
	}

	v, err := uc.seeds.Validate(ctx)
	if err != nil {
		return nil, fmt.Errorf("validate source database: %w", err)
	}
	res := &Result{Stats: stats, Validation: v, Duration: time.Since(started)}

	fields := []zap.Field{
		zap.Int64("customers", v.Customers),
		zap.Int64("orders", v.Orders),
		zap.Int64("order_items", v.OrderItems),
		zap.Int64("events", v.Events),
		zap.Int64("orphan_orders", v.OrphanOrders),
		zap.Int64("orphan_items", v.OrphanItems),
		zap.Int64("non_positive_totals", v.NonPositiveTotals),
		zap.Any("segments", v.Segments),
		zap.Duration("duration", res.Duration),
	}
	if v.FirstOrder != nil && v.LastOrder != nil {
		fields = append(fields, zap.Time("first_order", *v.FirstOrder), zap.Time("last_order", *v.LastOrder))
	}
	log.Info("source database validated", fields...)

	if !v.Healthy() {
		return res, fmt.Errorf("%w: loaded data has integrity violations", domain.ErrQualityCheckFailed)
	}
	return res, nil
}

// referenceChecks must pass before anything is truncated.
var referenceChecks = []string{
	quality.CheckUniqueEmails,
	quality.CheckUniqueEventIDs,
	quality.CheckPositiveTotals,
	quality.CheckItemValues,
	quality.CheckItemOrderRefs,
	quality.CheckOrderCustomerRefs,
}

// Preflight rejects datasets the database constraints would refuse mid-load.
func Preflight(ds *domain.Dataset) error {
	report := quality.Check(ds, quality.Options{})
	var failed []string
	for _, name := range referenceChecks {
		if r, ok := report.Get(name); ok && !r.Passed {
			failed = append(failed, r.Name+": "+r.Detail)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrQualityCheckFailed, strings.Join(failed, "; "))
	}
	return nil
}
