package repository

import (
	"context"
	"time"

	"github.com/fastygo/shopgen/domain"
)

// Table names in the source database, in load order.
const (
	TableCustomers   = "customers"
	TableOrders      = "orders"
	TableOrderItems  = "order_items"
	TableClickstream = "clickstream_events"
)

// LoadStats counts the rows copied per table.
type LoadStats struct {
	Customers  int64
	Orders     int64
	OrderItems int64
	Events     int64
}

// Validation is the post-load health snapshot of the source database.
type Validation struct {
	Customers         int64
	Orders            int64
	OrderItems        int64
	Events            int64
	OrphanOrders      int64
	OrphanItems       int64
	NonPositiveTotals int64
	FirstOrder        *time.Time
	LastOrder         *time.Time
	Segments          map[string]int64
}

// Healthy reports whether the loaded data has no integrity violations.
func (v Validation) Healthy() bool {
	return v.OrphanOrders == 0 && v.OrphanItems == 0 && v.NonPositiveTotals == 0
}

// TableObserver is told how many rows were copied into each table.
type TableObserver func(table string, rows int64)

// SeedRepository replaces the contents of the source database with a generated dataset.
type SeedRepository interface {
	Reload(ctx context.Context, ds *domain.Dataset, observe TableObserver) (LoadStats, error)
	Validate(ctx context.Context) (Validation, error)
}
