package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/repository"
)

type seedRepository struct {
	pool *pgxpool.Pool
}

// NewSeedRepository returns a Postgres-backed SeedRepository.
func NewSeedRepository(pool *pgxpool.Pool) repository.SeedRepository {
	return &seedRepository{pool: pool}
}

// Reload truncates every table, restarting identities, and copies the dataset in foreign key
// order inside one transaction. Either the whole dataset lands or nothing changes.
func (r *seedRepository) Reload(ctx context.Context, ds *domain.Dataset, observe repository.TableObserver) (stats repository.LoadStats, err error) {
	if ds == nil {
		return stats, domain.Invalidf("dataset is required")
	}
	if observe == nil {
		observe = func(string, int64) {}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return stats, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const truncate = `
	TRUNCATE TABLE clickstream_events, order_items, orders, customers
	RESTART IDENTITY CASCADE
	`
	if _, err = tx.Exec(ctx, truncate); err != nil {
		return stats, fmt.Errorf("truncate: %w", err)
	}

	if stats.Customers, err = copyRows(ctx, tx, repository.TableCustomers, customerCopyColumns, customerRows(ds.Customers)); err != nil {
		return stats, err
	}
	observe(repository.TableCustomers, stats.Customers)

	customerIDs, err := customerIDsByEmail(ctx, tx)
	if err != nil {
		return stats, err
	}
	rows, err := orderRows(ds.Orders, customerIDs)
	if err != nil {
		return stats, err
	}
	if stats.Orders, err = copyRows(ctx, tx, repository.TableOrders, orderCopyColumns, rows); err != nil {
		return stats, err
	}
	if err = checkOrderIDs(ctx, tx, stats.Orders); err != nil {
		return stats, err
	}
	observe(repository.TableOrders, stats.Orders)

	if stats.OrderItems, err = copyRows(ctx, tx, repository.TableOrderItems, orderItemCopyColumns, orderItemRows(ds.OrderItems)); err != nil {
		return stats, err
	}
	observe(repository.TableOrderItems, stats.OrderItems)

	if stats.Events, err = copyRows(ctx, tx, repository.TableClickstream, eventCopyColumns, eventRows(ds.Events)); err != nil {
		return stats, err
	}
	observe(repository.TableClickstream, stats.Events)

	if err = tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("commit: %w", err)
	}
	return stats, nil
}

func copyRows(ctx context.Context, tx pgx.Tx, table string, columns []string, rows [][]interface{}) (int64, error) {
	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", table, err)
	}
	return n, nil
}

func customerIDsByEmail(ctx context.Context, tx pgx.Tx) (map[string]int32, error) {
	rows, err := tx.Query(ctx, `SELECT customer_id, email FROM customers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int32)
	for rows.Next() {
		var (
			id    int32
			email string
		)
		if err := rows.Scan(&id, &email); err != nil {
			return nil, err
		}
		ids[email] = id
	}
	return ids, rows.Err()
}

// checkOrderIDs confirms the identity column produced 1..n, which order_items relies on.
func checkOrderIDs(ctx context.Context, tx pgx.Tx, n int64) error {
	if n == 0 {
		return nil
	}
	var lo, hi int64
	if err := tx.QueryRow(ctx, `SELECT MIN(order_id), MAX(order_id) FROM orders`).Scan(&lo, &hi); err != nil {
		return err
	}
	if lo != 1 || hi != n {
		return domain.NewError(domain.ErrCodeConflict,
			fmt.Sprintf("order ids span %d..%d, expected 1..%d", lo, hi, n))
	}
	return nil
}

func (r *seedRepository) Validate(ctx context.Context) (repository.Validation, error) {
	const counts = `
	SELECT
		(SELECT COUNT(*) FROM customers),
		(SELECT COUNT(*) FROM orders),
		(SELECT COUNT(*) FROM order_items),
		(SELECT COUNT(*) FROM clickstream_events),
		(SELECT COUNT(*) FROM orders o
			WHERE NOT EXISTS (SELECT 1 FROM customers c WHERE c.customer_id = o.customer_id)),
		(SELECT COUNT(*) FROM order_items i
			WHERE NOT EXISTS (SELECT 1 FROM orders o WHERE o.order_id = i.order_id)),
		(SELECT COUNT(*) FROM orders WHERE order_total <= 0),
		(SELECT MIN(order_date) FROM orders),
		(SELECT MAX(order_date) FROM orders)
	`

	var (
		v           repository.Validation
		first, last *time.Time
	)
	if err := r.pool.QueryRow(ctx, counts).Scan(
		&v.Customers,
		&v.Orders,
		&v.OrderItems,
		&v.Events,
		&v.OrphanOrders,
		&v.OrphanItems,
		&v.NonPositiveTotals,
		&first,
		&last,
	); err != nil {
		return v, err
	}
	v.FirstOrder, v.LastOrder = first, last

	const segments = `
	SELECT customer_segment, COUNT(*)
	FROM customers
	WHERE is_current
	GROUP BY customer_segment
	ORDER BY COUNT(*) DESC
	`
	rows, err := r.pool.Query(ctx, segments)
	if err != nil {
		return v, err
	}
	defer rows.Close()

	v.Segments = make(map[string]int64)
	for rows.Next() {
		var (
			segment string
			n       int64
		)
		if err := rows.Scan(&segment, &n); err != nil {
			return v, err
		}
		v.Segments[segment] = n
	}
	return v, rows.Err()
}
