package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/internal/config"
)

// RunMigrations brings the warehouse schema (customers, orders, order_items,
// clickstream_events) up to date. It is a no-op when migrations are disabled.
func RunMigrations(db config.DatabaseConfig, cfg config.MigrationsConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m, closeDB, err := newMigrator(db, cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return domain.WrapError(domain.ErrCodeInternal, "apply migrations", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return domain.WrapError(domain.ErrCodeInternal, "read migration version", err)
	}
	if dirty {
		return domain.NewError(domain.ErrCodeConflict, fmt.Sprintf("schema version %d is dirty", version))
	}
	logger.Info("database migrations applied", zap.Uint("version", version))
	return nil
}

func newMigrator(db config.DatabaseConfig, cfg config.MigrationsConfig) (*migrate.Migrate, func(), error) {
	sqlDB, err := sql.Open("postgres", db.URL)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, "open migration connection", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, "ping migration connection", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, "migration driver", err)
	}

	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(cfg.Path))
	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, "load migrations from "+cfg.Path, err)
	}
	return m, func() { sqlDB.Close() }, nil
}
