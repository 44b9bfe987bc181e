package monitor

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
)

const postgresTimeout = 3 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunCounter is satisfied by *manifest.Store.
type RunCounter interface {
	Size() (int, error)
}

// Paths lists the directories the commands read or write.
type Paths struct {
	OutputDir     string
	MigrationsDir string
}

type Monitor struct {
	pg     Pinger
	runs   RunCounter
	paths  Paths
	logger *zap.Logger
}

// New builds a monitor. A nil pg skips the Postgres probe; a nil runs is reported as unavailable.
func New(pg Pinger, runs RunCounter, paths Paths, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:     pg,
		runs:   runs,
		paths:  paths,
		logger: logger,
	}
}

// Check probes every dependency once.
func (m *Monitor) Check(ctx context.Context) Status {
	var status Status
	if m.pg != nil {
		status.PostgreSQLChecked = true
		status.PostgreSQL = m.checkPostgres(ctx, &status)
	}
	status.OutputDir = m.checkOutputDir(&status)
	status.Migrations = m.checkMigrations(&status)
	status.Manifest, status.ManifestRuns = m.checkManifest(&status)
	status.LastCheck = time.Now()
	return status
}

func (m *Monitor) checkPostgres(ctx context.Context, status *Status) bool {
	ctx, cancel := context.WithTimeout(ctx, postgresTimeout)
	defer cancel()
	if err := m.pg.Ping(ctx); err != nil {
		status.Problems = append(status.Problems, "postgres: "+err.Error())
		return false
	}
	return true
}

// checkOutputDir creates the directory if needed and proves a file can be written there.
func (m *Monitor) checkOutputDir(status *Status) bool {
	if err := os.MkdirAll(m.paths.OutputDir, 0o755); err != nil {
		status.Problems = append(status.Problems, "output dir: "+err.Error())
		return false
	}
	f, err := os.CreateTemp(m.paths.OutputDir, ".probe-*")
	if err != nil {
		status.Problems = append(status.Problems, "output dir: "+err.Error())
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

func (m *Monitor) checkMigrations(status *Status) bool {
	info, err := os.Stat(m.paths.MigrationsDir)
	if err != nil {
		status.Problems = append(status.Problems, "migrations: "+err.Error())
		return false
	}
	if !info.IsDir() {
		status.Problems = append(status.Problems, "migrations: "+m.paths.MigrationsDir+" is not a directory")
		return false
	}
	return true
}

func (m *Monitor) checkManifest(status *Status) (bool, int) {
	if m.runs == nil {
		status.Problems = append(status.Problems, "manifest: not open")
		return false, 0
	}
	size, err := m.runs.Size()
	if err != nil {
		m.logger.Warn("manifest size check failed", zap.Error(err))
		status.Problems = append(status.Problems, "manifest: "+err.Error())
		return false, size
	}
	return true, size
}
