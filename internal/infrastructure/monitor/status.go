package monitor

import "time"

// Status is a snapshot of the resources the datagen commands depend on.
type Status struct {
	PostgreSQL        bool      `json:"postgresql"`
	PostgreSQLChecked bool      `json:"postgresql_checked"`
	OutputDir         bool      `json:"output_dir"`
	Migrations        bool      `json:"migrations"`
	Manifest          bool      `json:"manifest"`
	ManifestRuns      int       `json:"manifest_runs"`
	Problems          []string  `json:"problems,omitempty"`
	LastCheck         time.Time `json:"last_check"`
}

// ReadyToGenerate reports whether generate can write its files and manifest.
func (s Status) ReadyToGenerate() bool {
	return s.OutputDir && s.Manifest
}

// ReadyToLoad reports whether load can reach and migrate the source database.
func (s Status) ReadyToLoad() bool {
	return s.PostgreSQL && s.Migrations
}
