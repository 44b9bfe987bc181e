package usecase

import (
	"github.com/fastygo/shopgen/internal/infrastructure/manifest"
)

// RunStore abstracts the run manifest so use cases stay storage-agnostic.
type RunStore interface {
	Latest(fingerprint uint64) (*manifest.Run, error)
	Record(run *manifest.Run) error
}
