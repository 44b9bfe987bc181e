package manifest

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/fastygo/shopgen/internal/infrastructure/export"
)

// Run records what one generate invocation wrote.
type Run struct {
	ID          string        `json:"id"`
	Seed        uint64        `json:"seed"`
	Config      string        `json:"config"`
	Fingerprint uint64        `json:"fingerprint"`
	Files       []export.File `json:"files"`
	CreatedAt   time.Time     `json:"created_at"`

	bucketKey []byte
}

// Mismatch is a file whose checksum differs between two runs of the same configuration.
type Mismatch struct {
	Path     string
	Previous uint64
	Current  uint64
}

// Fingerprint hashes the canonical configuration string.
func Fingerprint(config string) uint64 {
	return xxhash.Sum64String(config)
}

func (r *Run) normalize() {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Fingerprint == 0 {
		r.Fingerprint = Fingerprint(r.Config)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

// Compare lists files present in both runs whose checksums differ. Files only present in
// one run (for example a different format selection) are ignored.
func Compare(previous, current *Run) []Mismatch {
	if previous == nil || current == nil {
		return nil
	}
	prev := make(map[string]uint64, len(previous.Files))
	for _, f := range previous.Files {
		prev[f.Path] = f.Checksum
	}
	var out []Mismatch
	for _, f := range current.Files {
		if sum, ok := prev[f.Path]; ok && sum != f.Checksum {
			out = append(out, Mismatch{Path: f.Path, Previous: sum, Current: f.Checksum})
		}
	}
	return out
}
