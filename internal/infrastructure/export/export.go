// Package export writes generated datasets to disk and reads them back.
//
// CSV is the primary artifact: one file per entity, header first, each file written whole
// to a temporary file and renamed into place. Parquet output mirrors the raw data lake
// layout used by downstream ingestion, optionally split into Hive-style day partitions.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/fastygo/shopgen/domain"
)

// File describes one written artifact.
type File struct {
	Entity   string `json:"entity"`
	Format   string `json:"format"`
	Path     string `json:"path"`
	Rows     int    `json:"rows"`
	Checksum uint64 `json:"checksum"`
}

// Writer persists a dataset and reports what it wrote.
type Writer interface {
	Write(ctx context.Context, ds *domain.Dataset) ([]File, error)
}

// writeAtomic streams fill into a temp file beside path and renames it into place. It
// returns the xxhash64 of the bytes written.
func writeAtomic(path string, fill func(w io.Writer) error) (uint64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, writeError(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, writeError(path, err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	digest := xxhash.New()
	buf := bufio.NewWriter(io.MultiWriter(tmp, digest))
	if err := fill(buf); err != nil {
		cleanup()
		return 0, writeError(path, err)
	}
	if err := buf.Flush(); err != nil {
		cleanup()
		return 0, writeError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return 0, writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, writeError(path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, writeError(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, writeError(path, err)
	}
	return digest.Sum64(), nil
}

func writeError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrWriteFailed, path, err)
}

// Checksum hashes an existing file with the same digest writeAtomic reports.
func Checksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, err
	}
	return digest.Sum64(), nil
}
