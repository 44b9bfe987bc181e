// Package manifest keeps a local ledger of generation runs so a rerun with the same seed and
// configuration can be checked for byte-identical output.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const defaultBucket = "runs"

// Store wraps BoltDB to persist run records.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Record stores a run under a fingerprint-prefixed, time-ordered key.
func (s *Store) Record(run *Run) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	run.normalize()
	run.bucketKey = buildKey(run)

	payload, err := json.Marshal(run)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(run.bucketKey, payload)
	})
}

// Latest returns the most recent run with the given fingerprint, or nil when there is none.
func (s *Store) Latest(fingerprint uint64) (*Run, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	prefix := []byte(fmt.Sprintf("%016x_", fingerprint))

	var latest *Run
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				continue
			}
			run.bucketKey = append([]byte(nil), k...)
			latest = &run
		}
		return nil
	})
	return latest, err
}

// List returns up to limit runs, newest first. A non-positive limit returns all of them.
func (s *Store) List(limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}

	var runs []Run
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return nil
			}
			run.bucketKey = append([]byte(nil), k...)
			runs = append(runs, run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Size returns the number of recorded runs.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(_, _ []byte) error {
			count++
			return nil
		})
	})
	return count, err
}

// Cleanup removes runs recorded before the provided timestamp.
func (s *Store) Cleanup(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var stale [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err == nil && run.CreatedAt.Before(olderThan) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildKey(run *Run) []byte {
	return []byte(fmt.Sprintf("%016x_%020d_%s", run.Fingerprint, run.CreatedAt.UnixNano(), run.ID))
}
