// Package generator builds the synthetic customers, orders, order items and clickstream
// events. Every random decision is drawn from a single seeded Source owned by the caller,
// so a given seed and configuration always yield the same dataset.
package generator

import (
	"encoding/binary"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// seedLabel fills the ChaCha8 key beyond the 8 seed bytes.
const seedLabel = "shopgen/synthetic/v1\x00\x00\x00\x00"

// Source is the one pseudo-random stream shared by all generation stages. Uniform draws,
// fake personal data and UUIDs all consume the same ChaCha8 state, in call order.
// It is not safe for concurrent use.
type Source struct {
	stream *rand.ChaCha8
	rng    *rand.Rand
	fake   *gofakeit.Faker
}

// NewSource seeds a stream. Two sources with the same seed produce identical draws.
func NewSource(seed uint64) *Source {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	copy(key[8:], seedLabel)

	stream := rand.NewChaCha8(key)
	return &Source{
		stream: stream,
		rng:    rand.New(stream),
		fake:   gofakeit.NewFaker(stream, false),
	}
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// IntN returns a value in [0, n). n must be positive.
func (s *Source) IntN(n int) int {
	return s.rng.IntN(n)
}

// Uniform returns a value in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.rng.Float64() < p
}

// Perm returns a pseudo-random permutation of [0, n).
func (s *Source) Perm(n int) []int {
	return s.rng.Perm(n)
}

// UUID draws a version 4 UUID from the seeded stream rather than crypto/rand.
func (s *Source) UUID() string {
	id, err := uuid.NewRandomFromReader(s.stream)
	if err != nil {
		// ChaCha8.Read never fails
		panic(err)
	}
	return id.String()
}

// Fake exposes the fake-data provider bound to the same stream.
func (s *Source) Fake() *gofakeit.Faker {
	return s.fake
}

// Date returns midnight of a day drawn uniformly from [start, end], both inclusive.
func (s *Source) Date(start, end time.Time) time.Time {
	start, end = midnight(start), midnight(end)
	return start.AddDate(0, 0, s.IntN(daysBetween(start, end)+1))
}

// Timestamp draws a day uniformly from [start, end], an hour from hours (uniform over 0-23
// when hours is nil) and minute and second uniformly.
func (s *Source) Timestamp(start, end time.Time, hours *Weighted[int]) time.Time {
	day := s.Date(start, end)

	var hour int
	if hours != nil {
		hour = hours.Draw(s)
	} else {
		hour = s.IntN(24)
	}
	minute := s.IntN(60)
	second := s.IntN(60)

	return day.Add(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from start to end; inverted ranges collapse to zero.
func daysBetween(start, end time.Time) int {
	days := int(end.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
