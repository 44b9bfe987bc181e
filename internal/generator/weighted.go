package generator

import (
	"sort"

	"github.com/fastygo/shopgen/domain"
)

// Weighted draws values with probability proportional to their relative weights.
type Weighted[T any] struct {
	values     []T
	cumulative []float64
	total      float64
}

// NewWeighted builds a sampler from parallel values and weights. Weights need not sum to 1.
func NewWeighted[T any](values []T, weights []float64) (*Weighted[T], error) {
	if len(values) == 0 {
		return nil, domain.Invalidf("weighted choice needs at least one value")
	}
	if len(values) != len(weights) {
		return nil, domain.Invalidf("weighted choice has %d values but %d weights", len(values), len(weights))
	}

	cumulative := make([]float64, len(weights))
	var total float64
	for i, w := range weights {
		if w < 0 {
			return nil, domain.Invalidf("weighted choice has negative weight %v at %d", w, i)
		}
		total += w
		cumulative[i] = total
	}
	if total <= 0 {
		return nil, domain.Invalidf("weighted choice weights sum to zero")
	}

	return &Weighted[T]{
		values:     append([]T(nil), values...),
		cumulative: cumulative,
		total:      total,
	}, nil
}

// MustWeighted is NewWeighted for static tables.
func MustWeighted[T any](values []T, weights []float64) *Weighted[T] {
	w, err := NewWeighted(values, weights)
	if err != nil {
		panic(err)
	}
	return w
}

// Draw consumes one float from src.
func (w *Weighted[T]) Draw(src *Source) T {
	x := src.Float64() * w.total
	i := sort.Search(len(w.cumulative), func(i int) bool { return w.cumulative[i] > x })
	if i == len(w.cumulative) {
		i = len(w.cumulative) - 1
	}
	return w.values[i]
}

// Probability returns the normalized weight of the value at index i.
func (w *Weighted[T]) Probability(i int) float64 {
	prev := 0.0
	if i > 0 {
		prev = w.cumulative[i-1]
	}
	return (w.cumulative[i] - prev) / w.total
}

// Values returns the sampled values in table order.
func (w *Weighted[T]) Values() []T {
	return append([]T(nil), w.values...)
}

// HourProfile turns an hour -> weight map into a sampler over 0-23. Hours missing from the
// map weigh 1.
func HourProfile(peaks map[int]float64) *Weighted[int] {
	hours := make([]int, 24)
	weights := make([]float64, 24)
	for h := range hours {
		hours[h] = h
		weights[h] = 1
		if w, ok := peaks[h]; ok {
			weights[h] = w
		}
	}
	return MustWeighted(hours, weights)
}
