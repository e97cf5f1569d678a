// Package random derives reproducible random sources from a seed and a node path and provides
// weighted index sampling. No package-level generator exists: every caller threads its own source.
package random

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cespare/xxhash/v2"
)

var (
	ErrNoWeights     = errors.New("no weights")
	ErrInvalidWeight = errors.New("invalid weight")
	ErrZeroWeights   = errors.New("all weights are zero")
)

// Derive hashes a parent seed together with path components into a child seed
func Derive(seed uint64, parts ...string) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	_, _ = d.Write(buf[:])
	for _, part := range parts {
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(part)
	}
	return d.Sum64()
}

// New returns a PCG-backed generator for seed
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, Derive(seed, "stream")))
}

// WeightedIndex samples indices with probability proportional to their weight
type WeightedIndex struct {
	cumulative []float64
	total      float64
}

// NewWeightedIndex validates weights: at least one, none negative or NaN/Inf, not all zero
func NewWeightedIndex(weights []float64) (*WeightedIndex, error) {
	if len(weights) == 0 {
		return nil, ErrNoWeights
	}
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w at index %d: %v", ErrInvalidWeight, i, w)
		}
		total += w
		cumulative[i] = total
	}
	if total <= 0 || math.IsInf(total, 0) {
		return nil, ErrZeroWeights
	}
	return &WeightedIndex{cumulative: cumulative, total: total}, nil
}

// Sample draws one index
func (w *WeightedIndex) Sample(r *rand.Rand) int {
	x := r.Float64() * w.total
	idx := sort.Search(len(w.cumulative), func(i int) bool { return w.cumulative[i] > x })
	if idx >= len(w.cumulative) {
		idx = len(w.cumulative) - 1
	}
	return idx
}

// Len returns the number of weighted entries
func (w *WeightedIndex) Len() int {
	return len(w.cumulative)
}

// Probability returns the normalized weight of index i
func (w *WeightedIndex) Probability(i int) float64 {
	prev := 0.0
	if i > 0 {
		prev = w.cumulative[i-1]
	}
	return (w.cumulative[i] - prev) / w.total
}

// Choose draws one index from weights in a single call
func Choose(r *rand.Rand, weights []float64) (int, error) {
	dist, err := NewWeightedIndex(weights)
	if err != nil {
		return 0, err
	}
	return dist.Sample(r), nil
}

// Range draws an integer uniformly from [low, high]
func Range(r *rand.Rand, low, high int) int {
	if high <= low {
		return low
	}
	return low + r.IntN(high-low+1)
}

// Uniform draws a float uniformly from [low, high)
func Uniform(r *rand.Rand, low, high float64) float64 {
	if high <= low {
		return low
	}
	return low + r.Float64()*(high-low)
}
