package timing

import (
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/random"
)

// Subdivision is one slot of a rhythm
type Subdivision struct {
	Len    int  `json:"len"`
	IsRest bool `json:"is_rest"`
}

// Rhythm is an ordered sequence of subdivisions, cycled when laid over a longer interval
type Rhythm []Subdivision

// Division is a subdivision placed on the timeline
type Division struct {
	Timing Interval
	IsRest bool
}

// FromLengths builds a rhythm of sounding subdivisions
func FromLengths(lengths ...int) Rhythm {
	r := make(Rhythm, 0, len(lengths))
	for _, l := range lengths {
		r = append(r, Subdivision{Len: l})
	}
	return r
}

// Len returns the total length of one cycle
func (r Rhythm) Len() int {
	total := 0
	for _, s := range r {
		total += s.Len
	}
	return total
}

// Concat appends other after r
func (r Rhythm) Concat(other Rhythm) Rhythm {
	out := make(Rhythm, 0, len(r)+len(other))
	out = append(out, r...)
	return append(out, other...)
}

// Clone copies the rhythm
func (r Rhythm) Clone() Rhythm {
	out := make(Rhythm, len(r))
	copy(out, r)
	return out
}

// IterOver lays the rhythm over iv starting at iv.Start, cycling it until iv.End. The final
// division is truncated at iv.End.
func (r Rhythm) IterOver(iv Interval) []Division {
	if r.Len() <= 0 || iv.IsEmpty() {
		return nil
	}
	var divs []Division
	t := iv.Start
	for t < iv.End {
		for _, s := range r {
			if s.Len <= 0 {
				continue
			}
			if t >= iv.End {
				break
			}
			end := t + s.Len
			if end > iv.End {
				end = iv.End
			}
			divs = append(divs, Division{Timing: Interval{Start: t, End: end}, IsRest: s.IsRest})
			t = end
		}
	}
	return divs
}

// BalancedTiming splits length into count subdivisions of near-equal size, aligned to beats
// where possible. Surplus beats go to randomly chosen subdivisions.
func BalancedTiming(length, count int, ts TimeSignature, rng *rand.Rand) Rhythm {
	if count <= 0 || length <= 0 {
		return nil
	}
	unit := ts.Beat()
	if unit <= 0 || length/unit < count {
		unit = 1
	}
	units := length / unit
	base := units / count
	extra := units % count

	sizes := make([]int, count)
	for i := range sizes {
		sizes[i] = base * unit
	}
	for _, i := range rng.Perm(count)[:extra] {
		sizes[i] += unit
	}
	sizes[count-1] += length - units*unit

	return FromLengths(sizes...)
}

// SubdivisionChoice is a group of consecutive lengths drawn together with a relative weight
type SubdivisionChoice struct {
	Lengths []int
	Weight  int
}

func (c SubdivisionChoice) total() int {
	total := 0
	for _, l := range c.Lengths {
		total += l
	}
	return total
}

// RandomWithSubdivisionWeights fills length by repeatedly drawing weighted choices that still
// fit. Any remainder no choice fits becomes one final subdivision.
func RandomWithSubdivisionWeights(length int, choices []SubdivisionChoice, rng *rand.Rand) Rhythm {
	var rhythm Rhythm
	remaining := length
	for remaining > 0 {
		var fits []SubdivisionChoice
		var weights []float64
		for _, c := range choices {
			if t := c.total(); t > 0 && t <= remaining && c.Weight > 0 {
				fits = append(fits, c)
				weights = append(weights, float64(c.Weight))
			}
		}
		idx, err := random.Choose(rng, weights)
		if err != nil {
			rhythm = append(rhythm, Subdivision{Len: remaining})
			break
		}
		for _, l := range fits[idx].Lengths {
			rhythm = append(rhythm, Subdivision{Len: l})
		}
		remaining -= fits[idx].total()
	}
	return rhythm
}

// Random fills length with subdivisions drawn uniformly from sizes. Each subdivision becomes a
// rest with probability restProbability(size).
func Random(length int, sizes []int, restProbability func(size int) float64, rng *rand.Rand) Rhythm {
	var rhythm Rhythm
	remaining := length
	for remaining > 0 {
		var options []int
		for _, s := range sizes {
			if s > 0 && s <= remaining {
				options = append(options, s)
			}
		}
		if len(options) == 0 {
			rhythm = append(rhythm, Subdivision{Len: remaining})
			break
		}
		size := options[rng.IntN(len(options))]
		rest := restProbability != nil && rng.Float64() < restProbability(size)
		rhythm = append(rhythm, Subdivision{Len: size, IsRest: rest})
		remaining -= size
	}
	return rhythm
}
