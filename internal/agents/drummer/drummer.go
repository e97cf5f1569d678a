// Package drummer builds percussion patterns. Phrase dividers of equal length share one pattern;
// only the first hit of every divider changes with its position in the part.
package drummer

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/random"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// HitDistribution weighs the hit types a pattern draws from
type HitDistribution struct {
	Hits    []models.HitType
	Weights []float64
}

// DefaultHitDistribution is mostly closed hats, with pedal hats and sparse kicks and snares
func DefaultHitDistribution() HitDistribution {
	return HitDistribution{
		Hits:    []models.HitType{models.AcousticBassDrum, models.AcousticSnare, models.ClosedHiHat, models.PedalHiHat},
		Weights: []float64{1, 1, 8, 4},
	}
}

// Validate checks the distribution can be sampled
func (d HitDistribution) Validate() error {
	if len(d.Hits) != len(d.Weights) {
		return fmt.Errorf("hit distribution has %d hits but %d weights", len(d.Hits), len(d.Weights))
	}
	if _, err := random.NewWeightedIndex(d.Weights); err != nil {
		return fmt.Errorf("hit distribution: %w", err)
	}
	return nil
}

// Sample draws one hit type
func (d HitDistribution) Sample(rng *rand.Rand) (models.HitType, error) {
	idx, err := random.Choose(rng, d.Weights)
	if err != nil {
		return 0, render.MissingContext("no hit type to draw: %v", err)
	}
	return d.Hits[idx], nil
}

// RestShape controls how often subdivisions fall silent. A pattern draws its base rest
// probability from [Min, Max]; longer subdivisions rest more, shaped by Power.
type RestShape struct {
	Min   float64
	Max   float64
	Power float64
}

// DefaultRestShape returns the default rest probability range
func DefaultRestShape() RestShape {
	return RestShape{Min: 0.3, Max: 0.9, Power: 1}
}

// Validate checks the rest probabilities stay within [0, 1]
func (r RestShape) Validate() error {
	if r.Min < 0 || r.Max > 1 || r.Min > r.Max {
		return fmt.Errorf("rest probability range %v..%v outside [0, 1]", r.Min, r.Max)
	}
	if r.Power <= 0 {
		return fmt.Errorf("rest power must be positive, got %v", r.Power)
	}
	return nil
}

// Pattern is the hit skeleton shared by every divider of Length ticks. Hits runs parallel to
// Rhythm; rested subdivisions carry no meaningful hit.
type Pattern struct {
	Length int
	Rhythm timing.Rhythm
	Hits   []models.HitType
}

// Generator is the percussion pattern model
type Generator struct {
	Distribution HitDistribution
	Rest         RestShape
	Velocity     [2]int // inclusive range
}

// NewGenerator returns a generator with the default distribution and rest shape
func NewGenerator() *Generator {
	return &Generator{
		Distribution: DefaultHitDistribution(),
		Rest:         DefaultRestShape(),
		Velocity:     [2]int{90, 109},
	}
}

// WithProfile applies a parsed percussion profile
func (g *Generator) WithProfile(p *Profile) *Generator {
	if p == nil {
		return g
	}
	if len(p.Distribution.Hits) > 0 {
		g.Distribution = p.Distribution
	}
	if p.Rest != nil {
		g.Rest = *p.Rest
	}
	return g
}

// Validate checks the distribution, rest shape and velocity range
func (g *Generator) Validate() error {
	if err := g.Distribution.Validate(); err != nil {
		return err
	}
	if err := g.Rest.Validate(); err != nil {
		return err
	}
	if g.Velocity[0] < 1 || g.Velocity[1] > 127 || g.Velocity[0] > g.Velocity[1] {
		return fmt.Errorf("invalid velocity range %d..%d", g.Velocity[0], g.Velocity[1])
	}
	return nil
}

// Pattern generates the skeleton for dividers of length ticks: a leading quarter-beat hit, then
// random quarter-beat multiples up to a beat, some rested.
func (g *Generator) Pattern(length int, ts timing.TimeSignature, rng *rand.Rand) (Pattern, error) {
	quantum := ts.QuarterBeat()
	if quantum <= 0 || length <= quantum {
		hit, err := g.Distribution.Sample(rng)
		if err != nil {
			return Pattern{}, err
		}
		return Pattern{Length: length, Rhythm: timing.FromLengths(length), Hits: []models.HitType{hit}}, nil
	}

	var sizes []int
	for s := quantum; s <= ts.Beat(); s += quantum {
		sizes = append(sizes, s)
	}
	base := random.Uniform(rng, g.Rest.Min, g.Rest.Max)
	restProbability := func(size int) float64 {
		x := float64(size-quantum) / float64(ts.Beat())
		x = math.Max(0, math.Min(1, x))
		return base * math.Pow(x, g.Rest.Power)
	}

	rhythm := timing.FromLengths(quantum).Concat(timing.Random(length-quantum, sizes, restProbability, rng))
	hits := make([]models.HitType, len(rhythm))
	for i := range rhythm {
		hit, err := g.Distribution.Sample(rng)
		if err != nil {
			return Pattern{}, err
		}
		hits[i] = hit
	}
	return Pattern{Length: length, Rhythm: rhythm, Hits: hits}, nil
}

// Patterns generates one pattern per distinct divider length, in ascending length order
func (g *Generator) Patterns(dividers []timing.Interval, ts timing.TimeSignature, rng *rand.Rand) (map[int]Pattern, error) {
	var lengths []int
	seen := map[int]bool{}
	for _, d := range dividers {
		if l := d.Len(); l > 0 && !seen[l] {
			seen[l] = true
			lengths = append(lengths, l)
		}
	}
	sort.Ints(lengths)

	patterns := make(map[int]Pattern, len(lengths))
	for _, l := range lengths {
		p, err := g.Pattern(l, ts, rng)
		if err != nil {
			return nil, err
		}
		patterns[l] = p
	}
	return patterns, nil
}

// Place lays the patterns over the dividers overlapping a part spanning span. The first hit of each
// divider always sounds: a bass drum on bar lines, otherwise a snare or bass drum drawn from
// seedFor(offset) where offset is the divider's distance from the part start. Divisions starting
// outside the part belong to its neighbours and are skipped; hits are clipped to the part end.
func (g *Generator) Place(
	part models.PartRef,
	span timing.Interval,
	dividers []timing.Interval,
	ts timing.TimeSignature,
	patterns map[int]Pattern,
	seedFor func(offset int) *rand.Rand,
	rng *rand.Rand,
) ([]render.Segment, error) {
	var out []render.Segment
	for _, div := range dividers {
		pattern, ok := patterns[div.Len()]
		if !ok {
			return nil, render.MissingContext("no pattern for dividers of %d ticks", div.Len())
		}
		for i, d := range pattern.Rhythm.IterOver(div) {
			if d.Timing.Start >= span.End {
				break
			}
			if d.Timing.Start < span.Start {
				continue
			}
			hit := pattern.Hits[i%len(pattern.Hits)]
			if i == 0 {
				hit = downbeat(div.Start-span.Start, ts, seedFor)
			} else if d.IsRest {
				continue
			}
			iv := timing.Span(d.Timing.Start, min(d.Timing.End, span.End))
			out = append(out, render.Over(models.DrumHit{
				Hit:      hit,
				Velocity: random.Range(rng, g.Velocity[0], g.Velocity[1]),
				Part:     part,
			}, iv))
		}
	}
	return out, nil
}

func downbeat(offset int, ts timing.TimeSignature, seedFor func(int) *rand.Rand) models.HitType {
	if offset%ts.Bar() == 0 {
		return models.AcousticBassDrum
	}
	options := []models.HitType{models.AcousticSnare, models.AcousticBassDrum}
	return options[seedFor(offset).IntN(len(options))]
}
