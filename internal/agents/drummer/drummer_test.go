package drummer

import (
	"context"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/random"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

var (
	fourFour = timing.TimeSignature{BeatsPerBar: 4, BeatLength: timing.DefaultTicksPerBeat}
	kit      = models.PartRef{Name: "Drums", Group: "percussion", Role: models.RoleDrums}
)

func seeded(seed uint64) func(int) *rand.Rand {
	return func(offset int) *rand.Rand {
		return random.New(random.Derive(seed, "offset", strconv.Itoa(offset)))
	}
}

func TestHitDistributionValidate(t *testing.T) {
	assert.NoError(t, DefaultHitDistribution().Validate())
	assert.Error(t, HitDistribution{Hits: []models.HitType{models.AcousticSnare}}.Validate())
	assert.Error(t, HitDistribution{Hits: []models.HitType{models.AcousticSnare}, Weights: []float64{0}}.Validate())
}

func TestHitDistributionSampleMissingContext(t *testing.T) {
	_, err := HitDistribution{}.Sample(random.New(1))
	assert.True(t, render.IsMissingContext(err))
}

func TestGeneratorValidate(t *testing.T) {
	assert.NoError(t, NewGenerator().Validate())

	g := NewGenerator()
	g.Velocity = [2]int{110, 90}
	assert.Error(t, g.Validate())

	g = NewGenerator()
	g.Rest.Power = 0
	assert.Error(t, g.Validate())
}

func TestPatternSkeleton(t *testing.T) {
	g := NewGenerator()
	quantum := fourFour.QuarterBeat()

	for seed := uint64(0); seed < 50; seed++ {
		p, err := g.Pattern(fourFour.Bar(), fourFour, random.New(seed))
		require.NoError(t, err)
		assert.Equal(t, fourFour.Bar(), p.Rhythm.Len())
		require.Len(t, p.Hits, len(p.Rhythm))
		assert.Equal(t, quantum, p.Rhythm[0].Len)
		assert.False(t, p.Rhythm[0].IsRest)
		for _, s := range p.Rhythm {
			assert.Zero(t, s.Len%quantum)
			assert.LessOrEqual(t, s.Len, fourFour.Beat())
			if s.Len == quantum {
				assert.False(t, s.IsRest, "quantum subdivisions never rest")
			}
		}
	}
}

func TestPatternShorterThanQuantum(t *testing.T) {
	p, err := NewGenerator().Pattern(60, fourFour, random.New(1))
	require.NoError(t, err)
	assert.Equal(t, timing.FromLengths(60), p.Rhythm)
	assert.Len(t, p.Hits, 1)
}

func TestPatternsOnePerLength(t *testing.T) {
	dividers := []timing.Interval{timing.Span(0, 960), timing.Span(960, 1920), timing.Span(1920, 2400)}
	patterns, err := NewGenerator().Patterns(dividers, fourFour, random.New(4))
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	assert.Equal(t, 960, patterns[960].Length)
	assert.Equal(t, 480, patterns[480].Length)

	again, err := NewGenerator().Patterns(dividers, fourFour, random.New(4))
	require.NoError(t, err)
	assert.Equal(t, patterns, again)
}

type relHit struct {
	offset int
	hit    models.HitType
}

func TestPlaceSharesBodies(t *testing.T) {
	g := NewGenerator()
	span := timing.Span(0, fourFour.Bars(2))
	dividers := span.DivideInto(fourFour.Beats(2))
	patterns, err := g.Patterns(dividers, fourFour, random.New(9))
	require.NoError(t, err)

	hits, err := g.Place(kit, span, dividers, fourFour, patterns, seeded(9), random.New(10))
	require.NoError(t, err)

	bodies := make([][]relHit, len(dividers))
	for _, seg := range hits {
		h, ok := render.As[models.DrumHit](seg)
		require.True(t, ok)
		assert.GreaterOrEqual(t, h.Velocity, 90)
		assert.LessOrEqual(t, h.Velocity, 109)
		assert.Equal(t, kit, h.Part)

		i := seg.Timing.Start / fourFour.Beats(2)
		offset := seg.Timing.Start - dividers[i].Start
		if offset > 0 {
			bodies[i] = append(bodies[i], relHit{offset: offset, hit: h.Hit})
		}
	}
	for i := 1; i < len(bodies); i++ {
		assert.Equal(t, bodies[0], bodies[i], "dividers of equal length share their body")
	}
}

func TestPlaceForcesDownbeats(t *testing.T) {
	g := NewGenerator()
	g.Rest = RestShape{Min: 0.9, Max: 0.9, Power: 1}
	span := timing.Span(fourFour.Bar(), fourFour.Bars(3))
	dividers := span.DivideInto(fourFour.Beats(2))
	patterns, err := g.Patterns(dividers, fourFour, random.New(2))
	require.NoError(t, err)

	place := func() map[int]models.HitType {
		hits, err := g.Place(kit, span, dividers, fourFour, patterns, seeded(3), random.New(4))
		require.NoError(t, err)
		first := map[int]models.HitType{}
		for _, seg := range hits {
			h, _ := render.As[models.DrumHit](seg)
			if _, seen := first[seg.Timing.Start]; !seen {
				first[seg.Timing.Start] = h.Hit
			}
		}
		return first
	}

	first := place()
	for _, d := range dividers {
		hit, ok := first[d.Start]
		require.True(t, ok, "every divider opens with a hit")
		if (d.Start-span.Start)%fourFour.Bar() == 0 {
			assert.Equal(t, models.AcousticBassDrum, hit)
		} else {
			assert.Contains(t, []models.HitType{models.AcousticSnare, models.AcousticBassDrum}, hit)
		}
	}
	assert.Equal(t, first, place())
}

func TestPlaceTruncatesAtPartEnd(t *testing.T) {
	g := NewGenerator()
	span := timing.Span(0, fourFour.Beats(3))
	dividers := []timing.Interval{timing.Span(0, fourFour.Bar())}
	patterns, err := g.Patterns(dividers, fourFour, random.New(5))
	require.NoError(t, err)

	hits, err := g.Place(kit, span, dividers, fourFour, patterns, seeded(5), random.New(5))
	require.NoError(t, err)
	for _, seg := range hits {
		assert.LessOrEqual(t, seg.Timing.End, span.End)
	}
}

func TestPlaceMissingPattern(t *testing.T) {
	_, err := NewGenerator().Place(kit, timing.Span(0, 960), []timing.Interval{timing.Span(0, 960)}, fourFour, map[int]Pattern{}, seeded(1), random.New(1))
	assert.True(t, render.IsMissingContext(err))
}

// composeDrums renders a 4-bar composition split into drum parts of partBars bars, with phrase
// dividers of dividerBars bars; no dividers when dividerBars is 0.
func composeDrums(t *testing.T, partBars, dividerBars int) *render.Tree {
	t.Helper()
	engine := render.NewEngine().Register(NewGenerator().Renderers()...)
	engine.Register(render.Adhoc(models.KindComposition, func(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
		out := []render.Segment{render.Over(models.TimeSignature{TimeSignature: fourFour}, seg.Timing)}
		for _, part := range seg.Timing.DivideInto(fourFour.Bars(partBars)) {
			out = append(out, render.Named(models.DrumPart{Part: kit}, kit.Name, part))
		}
		if dividerBars > 0 {
			for _, div := range seg.Timing.DivideInto(fourFour.Bars(dividerBars)) {
				out = append(out, render.Over(models.PhraseDivider{}, div))
			}
		}
		return out, nil
	}))
	tree, err := engine.Compose(context.Background(), render.Over(models.Composition{Bars: 4}, timing.Span(0, fourFour.Bars(4))), 21)
	require.NoError(t, err)
	return tree
}

func TestDrumPartsWithEqualNamesRepeat(t *testing.T) {
	tree := composeDrums(t, 2, 1)
	require.Empty(t, tree.Unresolved())

	half := fourFour.Bars(2)
	var first, second []relHit
	for _, seg := range tree.Segments(models.KindDrumHit) {
		h, _ := render.As[models.DrumHit](seg)
		if seg.Timing.Start < half {
			first = append(first, relHit{offset: seg.Timing.Start, hit: h.Hit})
		} else {
			second = append(second, relHit{offset: seg.Timing.Start - half, hit: h.Hit})
		}
	}
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestDrumPartWithoutDividersIsUnresolved(t *testing.T) {
	tree := composeDrums(t, 2, 0)
	assert.Len(t, tree.Unresolved(), 2)
	assert.Empty(t, tree.Segments(models.KindDrumHit))
}

func TestDrumPartInsideLongDivider(t *testing.T) {
	// One 4-bar divider covers four 1-bar parts; only the first part holds its start
	tree := composeDrums(t, 1, 4)
	require.Empty(t, tree.Unresolved())

	hits := tree.Segments(models.KindDrumHit)
	require.NotEmpty(t, hits)
	first, _ := render.As[models.DrumHit](hits[0])
	assert.Equal(t, 0, hits[0].Timing.Start)
	assert.Equal(t, models.AcousticBassDrum, first.Hit)

	for _, n := range tree.NodesOf(models.KindDrumHit) {
		part := tree.Node(n.Parent).Segment.Timing
		assert.True(t, part.Covers(n.Segment.Timing), "hit %v stays inside its part %v", n.Segment.Timing, part)
	}
}

func TestPlaceSkipsDivisionsBeforePartStart(t *testing.T) {
	g := NewGenerator()
	dividers := []timing.Interval{timing.Span(0, fourFour.Bars(2))}
	patterns, err := g.Patterns(dividers, fourFour, random.New(8))
	require.NoError(t, err)

	span := timing.Span(fourFour.Bar(), fourFour.Bars(2))
	hits, err := g.Place(kit, span, dividers, fourFour, patterns, seeded(8), random.New(8))
	require.NoError(t, err)
	for _, seg := range hits {
		assert.True(t, span.Covers(seg.Timing))
	}

	whole, err := g.Place(kit, dividers[0], dividers, fourFour, patterns, seeded(8), random.New(8))
	require.NoError(t, err)
	var tail []timing.Interval
	for _, seg := range whole {
		if seg.Timing.Start >= span.Start {
			tail = append(tail, seg.Timing)
		}
	}
	var got []timing.Interval
	for _, seg := range hits {
		got = append(got, seg.Timing)
	}
	assert.Equal(t, tail, got, "a part picks up the divider's pattern where it starts")
}
