// Package harmony chooses chord progressions by weighted transitions between the triads of a key.
package harmony

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/random"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// OpeningDegrees are the tonic-family degrees (I, IV, V, VI) a progression may start on
var OpeningDegrees = []int{0, 3, 4, 5}

// Generator builds chord progressions
type Generator struct {
	MinChords  int
	MaxChords  int
	Bars       int     // length of one progression cycle
	EchelonMin float64 // lower bound of the selectivity draw
	EchelonMax float64 // exclusive upper bound
}

// NewGenerator returns a generator with the default bounds
func NewGenerator() *Generator {
	return &Generator{
		MinChords:  2,
		MaxChords:  6,
		Bars:       4,
		EchelonMin: 0.2,
		EchelonMax: 1.0,
	}
}

// Validate rejects bounds that cannot produce a progression
func (g *Generator) Validate() error {
	if g.MinChords < 1 {
		return fmt.Errorf("min chords must be at least 1, got %d", g.MinChords)
	}
	if g.MinChords > g.MaxChords {
		return fmt.Errorf("min chords (%d) exceeds max chords (%d)", g.MinChords, g.MaxChords)
	}
	if g.Bars < 1 {
		return fmt.Errorf("progression bars must be positive, got %d", g.Bars)
	}
	if g.EchelonMin < 0 || g.EchelonMax > 1 || g.EchelonMin > g.EchelonMax {
		return fmt.Errorf("echelon range [%v, %v) must lie within [0, 1]", g.EchelonMin, g.EchelonMax)
	}
	return nil
}

type candidate struct {
	chord  theory.Chord
	weight float64
}

// selectByEchelon sorts candidates ascending by weight and keeps those at or above the weight
// found at floor(n*echelon)
func selectByEchelon(cands []candidate, echelon float64) []candidate {
	if len(cands) == 0 {
		return nil
	}
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].weight != sorted[b].weight {
			return sorted[a].weight < sorted[b].weight
		}
		return sorted[a].chord.Degree < sorted[b].chord.Degree
	})

	idx := int(math.Floor(float64(len(sorted)) * echelon))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	threshold := sorted[idx].weight

	var top []candidate
	for _, c := range sorted {
		if c.weight >= threshold {
			top = append(top, c)
		}
	}
	return top
}

func pick(cands []candidate, rng *rand.Rand) (theory.Chord, error) {
	weights := make([]float64, len(cands))
	for i, c := range cands {
		weights[i] = c.weight
	}
	idx, err := random.Choose(rng, weights)
	if err != nil {
		return theory.Chord{}, render.MissingContext("no next chords: %v", err)
	}
	return cands[idx].chord, nil
}

// Candidates returns the weighted next-chord options after current with the echelon filter applied
func Candidates(key theory.Key, current theory.Chord, echelon float64) []theory.Chord {
	top := selectByEchelon(weigh(key, current, key.Chords(theory.Triad)), echelon)
	chords := make([]theory.Chord, len(top))
	for i, c := range top {
		chords[i] = c.chord
	}
	return chords
}

func weigh(key theory.Key, current theory.Chord, chords []theory.Chord) []candidate {
	cands := make([]candidate, len(chords))
	for i, ch := range chords {
		cands[i] = candidate{chord: ch, weight: TransitionWeight(key, current, ch)}
	}
	return cands
}

func openingCandidates(key theory.Key, chords []theory.Chord) []candidate {
	var cands []candidate
	for _, ch := range chords {
		for _, d := range OpeningDegrees {
			if ch.Degree == d {
				cands = append(cands, candidate{chord: ch, weight: TransitionWeight(key, ch, ch)})
				break
			}
		}
	}
	return cands
}

// Generate chooses a progression in key and lays it over Bars bars of ts. The last chord always
// transitions back to the first with positive weight.
func (g *Generator) Generate(key theory.Key, ts timing.TimeSignature, rng *rand.Rand) (models.ChordProgression, error) {
	echelon := random.Uniform(rng, g.EchelonMin, g.EchelonMax)

	all := key.Chords(theory.Triad)
	if len(all) == 0 {
		return models.ChordProgression{}, render.MissingContext("no chords in %s", key)
	}

	opening := openingCandidates(key, all)
	if len(opening) == 0 {
		opening = weigh(key, all[0], all)
	}
	first, err := pick(selectByEchelon(opening, echelon), rng)
	if err != nil {
		return models.ChordProgression{}, err
	}

	chosen := []theory.Chord{first}
	var cyclability []float64
	if len(chosen) >= g.MinChords {
		cyclability = append(cyclability, TransitionWeight(key, first, first))
	}
	for len(chosen) < g.MaxChords {
		latest := chosen[len(chosen)-1]
		next, err := pick(selectByEchelon(weigh(key, latest, all), echelon), rng)
		if err != nil {
			return models.ChordProgression{}, err
		}
		chosen = append(chosen, next)
		if len(chosen) >= g.MinChords {
			cyclability = append(cyclability, TransitionWeight(key, next, first))
		}
	}

	// Squaring polarizes the weights towards the smoothest cycle points.
	polarized := make([]float64, len(cyclability))
	for i, w := range cyclability {
		polarized[i] = w * w
	}
	cycleIdx, err := random.Choose(rng, polarized)
	if err != nil {
		return models.ChordProgression{}, render.MissingContext("no cycle choices: %v", err)
	}
	chosen = chosen[:g.MinChords+cycleIdx]

	progression := models.ChordProgression{
		Chords: chosen,
		Rhythm: timing.BalancedTiming(ts.Bars(g.Bars), len(chosen), ts, rng),
	}

	logger.Debug("Chord progression chosen", logger.Fields{
		"key":     key.String(),
		"echelon": echelon,
		"chords":  progression.Symbols(),
	})
	return progression, nil
}
