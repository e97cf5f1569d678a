// Package arranger decides the structure of a composition: how it splits into sections, where
// phrases divide, and when each part plays.
package arranger

import (
	"fmt"
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/random"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Arranger schedules part activation with periodic ramps
type Arranger struct {
	PeriodDivisors []int   // the ramp period is the section length divided by one of these
	BlendChance    float64 // probability of blending a second ramp into the first
	BlendRatio     float64 // weight of the second ramp
	Bands          []Band  // per part index; the last band repeats for later parts
	SectionBars    int     // shortest section length in bars
	MaxSplits      int     // most sections one split may produce
}

// NewArranger returns an arranger with the default ramps and bands
func NewArranger() *Arranger {
	return &Arranger{
		PeriodDivisors: []int{3, 4, 5},
		BlendChance:    0.35,
		BlendRatio:     0.3,
		Bands:          DefaultBands,
		SectionBars:    8,
		MaxSplits:      6,
	}
}

// Validate rejects settings that cannot produce a curve or sections
func (a *Arranger) Validate() error {
	if len(a.PeriodDivisors) == 0 {
		return fmt.Errorf("at least one period divisor is required")
	}
	for _, d := range a.PeriodDivisors {
		if d < 1 {
			return fmt.Errorf("period divisor must be positive, got %d", d)
		}
	}
	if a.BlendChance < 0 || a.BlendChance > 1 || a.BlendRatio < 0 || a.BlendRatio > 1 {
		return fmt.Errorf("blend chance and ratio must lie within [0, 1]")
	}
	if len(a.Bands) == 0 {
		return fmt.Errorf("at least one activation band is required")
	}
	if a.SectionBars < 1 || a.MaxSplits < 2 {
		return fmt.Errorf("section bars must be positive and max splits at least 2")
	}
	return nil
}

// Band returns the activation band of the part at index
func (a *Arranger) Band(index int) Band {
	if index >= len(a.Bands) {
		return a.Bands[len(a.Bands)-1]
	}
	return a.Bands[index]
}

func (a *Arranger) ramp(section timing.Interval, rng *rand.Rand) Ramp {
	d := a.PeriodDivisors[rng.IntN(len(a.PeriodDivisors))]
	period := float64(section.Len()) / float64(d)
	return Ramp{Period: period, Phase: random.Uniform(rng, 0, period)}
}

// Curve draws the activation curve of a section
func (a *Arranger) Curve(section timing.Interval, rng *rand.Rand) Curve {
	first := a.ramp(section, rng)
	if rng.Float64() >= a.BlendChance {
		return first
	}
	return Blend{A: first, B: a.ramp(section, rng), Ratio: a.BlendRatio}
}

// Windows joins the dividers during which curve passes through band into contiguous windows
func Windows(curve Curve, band Band, dividers []timing.Interval) []timing.Interval {
	var active []timing.Interval
	for _, div := range dividers {
		if band.Covers(curve, div.Start, div.End) {
			active = append(active, div)
		}
	}
	return timing.Join(active)
}

// Arrange decides when each part plays inside section. Parts are given in entrance order.
func (a *Arranger) Arrange(section timing.Interval, parts []models.PartRef, dividers []timing.Interval, rng *rand.Rand) []models.ActivationWindow {
	curve := a.Curve(section, rng)
	windows := make([]models.ActivationWindow, len(parts))
	for i, part := range parts {
		active := Windows(curve, a.Band(i), dividers)
		heights := make([]float64, len(active))
		for j, w := range active {
			heights[j] = curve.Value(float64(w.Start))
		}
		windows[i] = models.ActivationWindow{
			Part:    part,
			Index:   i,
			Windows: active,
			Heights: heights,
		}
	}
	return windows
}
