package arranger

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Renderers returns the Sections and Section renderers backed by a
func (a *Arranger) Renderers() []render.Renderer {
	return []render.Renderer{
		render.Adhoc(models.KindSections, a.renderSections),
		render.Adhoc(models.KindSection, a.renderSection),
	}
}

// renderSections splits its interval into 2..MaxSplits equal pieces of whole section units. Each
// piece is named by a drawn index, so pieces sharing a name repeat the same material.
func (a *Arranger) renderSections(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
	ts, _, err := render.RequireAs[models.TimeSignature](ctx.Find(models.KindTimeSignature).During(seg.Timing))
	if err != nil {
		return nil, err
	}
	rng := ctx.Rng()

	unit := ts.Bars(a.SectionBars)
	length := seg.Timing.Len()
	trimmed := length - length%(2*unit)
	if trimmed <= unit {
		return []render.Segment{render.Over(models.Section{}, seg.Timing)}, nil
	}

	var splits []int
	for d := 2; d <= a.MaxSplits; d++ {
		if trimmed%(d*unit) == 0 {
			splits = append(splits, d)
		}
	}
	n := splits[rng.IntN(len(splits))]

	var out []render.Segment
	for _, div := range timing.FromLengths(trimmed / n).IterOver(seg.Timing) {
		name := strconv.Itoa(rng.IntN(n))
		out = append(out, render.Named(models.Sections{}, name, div.Timing))
	}
	return out, nil
}

// Dividers lays a random one-bar phrase rhythm over section. Phrase lengths are whole half beats,
// longer phrases weighted up.
func Dividers(section timing.Interval, ts timing.TimeSignature, rng *rand.Rand) []timing.Interval {
	choices := make([]timing.SubdivisionChoice, 0, ts.BeatsPerBar)
	for n := 1; n <= ts.BeatsPerBar; n++ {
		choices = append(choices, timing.SubdivisionChoice{Lengths: []int{ts.HalfBeat() * n}, Weight: n})
	}
	phrase := timing.RandomWithSubdivisionWeights(ts.Bar(), choices, rng)

	var dividers []timing.Interval
	for _, div := range phrase.IterOver(section) {
		dividers = append(dividers, div.Timing)
	}
	return dividers
}

func (a *Arranger) renderSection(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
	ts, _, err := render.RequireAs[models.TimeSignature](ctx.Find(models.KindTimeSignature).During(seg.Timing))
	if err != nil {
		return nil, err
	}
	inst, _, err := render.RequireAs[models.Instrumentation](ctx.Find(models.KindInstrumentation).During(seg.Timing))
	if err != nil {
		return nil, err
	}

	dividers := Dividers(seg.Timing, ts.TimeSignature, ctx.RngWithSeed("dividers"))

	out := []render.Segment{
		render.Over(models.RandomChordProgression{}, seg.Timing),
		render.Over(models.ChordMarkers{}, seg.Timing),
	}
	for _, div := range dividers {
		out = append(out, render.Over(models.PhraseDivider{}, div))
	}

	quarters := seg.Timing.DivideInto(seg.Timing.Len() / 4)
	for _, part := range inst.PartsWithRole(models.RoleBass) {
		for _, q := range quarters {
			out = append(out, render.Named(models.BassPart{Part: part}, part.Name, q))
		}
	}
	for _, part := range inst.PartsWithRole(models.RoleDrums) {
		for _, q := range quarters {
			out = append(out, render.Named(models.DrumPart{Part: part}, part.Name, q))
		}
	}

	melodic := inst.PartsWithRole(models.RolePrimary, models.RoleSecondary)
	for _, aw := range a.Arrange(seg.Timing, melodic, dividers, ctx.Rng()) {
		out = append(out, render.Named(aw, aw.Part.Name, seg.Timing))
		for j, w := range aw.Windows {
			// Windows opening at the same curve height share a name, and so their material.
			name := fmt.Sprintf("%s:%d", aw.Part.Name, int(float64(aw.Index)*aw.Heights[j]))
			out = append(out, render.Named(models.MelodyPart{Part: aw.Part}, name, w))
		}
	}

	logger.Debug("Section arranged", logger.Fields{
		"section":  seg.Timing.String(),
		"dividers": len(dividers),
		"segments": len(out),
	})
	return out, nil
}
