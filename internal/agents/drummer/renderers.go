package drummer

import (
	"fmt"
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Renderers returns the DrumPart renderer backed by g
func (g *Generator) Renderers() []render.Renderer {
	return []render.Renderer{render.Adhoc(models.KindDrumPart, g.renderPart)}
}

func (g *Generator) renderPart(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
	part, ok := render.As[models.DrumPart](seg)
	if !ok {
		return nil, fmt.Errorf("drum part segment holds %T", seg.Element)
	}
	ts, _, err := render.RequireAs[models.TimeSignature](ctx.Find(models.KindTimeSignature).During(seg.Timing))
	if err != nil {
		return nil, err
	}
	dividerSegs, err := ctx.Find(models.KindPhraseDivider).WithTiming(timing.Overlapping, seg.Timing).RequireAll()
	if err != nil {
		return nil, err
	}
	dividers := make([]timing.Interval, len(dividerSegs))
	for i, s := range dividerSegs {
		dividers[i] = s.Timing
	}

	patterns, err := g.Patterns(dividers, ts.TimeSignature, ctx.RngWithSeed("patterns"))
	if err != nil {
		return nil, err
	}
	seedFor := func(offset int) *rand.Rand { return ctx.RngWithSeed(offset) }
	hits, err := g.Place(part.Part, seg.Timing, dividers, ts.TimeSignature, patterns, seedFor, ctx.Rng())
	if err != nil {
		return nil, err
	}

	logger.Debug("Drum part rendered", logger.Fields{
		"part":     part.Part.Name,
		"timing":   seg.Timing.String(),
		"patterns": len(patterns),
		"hits":     len(hits),
	})
	return hits, nil
}
