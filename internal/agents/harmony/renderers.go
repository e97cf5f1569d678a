package harmony

import (
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
)

// Renderers returns the progression and chord marker renderers backed by g
func (g *Generator) Renderers() []render.Renderer {
	return []render.Renderer{
		render.Adhoc(models.KindRandomChordProgression, g.renderProgression),
		render.Adhoc(models.KindChordMarkers, renderChordMarkers),
	}
}

func (g *Generator) renderProgression(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
	ts, _, err := render.RequireAs[models.TimeSignature](ctx.Find(models.KindTimeSignature).During(seg.Timing))
	if err != nil {
		return nil, err
	}
	key, _, err := render.RequireAs[models.Key](ctx.Find(models.KindKey).During(seg.Timing))
	if err != nil {
		return nil, err
	}

	progression, err := g.Generate(key.Key, ts.TimeSignature, ctx.Rng())
	if err != nil {
		return nil, err
	}
	return []render.Segment{render.Over(progression, seg.Timing)}, nil
}

func renderChordMarkers(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
	progression, _, err := render.RequireAs[models.ChordProgression](
		ctx.Find(models.KindChordProgression).During(seg.Timing),
	)
	if err != nil {
		return nil, err
	}
	return progression.Timeline(seg.Timing), nil
}
