package melody

import (
	"fmt"
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Line renders melody and bass part segments into notes
type Line struct {
	Profiles map[models.Role]Profile
}

// NewLine returns a line renderer with the default profile for every melodic role
func NewLine() *Line {
	return &Line{Profiles: map[models.Role]Profile{
		models.RolePrimary:   PrimaryProfile(),
		models.RoleSecondary: SecondaryProfile(),
		models.RoleBass:      BassProfile(),
	}}
}

// Validate checks every profile
func (l *Line) Validate() error {
	for _, p := range l.Profiles {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Renderers returns the MelodyPart and BassPart renderers
func (l *Line) Renderers() []render.Renderer {
	return []render.Renderer{
		render.Adhoc(models.KindMelodyPart, func(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
			part, ok := render.As[models.MelodyPart](seg)
			if !ok {
				return nil, fmt.Errorf("melody part segment holds %T", seg.Element)
			}
			return l.render(seg, ctx, part.Part)
		}),
		render.Adhoc(models.KindBassPart, func(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
			part, ok := render.As[models.BassPart](seg)
			if !ok {
				return nil, fmt.Errorf("bass part segment holds %T", seg.Element)
			}
			return l.render(seg, ctx, part.Part)
		}),
	}
}

type chordSpan struct {
	chord  theory.Chord
	timing timing.Interval
}

func (l *Line) render(seg render.Segment, ctx *render.Context, part models.PartRef) ([]render.Segment, error) {
	profile, ok := l.Profiles[part.Role]
	if !ok {
		return nil, fmt.Errorf("no melodic profile for role %q", part.Role)
	}
	ts, _, err := render.RequireAs[models.TimeSignature](ctx.Find(models.KindTimeSignature).During(seg.Timing))
	if err != nil {
		return nil, err
	}
	key, _, err := render.RequireAs[models.Key](ctx.Find(models.KindKey).During(seg.Timing))
	if err != nil {
		return nil, err
	}
	chordSegs, err := ctx.Find(models.KindChord).WithTiming(timing.Overlapping, seg.Timing.Inclusive()).RequireAll()
	if err != nil {
		return nil, err
	}
	dividerSegs, err := ctx.Find(models.KindPhraseDivider).WithTiming(timing.Overlapping, seg.Timing).RequireAll()
	if err != nil {
		return nil, err
	}

	chords := make([]chordSpan, 0, len(chordSegs))
	for _, s := range chordSegs {
		if c, ok := render.As[models.Chord](s); ok {
			chords = append(chords, chordSpan{chord: c.Chord, timing: s.Timing})
		}
	}
	dividers := make([]timing.Interval, len(dividerSegs))
	for i, s := range dividerSegs {
		dividers[i] = s.Timing
	}

	env := Env{
		Key:      &key.Key,
		TS:       &ts.TimeSignature,
		Part:     part,
		Siblings: siblings(ctx, seg.Timing, part),
	}

	rng := ctx.Rng()
	model := NewModel(profile, rng)
	divisions := Rhythm(seg.Timing, dividers, ts.TimeSignature, profile, ctx.RngWithSeed("rhythm"))

	var notes []render.Segment
	var previous *int
	for _, div := range divisions {
		if div.IsRest {
			continue
		}
		slot := Slot{Timing: div.Timing, Previous: previous}
		for _, d := range dividers {
			if d.Contains(div.Timing.Start) {
				slot.Phrase = d
				break
			}
		}
		fillChords(&slot, chords)

		note, err := model.Choose(slot, env, rng)
		if err != nil {
			return nil, err
		}
		pitch := note.Pitch
		previous = &pitch
		notes = append(notes, render.Over(note, div.Timing))
	}
	notes = Tie(notes, profile.TieProbability, rng)

	logger.Debug("Line rendered", logger.Fields{
		"part":    part.Name,
		"profile": profile.Name,
		"timing":  seg.Timing.String(),
		"notes":   len(notes),
	})
	return notes, nil
}

// siblings collects notes of other parts overlapping iv
func siblings(ctx *render.Context, iv timing.Interval, part models.PartRef) []Sibling {
	var out []Sibling
	for _, s := range ctx.Find(models.KindNote).WithTiming(timing.Overlapping, iv).GetAll() {
		n, ok := render.As[models.PlacedNote](s)
		if !ok || n.Part.Name == part.Name {
			continue
		}
		out = append(out, Sibling{Pitch: n.Pitch, Timing: s.Timing, Part: n.Part})
	}
	return out
}

// fillChords sets the chord sounding at the slot start and its neighbours
func fillChords(slot *Slot, chords []chordSpan) {
	for i, c := range chords {
		if !c.timing.Contains(slot.Timing.Start) {
			continue
		}
		current := c.chord
		slot.Chord = &current
		if i > 0 && chords[i-1].timing.End == c.timing.Start {
			prev := chords[i-1].chord
			slot.PreviousChord = &prev
		}
		if i+1 < len(chords) {
			slot.Next = &UpcomingChord{Chord: chords[i+1].chord, Start: chords[i+1].timing.Start}
		}
		return
	}
}

// Rhythm draws a subdivision rhythm for each phrase divider clipped to iv
func Rhythm(iv timing.Interval, dividers []timing.Interval, ts timing.TimeSignature, p Profile, rng *rand.Rand) []timing.Division {
	subdivisions := p.Subdivisions
	if subdivisions == nil {
		subdivisions = Subdivisions
	}
	choices := subdivisions(ts)

	var out []timing.Division
	for _, d := range dividers {
		clip := timing.Span(max(d.Start, iv.Start), min(d.End, iv.End))
		if clip.IsEmpty() {
			continue
		}
		r := timing.RandomWithSubdivisionWeights(clip.Len(), choices, rng)
		out = append(out, r.IterOver(clip)...)
	}
	return out
}

// Tie merges touching notes of equal pitch with the given probability. The merged note keeps
// the first note's velocity.
func Tie(notes []render.Segment, probability float64, rng *rand.Rand) []render.Segment {
	out := make([]render.Segment, 0, len(notes))
	for _, n := range notes {
		if len(out) > 0 {
			last := &out[len(out)-1]
			lp, _ := render.As[models.PlacedNote](*last)
			np, _ := render.As[models.PlacedNote](n)
			if lp.Pitch == np.Pitch && last.Timing.End >= n.Timing.Start && rng.Float64() < probability {
				last.Timing.End = n.Timing.End
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
