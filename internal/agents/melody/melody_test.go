package melody

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/random"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

var (
	cMajor   = theory.Key{Tonic: 0, Scale: theory.Major, Mode: theory.Ionian}
	fourFour = timing.TimeSignature{BeatsPerBar: 4, BeatLength: timing.DefaultTicksPerBeat}

	lead  = models.PartRef{Name: "Melody", Group: "harmony", Role: models.RolePrimary}
	extra = models.PartRef{Name: "Extra 1", Group: "harmony", Role: models.RoleSecondary}
	drums = models.PartRef{Name: "Drums", Group: "percussion", Role: models.RoleDrums}
	bass  = models.PartRef{Name: "Bass", Group: "harmony", Role: models.RoleBass}
)

func chordOf(degree int) *theory.Chord {
	c := cMajor.Chord(degree, theory.Triad)
	return &c
}

func env(part models.PartRef, siblings ...Sibling) Env {
	return Env{Key: &cMajor, TS: &fourFour, Part: part, Siblings: siblings}
}

func slotAt(start, length int) Slot {
	return Slot{
		Timing: timing.Span(start, start+length),
		Phrase: timing.Span(0, fourFour.Bar()),
		Chord:  chordOf(0),
	}
}

func fixedModel(p Profile) *Model {
	return &Model{Profile: p, Multiplier: 1}
}

func TestProfilesValidate(t *testing.T) {
	require.NoError(t, NewLine().Validate())

	tests := []struct {
		name   string
		mutate func(p *Profile)
	}{
		{name: "inverted band", mutate: func(p *Profile) { p.Low, p.High = 70, 60 }},
		{name: "flat bump factor", mutate: func(p *Profile) { p.BumpFactor = 1 }},
		{name: "zero harmonic", mutate: func(p *Profile) { p.MaxHarmonic = 0 }},
		{name: "tie probability above one", mutate: func(p *Profile) { p.TieProbability = 1.5 }},
		{name: "velocity out of range", mutate: func(p *Profile) { p.Velocity = VelocityBand{Min: 100, Max: 130} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PrimaryProfile()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestProfileFor(t *testing.T) {
	p, err := ProfileFor(models.RoleBass)
	require.NoError(t, err)
	low, high := p.Band(cMajor)
	assert.Equal(t, 30, low)
	assert.Equal(t, 48, high)

	_, err = ProfileFor(models.RoleDrums)
	assert.Error(t, err)
}

func TestWeighRequiresContext(t *testing.T) {
	m := fixedModel(PrimaryProfile())

	_, err := m.Weigh(slotAt(0, 480), Env{TS: &fourFour, Part: lead})
	assert.True(t, render.IsMissingContext(err))

	noChord := slotAt(0, 480)
	noChord.Chord = nil
	_, err = m.Weigh(noChord, env(lead))
	assert.True(t, render.IsMissingContext(err))

	noPhrase := slotAt(0, 480)
	noPhrase.Phrase = timing.Interval{}
	_, err = m.Weigh(noPhrase, env(lead))
	assert.True(t, render.IsMissingContext(err))
}

func TestChordMembershipGrowsWithLength(t *testing.T) {
	m := fixedModel(PrimaryProfile())

	short := slotAt(0, fourFour.HalfBeat())
	assert.Equal(t, 1, m.chordMembership(short, env(lead), 60))
	assert.Equal(t, 0, m.chordMembership(short, env(lead), 62))

	long := slotAt(0, fourFour.Beats(2))
	assert.Equal(t, 6, m.chordMembership(long, env(lead), 60))
	assert.Equal(t, -5, m.chordMembership(long, env(lead), 62))
}

func TestChordMembershipRootBonus(t *testing.T) {
	m := fixedModel(BassProfile())
	slot := slotAt(0, fourFour.HalfBeat())
	assert.Equal(t, 3, m.chordMembership(slot, env(bass), 36))
	assert.Equal(t, 1, m.chordMembership(slot, env(bass), 40))
}

func TestChordMembershipSustainedSiblingInverts(t *testing.T) {
	m := fixedModel(PrimaryProfile())
	sustained := Sibling{Pitch: 64, Timing: timing.Span(0, fourFour.Beats(2)), Part: extra}
	slot := slotAt(fourFour.Beat(), fourFour.Beat())

	assert.Equal(t, -2, m.chordMembership(slot, env(lead, sustained), 76))
	assert.Equal(t, 2, m.chordMembership(slot, env(lead, sustained), 72))
	assert.Equal(t, 2, m.chordMembership(slot, env(extra, sustained), 76), "own notes never invert")
}

func TestContourFollowsWave(t *testing.T) {
	m := fixedModel(PrimaryProfile())

	start := slotAt(0, 480)
	assert.Equal(t, 0, m.contour(start, 48, 78, 48))
	assert.Equal(t, -8, m.contour(start, 48, 78, 78))

	middle := slotAt(fourFour.Bar()/2, 480)
	assert.Equal(t, 0, m.contour(middle, 48, 78, 78))
	assert.Equal(t, -8, m.contour(middle, 48, 78, 48))
}

func TestAnticipation(t *testing.T) {
	m := fixedModel(PrimaryProfile())

	slot := slotAt(0, fourFour.Beat())
	slot.Next = &UpcomingChord{Chord: *chordOf(3), Start: fourFour.Beat()}
	assert.Equal(t, 4, m.anticipation(slot, env(lead), 65), "F is a tone of the coming IV")
	assert.Equal(t, 3, m.anticipation(slot, env(lead), 64))

	slot.Next.Start = fourFour.Beats(3)
	assert.Equal(t, 0, m.anticipation(slot, env(lead), 65), "change beyond the lookahead")

	slot.Next = nil
	assert.Equal(t, 0, m.anticipation(slot, env(lead), 65))
}

func TestResidue(t *testing.T) {
	m := fixedModel(PrimaryProfile())
	slot := slotAt(0, 480)
	slot.PreviousChord = chordOf(4)

	assert.Equal(t, -2, m.residue(slot, 71), "B left with the V")
	assert.Equal(t, 0, m.residue(slot, 67), "G is shared")
	assert.Equal(t, 0, m.residue(slot, 60))

	slot.PreviousChord = chordOf(0)
	assert.Equal(t, 0, m.residue(slot, 71))
}

func TestLeap(t *testing.T) {
	m := fixedModel(PrimaryProfile())
	prev := 60
	slot := slotAt(0, 480)
	slot.Previous = &prev

	assert.Equal(t, -2, m.leap(slot, 60))
	assert.Equal(t, 0, m.leap(slot, 64))
	assert.Equal(t, -3, m.leap(slot, 67))
	assert.Equal(t, -3, m.leap(slot, 53))

	slot.Previous = nil
	assert.Equal(t, 0, m.leap(slot, 79))
}

func TestBassRunsIntoChordChange(t *testing.T) {
	m := fixedModel(BassProfile())
	prev := 36
	slot := slotAt(fourFour.Beats(2), fourFour.Beat())
	slot.Previous = &prev
	slot.Next = &UpcomingChord{Chord: *chordOf(5), Start: fourFour.Bar()}

	tests := []struct {
		name  string
		pitch int
		want  int
	}{
		{"step up toward the fifth", 38, 2},
		{"step down toward the root", 35, 2},
		{"leap is no run", 33, 0},
		{"repeat is no run", 36, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.run(slot, tt.pitch))
		})
	}

	away := 35
	slot.Previous = &away
	assert.Equal(t, 0, m.run(slot, 36), "C moves away from A and E")

	slot.Previous = &prev
	slot.Next.Start = fourFour.Bars(2)
	assert.Equal(t, 0, m.run(slot, 38), "change beyond the phrase")

	slot.Next.Start = fourFour.Bar()
	assert.Equal(t, 0, fixedModel(PrimaryProfile()).run(slot, 38), "only the bass runs")
}

func TestCollision(t *testing.T) {
	m := fixedModel(PrimaryProfile())
	slot := slotAt(fourFour.Beat(), 480)

	near := Sibling{Pitch: 72, Timing: timing.Span(fourFour.Beat()+60, fourFour.Beats(2)), Part: extra}
	assert.Equal(t, -3, m.collision(slot, env(lead, near), 60))
	assert.Equal(t, 0, m.collision(slot, env(lead, near), 62))

	far := Sibling{Pitch: 72, Timing: timing.Span(fourFour.Beats(2), fourFour.Beats(3)), Part: extra}
	assert.Equal(t, 0, m.collision(slot, env(lead, far), 60))

	otherGroup := Sibling{Pitch: 72, Timing: slot.Timing, Part: drums}
	assert.Equal(t, 0, m.collision(slot, env(lead, otherGroup), 60))
}

func TestChooseStaysInBandAndKey(t *testing.T) {
	for _, profile := range []Profile{PrimaryProfile(), SecondaryProfile(), BassProfile()} {
		low, high := profile.Band(cMajor)
		for seed := uint64(0); seed < 100; seed++ {
			rng := random.New(seed)
			m := NewModel(profile, rng)
			slot := slotAt(rng.IntN(4)*fourFour.HalfBeat(), fourFour.HalfBeat()*(1+rng.IntN(4)))
			slot.Chord = chordOf(rng.IntN(7))

			note, err := m.Choose(slot, env(lead), rng)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, note.Pitch, low)
			assert.LessOrEqual(t, note.Pitch, high)
			assert.True(t, cMajor.Contains(theory.PitchClassOf(note.Pitch)))
			assert.GreaterOrEqual(t, note.Velocity, profile.Velocity.Min)
			assert.LessOrEqual(t, note.Velocity, profile.Velocity.Max)
		}
	}
}

func TestChooseIsDeterministic(t *testing.T) {
	m := fixedModel(PrimaryProfile())
	slot := slotAt(0, fourFour.Beat())
	a, err := m.Choose(slot, env(lead), random.New(42))
	require.NoError(t, err)
	b, err := m.Choose(slot, env(lead), random.New(42))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTie(t *testing.T) {
	notes := []render.Segment{
		render.Over(models.PlacedNote{Pitch: 60, Velocity: 90}, timing.Span(0, 240)),
		render.Over(models.PlacedNote{Pitch: 60, Velocity: 100}, timing.Span(240, 480)),
		render.Over(models.PlacedNote{Pitch: 62, Velocity: 95}, timing.Span(480, 720)),
		render.Over(models.PlacedNote{Pitch: 62, Velocity: 95}, timing.Span(960, 1200)),
	}

	tied := Tie(notes, 1, random.New(1))
	require.Len(t, tied, 3)
	assert.Equal(t, timing.Span(0, 480), tied[0].Timing)
	first, _ := render.As[models.PlacedNote](tied[0])
	assert.Equal(t, 90, first.Velocity)
	assert.Equal(t, timing.Span(960, 1200), tied[2].Timing, "notes apart never tie")

	assert.Len(t, Tie(notes, 0, random.New(1)), 4)
}

func TestRhythmFollowsDividers(t *testing.T) {
	dividers := []timing.Interval{timing.Span(0, 1920), timing.Span(1920, 2880)}
	iv := timing.Span(480, 2880)

	divs := Rhythm(iv, dividers, fourFour, PrimaryProfile(), random.New(8))
	require.NotEmpty(t, divs)
	assert.Equal(t, iv.Start, divs[0].Timing.Start)
	assert.Equal(t, iv.End, divs[len(divs)-1].Timing.End)
	for i, d := range divs {
		assert.False(t, d.Timing.Start < 1920 && d.Timing.End > 1920, "no note crosses a divider")
		if i > 0 {
			assert.Equal(t, divs[i-1].Timing.End, d.Timing.Start)
		}
	}
}

func composeLines(t *testing.T, seed uint64, withChords bool) *render.Tree {
	t.Helper()
	bars := 4
	engine := render.NewEngine().Register(NewLine().Renderers()...)
	engine.Register(render.Adhoc(models.KindComposition, func(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
		out := []render.Segment{
			render.Over(models.Key{Key: cMajor}, seg.Timing),
			render.Over(models.TimeSignature{TimeSignature: fourFour}, seg.Timing),
			render.Over(models.MelodyPart{Part: lead}, seg.Timing),
			render.Over(models.BassPart{Part: bass}, seg.Timing),
		}
		for i, bar := range seg.Timing.DivideInto(fourFour.Bar()) {
			out = append(out, render.Over(models.PhraseDivider{}, bar))
			if withChords {
				out = append(out, render.Over(models.Chord{Chord: *chordOf([]int{0, 3, 4, 0}[i])}, bar))
			}
		}
		return out, nil
	}))

	tree, err := engine.Compose(context.Background(), render.Over(models.Composition{Bars: bars}, timing.Span(0, fourFour.Bars(bars))), seed)
	require.NoError(t, err)
	return tree
}

func notesOf(tree *render.Tree, part string) []render.Segment {
	var out []render.Segment
	for _, seg := range tree.Segments(models.KindNote) {
		if n, _ := render.As[models.PlacedNote](seg); n.Part.Name == part {
			out = append(out, seg)
		}
	}
	return out
}

func TestLineRendersParts(t *testing.T) {
	tree := composeLines(t, 11, true)
	require.Empty(t, tree.Unresolved())

	for _, part := range []struct {
		name      string
		low, high int
	}{{"Melody", 48, 78}, {"Bass", 30, 48}} {
		notes := notesOf(tree, part.name)
		require.NotEmpty(t, notes, part.name)
		for i, seg := range notes {
			n, _ := render.As[models.PlacedNote](seg)
			assert.GreaterOrEqual(t, n.Pitch, part.low)
			assert.LessOrEqual(t, n.Pitch, part.high)
			assert.True(t, cMajor.Contains(theory.PitchClassOf(n.Pitch)))
			if i > 0 {
				assert.LessOrEqual(t, notes[i-1].Timing.End, seg.Timing.Start, "notes of one line never overlap")
			}
		}
	}

	again := composeLines(t, 11, true)
	assert.Equal(t, tree.Segments(models.KindNote), again.Segments(models.KindNote))
}

func TestLineWithoutChordsIsUnresolved(t *testing.T) {
	tree := composeLines(t, 3, false)
	unresolved := tree.Unresolved()
	require.Len(t, unresolved, 2)
	for _, u := range unresolved {
		assert.Contains(t, []render.Kind{models.KindMelodyPart, models.KindBassPart}, u.Kind)
	}
	assert.Empty(t, tree.Segments(models.KindNote))
}
