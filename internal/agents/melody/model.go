// Package melody picks pitches for melodic and bass lines. Each candidate pitch collects integer
// bumps from a handful of heuristics and is drawn with weight BumpFactor^bumps.
package melody

import (
	"math"
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/random"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// UpcomingChord is the next chord change after a slot
type UpcomingChord struct {
	Chord theory.Chord
	Start int
}

// Slot is one sounding subdivision of a line waiting for a pitch
type Slot struct {
	Timing        timing.Interval
	Phrase        timing.Interval // the phrase divider the slot starts in
	Previous      *int            // pitch of the previous note of the line
	Chord         *theory.Chord
	PreviousChord *theory.Chord
	Next          *UpcomingChord
}

// Sibling is a note another part already placed near the slot
type Sibling struct {
	Pitch  int
	Timing timing.Interval
	Part   models.PartRef
}

// Env is the surrounding context shared by every slot of a line
type Env struct {
	Key      *theory.Key
	TS       *timing.TimeSignature
	Part     models.PartRef
	Siblings []Sibling
}

// Candidate is one weighed pitch
type Candidate struct {
	Pitch  int
	Bumps  int
	Weight float64
}

// Model is a Profile bound to one line: the contour multiplier is drawn once per line
type Model struct {
	Profile    Profile
	Multiplier int
}

// NewModel draws the line's contour multiplier from rng
func NewModel(p Profile, rng *rand.Rand) *Model {
	return &Model{Profile: p, Multiplier: random.Range(rng, 1, p.MaxHarmonic)}
}

// Weigh scores every in-key pitch of the profile's band for slot
func (m *Model) Weigh(slot Slot, env Env) ([]Candidate, error) {
	if env.Key == nil {
		return nil, render.MissingContext("melody needs a key")
	}
	if env.TS == nil {
		return nil, render.MissingContext("melody needs a time signature")
	}
	if slot.Chord == nil {
		return nil, render.MissingContext("no chord at tick %d", slot.Timing.Start)
	}
	if slot.Phrase.IsEmpty() {
		return nil, render.MissingContext("no phrase divider at tick %d", slot.Timing.Start)
	}

	low, high := m.Profile.Band(*env.Key)
	pitches := env.Key.Notes(low, high)
	candidates := make([]Candidate, 0, len(pitches))
	for _, p := range pitches {
		bumps := m.chordMembership(slot, env, p) +
			m.contour(slot, low, high, p) +
			m.anticipation(slot, env, p) +
			m.residue(slot, p) +
			m.leap(slot, p) +
			m.run(slot, p) +
			m.collision(slot, env, p)
		candidates = append(candidates, Candidate{
			Pitch:  p,
			Bumps:  bumps,
			Weight: math.Pow(m.Profile.BumpFactor, float64(bumps)),
		})
	}
	return candidates, nil
}

// Choose draws a pitch and velocity for slot
func (m *Model) Choose(slot Slot, env Env, rng *rand.Rand) (models.PlacedNote, error) {
	candidates, err := m.Weigh(slot, env)
	if err != nil {
		return models.PlacedNote{}, err
	}
	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		weights[i] = c.Weight
	}
	idx, err := random.Choose(rng, weights)
	if err != nil {
		return models.PlacedNote{}, render.MissingContext("no pitch for %s at tick %d: %v", env.Part.Name, slot.Timing.Start, err)
	}
	return models.PlacedNote{
		Pitch:    candidates[idx].Pitch,
		Velocity: random.Range(rng, m.Profile.Velocity.Min, m.Profile.Velocity.Max),
		Part:     env.Part,
	}, nil
}

// chordMembership rewards chord tones more the longer the slot is. A chord tone another part is
// already sustaining is penalized instead.
func (m *Model) chordMembership(slot Slot, env Env, p int) int {
	r := float64(slot.Timing.Len())/float64(env.TS.HalfBeat()) - 1
	scaled := int(math.Round(m.Profile.ChordToneScale * r * r))

	pc := theory.PitchClassOf(p)
	if !slot.Chord.Contains(pc) {
		return -scaled
	}
	bump := 1 + scaled
	if pc == slot.Chord.Root {
		bump += m.Profile.RootBonus
	}
	for _, s := range env.Siblings {
		if s.Part.Name != env.Part.Name && s.Timing.Start < slot.Timing.Start && s.Timing.Contains(slot.Timing.Start) &&
			theory.PitchClassOf(s.Pitch) == pc {
			return -bump
		}
	}
	return bump
}

// contour pulls pitches toward a cosine wave over the phrase, low at both phrase edges
func (m *Model) contour(slot Slot, low, high, p int) int {
	pos := float64(slot.Timing.Start-slot.Phrase.Start) / float64(slot.Phrase.Len())
	wave := (math.Cos(2*math.Pi*float64(m.Multiplier)*pos+math.Pi) + 1) / 2
	target := float64(low) + wave*float64(high-low)

	d := (float64(p) - target) / m.Profile.ContourScale
	penalty := int(math.Round(d * d))
	if penalty > m.Profile.ContourClamp {
		penalty = m.Profile.ContourClamp
	}
	return -penalty
}

// anticipation favours pitches close to the next chord when a change is imminent
func (m *Model) anticipation(slot Slot, env Env, p int) int {
	if slot.Next == nil || m.Profile.LookaheadBeats <= 0 {
		return 0
	}
	lookahead := m.Profile.LookaheadBeats * float64(env.TS.Beat())
	gap := float64(slot.Next.Start - slot.Timing.End)
	if gap < 0 {
		gap = 0
	}
	if gap > lookahead {
		return 0
	}
	timeProx := 1 - gap/lookahead

	pc := theory.PitchClassOf(p)
	nearest := 12
	for _, t := range slot.Next.Chord.Tones {
		if d := pc.Distance(t); d < nearest {
			nearest = d
		}
	}
	if nearest > m.Profile.AnticipationReach {
		return 0
	}
	pitchProx := 1 - float64(nearest)/float64(m.Profile.AnticipationReach+1)
	return int(math.Round(m.Profile.AnticipationTime*timeProx + m.Profile.AnticipationPitch*pitchProx))
}

// residue penalizes tones of the previous chord that left the current one
func (m *Model) residue(slot Slot, p int) int {
	if slot.PreviousChord == nil || slot.PreviousChord.Equal(*slot.Chord) {
		return 0
	}
	pc := theory.PitchClassOf(p)
	if slot.PreviousChord.Contains(pc) && !slot.Chord.Contains(pc) {
		return -m.Profile.ResiduePenalty
	}
	return 0
}

func (m *Model) leap(slot Slot, p int) int {
	if slot.Previous == nil {
		return 0
	}
	leap := p - *slot.Previous
	if leap < 0 {
		leap = -leap
	}
	if leap == 0 {
		return -m.Profile.RepeatPenalty
	}
	if leap > m.Profile.LeapFree {
		return -m.Profile.LeapPenalty * (leap - m.Profile.LeapFree)
	}
	return 0
}

// run rewards a scale step from the previous note toward the coming chord's root or fifth,
// while the slot lies in the phrase divider that holds or ends at the change
func (m *Model) run(slot Slot, p int) int {
	if m.Profile.RunBonus == 0 || slot.Next == nil || slot.Previous == nil {
		return 0
	}
	if slot.Next.Start < slot.Timing.End || slot.Next.Start > slot.Phrase.End {
		return 0
	}
	step := p - *slot.Previous
	if step < 0 {
		step = -step
	}
	if step == 0 || step > int(theory.Maj2) {
		return 0
	}
	if runDistance(slot.Next.Chord, p) < runDistance(slot.Next.Chord, *slot.Previous) {
		return m.Profile.RunBonus
	}
	return 0
}

func runDistance(c theory.Chord, p int) int {
	pc := theory.PitchClassOf(p)
	return min(pc.Distance(c.Root), pc.Distance(c.Fifth()))
}

// collision penalizes doubling the pitch class of a note that another part of the same group
// starts at nearly the same time
func (m *Model) collision(slot Slot, env Env, p int) int {
	window := int(m.Profile.CollisionWindowBeats * float64(env.TS.Beat()))
	pc := theory.PitchClassOf(p)
	for _, s := range env.Siblings {
		if s.Part.Name == env.Part.Name || s.Part.Group != env.Part.Group {
			continue
		}
		d := s.Timing.Start - slot.Timing.Start
		if d < 0 {
			d = -d
		}
		if d <= window && theory.PitchClassOf(s.Pitch) == pc {
			return -m.Profile.CollisionPenalty
		}
	}
	return 0
}
