package melody

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// VelocityBand is an inclusive MIDI velocity range
type VelocityBand struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Profile tunes the heuristics for one kind of line. Bumps are integers; a candidate's weight is
// BumpFactor raised to the sum of its bumps.
type Profile struct {
	Name string

	// Pitch band as offsets above the key's tonic pitch class at MIDI octave -1
	Low  int
	High int

	BumpFactor float64

	ChordToneScale float64 // scales the squared slot length into the chord-tone bump
	RootBonus      int     // extra bump for the chord root

	MaxHarmonic  int     // contour multiplier is drawn from [1, MaxHarmonic]
	ContourScale float64 // semitones per unit of contour penalty
	ContourClamp int     // largest contour penalty

	LookaheadBeats    float64 // how far ahead a chord change is anticipated
	AnticipationReach int     // semitones from a next-chord tone that still count as close
	AnticipationTime  float64
	AnticipationPitch float64

	ResiduePenalty int

	RunBonus int // bump for stepping toward the next chord's root or fifth before a change

	LeapFree      int // semitones of leap without penalty
	LeapPenalty   int // per semitone beyond LeapFree
	RepeatPenalty int

	CollisionPenalty     int
	CollisionWindowBeats float64

	TieProbability float64
	Velocity       VelocityBand
	Subdivisions   func(ts timing.TimeSignature) []timing.SubdivisionChoice
}

// Subdivisions favour long notes: two beats, triplets, dotted beats, beats, then half beats
func Subdivisions(ts timing.TimeSignature) []timing.SubdivisionChoice {
	return []timing.SubdivisionChoice{
		{Lengths: []int{ts.Beats(2)}, Weight: 16},
		{Lengths: []int{ts.Triplet(), ts.Triplet(), ts.Triplet()}, Weight: 8},
		{Lengths: []int{ts.Beat() + ts.HalfBeat()}, Weight: 4},
		{Lengths: []int{ts.Beat()}, Weight: 2},
		{Lengths: []int{ts.HalfBeat()}, Weight: 1},
	}
}

// PrimaryProfile is the lead melody: high register, looser velocities
func PrimaryProfile() Profile {
	return Profile{
		Name:                 "primary",
		Low:                  48,
		High:                 78,
		BumpFactor:           1.5,
		ChordToneScale:       0.5,
		MaxHarmonic:          3,
		ContourScale:         4,
		ContourClamp:         8,
		LookaheadBeats:       1,
		AnticipationReach:    2,
		AnticipationTime:     2,
		AnticipationPitch:    2,
		ResiduePenalty:       2,
		LeapFree:             4,
		LeapPenalty:          1,
		RepeatPenalty:        2,
		CollisionPenalty:     3,
		CollisionWindowBeats: 0.25,
		TieProbability:       0.7,
		Velocity:             VelocityBand{Min: 80, Max: 110},
		Subdivisions:         Subdivisions,
	}
}

// SecondaryProfile accompanies the lead a little lower, with tighter velocities
func SecondaryProfile() Profile {
	p := PrimaryProfile()
	p.Name = "secondary"
	p.Low, p.High = 40, 67
	p.Velocity = VelocityBand{Min: 85, Max: 100}
	return p
}

// BassProfile sits two octaves down, leans on chord roots and walks into chord changes
func BassProfile() Profile {
	p := PrimaryProfile()
	p.Name = "bass"
	p.Low, p.High = 30, 48
	p.RootBonus = 2
	p.RunBonus = 2
	p.MaxHarmonic = 2
	p.LeapFree = 7
	return p
}

// ProfileFor picks the profile of a part role
func ProfileFor(role models.Role) (Profile, error) {
	switch role {
	case models.RolePrimary:
		return PrimaryProfile(), nil
	case models.RoleSecondary:
		return SecondaryProfile(), nil
	case models.RoleBass:
		return BassProfile(), nil
	}
	return Profile{}, fmt.Errorf("no melodic profile for role %q", role)
}

// Band returns the MIDI pitch range of the profile in key
func (p Profile) Band(key theory.Key) (int, int) {
	return int(key.Tonic) + p.Low, int(key.Tonic) + p.High
}

// Validate rejects profiles that cannot produce weights or pitches
func (p Profile) Validate() error {
	if p.High < p.Low {
		return fmt.Errorf("%s: pitch band high (%d) below low (%d)", p.Name, p.High, p.Low)
	}
	if p.BumpFactor <= 1 {
		return fmt.Errorf("%s: bump factor must exceed 1, got %v", p.Name, p.BumpFactor)
	}
	if p.MaxHarmonic < 1 || p.ContourScale <= 0 {
		return fmt.Errorf("%s: contour needs a positive multiplier and scale", p.Name)
	}
	if p.TieProbability < 0 || p.TieProbability > 1 {
		return fmt.Errorf("%s: tie probability must lie within [0, 1]", p.Name)
	}
	if p.Velocity.Min < 1 || p.Velocity.Max > 127 || p.Velocity.Min > p.Velocity.Max {
		return fmt.Errorf("%s: invalid velocity band %d..%d", p.Name, p.Velocity.Min, p.Velocity.Max)
	}
	return nil
}
