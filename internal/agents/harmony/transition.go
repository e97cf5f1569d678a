package harmony

import (
	"math"

	"github.com/Conceptual-Machines/magda-composer/internal/theory"
)

// presence approximates how often each simple interval occurs in the harmonic series
var presence = [12]float64{
	theory.P1:   2.0,
	theory.Min2: 0.059375,
	theory.Maj2: 0.18,
	theory.Min3: 0.06125,
	theory.Maj3: 0.37625,
	theory.P4:   0.044375,
	theory.TT:   0.140625,
	theory.P5:   1.0,
	theory.Min6: 0.15625,
	theory.Maj6: 0.05875,
	theory.Min7: 0.345625,
	theory.Maj7: 0.199375,
}

// HarmonicPresence returns the presence of an interval normalized to [0, 1] and square-rooted
// for a flatter curve
func HarmonicPresence(i theory.Interval) float64 {
	return math.Sqrt(presence[i.Simple()] / 2)
}

// harmonyFrom scores how well chord's tones sit against a focal pitch class, weighting each tone
// by its presence above the chord root
func harmonyFrom(chord theory.Chord, focal theory.PitchClass) float64 {
	tones := chord.PitchClasses()
	if len(tones) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range tones {
		up := HarmonicPresence(focal.IntervalTo(p))
		down := HarmonicPresence(focal.IntervalFrom(p))
		sum += HarmonicPresence(chord.Root.IntervalTo(p)) * math.Min(up, down)
	}
	return sum / float64(len(tones))
}

// voiceLeadingSteps sums, over the candidate's tones, the semitone distance to the nearest tone of
// the current chord
func voiceLeadingSteps(current, candidate theory.Chord) int {
	steps := 0
	for _, tp := range candidate.PitchClasses() {
		nearest := -1
		for _, cp := range current.PitchClasses() {
			if d := tp.Distance(cp); nearest < 0 || d < nearest {
				nearest = d
			}
		}
		if nearest > 0 {
			steps += nearest
		}
	}
	return steps
}

// TransitionWeight scores moving from current to candidate within key. Weights are always
// positive for chords of the key; higher is a smoother, more consonant move.
func TransitionWeight(key theory.Key, current, candidate theory.Chord) float64 {
	base := 1.0
	if current.Root == candidate.Root {
		base = 0.1
	}

	steps := voiceLeadingSteps(current, candidate)
	keyHarm := harmonyFrom(candidate, key.Root())
	fromHarm := harmonyFrom(candidate, current.Root)
	ownHarm := harmonyFrom(candidate, candidate.Root)

	return base * math.Pow(0.6, float64(steps)) * ownHarm * (0.5*keyHarm + 0.5*fromHarm)
}
