package theory

import "strings"

// ChordShape lists scale-step offsets stacked on a chord root
type ChordShape []int

var (
	// Triad stacks root, third and fifth
	Triad = ChordShape{0, 2, 4}
	// Seventh adds the seventh to a triad
	Seventh = ChordShape{0, 2, 4, 6}
)

// Chord is a scale-degree chord of a Key. Build chords with Key.Chord or Key.Chords.
type Chord struct {
	Degree int          `json:"degree"`
	Root   PitchClass   `json:"root"`
	Tones  []PitchClass `json:"tones"`
}

// PitchClasses returns the chord tones, root first
func (c Chord) PitchClasses() []PitchClass {
	return c.Tones
}

// Contains reports whether pc is a chord tone
func (c Chord) Contains(pc PitchClass) bool {
	for _, t := range c.Tones {
		if t == pc {
			return true
		}
	}
	return false
}

// Fifth returns the chord's third stacked tone, or the root for dyads
func (c Chord) Fifth() PitchClass {
	if len(c.Tones) < 3 {
		return c.Root
	}
	return c.Tones[2]
}

// Equal compares degree and tones
func (c Chord) Equal(other Chord) bool {
	if c.Degree != other.Degree || c.Root != other.Root || len(c.Tones) != len(other.Tones) {
		return false
	}
	for i := range c.Tones {
		if c.Tones[i] != other.Tones[i] {
			return false
		}
	}
	return true
}

// Quality classifies a triad by its third and fifth
func (c Chord) Quality() string {
	if len(c.Tones) < 3 {
		return "major"
	}
	third := c.Root.IntervalTo(c.Tones[1])
	fifth := c.Root.IntervalTo(c.Tones[2])
	switch {
	case third == Maj3 && fifth == P5:
		return "major"
	case third == Min3 && fifth == P5:
		return "minor"
	case third == Min3 && fifth == TT:
		return "diminished"
	case third == Maj3 && fifth == Min6:
		return "augmented"
	}
	return "other"
}

// Symbol names the chord, e.g. "C", "Am", "Bdim", "Eaug"
func (c Chord) Symbol() string {
	suffix := map[string]string{
		"major":      "",
		"minor":      "m",
		"diminished": "dim",
		"augmented":  "aug",
		"other":      "?",
	}[c.Quality()]
	return c.Root.String() + suffix
}

// Numeral returns the roman numeral of the chord's degree, lower case for minor and diminished
func (c Chord) Numeral() string {
	numerals := []string{"I", "II", "III", "IV", "V", "VI", "VII"}
	numeral := numerals[((c.Degree%7)+7)%7]
	switch c.Quality() {
	case "minor":
		return strings.ToLower(numeral)
	case "diminished":
		return strings.ToLower(numeral) + "°"
	case "augmented":
		return numeral + "+"
	}
	return numeral
}

// ToMIDI voices the chord in close position with the root at the given octave (C4 = 60).
// Tones that would fall outside the MIDI range are skipped.
func (c Chord) ToMIDI(octave int) []int {
	rootMIDI := (octave+1)*12 + int(c.Root)
	notes := make([]int, 0, len(c.Tones))
	for _, t := range c.Tones {
		note := rootMIDI + int(c.Root.IntervalTo(t))
		if note < 0 || note > 127 {
			continue
		}
		notes = append(notes, note)
	}
	return notes
}
