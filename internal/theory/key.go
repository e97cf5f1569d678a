package theory

import (
	"fmt"
	"strings"
)

// Scale is a seven-note step pattern
type Scale int

const (
	Major Scale = iota
	NaturalMinor
	HarmonicMinor
	MelodicMinor
)

// Scales lists every supported scale
var Scales = []Scale{Major, NaturalMinor, HarmonicMinor, MelodicMinor}

var scaleSteps = map[Scale][]int{
	Major:         {2, 2, 1, 2, 2, 2, 1},
	NaturalMinor:  {2, 1, 2, 2, 1, 2, 2},
	HarmonicMinor: {2, 1, 2, 2, 1, 3, 1},
	MelodicMinor:  {2, 1, 2, 2, 2, 2, 1},
}

var scaleNames = map[Scale]string{
	Major:         "major",
	NaturalMinor:  "minor",
	HarmonicMinor: "harmonic minor",
	MelodicMinor:  "melodic minor",
}

func (s Scale) String() string {
	return scaleNames[s]
}

// Mode rotates a scale's step pattern
type Mode int

const (
	Ionian Mode = iota
	Dorian
	Phrygian
	Lydian
	Mixolydian
	Aeolian
	Locrian
)

// Modes lists every supported mode
var Modes = []Mode{Ionian, Dorian, Phrygian, Lydian, Mixolydian, Aeolian, Locrian}

var modeNames = [...]string{"ionian", "dorian", "phrygian", "lydian", "mixolydian", "aeolian", "locrian"}

func (m Mode) String() string {
	return modeNames[int(m)%len(modeNames)]
}

// Key is the harmonic field of a composition or section. Keys are values and never mutated.
type Key struct {
	Tonic PitchClass `json:"tonic"`
	Scale Scale      `json:"scale"`
	Mode  Mode       `json:"mode"`
}

// NewKey builds a key, rejecting unknown scales and modes
func NewKey(tonic PitchClass, scale Scale, mode Mode) (Key, error) {
	if _, ok := scaleSteps[scale]; !ok {
		return Key{}, fmt.Errorf("unknown scale: %d", scale)
	}
	if mode < Ionian || mode > Locrian {
		return Key{}, fmt.Errorf("unknown mode: %d", mode)
	}
	return Key{Tonic: PitchClass(mod12(int(tonic))), Scale: scale, Mode: mode}, nil
}

// Root is the focal pitch class of the key
func (k Key) Root() PitchClass {
	return k.Tonic
}

// Steps returns the scale step pattern rotated by the mode
func (k Key) Steps() []int {
	base := scaleSteps[k.Scale]
	steps := make([]int, len(base))
	for i := range base {
		steps[i] = base[(i+int(k.Mode))%len(base)]
	}
	return steps
}

// PitchClasses returns the key's pitch classes in degree order starting at the tonic
func (k Key) PitchClasses() []PitchClass {
	steps := k.Steps()
	pcs := make([]PitchClass, len(steps))
	offset := 0
	for i, step := range steps {
		pcs[i] = PitchClass(mod12(int(k.Tonic) + offset))
		offset += step
	}
	return pcs
}

// Degree returns the pitch class of a zero-based scale degree; degrees wrap around
func (k Key) Degree(degree int) PitchClass {
	pcs := k.PitchClasses()
	n := len(pcs)
	return pcs[((degree%n)+n)%n]
}

// Contains reports whether pc belongs to the key
func (k Key) Contains(pc PitchClass) bool {
	for _, p := range k.PitchClasses() {
		if p == pc {
			return true
		}
	}
	return false
}

// Chord builds the chord of the given shape on a scale degree
func (k Key) Chord(degree int, shape ChordShape) Chord {
	tones := make([]PitchClass, len(shape))
	for i, step := range shape {
		tones[i] = k.Degree(degree + step)
	}
	return Chord{Degree: degree, Root: tones[0], Tones: tones}
}

// Chords returns the chord of the given shape on every scale degree
func (k Key) Chords(shape ChordShape) []Chord {
	n := len(k.Steps())
	chords := make([]Chord, 0, n)
	for degree := 0; degree < n; degree++ {
		chords = append(chords, k.Chord(degree, shape))
	}
	return chords
}

// Notes returns the MIDI notes of the key within [low, high], ascending
func (k Key) Notes(low, high int) []int {
	if low < 0 {
		low = 0
	}
	if high > 127 {
		high = 127
	}
	var notes []int
	for note := low; note <= high; note++ {
		if k.Contains(PitchClassOf(note)) {
			notes = append(notes, note)
		}
	}
	return notes
}

func (k Key) String() string {
	if k.Mode == Ionian {
		return fmt.Sprintf("%s %s", k.Tonic, k.Scale)
	}
	return fmt.Sprintf("%s %s (%s)", k.Tonic, k.Scale, k.Mode)
}

// ParseKey parses "<tonic> <scale>" or "<tonic> <mode>", e.g. "C major", "A minor",
// "E harmonic minor" or "D dorian". Modes rotate the major scale.
func ParseKey(s string) (Key, error) {
	tonicName, rest, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Key{}, fmt.Errorf("key %q needs a tonic and a scale or mode", s)
	}
	tonic, err := ParsePitchClass(tonicName)
	if err != nil {
		return Key{}, err
	}
	rest = strings.ToLower(strings.TrimSpace(rest))
	for _, scale := range Scales {
		if scaleNames[scale] == rest {
			return NewKey(tonic, scale, Ionian)
		}
	}
	for _, mode := range Modes {
		if modeNames[mode] == rest {
			return NewKey(tonic, Major, mode)
		}
	}
	return Key{}, fmt.Errorf("unknown scale or mode %q", rest)
}
