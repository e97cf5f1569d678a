package theory

import (
	"fmt"
	"strings"
)

// PitchClass is a pitch modulo the octave (0=C, 1=C#, ..., 11=B)
type PitchClass int

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassOf returns the pitch class of a MIDI note number
func PitchClassOf(note int) PitchClass {
	return PitchClass(mod12(note))
}

// IntervalTo returns the ascending interval from p up to other
func (p PitchClass) IntervalTo(other PitchClass) Interval {
	return Interval(mod12(int(other) - int(p)))
}

// IntervalFrom returns the ascending interval from other up to p
func (p PitchClass) IntervalFrom(other PitchClass) Interval {
	return Interval(mod12(int(p) - int(other)))
}

// Distance returns the smallest number of semitones between two pitch classes (0-6)
func (p PitchClass) Distance(other PitchClass) int {
	up := int(p.IntervalTo(other))
	down := int(p.IntervalFrom(other))
	if up < down {
		return up
	}
	return down
}

func (p PitchClass) String() string {
	return pitchClassNames[mod12(int(p))]
}

// Interval is a distance in semitones
type Interval int

// Simple interval classes within one octave
const (
	P1 Interval = iota
	Min2
	Maj2
	Min3
	Maj3
	P4
	TT
	P5
	Min6
	Maj6
	Min7
	Maj7
)

// Simple reduces a compound interval to its class within one octave
func (i Interval) Simple() Interval {
	return Interval(mod12(int(i)))
}

// NoteName formats a MIDI note number as e.g. "C4" (C4 = 60)
func NoteName(note int) string {
	return fmt.Sprintf("%s%d", PitchClassOf(note), note/12-1)
}

var letterOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParsePitchClass parses a pitch class name: a letter A-G in either case followed by
// any run of sharps (#) or flats (b), e.g. "C", "f#", "Bb" or "C##".
func ParsePitchClass(name string) (PitchClass, error) {
	if name == "" {
		return 0, fmt.Errorf("empty pitch class")
	}
	semitone, ok := letterOffsets[strings.ToUpper(name[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("invalid pitch class %q: unknown letter %q", name, name[:1])
	}
	for _, acc := range name[1:] {
		switch acc {
		case '#':
			semitone++
		case 'b':
			semitone--
		default:
			return 0, fmt.Errorf("invalid pitch class %q: unexpected %q", name, acc)
		}
	}
	return PitchClass(mod12(semitone)), nil
}

func mod12(n int) int {
	return ((n % 12) + 12) % 12
}
