package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPitchClasses(t *testing.T) {
	tests := []struct {
		name     string
		key      Key
		expected []PitchClass
	}{
		{
			name:     "C major",
			key:      Key{Tonic: 0, Scale: Major, Mode: Ionian},
			expected: []PitchClass{0, 2, 4, 5, 7, 9, 11},
		},
		{
			name:     "A minor",
			key:      Key{Tonic: 9, Scale: NaturalMinor, Mode: Ionian},
			expected: []PitchClass{9, 11, 0, 2, 4, 5, 7},
		},
		{
			name:     "D dorian",
			key:      Key{Tonic: 2, Scale: Major, Mode: Dorian},
			expected: []PitchClass{2, 4, 5, 7, 9, 11, 0},
		},
		{
			name:     "A harmonic minor",
			key:      Key{Tonic: 9, Scale: HarmonicMinor, Mode: Ionian},
			expected: []PitchClass{9, 11, 0, 2, 4, 5, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.key.PitchClasses())
		})
	}
}

func TestKeyChords(t *testing.T) {
	key := Key{Tonic: 0, Scale: Major}
	chords := key.Chords(Triad)
	require.Len(t, chords, 7)

	symbols := make([]string, len(chords))
	for i, ch := range chords {
		symbols[i] = ch.Symbol()
		for _, pc := range ch.PitchClasses() {
			assert.True(t, key.Contains(pc), "chord %s has tone %s outside the key", ch.Symbol(), pc)
		}
	}
	assert.Equal(t, []string{"C", "Dm", "Em", "F", "G", "Am", "Bdim"}, symbols)
	assert.Equal(t, "vii°", chords[6].Numeral())
	assert.Equal(t, "IV", chords[3].Numeral())
}

func TestChordToMIDI(t *testing.T) {
	key := Key{Tonic: 0, Scale: Major}

	tests := []struct {
		name          string
		degree        int
		octave        int
		expectedNotes []int
	}{
		{name: "C major", degree: 0, octave: 4, expectedNotes: []int{60, 64, 67}},
		{name: "A minor", degree: 5, octave: 4, expectedNotes: []int{69, 72, 76}},
		{name: "G major octave 3", degree: 4, octave: 3, expectedNotes: []int{55, 59, 62}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedNotes, key.Chord(tt.degree, Triad).ToMIDI(tt.octave))
		})
	}
}

func TestParsePitchClass(t *testing.T) {
	tests := []struct {
		name        string
		expected    PitchClass
		expectError bool
	}{
		{name: "C", expected: 0},
		{name: "e", expected: 4},
		{name: "F#", expected: 6},
		{name: "Bb", expected: 10},
		{name: "Cb", expected: 11},
		{name: "B#", expected: 0},
		{name: "G##", expected: 9},
		{name: "H", expectError: true},
		{name: "", expectError: true},
		{name: "C4", expectError: true},
		{name: "C#m", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := ParsePitchClass(tt.name)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pc)
		})
	}
}

func TestPitchClassIntervals(t *testing.T) {
	c, e := PitchClass(0), PitchClass(4)
	assert.Equal(t, Maj3, c.IntervalTo(e))
	assert.Equal(t, Min6, c.IntervalFrom(e))
	assert.Equal(t, 4, c.Distance(e))
	assert.Equal(t, 1, PitchClass(11).Distance(0))
	assert.Equal(t, Interval(7), Interval(19).Simple())
	assert.Equal(t, "C4", NoteName(60))
}

func TestKeyNotes(t *testing.T) {
	key := Key{Tonic: 0, Scale: Major}
	notes := key.Notes(60, 72)
	assert.Equal(t, []int{60, 62, 64, 65, 67, 69, 71, 72}, notes)
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{in: "C major", want: Key{Tonic: 0, Scale: Major, Mode: Ionian}},
		{in: "A minor", want: Key{Tonic: 9, Scale: NaturalMinor, Mode: Ionian}},
		{in: "F# harmonic minor", want: Key{Tonic: 6, Scale: HarmonicMinor, Mode: Ionian}},
		{in: "D Dorian", want: Key{Tonic: 2, Scale: Major, Mode: Dorian}},
		{in: "C", wantErr: true},
		{in: "H major", wantErr: true},
		{in: "C bebop", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
