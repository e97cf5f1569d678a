package timing

import "fmt"

// DefaultTicksPerBeat is the tick resolution used when none is configured
const DefaultTicksPerBeat = 480

// TimeSignature describes the beat grid in ticks
type TimeSignature struct {
	BeatsPerBar int `json:"beats_per_bar"`
	BeatLength  int `json:"beat_length"`
}

// Beat returns the length of one beat
func (ts TimeSignature) Beat() int { return ts.BeatLength }

// HalfBeat returns the length of half a beat
func (ts TimeSignature) HalfBeat() int { return ts.BeatLength / 2 }

// QuarterBeat returns the length of a quarter beat
func (ts TimeSignature) QuarterBeat() int { return ts.BeatLength / 4 }

// Triplet returns the length of a beat triplet
func (ts TimeSignature) Triplet() int { return ts.BeatLength / 3 }

// Beats returns the length of n beats
func (ts TimeSignature) Beats(n int) int { return ts.BeatLength * n }

// Bar returns the length of one bar
func (ts TimeSignature) Bar() int { return ts.BeatLength * ts.BeatsPerBar }

// Bars returns the length of n bars
func (ts TimeSignature) Bars(n int) int { return ts.Bar() * n }

// Validate rejects grids that cannot be subdivided
func (ts TimeSignature) Validate() error {
	if ts.BeatsPerBar < 1 {
		return fmt.Errorf("beats per bar must be positive, got %d", ts.BeatsPerBar)
	}
	if ts.BeatLength < 12 || ts.BeatLength%12 != 0 {
		return fmt.Errorf("beat length must be a positive multiple of 12 ticks, got %d", ts.BeatLength)
	}
	return nil
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/4", ts.BeatsPerBar)
}

// Tempo is expressed in beats per minute
type Tempo struct {
	BPM int `json:"bpm"`
}
