package models

import (
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Composition is the root element. The time signature is fixed before composing because it
// decides the root's length; a nil Key is drawn by the composition renderer.
type Composition struct {
	Bars      int                  `json:"bars"`
	Signature timing.TimeSignature `json:"signature"`
	Key       *theory.Key          `json:"key,omitempty"`
}

func (Composition) Kind() render.Kind { return KindComposition }

// Key places a harmonic field on the timeline
type Key struct {
	theory.Key
}

func (Key) Kind() render.Kind { return KindKey }

// TimeSignature places a time grid on the timeline
type TimeSignature struct {
	timing.TimeSignature
}

func (TimeSignature) Kind() render.Kind { return KindTimeSignature }

// Tempo places a tempo on the timeline
type Tempo struct {
	timing.Tempo
}

func (Tempo) Kind() render.Kind { return KindTempo }

// Instrumentation lists the parts of a composition
type Instrumentation struct {
	Parts []PartRef `json:"parts"`
}

func (Instrumentation) Kind() render.Kind { return KindInstrumentation }

// PartsWithRole returns the parts of one role in instrumentation order
func (i Instrumentation) PartsWithRole(roles ...Role) []PartRef {
	var parts []PartRef
	for _, p := range i.Parts {
		for _, r := range roles {
			if p.Role == r {
				parts = append(parts, p)
				break
			}
		}
	}
	return parts
}

// Sections splits its interval into sections, recursively until sections are short enough
type Sections struct{}

func (Sections) Kind() render.Kind { return KindSections }

// Section is one structural unit. Sections under equally named Sections segments render identically.
type Section struct{}

func (Section) Kind() render.Kind { return KindSection }

// PhraseDivider marks a phrase boundary inside a section
type PhraseDivider struct{}

func (PhraseDivider) Kind() render.Kind { return KindPhraseDivider }

// RandomChordProgression asks the harmony model for a progression over its interval
type RandomChordProgression struct{}

func (RandomChordProgression) Kind() render.Kind { return KindRandomChordProgression }

// ChordMarkers lays the enclosing progression out as individual chord segments
type ChordMarkers struct{}

func (ChordMarkers) Kind() render.Kind { return KindChordMarkers }

// Chord is one chord placed on the timeline
type Chord struct {
	theory.Chord
}

func (Chord) Kind() render.Kind { return KindChord }

// BassPart is a stretch of timeline the bass line fills
type BassPart struct {
	Part PartRef `json:"part"`
}

func (BassPart) Kind() render.Kind { return KindBassPart }

// MelodyPart is one activation window of a melodic part
type MelodyPart struct {
	Part PartRef `json:"part"`
}

func (MelodyPart) Kind() render.Kind { return KindMelodyPart }

// DrumPart is a stretch of timeline the percussion model fills
type DrumPart struct {
	Part PartRef `json:"part"`
}

func (DrumPart) Kind() render.Kind { return KindDrumPart }

// PlacedNote is a pitched note. Its segment interval is the note's timing.
type PlacedNote struct {
	Pitch    int     `json:"pitch"`
	Velocity int     `json:"velocity"`
	Part     PartRef `json:"part"`
}

func (PlacedNote) Kind() render.Kind { return KindNote }

// DrumHit is one unpitched percussion hit
type DrumHit struct {
	Hit      HitType `json:"hit"`
	Velocity int     `json:"velocity"`
	Part     PartRef `json:"part"`
}

func (DrumHit) Kind() render.Kind { return KindDrumHit }

// ActivationWindow is the set of intervals during which a part plays inside a section. Heights
// holds the arrangement curve's value at the start of each window.
type ActivationWindow struct {
	Part    PartRef           `json:"part"`
	Index   int               `json:"index"`
	Windows []timing.Interval `json:"windows"`
	Heights []float64         `json:"heights"`
}

func (ActivationWindow) Kind() render.Kind { return KindActivationWindow }

// ChordProgression is a cyclic chord sequence with one rhythm subdivision per chord
type ChordProgression struct {
	Chords []theory.Chord `json:"chords"`
	Rhythm timing.Rhythm  `json:"rhythm"`
}

func (ChordProgression) Kind() render.Kind { return KindChordProgression }

// Timeline cycles the chords over the non-rest divisions of the rhythm laid over iv. The
// resulting chord segments are disjoint and ordered.
func (p ChordProgression) Timeline(iv timing.Interval) []render.Segment {
	if len(p.Chords) == 0 {
		return nil
	}
	var segs []render.Segment
	i := 0
	for _, div := range p.Rhythm.IterOver(iv) {
		if div.IsRest {
			continue
		}
		segs = append(segs, render.Over(Chord{Chord: p.Chords[i%len(p.Chords)]}, div.Timing))
		i++
	}
	return segs
}

// Symbols names the chords in order
func (p ChordProgression) Symbols() []string {
	symbols := make([]string, len(p.Chords))
	for i, c := range p.Chords {
		symbols[i] = c.Symbol()
	}
	return symbols
}
