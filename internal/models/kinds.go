package models

import "github.com/Conceptual-Machines/magda-composer/internal/render"

// Element kinds. Every renderer in the composer is registered against one of these.
const (
	KindComposition            render.Kind = "composition"
	KindKey                    render.Kind = "key"
	KindTimeSignature          render.Kind = "time_signature"
	KindTempo                  render.Kind = "tempo"
	KindInstrumentation        render.Kind = "instrumentation"
	KindSections               render.Kind = "sections"
	KindSection                render.Kind = "section"
	KindPhraseDivider          render.Kind = "phrase_divider"
	KindRandomChordProgression render.Kind = "random_chord_progression"
	KindChordProgression       render.Kind = "chord_progression"
	KindChordMarkers           render.Kind = "chord_markers"
	KindChord                  render.Kind = "chord"
	KindBassPart               render.Kind = "bass_part"
	KindMelodyPart             render.Kind = "melody_part"
	KindDrumPart               render.Kind = "drum_part"
	KindNote                   render.Kind = "note"
	KindDrumHit                render.Kind = "drum_hit"
	KindActivationWindow       render.Kind = "activation_window"
)

// Kinds lists every element kind
var Kinds = []render.Kind{
	KindComposition,
	KindKey,
	KindTimeSignature,
	KindTempo,
	KindInstrumentation,
	KindSections,
	KindSection,
	KindPhraseDivider,
	KindRandomChordProgression,
	KindChordProgression,
	KindChordMarkers,
	KindChord,
	KindBassPart,
	KindMelodyPart,
	KindDrumPart,
	KindNote,
	KindDrumHit,
	KindActivationWindow,
}
