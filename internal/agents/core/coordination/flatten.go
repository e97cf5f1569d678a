package coordination

import (
	"sort"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Flatten lowers a composed tree into note and chord events measured in beats. Melodic parts get
// their own channels in instrumentation order; percussion goes to the General MIDI drum channel.
func Flatten(tree *render.Tree, ts timing.TimeSignature) *models.CompositionResult {
	result := &models.CompositionResult{TimeSignature: ts.String()}
	beats := func(ticks int) float64 { return float64(ticks) / float64(ts.Beat()) }

	if segs := tree.Segments(models.KindKey); len(segs) > 0 {
		if key, ok := render.As[models.Key](segs[0]); ok {
			result.Key = key.String()
		}
	}
	if segs := tree.Segments(models.KindTempo); len(segs) > 0 {
		if tempo, ok := render.As[models.Tempo](segs[0]); ok {
			result.Tempo = tempo.BPM
		}
	}

	channels := map[string]int{}
	if segs := tree.Segments(models.KindInstrumentation); len(segs) > 0 {
		inst, _ := render.As[models.Instrumentation](segs[0])
		channels = Channels(inst.Parts)
	}

	for _, seg := range tree.Segments(models.KindNote) {
		n, ok := render.As[models.PlacedNote](seg)
		if !ok {
			continue
		}
		result.Notes = append(result.Notes, models.NoteEvent{
			MidiNoteNumber: n.Pitch,
			Velocity:       n.Velocity,
			StartBeats:     beats(seg.Timing.Start),
			DurationBeats:  beats(seg.Timing.Len()),
			Channel:        channels[n.Part.Name],
			Program:        n.Part.Instrument,
			Part:           n.Part.Name,
		})
	}
	for _, seg := range tree.Segments(models.KindDrumHit) {
		h, ok := render.As[models.DrumHit](seg)
		if !ok {
			continue
		}
		result.Notes = append(result.Notes, models.NoteEvent{
			MidiNoteNumber: h.Hit.MIDI(),
			Velocity:       h.Velocity,
			StartBeats:     beats(seg.Timing.Start),
			DurationBeats:  beats(seg.Timing.Len()),
			Channel:        models.PercussionChannel,
			Program:        h.Part.Instrument,
			Part:           h.Part.Name,
		})
	}
	sort.SliceStable(result.Notes, func(i, j int) bool {
		a, b := result.Notes[i], result.Notes[j]
		if a.StartBeats != b.StartBeats {
			return a.StartBeats < b.StartBeats
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		return a.MidiNoteNumber < b.MidiNoteNumber
	})

	for _, seg := range tree.Segments(models.KindChord) {
		c, ok := render.As[models.Chord](seg)
		if !ok {
			continue
		}
		result.Chords = append(result.Chords, models.ChordEvent{
			ChordSymbol:   c.Symbol(),
			Numeral:       c.Numeral(),
			StartBeats:    beats(seg.Timing.Start),
			DurationBeats: beats(seg.Timing.Len()),
		})
	}

	result.Unresolved = tree.Unresolved()
	return result
}

// Channels assigns zero-based MIDI channels: drums share the percussion channel, other parts
// take the remaining channels in order
func Channels(parts []models.PartRef) map[string]int {
	channels := make(map[string]int, len(parts))
	next := 0
	for _, p := range parts {
		if p.Role == models.RoleDrums {
			channels[p.Name] = models.PercussionChannel
			continue
		}
		if next == models.PercussionChannel {
			next++
		}
		channels[p.Name] = next % 16
		next++
	}
	return channels
}
