package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Conceptual-Machines/magda-composer/internal/render"
)

// CompositionRequest wraps the caller's composition parameters
type CompositionRequest struct {
	Seed *uint64 `json:"seed,omitempty"` // Random when omitted
	Bars int     `json:"bars,omitempty"` // Falls back to COMPOSITION_BARS
	Key  string  `json:"key,omitempty"`  // e.g. "C major" or "D dorian"; random when omitted
}

// CompositionResult is the flattened output of one composition
type CompositionResult struct {
	ID            uuid.UUID           `json:"id"`
	Seed          uint64              `json:"seed"`
	Bars          int                 `json:"bars"`
	Key           string              `json:"key"`
	TimeSignature string              `json:"timeSignature"`
	Tempo         int                 `json:"tempo"`
	Notes         []NoteEvent         `json:"notes"`
	Chords        []ChordEvent        `json:"chords"`
	Unresolved    []render.Unresolved `json:"unresolved,omitempty"`
}

// HitCount counts the notes on the percussion channel
func (r *CompositionResult) HitCount() int {
	count := 0
	for _, n := range r.Notes {
		if n.Channel == PercussionChannel {
			count++
		}
	}
	return count
}

// Record summarises the result for storage
func (r *CompositionResult) Record() *CompositionRecord {
	hits := r.HitCount()
	return &CompositionRecord{
		ID:              r.ID,
		Seed:            int64(r.Seed),
		Bars:            r.Bars,
		Key:             r.Key,
		TimeSignature:   r.TimeSignature,
		Tempo:           r.Tempo,
		NoteCount:       len(r.Notes) - hits,
		HitCount:        hits,
		ChordCount:      len(r.Chords),
		UnresolvedCount: len(r.Unresolved),
	}
}

// CompositionRecord is the stored summary of a composition
type CompositionRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Owner           string    `gorm:"index" json:"owner"`         // gateway user id, "anonymous" without auth
	Seed            int64     `gorm:"not null;index" json:"seed"` // uint64 seed stored bit-for-bit
	Bars            int       `gorm:"not null" json:"bars"`
	Key             string    `json:"key"`
	TimeSignature   string    `json:"time_signature"`
	Tempo           int       `json:"tempo"`
	NoteCount       int       `json:"note_count"`
	HitCount        int       `json:"hit_count"`
	ChordCount      int       `json:"chord_count"`
	UnresolvedCount int       `json:"unresolved_count"`
}

// SeedValue returns the seed as composed
func (r *CompositionRecord) SeedValue() uint64 {
	return uint64(r.Seed)
}
