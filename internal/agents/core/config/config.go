package config

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// Config contains the settings of the composition models
type Config struct {
	MaxPasses         int    // fixed-point pass bound of the render engine
	TicksPerBeat      int    // tick resolution of the time grid
	Bars              int    // composition length when a request names none
	MinChords         int    // shortest chord progression
	MaxChords         int    // longest chord progression
	PercussionProfile string // optional percussion profile DSL
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		MaxPasses:    render.DefaultMaxPasses,
		TicksPerBeat: timing.DefaultTicksPerBeat,
		Bars:         32,
		MinChords:    2,
		MaxChords:    6,
	}
}

// Validate rejects settings the models cannot work with
func (c Config) Validate() error {
	if c.MaxPasses < 1 {
		return fmt.Errorf("max passes must be positive, got %d", c.MaxPasses)
	}
	if err := (timing.TimeSignature{BeatsPerBar: 4, BeatLength: c.TicksPerBeat}).Validate(); err != nil {
		return fmt.Errorf("ticks per beat: %w", err)
	}
	if c.Bars < 1 {
		return fmt.Errorf("composition bars must be positive, got %d", c.Bars)
	}
	if c.MinChords < 1 || c.MinChords > c.MaxChords {
		return fmt.Errorf("chord progression bounds %d..%d are invalid", c.MinChords, c.MaxChords)
	}
	return nil
}
