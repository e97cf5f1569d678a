package models

import "fmt"

// Role decides which model fills a part
type Role string

const (
	RoleBass      Role = "bass"
	RoleDrums     Role = "drums"
	RolePrimary   Role = "primary"   // lead melody, wider velocity band
	RoleSecondary Role = "secondary" // accompanying melody
)

// PartRef identifies the part a note belongs to. Parts in the same Group avoid colliding.
type PartRef struct {
	Name       string `json:"name"`
	Group      string `json:"group"`
	Instrument int    `json:"instrument"` // General MIDI program
	Role       Role   `json:"role"`
}

// HitType is a General MIDI percussion key
type HitType int

const (
	AcousticBassDrum HitType = 35
	AcousticSnare    HitType = 38
	ClosedHiHat      HitType = 42
	PedalHiHat       HitType = 44
)

var hitNames = map[HitType]string{
	AcousticBassDrum: "kick",
	AcousticSnare:    "snare",
	ClosedHiHat:      "hat",
	PedalHiHat:       "hat_pedal",
}

// MIDI returns the percussion key number
func (h HitType) MIDI() int { return int(h) }

func (h HitType) String() string {
	if name, ok := hitNames[h]; ok {
		return name
	}
	return fmt.Sprintf("drum(%d)", int(h))
}

// ParseHitType resolves a drum name used in percussion profiles
func ParseHitType(name string) (HitType, error) {
	for h, n := range hitNames {
		if n == name {
			return h, nil
		}
	}
	switch name {
	case "bass_drum", "bd":
		return AcousticBassDrum, nil
	case "sd":
		return AcousticSnare, nil
	case "hihat", "closed_hat", "hh":
		return ClosedHiHat, nil
	case "pedal_hat", "ph":
		return PedalHiHat, nil
	}
	return 0, fmt.Errorf("unknown drum: %s", name)
}
