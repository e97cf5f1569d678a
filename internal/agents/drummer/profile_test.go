package drummer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

func TestProfileParser_ParseHits(t *testing.T) {
	tests := []struct {
		name            string
		dsl             string
		expectedHits    []models.HitType
		expectedWeights []float64
	}{
		{
			name:            "single kick",
			dsl:             `hit(drum=kick, weight=3)`,
			expectedHits:    []models.HitType{models.AcousticBassDrum},
			expectedWeights: []float64{3},
		},
		{
			name:            "default weight",
			dsl:             `hit(drum=snare)`,
			expectedHits:    []models.HitType{models.AcousticSnare},
			expectedWeights: []float64{1},
		},
		{
			name:            "full kit",
			dsl:             `hit(drum=kick, weight=1); hit(drum=snare, weight=1); hit(drum=hat, weight=8); hit(drum=hat_pedal, weight=4)`,
			expectedHits:    DefaultHitDistribution().Hits,
			expectedWeights: DefaultHitDistribution().Weights,
		},
		{
			name:            "aliases",
			dsl:             `hit(drum=bd, weight=2); hit(drum=hh, weight=6)`,
			expectedHits:    []models.HitType{models.AcousticBassDrum, models.ClosedHiHat},
			expectedWeights: []float64{2, 6},
		},
		{
			name:            "repeated drum keeps last weight",
			dsl:             `hit(drum=hat, weight=8); hit(drum=hat, weight=2)`,
			expectedHits:    []models.HitType{models.ClosedHiHat},
			expectedWeights: []float64{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create new parser for each test to reset state
			p, err := NewProfileParser()
			require.NoError(t, err)

			profile, err := p.Parse(tt.dsl)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedHits, profile.Distribution.Hits)
			assert.Equal(t, tt.expectedWeights, profile.Distribution.Weights)
			assert.Nil(t, profile.Rest)
		})
	}
}

func TestProfileParser_Rest(t *testing.T) {
	profile, err := ParseProfile(`hit(drum=hat, weight=1); rest(max=0.5, power=2)`)
	require.NoError(t, err)
	require.NotNil(t, profile.Rest)
	assert.Equal(t, RestShape{Min: 0.3, Max: 0.5, Power: 2}, *profile.Rest)
}

func TestProfileParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		dsl  string
	}{
		{name: "empty", dsl: ""},
		{name: "rest only", dsl: `rest(power=2)`},
		{name: "all weights zero", dsl: `hit(drum=kick, weight=0)`},
		{name: "rest range inverted", dsl: `hit(drum=kick, weight=1); rest(min=0.8, max=0.2)`},
		{name: "unknown call", dsl: `pattern(drum=kick, grid="x---")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile(tt.dsl)
			assert.Error(t, err)
		})
	}
}

func TestWithProfile(t *testing.T) {
	profile, err := ParseProfile(`hit(drum=snare, weight=1); rest(min=0, max=0)`)
	require.NoError(t, err)

	g := NewGenerator().WithProfile(profile)
	require.NoError(t, g.Validate())
	assert.Equal(t, []models.HitType{models.AcousticSnare}, g.Distribution.Hits)
	assert.Equal(t, 0.0, g.Rest.Max)

	unchanged := NewGenerator().WithProfile(nil)
	assert.Equal(t, DefaultHitDistribution(), unchanged.Distribution)
}
