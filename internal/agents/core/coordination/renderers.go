package coordination

import (
	"fmt"
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/agents/arranger"
	"github.com/Conceptual-Machines/magda-composer/internal/agents/core/config"
	"github.com/Conceptual-Machines/magda-composer/internal/agents/drummer"
	"github.com/Conceptual-Machines/magda-composer/internal/agents/harmony"
	"github.com/Conceptual-Machines/magda-composer/internal/agents/melody"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/random"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// General MIDI program pools
var (
	MelodicPrograms = programRange([2]int{0, 31}, [2]int{40, 103})
	BassPrograms    = []int{16, 17, 18, 19, 20, 21, 32, 33, 34, 35, 38, 39, 80, 81, 82, 83, 84, 85, 87, 88, 90, 91, 94}
	DrumKits        = programRange([2]int{0, 19}, [2]int{24, 30}, [2]int{32, 36}, [2]int{40, 42})
)

func programRange(spans ...[2]int) []int {
	var out []int
	for _, s := range spans {
		for p := s[0]; p <= s[1]; p++ {
			out = append(out, p)
		}
	}
	return out
}

// Renderers builds every model from cfg and returns their renderers in registration order
func Renderers(cfg config.Config) ([]render.Renderer, error) {
	harmonyGen := harmony.NewGenerator()
	harmonyGen.MinChords = cfg.MinChords
	harmonyGen.MaxChords = cfg.MaxChords
	if err := harmonyGen.Validate(); err != nil {
		return nil, fmt.Errorf("harmony: %w", err)
	}

	arr := arranger.NewArranger()
	if err := arr.Validate(); err != nil {
		return nil, fmt.Errorf("arranger: %w", err)
	}

	line := melody.NewLine()
	if err := line.Validate(); err != nil {
		return nil, fmt.Errorf("melody: %w", err)
	}

	drums := drummer.NewGenerator()
	if cfg.PercussionProfile != "" {
		profile, err := drummer.ParseProfile(cfg.PercussionProfile)
		if err != nil {
			return nil, fmt.Errorf("percussion profile: %w", err)
		}
		drums.WithProfile(profile)
	}
	if err := drums.Validate(); err != nil {
		return nil, fmt.Errorf("drummer: %w", err)
	}

	rs := []render.Renderer{render.Adhoc(models.KindComposition, renderComposition)}
	rs = append(rs, arr.Renderers()...)
	rs = append(rs, harmonyGen.Renderers()...)
	rs = append(rs, line.Renderers()...)
	rs = append(rs, drums.Renderers()...)
	return rs, nil
}

// NewEngine returns a render engine with every composer renderer registered
func NewEngine(cfg config.Config) (*render.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rs, err := Renderers(cfg)
	if err != nil {
		return nil, err
	}
	return render.NewEngine(render.WithMaxPasses(cfg.MaxPasses)).Register(rs...), nil
}

// DrawTimeSignature picks the time signature of a composition from its seed
func DrawTimeSignature(seed uint64, ticksPerBeat int) timing.TimeSignature {
	rng := random.New(random.Derive(seed, "time_signature"))
	return timing.TimeSignature{BeatsPerBar: random.Range(rng, 2, 7), BeatLength: ticksPerBeat}
}

// RandomKey draws a tonic, scale and mode
func RandomKey(rng *rand.Rand) theory.Key {
	return theory.Key{
		Tonic: theory.PitchClass(rng.IntN(12)),
		Scale: theory.Scales[rng.IntN(len(theory.Scales))],
		Mode:  theory.Modes[rng.IntN(len(theory.Modes))],
	}
}

// RandomInstrumentation draws a drum kit, a bass, a lead and two accompanying instruments
// distinct from the lead
func RandomInstrumentation(rng *rand.Rand) models.Instrumentation {
	lead := MelodicPrograms[rng.IntN(len(MelodicPrograms))]
	parts := []models.PartRef{
		{Name: "Drums", Group: "percussion", Instrument: DrumKits[rng.IntN(len(DrumKits))], Role: models.RoleDrums},
		{Name: "Bass", Group: "harmony", Instrument: BassPrograms[rng.IntN(len(BassPrograms))], Role: models.RoleBass},
		{Name: "Melody", Group: "harmony", Instrument: lead, Role: models.RolePrimary},
	}
	for i := 1; i <= 2; i++ {
		program := lead
		for program == lead {
			program = MelodicPrograms[rng.IntN(len(MelodicPrograms))]
		}
		parts = append(parts, models.PartRef{
			Name:       fmt.Sprintf("Extra %d", i),
			Group:      "harmony",
			Instrument: program,
			Role:       models.RoleSecondary,
		})
	}
	return models.Instrumentation{Parts: parts}
}

// renderComposition lays the global context over the whole piece and hands it to Sections
func renderComposition(seg render.Segment, ctx *render.Context) ([]render.Segment, error) {
	comp, ok := render.As[models.Composition](seg)
	if !ok {
		return nil, fmt.Errorf("composition segment holds %T", seg.Element)
	}
	if err := comp.Signature.Validate(); err != nil {
		return nil, fmt.Errorf("composition time signature: %w", err)
	}

	key := RandomKey(ctx.RngWithSeed("key"))
	if comp.Key != nil {
		key = *comp.Key
	}
	tempo := timing.Tempo{BPM: random.Range(ctx.RngWithSeed("tempo"), 100, 160)}

	return []render.Segment{
		render.Over(models.Key{Key: key}, seg.Timing),
		render.Over(models.TimeSignature{TimeSignature: comp.Signature}, seg.Timing),
		render.Over(models.Tempo{Tempo: tempo}, seg.Timing),
		render.Over(RandomInstrumentation(ctx.RngWithSeed("instrumentation")), seg.Timing),
		render.Over(models.Sections{}, seg.Timing),
	}, nil
}
