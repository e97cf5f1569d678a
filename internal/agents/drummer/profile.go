package drummer

import (
	"context"
	"fmt"
	"log"

	"github.com/Conceptual-Machines/grammar-school-go/gs"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// ProfileGrammar returns the Lark grammar of the percussion profile DSL. A profile overrides the
// hit distribution and the rest shape of the percussion model:
//
//	hit(drum=kick, weight=1); hit(drum=hat, weight=8); rest(power=2, max=0.8)
func ProfileGrammar() string {
	return `
// Percussion profile DSL
// SYNTAX:
//   hit(drum=kick, weight=1)
//   rest(min=0.3, max=0.9, power=1)
// Statements are separated by ";".

// ---------- Start rule ----------
start: statement (";" SP? statement)*

statement: hit_call
         | rest_call

// ---------- Hit weights ----------
hit_call: "hit" "(" hit_params ")"

hit_params: hit_named_params

hit_named_params: hit_named_param ("," SP hit_named_param)*
hit_named_param: "drum" "=" DRUM_NAME
               | "weight" "=" NUMBER

// ---------- Rest shape ----------
rest_call: "rest" "(" rest_params ")"

rest_params: rest_named_params

rest_named_params: rest_named_param ("," SP rest_named_param)*
rest_named_param: "min" "=" NUMBER
                | "max" "=" NUMBER
                | "power" "=" NUMBER

// ---------- Drum names ----------
DRUM_NAME: "hat_pedal" | "pedal_hat" | "closed_hat" | "bass_drum"
         | "kick" | "snare" | "hihat" | "hat"
         | "bd" | "sd" | "hh" | "ph"

// ---------- Terminals ----------
SP: " "+
NUMBER: /-?\d+(\.\d+)?/
`
}

// Profile is a parsed percussion profile
type Profile struct {
	Distribution HitDistribution
	Rest         *RestShape // nil keeps the generator's rest shape
}

// ProfileParser parses percussion profiles using Grammar School
type ProfileParser struct {
	engine  *gs.Engine
	dsl     *ProfileDSL
	profile *Profile
}

// ProfileDSL implements the DSL side-effect methods
type ProfileDSL struct {
	parser *ProfileParser
}

// NewProfileParser creates a new percussion profile parser
func NewProfileParser() (*ProfileParser, error) {
	parser := &ProfileParser{dsl: &ProfileDSL{}}
	parser.dsl.parser = parser

	engine, err := gs.NewEngine(ProfileGrammar(), parser.dsl, gs.NewLarkParser())
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	parser.engine = engine
	return parser, nil
}

// Parse executes profile code and returns the resulting profile
func (p *ProfileParser) Parse(code string) (*Profile, error) {
	if code == "" {
		return nil, fmt.Errorf("empty percussion profile")
	}

	p.profile = &Profile{}
	if err := p.engine.Execute(context.Background(), code); err != nil {
		return nil, fmt.Errorf("failed to execute percussion profile: %w", err)
	}
	if len(p.profile.Distribution.Hits) == 0 {
		return nil, fmt.Errorf("percussion profile declares no hits")
	}
	if err := p.profile.Distribution.Validate(); err != nil {
		return nil, err
	}

	log.Printf("🥁 Percussion profile: %d hit weights", len(p.profile.Distribution.Hits))
	return p.profile, nil
}

// ParseProfile parses code with a fresh parser
func ParseProfile(code string) (*Profile, error) {
	parser, err := NewProfileParser()
	if err != nil {
		return nil, err
	}
	return parser.Parse(code)
}

// Hit handles hit() calls. A drum named twice keeps the last weight.
func (d *ProfileDSL) Hit(args gs.Args) error {
	name := ""
	if v, ok := args["drum"]; ok && v.Kind == gs.ValueString {
		name = v.Str
	}
	if name == "" {
		return fmt.Errorf("hit: missing drum name")
	}
	hit, err := models.ParseHitType(name)
	if err != nil {
		return fmt.Errorf("hit: %w", err)
	}

	weight := 1.0
	if v, ok := args["weight"]; ok && v.Kind == gs.ValueNumber {
		weight = v.Num
	}
	if weight < 0 {
		return fmt.Errorf("hit: negative weight %v for %s", weight, name)
	}

	dist := &d.parser.profile.Distribution
	for i, h := range dist.Hits {
		if h == hit {
			dist.Weights[i] = weight
			return nil
		}
	}
	dist.Hits = append(dist.Hits, hit)
	dist.Weights = append(dist.Weights, weight)
	return nil
}

// Rest handles rest() calls; omitted parameters keep their defaults
func (d *ProfileDSL) Rest(args gs.Args) error {
	shape := DefaultRestShape()
	if v, ok := args["min"]; ok && v.Kind == gs.ValueNumber {
		shape.Min = v.Num
	}
	if v, ok := args["max"]; ok && v.Kind == gs.ValueNumber {
		shape.Max = v.Num
	}
	if v, ok := args["power"]; ok && v.Kind == gs.ValueNumber {
		shape.Power = v.Num
	}
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("rest: %w", err)
	}
	d.parser.profile.Rest = &shape
	return nil
}
