package coordination

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/Conceptual-Machines/magda-composer/internal/agents/core/config"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/render"
	"github.com/Conceptual-Machines/magda-composer/internal/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/timing"
)

// MaxBars bounds the length of a single composition
const MaxBars = 512

// ErrInvalidRequest marks requests rejected before composing
var ErrInvalidRequest = errors.New("invalid composition request")

// Orchestrator runs the composition models over one render engine
type Orchestrator struct {
	engine *render.Engine
	cfg    config.Config
}

// NewOrchestrator validates cfg and builds every model
func NewOrchestrator(cfg config.Config) (*Orchestrator, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build composer: %w", err)
	}
	return &Orchestrator{engine: engine, cfg: cfg}, nil
}

// Config returns the settings the orchestrator was built with
func (o *Orchestrator) Config() config.Config {
	return o.cfg
}

// Resolve fills in the request defaults: a random seed and the configured length
func (o *Orchestrator) Resolve(req models.CompositionRequest) (models.CompositionRequest, error) {
	if req.Seed == nil {
		seed := rand.Uint64()
		req.Seed = &seed
	}
	if req.Bars == 0 {
		req.Bars = o.cfg.Bars
	}
	if req.Bars < 1 || req.Bars > MaxBars {
		return req, fmt.Errorf("%w: bars must lie within 1..%d, got %d", ErrInvalidRequest, MaxBars, req.Bars)
	}
	if req.Key != "" {
		if _, err := theory.ParseKey(req.Key); err != nil {
			return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	return req, nil
}

// Compose renders a whole composition and flattens it into note and chord events
func (o *Orchestrator) Compose(ctx context.Context, req models.CompositionRequest) (*models.CompositionResult, error) {
	req, err := o.Resolve(req)
	if err != nil {
		return nil, err
	}
	seed := *req.Seed

	var key *theory.Key
	if req.Key != "" {
		k, _ := theory.ParseKey(req.Key)
		key = &k
	}

	start := time.Now()
	ts := DrawTimeSignature(seed, o.cfg.TicksPerBeat)
	root := render.Over(models.Composition{Bars: req.Bars, Signature: ts, Key: key}, timing.Span(0, ts.Bars(req.Bars)))

	tree, err := o.engine.Compose(ctx, root, seed)
	if err != nil {
		log.Printf("⏱️ Composition failed in %v", time.Since(start))
		return nil, fmt.Errorf("compose: %w", err)
	}

	result := Flatten(tree, ts)
	result.ID = uuid.New()
	result.Seed = seed
	result.Bars = req.Bars

	log.Printf("⏱️ Composition %s completed in %v: %d nodes, %d notes, %d chords, %d unresolved",
		result.ID, time.Since(start), tree.Len(), len(result.Notes), len(result.Chords), len(result.Unresolved))
	return result, nil
}
