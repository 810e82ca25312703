// Package runner drives one experiment through the whole pipeline:
// validate the configuration, generate the circuit family, pick and
// submit to a backend, decode results into histograms, evaluate the
// family's statistics, derive theoretical predictions, classify the
// verdict, and, when a store is configured, persist the outcome in one
// transaction.
//
// The runner owns sequencing and error taxonomy only. Every stage's
// semantics live in its own package; a stage failure aborts the run with
// a PipelineError naming the collaborator at fault, never with partial
// results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/paradox/internal/backend"
	"github.com/roach88/paradox/internal/circuit"
	"github.com/roach88/paradox/internal/counts"
	"github.com/roach88/paradox/internal/decode"
	"github.com/roach88/paradox/internal/experiment"
	"github.com/roach88/paradox/internal/generator"
	"github.com/roach88/paradox/internal/predict"
	"github.com/roach88/paradox/internal/stats"
	"github.com/roach88/paradox/internal/store"
	"github.com/roach88/paradox/internal/verdict"
)

// Runner executes experiment configurations against one backend.
//
// The zero value is not usable; construct with New. A Runner is safe for
// concurrent use when its backend and store are: the Runner itself keeps
// no per-run state.
type Runner struct {
	backend     backend.Backend
	store       *store.Store // nil = evaluate only, don't persist
	catalogHash string
	idGen       RunIDGenerator
	now         func() time.Time
	log         *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore makes the runner persist every successful run.
func WithStore(s *store.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithCatalogHash records the catalog provenance hash on every run row.
func WithCatalogHash(hash string) Option {
	return func(r *Runner) { r.catalogHash = hash }
}

// WithIDGenerator replaces the UUIDv7 run ID source. Tests use
// NewFixedGenerator for deterministic IDs.
func WithIDGenerator(g RunIDGenerator) Option {
	return func(r *Runner) { r.idGen = g }
}

// WithNow replaces the wall clock. Tests pin it for stable timestamps.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger replaces the process-default structured logger. The harness
// passes a discard logger so scenario runs stay quiet.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// New creates a Runner submitting to the given backend.
func New(b backend.Backend, opts ...Option) *Runner {
	r := &Runner{
		backend: b,
		idGen:   UUIDv7Generator{},
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome is everything one run produced. Histograms are keyed by
// circuit label; Statistics keep plan order. Persisted reports whether
// the outcome was written to a store.
type Outcome struct {
	RunID       string
	Config      experiment.Config
	Backend     backend.Descriptor
	CreatedAt   time.Time
	Circuits    []circuit.Circuit
	Histograms  map[string]counts.Histogram
	Statistics  []stats.Statistic
	Predictions []predict.Prediction
	Verdict     verdict.Verdict
	Persisted   bool
}

// Run executes one configuration end to end.
//
// A decoding miss on a single circuit is not an error; the empty
// histogram flows into the statistics, which flag the affected values as
// undefined. A backend failure is: no partial outcomes are built from a
// half-answered batch.
func (r *Runner) Run(ctx context.Context, cfg experiment.Config) (*Outcome, error) {
	if errs := experiment.Validate(cfg); len(errs) > 0 {
		return nil, NewConfigError(cfg.Name, "invalid configuration", errs[0])
	}

	circuits, err := generator.Generate(cfg)
	if err != nil {
		return nil, NewConfigError(cfg.Name, "generate circuits", err)
	}

	widest := 0
	for i := range circuits {
		if circuits[i].Qubits > widest {
			widest = circuits[i].Qubits
		}
	}
	desc, err := r.backend.LeastBusy(ctx, widest)
	if err != nil {
		return nil, NewBackendError(cfg.Name, "select backend", err)
	}

	r.log.Info("submitting circuits",
		"experiment", cfg.Name,
		"backend", desc.Name,
		"circuits", len(circuits),
		"shots", cfg.Shots,
	)

	results, err := r.backend.Submit(ctx, circuits, cfg.Shots)
	if err != nil {
		return nil, NewBackendError(cfg.Name, "submit circuits", err)
	}
	if len(results) != len(circuits) {
		return nil, NewBackendError(cfg.Name,
			fmt.Sprintf("backend returned %d results for %d circuits", len(results), len(circuits)), nil)
	}

	hists := make(map[string]counts.Histogram, len(circuits))
	for i := range circuits {
		h := decode.Decode(results[i], circuits[i], cfg.Shots)
		if h.IsEmpty() {
			r.log.Warn("no counts decoded, substituting empty histogram",
				"experiment", cfg.Name,
				"circuit", circuits[i].Label,
			)
		}
		hists[circuits[i].Label] = h
	}

	plans, err := experiment.Plan(cfg)
	if err != nil {
		return nil, NewConfigError(cfg.Name, "derive measurement plan", err)
	}
	statistics, err := stats.Evaluate(plans, hists)
	if err != nil {
		return nil, NewConfigError(cfg.Name, "evaluate statistics", err)
	}
	predictions, err := predict.For(cfg)
	if err != nil {
		return nil, NewConfigError(cfg.Name, "derive predictions", err)
	}
	v, err := verdict.Classify(cfg, statistics, predictions)
	if err != nil {
		return nil, NewConfigError(cfg.Name, "classify", err)
	}

	out := &Outcome{
		RunID:       r.idGen.Generate(),
		Config:      cfg,
		Backend:     desc,
		CreatedAt:   r.now().UTC(),
		Circuits:    circuits,
		Histograms:  hists,
		Statistics:  statistics,
		Predictions: predictions,
		Verdict:     v,
	}

	r.log.Info("run classified",
		"experiment", cfg.Name,
		"run_id", out.RunID,
		"verdict", string(v.Status),
		"deviation", v.Deviation,
	)

	if r.store != nil {
		if err := r.persist(ctx, out); err != nil {
			return nil, NewStoreError(cfg.Name, "persist run", err)
		}
		out.Persisted = true
	}
	return out, nil
}

// RunAll executes every configuration in order, continuing past
// individual failures. It returns the outcomes that succeeded and the
// failures joined into one error. Context cancellation stops the batch.
func (r *Runner) RunAll(ctx context.Context, cfgs []experiment.Config) ([]*Outcome, error) {
	outcomes := make([]*Outcome, 0, len(cfgs))
	var errs []error
	for _, cfg := range cfgs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		out, err := r.Run(ctx, cfg)
		if err != nil {
			r.log.Error("run failed",
				"experiment", cfg.Name,
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, errors.Join(errs...)
}

func (r *Runner) persist(ctx context.Context, out *Outcome) error {
	run := store.Run{
		ID:          out.RunID,
		Name:        out.Config.Name,
		Family:      string(out.Config.Family),
		Backend:     out.Backend.Name,
		Shots:       out.Config.Shots,
		CatalogHash: r.catalogHash,
		CreatedAt:   out.CreatedAt,
		Verdict:     string(out.Verdict.Status),
		Deviation:   out.Verdict.Deviation,
		Reason:      out.Verdict.Reason,
	}
	return r.store.WriteOutcome(ctx, run, out.Circuits, out.Histograms, stats.Flatten(out.Statistics))
}
