// Package catalog compiles CUE catalog files into experiment configs.
//
// A catalog is a named set of experiment entries. Files unify against an
// embedded schema before any field is read, so malformed input fails with
// CUE file/line positions instead of Go zero values. The compiled set is
// content-hashed for provenance: every persisted run records the hash of
// the catalog that produced it.
package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/paradox/internal/circuit"
	"github.com/roach88/paradox/internal/experiment"
)

//go:embed schema.cue
var schemaCUE string

//go:embed default.cue
var defaultCUE string

// DomainCatalog is the domain prefix for catalog provenance hashes.
const DomainCatalog = "paradox/catalog/v1"

// Catalog is a compiled, name-sorted set of experiment configs plus the
// provenance hash recorded on every run they produce.
type Catalog struct {
	Configs []experiment.Config
	Hash    string
}

// Lookup returns the config with the given name.
func (c *Catalog) Lookup(name string) (experiment.Config, bool) {
	for _, cfg := range c.Configs {
		if cfg.Name == name {
			return cfg, true
		}
	}
	return experiment.Config{}, false
}

// Names returns every entry name in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Configs))
	for i, cfg := range c.Configs {
		names[i] = cfg.Name
	}
	return names
}

// Default compiles the embedded default catalog: one entry per family with
// the original experiments' parameters.
func Default() (*Catalog, error) {
	return Parse("default.cue", []byte(defaultCUE))
}

// Load reads and compiles one catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(path, data)
}

// Parse compiles catalog source against the embedded schema. Every entry
// must satisfy the schema (closed structs, so unknown fields are errors)
// and the Go-side config validator.
func Parse(filename string, data []byte) (*Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	file := ctx.CompileBytes(data, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	// The top level admits only "experiment". The schema can't close it
	// (plain files are open structs), so check explicitly.
	topIter, err := file.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for topIter.Next() {
		if name := topIter.Selector().Unquoted(); name != "experiment" {
			return nil, &CompileError{
				Field:   name,
				Message: "unknown top-level field (catalogs define only \"experiment\")",
				Pos:     topIter.Value().Pos(),
			}
		}
	}

	merged := schema.Unify(file)
	if err := merged.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	entries := merged.LookupPath(cue.ParsePath("experiment"))
	if err := entries.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := entries.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var configs []experiment.Config
	for iter.Next() {
		cfg, err := compileEntry(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if len(configs) == 0 {
		return nil, &CompileError{
			Field:   "experiment",
			Message: "catalog defines no experiments",
			Pos:     file.Pos(),
		}
	}

	// Name order, not declaration order: the provenance hash must not
	// depend on how a user arranged their file.
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })

	hash, err := CatalogHash(configs)
	if err != nil {
		return nil, err
	}
	return &Catalog{Configs: configs, Hash: hash}, nil
}

// compileEntry lowers one catalog entry to a Config and runs the config
// validator over the result.
func compileEntry(name string, v cue.Value) (experiment.Config, error) {
	cfg := experiment.Config{Name: name}

	family, err := v.LookupPath(cue.ParsePath("family")).String()
	if err != nil {
		return cfg, formatCUEError(err)
	}
	cfg.Family = experiment.Family(family)

	shots, err := v.LookupPath(cue.ParsePath("shots")).Int64()
	if err != nil {
		return cfg, formatCUEError(err)
	}
	cfg.Shots = int(shots)

	if av := v.LookupPath(cue.ParsePath("angle")); av.Exists() {
		if cfg.Angle, err = av.Float64(); err != nil {
			return cfg, formatCUEError(err)
		}
	}
	if cv := v.LookupPath(cue.ParsePath("checkpoints")); cv.Exists() {
		if cfg.Checkpoints, err = intList(cv); err != nil {
			return cfg, err
		}
	}
	if mv := v.LookupPath(cue.ParsePath("mode")); mv.Exists() {
		if cfg.Mode, err = mv.String(); err != nil {
			return cfg, formatCUEError(err)
		}
	}
	if dv := v.LookupPath(cue.ParsePath("delays")); dv.Exists() {
		if cfg.Delays, err = intList(dv); err != nil {
			return cfg, err
		}
	}
	if sv := v.LookupPath(cue.ParsePath("stages")); sv.Exists() {
		stages, err := sv.Int64()
		if err != nil {
			return cfg, formatCUEError(err)
		}
		cfg.Stages = int(stages)
	}
	if tv := v.LookupPath(cue.ParsePath("thresholds")); tv.Exists() {
		if cfg.Thresholds, err = compileThresholds(tv); err != nil {
			return cfg, err
		}
	}

	// The schema catches shape errors; the validator catches the semantic
	// rules it can't express.
	if violations := experiment.Validate(cfg); len(violations) > 0 {
		first := violations[0]
		return cfg, &CompileError{
			Field:   fmt.Sprintf("experiment.%s.%s", name, first.Field),
			Message: first.Message,
			Pos:     v.Pos(),
		}
	}
	return cfg, nil
}

func compileThresholds(v cue.Value) (experiment.Thresholds, error) {
	var th experiment.Thresholds
	var err error
	if mv := v.LookupPath(cue.ParsePath("margin")); mv.Exists() {
		if th.Margin, err = mv.Float64(); err != nil {
			return th, formatCUEError(err)
		}
	}
	if wv := v.LookupPath(cue.ParsePath("weak_window")); wv.Exists() {
		if th.WeakWindow, err = wv.Float64(); err != nil {
			return th, formatCUEError(err)
		}
	}
	if cv := v.LookupPath(cue.ParsePath("cutoff")); cv.Exists() {
		if th.Cutoff, err = cv.Float64(); err != nil {
			return th, formatCUEError(err)
		}
	}
	return th, nil
}

func intList(v cue.Value) ([]int, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, int(n))
	}
	return out, nil
}

// CatalogHash computes the provenance hash of a compiled config list: the
// SHA-256 of its canonical JSON encoding under DomainCatalog. The caller
// supplies a deterministic order (Parse sorts by name).
func CatalogHash(cfgs []experiment.Config) (string, error) {
	entries := make([]any, len(cfgs))
	for i, cfg := range cfgs {
		entries[i] = canonicalConfig(cfg)
	}
	payload, err := circuit.MarshalCanonical(entries)
	if err != nil {
		return "", fmt.Errorf("catalog hash: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainCatalog))
	h.Write([]byte{0x00})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalConfig lowers a config to the value tree the canonical encoder
// accepts, mirroring the JSON shape: zero-valued optional fields are
// omitted, floats become shortest round-trip decimal strings.
func canonicalConfig(cfg experiment.Config) map[string]any {
	entry := map[string]any{
		"name":   cfg.Name,
		"family": string(cfg.Family),
		"shots":  cfg.Shots,
	}
	if cfg.Angle != 0 {
		entry["angle"] = formatFloat(cfg.Angle)
	}
	if len(cfg.Checkpoints) > 0 {
		entry["checkpoints"] = intAnyList(cfg.Checkpoints)
	}
	if cfg.Mode != "" {
		entry["mode"] = cfg.Mode
	}
	if len(cfg.Delays) > 0 {
		entry["delays"] = intAnyList(cfg.Delays)
	}
	if cfg.Stages != 0 {
		entry["stages"] = cfg.Stages
	}
	th := map[string]any{}
	if cfg.Thresholds.Margin != 0 {
		th["margin"] = formatFloat(cfg.Thresholds.Margin)
	}
	if cfg.Thresholds.WeakWindow != 0 {
		th["weak_window"] = formatFloat(cfg.Thresholds.WeakWindow)
	}
	if cfg.Thresholds.Cutoff != 0 {
		th["cutoff"] = formatFloat(cfg.Thresholds.Cutoff)
	}
	if len(th) > 0 {
		entry["thresholds"] = th
	}
	return entry
}

func intAnyList(ns []int) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// CompileError is a catalog compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
