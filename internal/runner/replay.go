package runner

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/paradox/internal/catalog"
	"github.com/roach88/paradox/internal/experiment"
	"github.com/roach88/paradox/internal/predict"
	"github.com/roach88/paradox/internal/stats"
	"github.com/roach88/paradox/internal/store"
	"github.com/roach88/paradox/internal/verdict"
)

// Divergence is one disagreement between a stored run and its replay.
// Stored and Recomputed are rendered for display; Field locates the
// disagreement (e.g. "statistics.S.value", "verdict.status").
type Divergence struct {
	Field      string `json:"field"`
	Stored     string `json:"stored"`
	Recomputed string `json:"recomputed"`
}

// ReplayReport carries a replayed run next to what the store said.
//
// The pipeline from histogram to verdict is deterministic integer and
// float arithmetic, so a clean replay matches the stored rows bit for
// bit. Any divergence means the code changed since the run was written,
// the catalog changed under the run's name, or the rows were edited.
type ReplayReport struct {
	Run         store.Run
	Statistics  []stats.Statistic
	Predictions []predict.Prediction
	Verdict     verdict.Verdict
	Divergences []Divergence
}

// Clean reports whether the replay reproduced the stored run exactly.
func (r *ReplayReport) Clean() bool {
	return len(r.Divergences) == 0
}

// Replay re-derives statistics and verdict for a stored run from its
// persisted histograms and compares them against the stored rows. The
// run's configuration is looked up by name in the given catalog.
func (r *Runner) Replay(ctx context.Context, id string, cat *catalog.Catalog) (*ReplayReport, error) {
	if r.store == nil {
		return nil, NewStoreError("", "replay requires a store", nil)
	}

	run, err := r.store.ReadRun(ctx, id)
	if err != nil {
		return nil, NewStoreError("", fmt.Sprintf("read run %q", id), err)
	}

	cfg, ok := cat.Lookup(run.Name)
	if !ok {
		return nil, NewConfigError(run.Name, "experiment not in catalog", nil)
	}

	hists, err := r.store.ReadHistograms(ctx, run.ID)
	if err != nil {
		return nil, NewStoreError(run.Name, "read histograms", err)
	}

	plans, err := experiment.Plan(cfg)
	if err != nil {
		return nil, NewConfigError(run.Name, "derive measurement plan", err)
	}
	statistics, err := stats.Evaluate(plans, hists)
	if err != nil {
		return nil, NewConfigError(run.Name, "evaluate statistics", err)
	}
	predictions, err := predict.For(cfg)
	if err != nil {
		return nil, NewConfigError(run.Name, "derive predictions", err)
	}
	v, err := verdict.Classify(cfg, statistics, predictions)
	if err != nil {
		return nil, NewConfigError(run.Name, "classify", err)
	}

	report := &ReplayReport{
		Run:         run,
		Statistics:  statistics,
		Predictions: predictions,
		Verdict:     v,
	}

	if string(cfg.Family) != run.Family {
		report.add("config.family", run.Family, string(cfg.Family))
	}
	if r.catalogHash != "" && r.catalogHash != run.CatalogHash {
		report.add("catalog_hash", run.CatalogHash, r.catalogHash)
	}

	stored, err := r.store.ReadStatistics(ctx, run.ID)
	if err != nil {
		return nil, NewStoreError(run.Name, "read statistics", err)
	}
	compareStatistics(report, stored, stats.Flatten(statistics))

	if run.Verdict != string(v.Status) {
		report.add("verdict.status", run.Verdict, string(v.Status))
	}
	if run.Deviation != v.Deviation {
		report.add("verdict.deviation", formatValue(run.Deviation), formatValue(v.Deviation))
	}
	if run.Reason != v.Reason {
		report.add("verdict.reason", run.Reason, v.Reason)
	}

	return report, nil
}

func (r *ReplayReport) add(field, stored, recomputed string) {
	r.Divergences = append(r.Divergences, Divergence{
		Field:      field,
		Stored:     stored,
		Recomputed: recomputed,
	})
}

// compareStatistics matches stored rows to recomputed scalars by
// position, since both sides carry plan order.
func compareStatistics(report *ReplayReport, stored []store.StatisticRow, recomputed []stats.Scalar) {
	if len(stored) != len(recomputed) {
		report.add("statistics.count",
			strconv.Itoa(len(stored)), strconv.Itoa(len(recomputed)))
		return
	}
	for i, row := range stored {
		sc := recomputed[i]
		if row.Name != sc.Name {
			report.add(fmt.Sprintf("statistics[%d].name", i), row.Name, sc.Name)
			continue
		}
		if row.Value != sc.Value {
			report.add("statistics."+row.Name+".value",
				formatValue(row.Value), formatValue(sc.Value))
		}
		if row.Defined != sc.Defined {
			report.add("statistics."+row.Name+".defined",
				strconv.FormatBool(row.Defined), strconv.FormatBool(sc.Defined))
		}
		if row.Kind != string(sc.Kind) {
			report.add("statistics."+row.Name+".kind", row.Kind, string(sc.Kind))
		}
	}
}

func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
