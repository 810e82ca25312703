package harness

import (
	"sort"

	"github.com/roach88/paradox/internal/catalog"
)

// CheckCoverage reports the catalog experiments no scenario exercises,
// sorted by name. An empty slice means the scenario suite covers every
// entry.
func CheckCoverage(scenarios []*Scenario, cat *catalog.Catalog) []string {
	covered := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		covered[s.Experiment] = true
	}
	var missing []string
	for _, name := range cat.Names() {
		if !covered[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
