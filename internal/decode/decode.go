// Package decode turns raw backend results into histograms.
//
// Execution services disagree about which classical register measurement
// counts land under, so decoding is an ordered probe over candidate names
// rather than a single lookup. Decoding is total: whatever the backend hands
// back (including nothing), the caller gets a usable histogram.
package decode

import (
	"sort"

	"github.com/roach88/paradox/internal/backend"
	"github.com/roach88/paradox/internal/circuit"
	"github.com/roach88/paradox/internal/counts"
)

// conventionalRegisters are probed when a result does not carry the
// circuit's own register, most common name first.
var conventionalRegisters = [...]string{"meas", "c", "c0"}

// Decode extracts the histogram for one circuit from its result.
//
// The fallback order is: the circuit's primary register; the conventional
// names meas, c, c0; a sorted scan over every register the result exposes,
// first non-empty histogram wins; the empty histogram. A register whose
// counts fail key normalization is treated as missing. A nil result decodes
// to the empty histogram.
//
// The returned histogram always carries the nominal shot count, so totals
// computed downstream never divide by zero. Decode never fails.
func Decode(res backend.Result, c circuit.Circuit, shots int) counts.Histogram {
	width := c.Clbits
	if res == nil {
		return counts.Empty(width, shots)
	}

	tried := make(map[string]bool, 4)
	probe := func(name string) (counts.Histogram, bool) {
		if name == "" || tried[name] {
			return counts.Histogram{}, false
		}
		tried[name] = true
		raw, ok := res.Counts(name)
		if !ok {
			return counts.Histogram{}, false
		}
		h, err := counts.New(width, shots, raw)
		if err != nil {
			return counts.Histogram{}, false
		}
		return h, true
	}

	if h, ok := probe(c.Register); ok {
		return h
	}
	for _, name := range conventionalRegisters {
		if h, ok := probe(name); ok {
			return h
		}
	}

	names := append([]string(nil), res.Registers()...)
	sort.Strings(names)
	for _, name := range names {
		if h, ok := probe(name); ok && !h.IsEmpty() {
			return h
		}
	}

	return counts.Empty(width, shots)
}
