package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/paradox/internal/circuit"
	"github.com/roach88/paradox/internal/counts"
)

// marshalCounts converts a histogram's counts to canonical JSON TEXT.
// Keys are already normalized bitstrings and values are ints, so the
// canonical form is exact: reading it back reproduces the histogram
// bit for bit.
func marshalCounts(h counts.Histogram) (string, error) {
	m := make(map[string]any, len(h.Keys()))
	for _, key := range h.Keys() {
		m[key] = h.Count(key)
	}
	data, err := circuit.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal counts: %w", err)
	}
	return string(data), nil
}

// unmarshalCounts parses canonical JSON TEXT back into a histogram.
func unmarshalCounts(data string, width, shots int) (counts.Histogram, error) {
	m := map[string]int{}
	if data != "" && data != "{}" {
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return counts.Histogram{}, fmt.Errorf("unmarshal counts: %w", err)
		}
	}
	h, err := counts.New(width, shots, m)
	if err != nil {
		return counts.Histogram{}, fmt.Errorf("unmarshal counts: %w", err)
	}
	return h, nil
}
