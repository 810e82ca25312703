// Package counts holds the shot histogram type shared by the decoder, the
// statistics engine, and the store.
package counts

import (
	"fmt"
	"sort"
	"strings"
)

// Histogram maps fixed-width bitstrings to non-negative occurrence counts.
// It also carries the nominal shot count so an empty histogram still has a
// usable total: statistics computed from a decode miss degrade to "no data"
// instead of dividing by zero.
//
// Keys are normalized at construction: a key shorter than the declared width
// is left-padded with zeros (execution services strip leading zeros from
// some register encodings), and anything longer or non-binary is rejected.
type Histogram struct {
	width  int
	shots  int
	counts map[string]int
}

// New builds a histogram over bitstrings of the given width. The nominal
// shot count is the total used when m is empty. m may be nil.
func New(width, shots int, m map[string]int) (Histogram, error) {
	if width < 1 {
		return Histogram{}, fmt.Errorf("histogram width %d < 1", width)
	}
	if shots < 0 {
		return Histogram{}, fmt.Errorf("negative shot count %d", shots)
	}
	h := Histogram{width: width, shots: shots, counts: make(map[string]int, len(m))}
	for key, n := range m {
		if n < 0 {
			return Histogram{}, fmt.Errorf("key %q: negative count %d", key, n)
		}
		if n == 0 {
			continue
		}
		normalized, err := normalizeKey(key, width)
		if err != nil {
			return Histogram{}, err
		}
		h.counts[normalized] += n
	}
	return h, nil
}

// MustNew is like New but panics on error. Use only in tests or with keys
// known to be valid.
func MustNew(width, shots int, m map[string]int) Histogram {
	h, err := New(width, shots, m)
	if err != nil {
		panic(err)
	}
	return h
}

// Empty returns a histogram with no observations. Total() reports the
// nominal shot count, every Count is zero.
func Empty(width, shots int) Histogram {
	return Histogram{width: width, shots: shots, counts: map[string]int{}}
}

func normalizeKey(key string, width int) (string, error) {
	if len(key) > width {
		return "", fmt.Errorf("key %q longer than declared width %d", key, width)
	}
	for i := 0; i < len(key); i++ {
		if key[i] != '0' && key[i] != '1' {
			return "", fmt.Errorf("key %q: non-binary character %q", key, key[i])
		}
	}
	if len(key) < width {
		key = strings.Repeat("0", width-len(key)) + key
	}
	return key, nil
}

// Width returns the declared bitstring width.
func (h Histogram) Width() int { return h.width }

// Shots returns the nominal shot count declared at construction.
func (h Histogram) Shots() int { return h.shots }

// Count returns the occurrences of one bitstring. Unobserved keys are zero.
func (h Histogram) Count(key string) int {
	normalized, err := normalizeKey(key, h.width)
	if err != nil {
		return 0
	}
	return h.counts[normalized]
}

// Total returns the sum of all counts, or the nominal shot count when the
// histogram holds no observations. Every probability divides by Total; it
// is zero only when the histogram is empty and shots is zero.
func (h Histogram) Total() int {
	if len(h.counts) == 0 {
		return h.shots
	}
	sum := 0
	for _, n := range h.counts {
		sum += n
	}
	return sum
}

// P returns count(key)/Total(), or 0 when Total() is 0.
func (h Histogram) P(key string) float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}
	return float64(h.Count(key)) / float64(total)
}

// IsEmpty reports whether the histogram holds no observations.
func (h Histogram) IsEmpty() bool { return len(h.counts) == 0 }

// Keys returns the observed bitstrings in lexicographic order.
func (h Histogram) Keys() []string {
	keys := make([]string, 0, len(h.counts))
	for k := range h.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Counts returns a copy of the underlying map. Never nil.
func (h Histogram) Counts() map[string]int {
	out := make(map[string]int, len(h.counts))
	for k, n := range h.counts {
		out[k] = n
	}
	return out
}
