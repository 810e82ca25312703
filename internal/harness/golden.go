package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceBytes renders a result's trace in golden-file form: one line per
// event, trailing newline.
func TraceBytes(result *Result) []byte {
	return []byte(strings.Join(result.Trace, "\n") + "\n")
}

// AssertGolden compares a result's trace against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, TraceBytes(result))
}
