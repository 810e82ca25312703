package testutil

// ConstantIDGenerator returns the same run ID every time.
//
// Unlike runner.FixedGenerator, which returns a declared sequence and
// panics when exhausted, this generator never runs out. Harness scenarios
// use it so golden traces stay byte-identical however many times a
// scenario reruns.
//
// Thread-safety: stateless after construction, safe for concurrent use.
type ConstantIDGenerator struct {
	id string
}

// NewConstantIDGenerator creates a generator pinned to one ID.
// An empty id falls back to "run-fixed".
func NewConstantIDGenerator(id string) *ConstantIDGenerator {
	if id == "" {
		id = "run-fixed"
	}
	return &ConstantIDGenerator{id: id}
}

// Generate returns the fixed run ID.
//
// Implements runner.RunIDGenerator.
func (g *ConstantIDGenerator) Generate() string {
	return g.id
}
