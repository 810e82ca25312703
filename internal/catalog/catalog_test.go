package catalog

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/paradox/internal/experiment"
)

func TestDefault_OneEntryPerFamily(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	families := experiment.Families()
	require.Len(t, cat.Configs, len(families))

	seen := map[experiment.Family]int{}
	for _, cfg := range cat.Configs {
		seen[cfg.Family]++
		assert.Empty(t, experiment.Validate(cfg), "entry %q", cfg.Name)
	}
	for _, f := range families {
		assert.Equal(t, 1, seen[f], "family %s", f)
	}

	assert.Len(t, cat.Hash, 64, "sha-256 hex")
	assert.True(t, sort.StringsAreSorted(cat.Names()), "names sorted: %v", cat.Names())
}

func TestDefaultThresholdsMatchCode(t *testing.T) {
	// The embedded catalog and the compiled-in defaults must agree, or a
	// config with explicit thresholds classifies differently from one
	// relying on fallback.
	cat, err := Default()
	require.NoError(t, err)

	for _, cfg := range cat.Configs {
		assert.Equal(t, experiment.DefaultThresholds(cfg.Family), cfg.Thresholds,
			"entry %q", cfg.Name)
	}
}

func TestDefault_ZenoEntry(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	cfg, ok := cat.Lookup("zeno")
	require.True(t, ok)
	assert.Equal(t, experiment.FamilyZeno, cfg.Family)
	assert.Equal(t, 4096, cfg.Shots)
	assert.Equal(t, math.Pi, cfg.Angle)
	assert.Equal(t, []int{1, 2, 4, 8}, cfg.Checkpoints)
	assert.Equal(t, experiment.ZenoSurvival, cfg.Mode)
}

func TestDefault_CatEntry(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	cfg, ok := cat.Lookup("cat")
	require.True(t, ok)
	assert.Equal(t, []int{0, 10, 50, 100}, cfg.Delays)
	assert.Equal(t, 0.9, cfg.Thresholds.Cutoff)
}

func TestParse_UserCatalog(t *testing.T) {
	src := `
experiment: {
	"torino chsh": {
		family: "chsh"
		shots:  8192
		thresholds: margin: 0.1
	}
	"brisbane bomb": {
		family: "bomb"
		shots:  2048
		stages: 5
	}
}
`
	cat, err := Parse("user.cue", []byte(src))
	require.NoError(t, err)
	require.Len(t, cat.Configs, 2)

	// Sorted by name regardless of declaration order.
	assert.Equal(t, []string{"brisbane bomb", "torino chsh"}, cat.Names())

	chsh, ok := cat.Lookup("torino chsh")
	require.True(t, ok)
	assert.Equal(t, experiment.FamilyCHSH, chsh.Family)
	assert.Equal(t, 8192, chsh.Shots)
	assert.Equal(t, 0.1, chsh.Thresholds.Margin)

	bomb, ok := cat.Lookup("brisbane bomb")
	require.True(t, ok)
	assert.Equal(t, 5, bomb.Stages)
}

func TestParse_UnknownEntryFieldRejected(t *testing.T) {
	src := `
experiment: bad: {
	family: "chsh"
	shotz:  100
}
`
	_, err := Parse("user.cue", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shotz")
}

func TestParse_UnknownTopLevelFieldRejected(t *testing.T) {
	src := `
experiments: good: {
	family: "chsh"
	shots:  100
}
`
	_, err := Parse("user.cue", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "experiments")
}

func TestParse_UnknownFamilyRejected(t *testing.T) {
	src := `
experiment: t: {
	family: "teleportation"
	shots:  100
}
`
	_, err := Parse("user.cue", []byte(src))
	assert.Error(t, err)
}

func TestParse_ShotsBelowOneRejected(t *testing.T) {
	src := `
experiment: t: {
	family: "chsh"
	shots:  0
}
`
	_, err := Parse("user.cue", []byte(src))
	assert.Error(t, err)
}

func TestParse_ZenoRequiresModeAndCheckpoints(t *testing.T) {
	src := `
experiment: t: {
	family: "zeno"
	shots:  100
	angle:  3.14
}
`
	_, err := Parse("user.cue", []byte(src))
	assert.Error(t, err)
}

func TestParse_ZeroCheckpointRejected(t *testing.T) {
	src := `
experiment: t: {
	family: "zeno"
	shots:  100
	angle:  3.14
	checkpoints: [0]
	mode: "survival"
}
`
	_, err := Parse("user.cue", []byte(src))
	assert.Error(t, err)
}

func TestParse_MarginOutOfRangeRejected(t *testing.T) {
	src := `
experiment: t: {
	family: "chsh"
	shots:  100
	thresholds: margin: 1.5
}
`
	_, err := Parse("user.cue", []byte(src))
	assert.Error(t, err)
}

func TestParse_EmptyCatalogRejected(t *testing.T) {
	_, err := Parse("user.cue", []byte(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no experiments")
}

func TestParse_HashIgnoresDeclarationOrder(t *testing.T) {
	a := `
experiment: {
	one: {family: "chsh", shots: 100}
	two: {family: "ghz", shots: 200}
}
`
	b := `
experiment: {
	two: {family: "ghz", shots: 200}
	one: {family: "chsh", shots: 100}
}
`
	catA, err := Parse("a.cue", []byte(a))
	require.NoError(t, err)
	catB, err := Parse("b.cue", []byte(b))
	require.NoError(t, err)
	assert.Equal(t, catA.Hash, catB.Hash)
}

func TestParse_HashTracksContent(t *testing.T) {
	a := `experiment: one: {family: "chsh", shots: 100}`
	b := `experiment: one: {family: "chsh", shots: 101}`

	catA, err := Parse("a.cue", []byte(a))
	require.NoError(t, err)
	catB, err := Parse("b.cue", []byte(b))
	require.NoError(t, err)
	assert.NotEqual(t, catA.Hash, catB.Hash)
}

func TestLoad_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.cue")
	src := `experiment: mine: {family: "reversal", shots: 512}`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	cat, err := Load(path)
	require.NoError(t, err)
	cfg, ok := cat.Lookup("mine")
	require.True(t, ok)
	assert.Equal(t, experiment.FamilyReversal, cfg.Family)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}

func TestParse_ErrorCarriesPosition(t *testing.T) {
	src := `experiment: bad: {
	family: "chsh"
	shots:  0
}
`
	_, err := Parse("user.cue", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user.cue", "error should name the file")
}
