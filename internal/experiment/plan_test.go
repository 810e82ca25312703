package experiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_CHSHCombinationOrder(t *testing.T) {
	plans, err := Plan(validCHSH())
	require.NoError(t, err)

	var chsh *StatPlan
	for i := range plans {
		if plans[i].Kind == StatCHSH {
			chsh = &plans[i]
		}
	}
	require.NotNil(t, chsh, "chsh family must include the S combination")
	assert.Equal(t, "S", chsh.Name)
	assert.Equal(t, []string{"A0B0", "A0B1", "A1B0", "A1B1"}, chsh.Labels,
		"setting order fixes the sign structure of S")
}

func TestPlan_ZenoFollowsModeAndCheckpoints(t *testing.T) {
	cfg := validZeno()
	cfg.Checkpoints = []int{1, 4}

	plans, err := Plan(cfg)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, StatFinalBit, plans[0].Kind)
	assert.Equal(t, LabelUnobserved, plans[0].Name)
	assert.Equal(t, StatSurvival, plans[1].Kind)
	assert.Equal(t, "survival_1", plans[1].Name)
	assert.Equal(t, "survival_4", plans[2].Name)

	cfg.Mode = ZenoReset
	plans, err = Plan(cfg)
	require.NoError(t, err)
	assert.Equal(t, StatFinalBit, plans[1].Kind)
	assert.Equal(t, "zeno_1", plans[1].Name)
}

func TestPlan_CatTracksDelays(t *testing.T) {
	cfg := Config{Name: "cat", Family: FamilyCat, Shots: 100, Delays: []int{0, 50}}
	plans, err := Plan(cfg)
	require.NoError(t, err)

	names := make([]string, len(plans))
	for i, p := range plans {
		names[i] = p.Name
	}
	assert.Contains(t, names, "decoherence_0")
	assert.Contains(t, names, "decoherence_50")
	assert.NotContains(t, names, "decoherence_10")
}

func TestPlan_UnknownFamilyErrors(t *testing.T) {
	_, err := Plan(Config{Family: Family("teleport")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no measurement plan")
}

func TestPlan_EveryFamilyHasOne(t *testing.T) {
	for _, fam := range Families() {
		cfg := Config{Name: string(fam), Family: fam, Shots: 100,
			Angle: math.Pi, Checkpoints: []int{1}, Mode: ZenoSurvival,
			Delays: []int{0}, Stages: 3}
		plans, err := Plan(cfg)
		require.NoError(t, err, "family %s", fam)
		assert.NotEmpty(t, plans, "family %s", fam)
		seen := map[string]bool{}
		for _, p := range plans {
			assert.False(t, seen[p.Name], "family %s: duplicate statistic name %s", fam, p.Name)
			seen[p.Name] = true
			assert.NotEmpty(t, p.Labels, "family %s: plan %s has no source labels", fam, p.Name)
		}
	}
}

func TestZenoLabel(t *testing.T) {
	assert.Equal(t, "survival_8", ZenoLabel(ZenoSurvival, 8))
	assert.Equal(t, "zeno_8", ZenoLabel(ZenoReset, 8))
}
