package edge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	// mean(28,29,30,27,26)=28 vs mean(24.5,25.5)=25 => |28-25|/25*100 = 12
	recent := Mean([]float64{28, 29, 30, 27, 26})
	line := Mean([]float64{24.5, 25.5})
	assert.InDelta(t, 12.0, Compute(recent, line), 1e-9)

	assert.Equal(t, 0.0, Compute(10, 0), "zero line must not divide")
	assert.InDelta(t, 20.0, Compute(20, 25), 1e-9, "direction does not matter")
}

func TestPropConfidence(t *testing.T) {
	assert.InDelta(t, 84.0, PropConfidence(12), 1e-9)
	assert.InDelta(t, 90.0, PropConfidence(20), 1e-9, "capped at 90")
	assert.InDelta(t, 60.0, PropConfidence(0), 1e-9)
}

func TestPropUrgencyBoundaries(t *testing.T) {
	// Boundaries are strict inequalities.
	assert.Equal(t, UrgencyMedium, PropUrgency(12))
	assert.Equal(t, UrgencyHigh, PropUrgency(12.01))
	assert.Equal(t, UrgencyLow, PropUrgency(8))
	assert.Equal(t, UrgencyMedium, PropUrgency(8.01))
	assert.Equal(t, UrgencyLow, PropUrgency(0))
}

func TestSpreadEdge(t *testing.T) {
	lines := []float64{24.5, 25.5, 26.0}
	assert.InDelta(t, (26.0-24.5)/24.5*100, SpreadEdge(lines), 1e-9)
	assert.Equal(t, 0.0, SpreadEdge(nil))
}

func TestIsArbitrage(t *testing.T) {
	assert.True(t, IsArbitrage([]float64{24.5, 25.5}), "spread of exactly 1.0 qualifies")
	assert.False(t, IsArbitrage([]float64{24.5, 25.4}))
	assert.True(t, IsArbitrage([]float64{20, 22.5}))
}

func TestParseAmericanOdds(t *testing.T) {
	v, err := ParseAmericanOdds("-110")
	require.NoError(t, err)
	assert.Equal(t, -110, v)

	v, err = ParseAmericanOdds("+150")
	require.NoError(t, err)
	assert.Equal(t, 150, v)

	_, err = ParseAmericanOdds("evens")
	assert.Error(t, err)
}

func TestImpliedProbability(t *testing.T) {
	assert.InDelta(t, 0.5238, ImpliedProbability(-110), 1e-3)
	assert.InDelta(t, 0.4, ImpliedProbability(150), 1e-9)
}

func TestRemoveVig(t *testing.T) {
	over, under := RemoveVig(0.5238, 0.5238)
	assert.InDelta(t, 0.5, over, 1e-9)
	assert.InDelta(t, 0.5, under, 1e-9)
}

func TestRiskCategory(t *testing.T) {
	assert.Equal(t, "low", RiskCategory("-200"))
	assert.Equal(t, "medium", RiskCategory("-110"))
	assert.Equal(t, "medium", RiskCategory("+120"))
	assert.Equal(t, "high", RiskCategory("+150"))
	assert.Equal(t, "unknown", RiskCategory("pick'em"))
}

func TestRecentMean(t *testing.T) {
	values := []float64{30, 28, 26, 24, 22, 100, 100}
	assert.InDelta(t, 26.0, RecentMean(values, 5), 1e-9, "only the 5 newest count")
	assert.InDelta(t, 29.0, RecentMean([]float64{30, 28}, 5), 1e-9)
}

func TestUrgencyRank(t *testing.T) {
	assert.Greater(t, UrgencyRank(UrgencyHigh), UrgencyRank(UrgencyMedium))
	assert.Greater(t, UrgencyRank(UrgencyMedium), UrgencyRank(UrgencyLow))
	assert.Equal(t, 0, UrgencyRank("bogus"))
}
