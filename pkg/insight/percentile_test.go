package insight

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func increasing(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestPercentileScenarios(t *testing.T) {
	t.Run("Flat Equal Prediction", func(t *testing.T) {
		res := Percentile{}.Classify(Input{History: constant(24, 100), Forecast: []float64{100}})
		assert.Equal(t, RegimeFlat, res.Regime)
		require.NotNil(t, res.RelChange)
		assert.Equal(t, 0.0, *res.RelChange)
		assert.Equal(t, LevelModerate, res.Level)
		assert.Equal(t, TrendStable, res.Trend)
		assert.Equal(t, []string{
			flatMessages[LevelModerate],
			trendMessages[TrendStable],
			GenericTips[0],
			GenericTips[1],
		}, res.Messages)
	})

	t.Run("Flat Large Increase", func(t *testing.T) {
		res := Percentile{}.Classify(Input{History: constant(24, 1000), Forecast: []float64{1500}})
		assert.Equal(t, RegimeFlat, res.Regime)
		require.NotNil(t, res.RelChange)
		assert.InDelta(t, 0.5, *res.RelChange, 1e-12)
		assert.Equal(t, LevelVeryHigh, res.Level)
		assert.Equal(t, TrendUpward, res.Trend)
		assert.Equal(t, 20.0, TrendTolerance(0, 1000))
	})

	t.Run("Increasing Top Percentile", func(t *testing.T) {
		res := Percentile{}.Classify(Input{History: increasing(24), Forecast: []float64{25}})
		assert.Equal(t, RegimeVariable, res.Regime)
		require.NotNil(t, res.Percentile)
		assert.Equal(t, 1.0, *res.Percentile)
		assert.Nil(t, res.RelChange)
		assert.Equal(t, LevelVeryHigh, res.Level)
		assert.Equal(t, percentileMessages[LevelVeryHigh], res.Messages[0])
		assert.Len(t, res.Messages, 4)
	})

	t.Run("Uses First Forecast Value", func(t *testing.T) {
		res := Percentile{}.Classify(Input{History: increasing(24), Forecast: []float64{0, 1000}})
		assert.Equal(t, LevelVeryLow, res.Level)
		assert.Equal(t, TrendDownward, res.Trend)
	})

	t.Run("No Prediction", func(t *testing.T) {
		res := Percentile{}.Classify(Input{History: increasing(24)})
		assert.Equal(t, []string{Placeholder}, res.Messages)
		assert.Empty(t, res.Level)
	})
}

func TestIsFlat(t *testing.T) {
	for _, v := range []float64{0, 1, 100, 99999.5, 100000} {
		assert.True(t, IsFlat(constant(24, v)), "constant %v", v)
	}
	assert.False(t, IsFlat(increasing(24)))

	// 0.1% of the magnitude is the cutoff
	almost := constant(24, 1000)
	almost[3] = 1000.9
	assert.True(t, IsFlat(almost))
	almost[3] = 1002
	assert.False(t, IsFlat(almost))
}

func TestConstantSeriesAlwaysFlat(t *testing.T) {
	for _, pred := range []float64{0, 1, 50, 100, 150, 1e6} {
		res := Percentile{}.Classify(Input{History: constant(24, 100), Forecast: []float64{pred}})
		assert.Equal(t, RegimeFlat, res.Regime, "prediction %v", pred)
	}
}

func TestRelativeChange(t *testing.T) {
	assert.Equal(t, 0.0, RelativeChange(0, 0))
	assert.True(t, math.IsInf(RelativeChange(0, 5), 1))
	assert.True(t, math.IsInf(RelativeChange(0, -5), -1))
	assert.InDelta(t, -0.5, RelativeChange(200, 100), 1e-12)
	assert.InDelta(t, 1.5, RelativeChange(-2, 1), 1e-12)

	assert.Equal(t, LevelVeryHigh, LevelFromChange(RelativeChange(0, 5)))
	assert.Equal(t, LevelVeryLow, LevelFromChange(RelativeChange(0, -5)))
}

func TestLevelFromChange(t *testing.T) {
	tests := []struct {
		rel  float64
		want Level
	}{
		{-1, LevelVeryLow},
		{-0.40, LevelVeryLow},
		{-0.39, LevelLow},
		{-0.15, LevelLow},
		{-0.14, LevelModerate},
		{0, LevelModerate},
		{0.1499, LevelModerate},
		{0.15, LevelHigh},
		{0.40, LevelHigh},
		{0.41, LevelVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromChange(tt.rel), "rel %v", tt.rel)
	}
}

func TestLevelFromPercentile(t *testing.T) {
	tests := []struct {
		pct  float64
		want Level
	}{
		{0, LevelVeryLow},
		{0.20, LevelVeryLow},
		{0.21, LevelLow},
		{0.40, LevelLow},
		{0.5, LevelModerate},
		{0.60, LevelHigh},
		{0.80, LevelHigh},
		{0.81, LevelVeryHigh},
		{1, LevelVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromPercentile(tt.pct), "pct %v", tt.pct)
	}
}

func TestMidrankPercentile(t *testing.T) {
	t.Run("Ties Use Midpoint", func(t *testing.T) {
		// sorted: 1..10, 10, 11..24 -> 10 sits at indices 9 and 10
		pct := MidrankPercentile(increasing(24), 10)
		assert.InDelta(t, 9.5/24, pct, 1e-12)
	})

	t.Run("Order Independent", func(t *testing.T) {
		history := increasing(24)
		reversed := make([]float64, len(history))
		for i, v := range history {
			reversed[len(history)-1-i] = v
		}
		assert.Equal(t, MidrankPercentile(history, 10), MidrankPercentile(reversed, 10))
	})

	t.Run("Many Ties", func(t *testing.T) {
		history := append(constant(12, 5), constant(12, 7)...)
		// sorted: 5 x12, 6, 7 x12 -> 6 sits at 12
		assert.InDelta(t, 0.5, MidrankPercentile(history, 6), 1e-12)
		// 7 now spans 12..24
		assert.InDelta(t, 18.0/24, MidrankPercentile(history, 7), 1e-12)
	})

	t.Run("Bottom", func(t *testing.T) {
		assert.Equal(t, 0.0, MidrankPercentile(increasing(24), 0))
	})

	t.Run("Single Value", func(t *testing.T) {
		assert.Equal(t, 0.5, MidrankPercentile(nil, 3))
	})
}

func TestTrendOfAntiSymmetric(t *testing.T) {
	tests := []struct {
		a, b, tol float64
	}{
		{100, 130, 20},
		{100, 110, 20},
		{5, 5, 1e-9},
		{0, 1, 0.5},
		{1000, 980, 20},
	}
	for _, tt := range tests {
		fwd := TrendOf(tt.a, tt.b, tt.tol)
		rev := TrendOf(tt.b, tt.a, tt.tol)
		if math.Abs(tt.a-tt.b) > tt.tol {
			assert.NotEqual(t, TrendStable, fwd)
			assert.NotEqual(t, fwd, rev, "swapping must flip %v", tt)
		} else {
			assert.Equal(t, TrendStable, fwd)
			assert.Equal(t, TrendStable, rev)
		}
	}
}

func TestTrendTolerance(t *testing.T) {
	assert.Equal(t, 1e-9, TrendTolerance(0, 0))
	assert.Equal(t, 2.0, TrendTolerance(0, -100))
	// range dominates
	assert.Equal(t, 5.0, TrendTolerance(100, 10))
	// last dominates
	assert.Equal(t, 20.0, TrendTolerance(100, 1000))
}
