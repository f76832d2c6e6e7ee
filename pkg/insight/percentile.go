package insight

import (
	"math"
	"slices"
)

// Regime says whether the history is effectively constant.
type Regime string

const (
	RegimeFlat     Regime = "flat"
	RegimeVariable Regime = "variable"
)

// Level is the qualitative usage band of a prediction.
type Level string

const (
	LevelVeryLow  Level = "very low"
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very high"
)

// Trend compares the prediction with the last reading.
type Trend string

const (
	TrendUpward   Trend = "upward"
	TrendDownward Trend = "downward"
	TrendStable   Trend = "stable"
)

const (
	flatEpsilon    = 1e-9
	flatRelEpsilon = 0.001
	minTolerance   = 1e-9
)

// GenericTips are appended after every percentile classification.
var GenericTips = []string{
	"Track daily trends to identify patterns and save on energy costs.",
	"Use energy-efficient appliances to reduce peak-time strain and costs.",
}

var flatMessages = map[Level]string{
	LevelVeryLow:  "Very low energy usage predicted vs last hour (≥40% lower). Great time to run heavy appliances.",
	LevelLow:      "Low energy usage predicted (15–40% lower than last hour). You can schedule tasks comfortably.",
	LevelModerate: "Usage similar to last hour (within ±15%). Maintain current efficiency.",
	LevelHigh:     "High energy usage predicted (15–40% higher). Consider deferring non-essential loads.",
	LevelVeryHigh: "Very high energy consumption expected (≥40% higher). Avoid running heavy loads simultaneously.",
}

var percentileMessages = map[Level]string{
	LevelVeryLow:  "Very low energy usage predicted relative to recent hours (bottom 20%).",
	LevelLow:      "Low energy usage predicted (20–40th percentile vs recent hours).",
	LevelModerate: "Moderate usage predicted (around the recent median).",
	LevelHigh:     "High energy usage predicted (60–80th percentile).",
	LevelVeryHigh: "Very high energy usage predicted (top 20% of recent hours).",
}

var trendMessages = map[Trend]string{
	TrendUpward:   "Consumption is trending upward compared to last hour.",
	TrendDownward: "Consumption is trending downward compared to last hour.",
	TrendStable:   "Consumption is stable compared to last hour.",
}

// Percentile classifies the next-hour prediction relative to the recent
// history. A flat history is classified by percent change against the last
// reading, anything else by the prediction's midrank percentile.
type Percentile struct{}

func (Percentile) Name() string { return NamePercentile }

func (p Percentile) Classify(in Input) Result {
	if len(in.History) == 0 || len(in.Forecast) == 0 {
		return placeholder(p.Name())
	}
	pred := in.Forecast[0]
	last := in.History[len(in.History)-1]
	lo, hi := minMax(in.History)
	rng := hi - lo

	res := Result{Classifier: p.Name()}
	var tol float64
	if IsFlat(in.History) {
		rel := RelativeChange(last, pred)
		res.Regime = RegimeFlat
		res.RelChange = &rel
		res.Level = LevelFromChange(rel)
		res.Messages = append(res.Messages, flatMessages[res.Level])
		tol = TrendTolerance(0, last)
	} else {
		pct := MidrankPercentile(in.History, pred)
		res.Regime = RegimeVariable
		res.Percentile = &pct
		res.Level = LevelFromPercentile(pct)
		res.Messages = append(res.Messages, percentileMessages[res.Level])
		tol = TrendTolerance(rng, last)
	}
	res.Trend = TrendOf(last, pred, tol)
	res.Messages = append(res.Messages, trendMessages[res.Trend])
	res.Messages = append(res.Messages, GenericTips...)
	return res
}

// IsFlat reports whether the range of history is negligible relative to its
// magnitude.
func IsFlat(history []float64) bool {
	if len(history) == 0 {
		return true
	}
	lo, hi := minMax(history)
	magnitude := math.Max(math.Max(math.Abs(hi), math.Abs(lo)), 1)
	return hi-lo < math.Max(flatEpsilon, magnitude*flatRelEpsilon)
}

// RelativeChange is (pred-last)/|last|. It is 0 when both are zero and a
// signed infinity when only last is zero.
func RelativeChange(last, pred float64) float64 {
	diff := pred - last
	if last != 0 {
		return diff / math.Abs(last)
	}
	if diff == 0 {
		return 0
	}
	return math.Inf(int(math.Copysign(1, diff)))
}

// LevelFromChange maps a relative change to a usage band:
// ≤-40% very low, ≤-15% low, <+15% moderate, ≤+40% high, above that very high.
func LevelFromChange(rel float64) Level {
	switch {
	case rel <= -0.40:
		return LevelVeryLow
	case rel <= -0.15:
		return LevelLow
	case rel < 0.15:
		return LevelModerate
	case rel <= 0.40:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// MidrankPercentile returns the tie-aware percentile of pred within history
// plus pred: the mean of the first and last sorted index equal to pred,
// divided by n-1.
func MidrankPercentile(history []float64, pred float64) float64 {
	combined := make([]float64, 0, len(history)+1)
	combined = append(combined, history...)
	combined = append(combined, pred)
	slices.Sort(combined)

	n := len(combined)
	if n < 2 {
		return 0.5
	}
	first, last := -1, -1
	for i, v := range combined {
		if v == pred {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		// NaN never compares equal
		return 0.5
	}
	return float64(first+last) / 2 / float64(n-1)
}

// LevelFromPercentile maps a percentile in [0,1] to a usage band using the
// 0.2/0.4/0.6/0.8 cut points.
func LevelFromPercentile(pct float64) Level {
	switch {
	case pct <= 0.20:
		return LevelVeryLow
	case pct <= 0.40:
		return LevelLow
	case pct < 0.60:
		return LevelModerate
	case pct <= 0.80:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// TrendTolerance is the band around the last reading inside which a
// prediction counts as stable. Pass rng = 0 for a flat history.
func TrendTolerance(rng, last float64) float64 {
	return math.Max(math.Max(rng*0.05, math.Abs(last)*0.02), minTolerance)
}

// TrendOf compares pred with last using tol.
func TrendOf(last, pred, tol float64) Trend {
	switch {
	case pred > last+tol:
		return TrendUpward
	case pred < last-tol:
		return TrendDownward
	default:
		return TrendStable
	}
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return slices.Min(values), slices.Max(values)
}
