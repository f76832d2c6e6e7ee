package readings

import (
	"math"

	"github.com/wattcast/wattcast/pkg/types"
)

const yesterdayFactor = 0.9

// Yesterday returns the presentational overlay: each reading scaled by 0.9
// and rounded to 2 decimal places.
func Yesterday(series types.Series) types.Series {
	out := make(types.Series, len(series))
	for i, v := range series {
		out[i] = math.Round(v*yesterdayFactor*100) / 100
	}
	return out
}

// Summarize derives the KPI cards. forecast may be empty.
func Summarize(series types.Series, forecast []float64) types.KPIs {
	var k types.KPIs
	if len(series) == 0 {
		return k
	}
	k.LastHour = series.Last()
	k.Peak = series[0]
	var sum float64
	for _, v := range series {
		sum += v
		if v > k.Peak {
			k.Peak = v
		}
	}
	k.Average = math.Round(sum / float64(len(series)))
	if len(forecast) > 0 {
		next := forecast[0]
		k.PredictedNext = &next
	}
	return k
}

// ChartPoints builds the chart data: one point per reading followed by one
// point per forecast value.
func ChartPoints(series types.Series, forecast []float64) []types.ChartPoint {
	yesterday := Yesterday(series)
	points := make([]types.ChartPoint, 0, len(series)+len(forecast))
	for i := range series {
		actual, y := series[i], yesterday[i]
		points = append(points, types.ChartPoint{
			Step:      i + 1,
			Actual:    &actual,
			Yesterday: &y,
		})
	}
	for i := range forecast {
		p := forecast[i]
		points = append(points, types.ChartPoint{
			Step:      len(series) + i + 1,
			Predicted: &p,
		})
	}
	return points
}
