package types

// KPIs are the summary cards shown above the chart. They are always derived
// from the series and the forecast.
type KPIs struct {
	LastHour      float64  `json:"lastHour"`
	PredictedNext *float64 `json:"predictedNext,omitempty"`
	Average       float64  `json:"average"`
	Peak          float64  `json:"peak"`
}

// ChartPoint is one x-axis step of the dashboard chart. Steps 1..24 carry the
// actual and yesterday readings, later steps carry forecast values.
type ChartPoint struct {
	Step      int      `json:"step"`
	Actual    *float64 `json:"actual,omitempty"`
	Yesterday *float64 `json:"yesterday,omitempty"`
	Predicted *float64 `json:"predicted,omitempty"`
}
