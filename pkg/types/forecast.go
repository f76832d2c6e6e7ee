package types

// TrendDirection is the backend's hint about where consumption is heading.
type TrendDirection string

const (
	TrendDirectionUp   TrendDirection = "up"
	TrendDirectionDown TrendDirection = "down"
)

// Curvature is the backend's hint about how fast the trend changes.
type Curvature string

const (
	CurvatureAccelerating Curvature = "accelerating"
	CurvatureSteady       Curvature = "steady"
)

// TrendHint is the optional indicator returned alongside a forecast. A nil
// *TrendHint means the backend sent no hint.
type TrendHint struct {
	Direction TrendDirection `json:"direction"`
	Curvature Curvature      `json:"curvature,omitempty"`
}

// Forecast is a normalized backend answer. Values has one entry for a
// single-step forecast and one entry per hour for a multi-step horizon.
type Forecast struct {
	Values []float64  `json:"values"`
	Hint   *TrendHint `json:"hint,omitempty"`
}

// Empty reports whether the forecast holds no values.
func (f Forecast) Empty() bool {
	return len(f.Values) == 0
}

// Next returns the first forecast value, which is the next hour.
func (f Forecast) Next() (float64, bool) {
	if len(f.Values) == 0 {
		return 0, false
	}
	return f.Values[0], true
}
