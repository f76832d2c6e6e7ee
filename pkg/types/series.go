package types

const (
	// SeriesLength is the number of hourly readings the dashboard works with.
	SeriesLength = 24

	// MinReading and MaxReading bound every reading in a Series.
	MinReading = 0
	MaxReading = 100000
)

// Series is the trailing hourly consumption, most recent hour last. A valid
// Series always has SeriesLength values.
type Series []float64

// DefaultSeries returns the series a fresh dashboard starts with.
func DefaultSeries() Series {
	s := make(Series, SeriesLength)
	for i := range s {
		s[i] = 1
	}
	return s
}

// Clone returns a copy that can be mutated without affecting s.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	c := make(Series, len(s))
	copy(c, s)
	return c
}

// Last returns the most recent reading or 0 for an empty series.
func (s Series) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}
