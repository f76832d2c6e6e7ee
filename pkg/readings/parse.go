package readings

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/wattcast/wattcast/pkg/types"
)

// ErrValidation is matched by every error returned for rejected input.
var ErrValidation = errors.New("invalid readings")

var separators = regexp.MustCompile(`[\s,]+`)

// CountError is returned when the input does not hold exactly
// types.SeriesLength values.
type CountError struct {
	Got int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("Enter exactly %d values.", types.SeriesLength)
}

func (e *CountError) Is(target error) bool {
	return target == ErrValidation
}

// RangeError is returned when a token is not a number or falls outside
// [types.MinReading, types.MaxReading].
type RangeError struct {
	Index int
	Token string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("Values must be numbers between %d and %d.", types.MinReading, types.MaxReading)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrValidation
}

// IndexError is returned for a slider edit outside the series.
type IndexError struct {
	Index int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("Hour must be between 0 and %d.", types.SeriesLength-1)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrValidation
}

// ParseBulk parses pasted text holding comma and/or whitespace separated
// readings. The count is checked before any value is range checked.
func ParseBulk(text string) (types.Series, error) {
	var tokens []string
	for _, t := range separators.Split(text, -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) != types.SeriesLength {
		return nil, &CountError{Got: len(tokens)}
	}

	series := make(types.Series, 0, types.SeriesLength)
	var rangeErr *RangeError
	for i, t := range tokens {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil || !InRange(v) {
			if rangeErr == nil {
				rangeErr = &RangeError{Index: i, Token: t}
			}
			continue
		}
		series = append(series, v)
	}
	if rangeErr != nil {
		return nil, rangeErr
	}
	return series, nil
}

// InRange reports whether v is an acceptable reading. NaN is never in range.
func InRange(v float64) bool {
	return !math.IsNaN(v) && v >= types.MinReading && v <= types.MaxReading
}

// SetHour returns a copy of series with the reading at idx replaced. Slider
// values are clamped to the reading range instead of rejected.
func SetHour(series types.Series, idx int, value float64) (types.Series, error) {
	if idx < 0 || idx >= len(series) {
		return nil, &IndexError{Index: idx}
	}
	if math.IsNaN(value) {
		return nil, &RangeError{Index: idx, Token: strconv.FormatFloat(value, 'g', -1, 64)}
	}
	out := series.Clone()
	out[idx] = math.Min(math.Max(value, types.MinReading), types.MaxReading)
	return out, nil
}

// Messages returns the inline messages to show for err. Errors that are not
// validation errors yield nil.
func Messages(err error) []string {
	if err == nil || !errors.Is(err, ErrValidation) {
		return nil
	}
	return []string{err.Error()}
}
