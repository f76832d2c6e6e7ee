package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wattcast/wattcast/pkg/types"
)

type objectResponse struct {
	Forecast   json.RawMessage `json:"forecast"`
	Prediction json.RawMessage `json:"prediction"`
	Arrow      string          `json:"arrow"`
	Curvature  string          `json:"curvature"`
}

// Decode normalizes every response shape the backend is known to send:
//
//	[1.5, 2.5]
//	{"forecast": [1.5, 2.5], "arrow": "up", "curvature": "steady"}
//	{"prediction": 1.5}
//
// Scalars are coerced into a one element forecast. Valid JSON in any other
// shape yields an empty forecast and ErrMalformedResponse; a body that is not
// JSON yields ErrNetwork.
func Decode(raw []byte) (types.Forecast, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return types.Forecast{}, fmt.Errorf("%w: response is not valid json", ErrNetwork)
	}

	if raw[0] == '{' {
		var obj objectResponse
		if err := json.Unmarshal(raw, &obj); err != nil {
			return types.Forecast{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		field := obj.Forecast
		if len(field) == 0 {
			field = obj.Prediction
		}
		values, ok := numbers(field)
		if !ok {
			return types.Forecast{}, ErrMalformedResponse
		}
		return types.Forecast{
			Values: values,
			Hint:   hint(obj.Arrow, obj.Curvature),
		}, nil
	}

	values, ok := numbers(raw)
	if !ok {
		return types.Forecast{}, ErrMalformedResponse
	}
	return types.Forecast{Values: values}, nil
}

// numbers accepts a numeric array or a single number.
func numbers(raw json.RawMessage) ([]float64, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err == nil {
		if arr == nil {
			// null
			return nil, false
		}
		return arr, true
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return []float64{v}, true
	}
	return nil, false
}

// hint builds the trend hint. Without a known direction there is no hint.
func hint(arrow, curvature string) *types.TrendHint {
	var h types.TrendHint
	switch types.TrendDirection(arrow) {
	case types.TrendDirectionUp, types.TrendDirectionDown:
		h.Direction = types.TrendDirection(arrow)
	default:
		return nil
	}
	switch types.Curvature(curvature) {
	case types.CurvatureAccelerating, types.CurvatureSteady:
		h.Curvature = types.Curvature(curvature)
	}
	return &h
}
