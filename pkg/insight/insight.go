// Package insight turns a forecast and the recent readings into the short,
// human readable messages shown under the dashboard chart.
package insight

import (
	"fmt"
	"time"
)

// Placeholder is the only message emitted while there is no prediction.
const Placeholder = "Run a prediction to see insights and tips."

// Input is everything a Classifier needs. Now is passed explicitly so the
// classifiers never read the wall clock.
type Input struct {
	History  []float64
	Forecast []float64
	Now      time.Time
}

// Result is the classification of one forecast. Fields that do not apply to
// the classifier that produced it are left empty.
type Result struct {
	Classifier string   `json:"classifier"`
	Messages   []string `json:"messages"`

	// percentile classifier
	Regime     Regime   `json:"regime,omitempty"`
	Level      Level    `json:"level,omitempty"`
	Trend      Trend    `json:"trend,omitempty"`
	Percentile *float64 `json:"percentile,omitempty"`
	RelChange  *float64 `json:"relChange,omitempty"`

	// demand classifier
	Band    Band    `json:"band,omitempty"`
	Average float64 `json:"average,omitempty"`
	Peak    float64 `json:"peak,omitempty"`
}

// Classifier produces insights for a forecast. Implementations are pure.
type Classifier interface {
	Name() string
	Classify(in Input) Result
}

// Names of the available classifiers.
const (
	NamePercentile = "percentile"
	NameDemand     = "demand"
)

// New returns the classifier registered under name.
func New(name string) (Classifier, error) {
	switch name {
	case NamePercentile:
		return Percentile{}, nil
	case NameDemand:
		return Demand{}, nil
	default:
		return nil, fmt.Errorf("unknown insight classifier: %s", name)
	}
}

func placeholder(name string) Result {
	return Result{
		Classifier: name,
		Messages:   []string{Placeholder},
	}
}
