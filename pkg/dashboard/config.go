package dashboard

import (
	"fmt"
	"strconv"

	"github.com/levenlabs/go-lflag"

	"github.com/wattcast/wattcast/pkg/forecast"
	"github.com/wattcast/wattcast/pkg/insight"
)

// Configured sets up the dashboard based on flags. The classifier and the
// starting horizon are resolved once flags are parsed.
func Configured(p Predictor) *Dashboard {
	d := New(p, insight.Percentile{}, nil)

	classifier := lflag.String("insight-classifier", insight.NamePercentile, "Insight classifier to use (available: percentile, demand)")
	horizon := lflag.String("forecast-horizon", "0", "Default forecast horizon in hours (0 for the single-step endpoint, or 1, 6, 12, 24)")

	lflag.Do(func() {
		c, err := insight.New(*classifier)
		if err != nil {
			panic(err.Error())
		}
		d.classifier = c

		h, err := strconv.Atoi(*horizon)
		if err != nil || !forecast.ValidHorizon(h) {
			panic(fmt.Sprintf("invalid forecast-horizon: %s", *horizon))
		}
		d.horizon = h
	})

	return d
}
