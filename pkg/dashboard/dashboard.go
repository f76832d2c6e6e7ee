// Package dashboard holds the single in-memory dashboard: the readings being
// edited, the last prediction and the insights derived from both.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/wattcast/wattcast/pkg/forecast"
	"github.com/wattcast/wattcast/pkg/insight"
	"github.com/wattcast/wattcast/pkg/log"
	"github.com/wattcast/wattcast/pkg/readings"
	"github.com/wattcast/wattcast/pkg/types"
)

// PredictionFailedMessage is the only message shown for a failed prediction.
const PredictionFailedMessage = "Prediction failed. Check your backend."

// ErrBusy is returned by Predict while another prediction is in flight.
var ErrBusy = errors.New("a prediction is already in progress")

// Status is the state of the predict action.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Predictor fetches a forecast for a series. *forecast.Client implements it.
type Predictor interface {
	Predict(ctx context.Context, series types.Series, horizon int) (types.Forecast, error)
}

// Dashboard is safe for concurrent use.
type Dashboard struct {
	predictor  Predictor
	classifier insight.Classifier
	now        func() time.Time
	inflight   *semaphore.Weighted

	mu       sync.Mutex
	series   types.Series
	raw      string
	errors   []string
	status   Status
	forecast *types.Forecast
	horizon  int
}

// New returns a dashboard holding the default series. now is used for the
// time dependent insights; nil means time.Now.
func New(p Predictor, c insight.Classifier, now func() time.Time) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{
		predictor:  p,
		classifier: c,
		now:        now,
		inflight:   semaphore.NewWeighted(1),
		series:     types.DefaultSeries(),
		status:     StatusIdle,
	}
}

// SetBulk validates pasted text and, when valid, replaces the whole series.
// The text is kept either way so it can be shown back to the user. A
// validation error leaves the previous series in place.
func (d *Dashboard) SetBulk(raw string) error {
	series, err := readings.ParseBulk(raw)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.raw = raw
	if err != nil {
		d.errors = readings.Messages(err)
		return err
	}
	d.series = series
	d.errors = nil
	return nil
}

// SetHour applies a slider edit to a single hour.
func (d *Dashboard) SetHour(idx int, value float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	series, err := readings.SetHour(d.series, idx, value)
	if err != nil {
		return err
	}
	d.series = series
	return nil
}

// SetHorizon selects how many hours future predictions cover.
func (d *Dashboard) SetHorizon(h int) error {
	if !forecast.ValidHorizon(h) {
		return fmt.Errorf("%w: %d", forecast.ErrInvalidHorizon, h)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.horizon = h
	return nil
}

// Predict sends the current series to the backend. Only one prediction runs
// at a time; a concurrent call returns ErrBusy without touching any state.
// The series itself is never modified by Predict.
func (d *Dashboard) Predict(ctx context.Context) error {
	if !d.inflight.TryAcquire(1) {
		return ErrBusy
	}
	defer d.inflight.Release(1)

	d.mu.Lock()
	d.status = StatusLoading
	d.forecast = nil
	series := d.series.Clone()
	horizon := d.horizon
	d.mu.Unlock()

	f, err := d.predictor.Predict(ctx, series, horizon)
	if errors.Is(err, forecast.ErrMalformedResponse) {
		log.Ctx(ctx).WarnContext(ctx, "treating malformed forecast response as empty", slog.Any("error", err))
		f, err = types.Forecast{}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "prediction failed", slog.Any("error", err))
		d.status = StatusError
		d.errors = []string{PredictionFailedMessage}
		return err
	}
	d.status = StatusSuccess
	d.forecast = &f
	d.errors = nil
	return nil
}

// View is a consistent snapshot of everything the page renders.
type View struct {
	Status    Status             `json:"status"`
	Loading   bool               `json:"loading"`
	Series    types.Series       `json:"series"`
	Raw       string             `json:"raw"`
	Errors    []string           `json:"errors"`
	Yesterday types.Series       `json:"yesterday"`
	KPIs      types.KPIs         `json:"kpis"`
	Horizon   int                `json:"horizon"`
	Forecast  *types.Forecast    `json:"forecast,omitempty"`
	Chart     []types.ChartPoint `json:"chart,omitempty"`
	Insights  *insight.Result    `json:"insights,omitempty"`
}

// View returns the current snapshot. Chart and Insights are only present
// after a successful prediction.
func (d *Dashboard) View() View {
	d.mu.Lock()
	series := d.series.Clone()
	v := View{
		Status:  d.status,
		Loading: d.status == StatusLoading,
		Series:  series,
		Raw:     d.raw,
		Errors:  append([]string{}, d.errors...),
		Horizon: d.horizon,
	}
	var f *types.Forecast
	if d.forecast != nil {
		c := *d.forecast
		c.Values = append([]float64(nil), d.forecast.Values...)
		f = &c
	}
	d.mu.Unlock()

	v.Yesterday = readings.Yesterday(series)
	if f == nil {
		v.KPIs = readings.Summarize(series, nil)
		return v
	}
	v.Forecast = f
	v.KPIs = readings.Summarize(series, f.Values)
	v.Chart = readings.ChartPoints(series, f.Values)
	res := d.classifier.Classify(insight.Input{
		History:  series,
		Forecast: f.Values,
		Now:      d.now(),
	})
	v.Insights = &res
	return v
}

// Series returns a copy of the current readings.
func (d *Dashboard) Series() types.Series {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.series.Clone()
}

// Forecast returns the last successful forecast, if any.
func (d *Dashboard) Forecast() (types.Forecast, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.forecast == nil {
		return types.Forecast{}, false
	}
	return *d.forecast, true
}
