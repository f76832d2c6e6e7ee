package insight

import (
	"fmt"
	"time"
)

// Band is an absolute demand level assigned from the average forecast.
type Band string

const (
	BandLow      Band = "low"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
	BandCritical Band = "critical"
)

// Demand thresholds in watts.
const (
	lowDemandLimit      = 25000
	moderateDemandLimit = 60000
	highDemandLimit     = 90000

	contractPeakLimit = 95000
	lowTariffLimit    = 20000
	hvacLimit         = 50000
	batteryLimit      = 80000

	peakStartHour = 18
	peakEndHour   = 21
)

// Tips selected by the demand classifier, in precedence order.
const (
	TipContractPenalty = "Forecast peak exceeds 95 kW. Shift flexible loads now to avoid contract penalty charges."
	TipLowTariff       = "Demand is very low. Run deferred heavy loads now to take advantage of low tariff hours."
	TipHVAC            = "Fine-tune HVAC setpoints by one or two degrees to keep demand in the efficient range."
	TipBattery         = "Discharge on-site storage or enroll in demand response to shave the upcoming load."
	TipLoadShedding    = "Demand is near capacity. Start emergency load shedding of non-critical equipment."
)

// Demand classifies a multi-step forecast by absolute demand bands and picks a
// narrative that depends on whether Now falls in the evening peak.
type Demand struct{}

func (Demand) Name() string { return NameDemand }

func (d Demand) Classify(in Input) Result {
	if len(in.Forecast) == 0 {
		return placeholder(d.Name())
	}
	avg, peak := averagePeak(in.Forecast)
	band := BandOf(avg)
	return Result{
		Classifier: d.Name(),
		Band:       band,
		Average:    avg,
		Peak:       peak,
		Messages: []string{
			Narrative(band, IsPeakHour(in.Now)),
			DemandTip(avg, peak),
		},
	}
}

// BandOf maps an average demand to its band.
func BandOf(avg float64) Band {
	switch {
	case avg < lowDemandLimit:
		return BandLow
	case avg < moderateDemandLimit:
		return BandModerate
	case avg < highDemandLimit:
		return BandHigh
	default:
		return BandCritical
	}
}

// IsPeakHour reports whether t falls in the 18:00-21:59 evening peak of its
// own location.
func IsPeakHour(t time.Time) bool {
	h := t.Hour()
	return h >= peakStartHour && h <= peakEndHour
}

// Narrative returns the band's summary sentence.
func Narrative(band Band, peakHours bool) string {
	when := "outside peak hours"
	if peakHours {
		when = "during peak hours"
	}
	switch band {
	case BandLow:
		return fmt.Sprintf("Demand is forecast to stay low %s. The grid has plenty of headroom.", when)
	case BandModerate:
		return fmt.Sprintf("Moderate demand is forecast %s. Usage is within normal operating levels.", when)
	case BandHigh:
		return fmt.Sprintf("High demand is forecast %s. Watch for large loads starting at the same time.", when)
	default:
		return fmt.Sprintf("Critical demand is forecast %s. The site is close to its supply limit.", when)
	}
}

// DemandTip picks exactly one tip. A peak above the contract limit wins over
// every average based tip.
func DemandTip(avg, peak float64) string {
	switch {
	case peak > contractPeakLimit:
		return TipContractPenalty
	case avg < lowTariffLimit:
		return TipLowTariff
	case avg < hvacLimit:
		return TipHVAC
	case avg < batteryLimit:
		return TipBattery
	default:
		return TipLoadShedding
	}
}

func averagePeak(values []float64) (float64, float64) {
	var sum float64
	peak := values[0]
	for _, v := range values {
		sum += v
		if v > peak {
			peak = v
		}
	}
	return sum / float64(len(values)), peak
}
