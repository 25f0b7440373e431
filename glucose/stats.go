package glucose

import "math"

// Trend window size and the average difference that counts as movement.
const (
	TrendWindow    = 3
	TrendThreshold = 10.0
)

// Direction is the outcome of Trend.
type Direction string

const (
	Rising  Direction = "rising"
	Falling Direction = "falling"
	Stable  Direction = "stable"
)

// Summary counts readings per range over a window of records.
// Normal is always Total - High - Low.
type Summary struct {
	Total    int     `json:"totalRecords"`
	Average  float64 `json:"averageReading"`
	High     int     `json:"highReadings"`
	Low      int     `json:"lowReadings"`
	Normal   int     `json:"normalReadings"`
	VeryHigh int     `json:"veryHighReadings"`
}

// Average is the arithmetic mean rounded to one decimal, 0 for no readings.
func Average(readings []float64) float64 {
	if len(readings) == 0 {
		return 0
	}
	var sum float64
	for _, reading := range readings {
		sum += reading
	}
	return roundOne(sum / float64(len(readings)))
}

// Trend compares the first TrendWindow readings of a most-recent-first
// list against the TrendWindow readings that follow them.
func Trend(readings []float64) Direction {
	if len(readings) < 2 {
		return Stable
	}

	recent := readings[:min(TrendWindow, len(readings))]
	var previous []float64
	if len(readings) > TrendWindow {
		previous = readings[TrendWindow:min(2*TrendWindow, len(readings))]
	}
	if len(recent) == 0 || len(previous) == 0 {
		return Stable
	}

	difference := Average(recent) - Average(previous)
	switch {
	case difference > TrendThreshold:
		return Rising
	case difference < -TrendThreshold:
		return Falling
	default:
		return Stable
	}
}

// Summarize aggregates a set of readings. High counts everything above
// NormalCeiling; VeryHigh is the subset above HighCeiling.
func Summarize(readings []float64) Summary {
	summary := Summary{Total: len(readings), Average: Average(readings)}
	for _, reading := range readings {
		switch {
		case reading > NormalCeiling:
			summary.High++
			if reading > HighCeiling {
				summary.VeryHigh++
			}
		case reading < LowThreshold:
			summary.Low++
		}
	}
	summary.Normal = summary.Total - summary.High - summary.Low
	return summary
}

func roundOne(value float64) float64 {
	return math.Round(value*10) / 10
}
