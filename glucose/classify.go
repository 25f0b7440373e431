// Package glucose classifies blood glucose readings and derives the
// averages, trends and range counts shown on the dashboard, the record
// list and the admin statistics. Everything here is pure so every caller
// gets the same answer for the same readings.
package glucose

import "strings"

// Band limits in mg/dL.
const (
	LowThreshold  = 70.0  // readings below are Low
	NormalCeiling = 140.0 // readings up to and including are Normal
	HighCeiling   = 180.0 // readings up to and including are High, above Very High
)

// Level is the band a reading falls in.
type Level string

const (
	Low      Level = "low"
	Normal   Level = "normal"
	High     Level = "high"
	VeryHigh Level = "very-high"
)

// Label returns the human readable name of the level.
func (l Level) Label() string {
	switch l {
	case Low:
		return "Low"
	case Normal:
		return "Normal"
	case High:
		return "High"
	case VeryHigh:
		return "Very High"
	}
	return ""
}

// Classify places a reading in one of the four bands used by the dashboard
// and the record detail views.
func Classify(reading float64) Level {
	switch {
	case reading < LowThreshold:
		return Low
	case reading <= NormalCeiling:
		return Normal
	case reading <= HighCeiling:
		return High
	default:
		return VeryHigh
	}
}

// ClassifyHistorical is the three-band variant used when filtering the
// record history: anything above NormalCeiling is High, there is no
// Very High tier.
func ClassifyHistorical(reading float64) Level {
	switch {
	case reading < LowThreshold:
		return Low
	case reading <= NormalCeiling:
		return Normal
	default:
		return High
	}
}

// ParseHistoricalLevel accepts the filter values of the record history.
func ParseHistoricalLevel(value string) (Level, bool) {
	switch Level(strings.ToLower(strings.TrimSpace(value))) {
	case Low:
		return Low, true
	case Normal:
		return Normal, true
	case High:
		return High, true
	}
	return "", false
}
