package glucose

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		reading float64
		want    Level
	}{
		{20, Low},
		{69.9, Low},
		{70, Normal},
		{140, Normal},
		{140.1, High},
		{180, High},
		{180.1, VeryHigh},
		{600, VeryHigh},
	}

	for _, tt := range tests {
		if got := Classify(tt.reading); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.reading, got, tt.want)
		}
	}
}

func TestClassifyHistoricalHasNoVeryHighTier(t *testing.T) {
	tests := []struct {
		reading float64
		want    Level
	}{
		{69.9, Low},
		{70, Normal},
		{140, Normal},
		{140.1, High},
		{180.1, High},
		{600, High},
	}

	for _, tt := range tests {
		if got := ClassifyHistorical(tt.reading); got != tt.want {
			t.Errorf("ClassifyHistorical(%v) = %s, want %s", tt.reading, got, tt.want)
		}
	}
}

func TestParseHistoricalLevel(t *testing.T) {
	if level, ok := ParseHistoricalLevel(" High "); !ok || level != High {
		t.Fatalf("ParseHistoricalLevel(High) = %s, %v", level, ok)
	}
	if _, ok := ParseHistoricalLevel("very-high"); ok {
		t.Fatal("very-high is not a historical level")
	}
}

func TestLabel(t *testing.T) {
	if got := VeryHigh.Label(); got != "Very High" {
		t.Fatalf("VeryHigh.Label() = %q", got)
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name     string
		readings []float64
		want     float64
	}{
		{"empty", nil, 0},
		{"exact", []float64{100, 120, 140}, 120},
		{"rounded to one decimal", []float64{160, 155, 150, 100}, 141.3},
		{"single", []float64{87}, 87},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Average(tt.readings); got != tt.want {
				t.Errorf("Average(%v) = %v, want %v", tt.readings, got, tt.want)
			}
		})
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		readings []float64
		want     Direction
	}{
		{"no readings", nil, Stable},
		{"single reading", []float64{250}, Stable},
		{"no previous window", []float64{100, 200, 300}, Stable},
		{"rising", []float64{160, 155, 150, 100, 100, 100}, Rising},
		{"falling", []float64{90, 95, 92, 150, 145, 148}, Falling},
		{"within threshold", []float64{110, 110, 110, 100, 100, 100}, Stable},
		{"partial previous window", []float64{150, 150, 150, 120}, Rising},
		{"ignores readings past six", []float64{100, 100, 100, 100, 100, 100, 400}, Stable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(tt.readings); got != tt.want {
				t.Errorf("Trend(%v) = %s, want %s", tt.readings, got, tt.want)
			}
		})
	}
}

func TestSummarizeCountsAlwaysSumToTotal(t *testing.T) {
	readings := []float64{150, 190, 141, 60, 65, 100, 110, 120, 130, 140}

	summary := Summarize(readings)

	if summary.Total != 10 || summary.High != 3 || summary.Low != 2 {
		t.Fatalf("Summarize() = %+v, want total 10, high 3, low 2", summary)
	}
	if summary.Normal != 5 {
		t.Errorf("Normal = %d, want 5", summary.Normal)
	}
	if summary.VeryHigh != 1 {
		t.Errorf("VeryHigh = %d, want 1", summary.VeryHigh)
	}
	if summary.High+summary.Low+summary.Normal != summary.Total {
		t.Errorf("counts do not sum to total: %+v", summary)
	}
	if summary.Average != 120.6 {
		t.Errorf("Average = %v, want 120.6", summary.Average)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil); got != (Summary{}) {
		t.Fatalf("Summarize(nil) = %+v, want zero", got)
	}
}
