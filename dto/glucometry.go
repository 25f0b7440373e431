package dto

import (
	"time"

	"github.com/appcontrol-api/glucose"
	"github.com/appcontrol-api/models"
)

// CreateGlucometryRequest is the payload for a new reading
type CreateGlucometryRequest struct {
	Date     string   `json:"date" validate:"required,pastdate"`
	Reading  *float64 `json:"reading" validate:"required,gte=20,lte=600"`
	Notes    string   `json:"notes" validate:"max=500"`
	MealTime string   `json:"mealTime" validate:"omitempty,mealtime"`
}

// UpdateGlucometryRequest merges the non-nil fields into the record
type UpdateGlucometryRequest struct {
	Date     *string  `json:"date" validate:"omitempty,pastdate"`
	Reading  *float64 `json:"reading" validate:"omitempty,gte=20,lte=600"`
	Notes    *string  `json:"notes" validate:"omitempty,max=500"`
	MealTime *string  `json:"mealTime" validate:"omitempty,mealtime"`
}

// GlucometryFilter represents filter criteria for an owner's records
type GlucometryFilter struct {
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	MealTime  models.MealTime
	Level     glucose.Level
	PageRequest
}

// AdminGlucometryFilter lists records across owners
type AdminGlucometryFilter struct {
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	PageRequest
}

// GlucometryRecordResponse is a record with both classifications attached
type GlucometryRecordResponse struct {
	models.GlucometryRecord
	Classification  glucose.Level `json:"classification"`
	Label           string        `json:"classificationLabel"`
	HistoricalLevel glucose.Level `json:"historicalLevel"`
}

// NewGlucometryRecordResponse classifies record with both classifiers
func NewGlucometryRecordResponse(record models.GlucometryRecord) GlucometryRecordResponse {
	level := glucose.Classify(record.Reading)
	return GlucometryRecordResponse{
		GlucometryRecord: record,
		Classification:   level,
		Label:            level.Label(),
		HistoricalLevel:  glucose.ClassifyHistorical(record.Reading),
	}
}

// GlucometryListResponse represents paginated record list response
type GlucometryListResponse struct {
	Records    []GlucometryRecordResponse `json:"records"`
	Pagination Pagination                 `json:"pagination"`
}

// Owner is the public identity attached to admin listings
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AdminGlucometryRecord is a record with its owner attached
type AdminGlucometryRecord struct {
	GlucometryRecordResponse
	Owner *Owner `json:"owner"`
}

// AdminGlucometryListResponse represents paginated admin record list
type AdminGlucometryListResponse struct {
	Records    []AdminGlucometryRecord `json:"records"`
	Pagination Pagination              `json:"pagination"`
}

// ChartPoint is one reading in the stats chart, oldest first
type ChartPoint struct {
	Date     time.Time       `json:"date"`
	Reading  float64         `json:"reading"`
	MealTime models.MealTime `json:"mealTime"`
}

// GlucometryStatsResponse summarizes an owner's readings over a period
type GlucometryStatsResponse struct {
	PeriodDays int               `json:"periodDays"`
	Stats      glucose.Summary   `json:"stats"`
	Trend      glucose.Direction `json:"trend"`
	ChartData  []ChartPoint      `json:"chartData"`
}

// DashboardResponse is the landing-page summary of recent readings
type DashboardResponse struct {
	RecentRecords     []GlucometryRecordResponse `json:"recentRecords"`
	LatestReading     *GlucometryRecordResponse  `json:"latestReading"`
	AverageReading    float64                    `json:"averageReading"`
	Trend             glucose.Direction          `json:"trend"`
	TotalRecords      int64                      `json:"totalRecords"`
	RecordsLast30Days int64                      `json:"recordsLast30Days"`
}

// AdminGlucometryStats aggregates all owners' readings
type AdminGlucometryStats struct {
	glucose.Summary
	TotalUsers int64 `json:"totalUsers"`
}
