package services

import (
	"errors"
	"strings"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/glucose"
	"github.com/appcontrol-api/metrics"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/repositories"
	"github.com/appcontrol-api/utils"
	"gorm.io/gorm"
)

const (
	// DefaultStatsPeriod is the stats window in days when none is given
	DefaultStatsPeriod = 30
	// MaxStatsPeriod caps the stats window
	MaxStatsPeriod = 365
)

const (
	dashboardRecent    = 5
	dashboardTrendSize = 2 * glucose.TrendWindow
	msgRecordNotFound  = "Glucometry record not found"
)

// GlucometryService handles business logic for glucose records
type GlucometryService struct {
	repo *repositories.GlucometryRepository
	now  func() time.Time
}

// NewGlucometryService creates a new glucometry service instance
func NewGlucometryService(db *gorm.DB) *GlucometryService {
	return &GlucometryService{
		repo: repositories.NewGlucometryRepository(db),
		now:  time.Now,
	}
}

// Create stores a new reading owned by ownerID
func (s *GlucometryService) Create(ownerID string, req dto.CreateGlucometryRequest) (*dto.GlucometryRecordResponse, error) {
	req.Notes = strings.TrimSpace(req.Notes)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.Field("date", "Invalid date")
	}

	record := models.GlucometryRecord{
		UserID:   ownerID,
		Date:     date,
		Reading:  *req.Reading,
		Notes:    req.Notes,
		MealTime: models.MealTime(req.MealTime),
	}
	if err := s.repo.Create(&record); err != nil {
		return nil, apperrors.Internal(err, "Failed to create record")
	}

	metrics.RecordReading(glucose.Classify(record.Reading))
	response := dto.NewGlucometryRecordResponse(record)
	return &response, nil
}

// List returns the caller's own records
func (s *GlucometryService) List(scope authz.Scope, filter dto.GlucometryFilter) (*dto.GlucometryListResponse, error) {
	filter.UserID = scope.Principal.UserID

	records, total, err := s.repo.FindWithPagination(filter)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve records")
	}

	response := &dto.GlucometryListResponse{
		Records:    make([]dto.GlucometryRecordResponse, 0, len(records)),
		Pagination: dto.NewPagination(filter.PageRequest, total),
	}
	for _, record := range records {
		response.Records = append(response.Records, dto.NewGlucometryRecordResponse(record))
	}
	return response, nil
}

func (s *GlucometryService) find(scope authz.Scope, id string) (models.GlucometryRecord, error) {
	record, err := s.repo.FindOwned(id, scope.OwnerFilter())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return record, apperrors.NotFound(msgRecordNotFound)
		}
		return record, apperrors.Internal(err, "Failed to retrieve record")
	}
	return record, nil
}

// Get returns a single record; records outside the scope are not found
func (s *GlucometryService) Get(scope authz.Scope, id string) (*dto.GlucometryRecordResponse, error) {
	record, err := s.find(scope, id)
	if err != nil {
		return nil, err
	}
	response := dto.NewGlucometryRecordResponse(record)
	return &response, nil
}

// Update merges the non-nil fields of req into the record
func (s *GlucometryService) Update(scope authz.Scope, id string, req dto.UpdateGlucometryRequest) (*dto.GlucometryRecordResponse, error) {
	if req.Notes != nil {
		trimmed := strings.TrimSpace(*req.Notes)
		req.Notes = &trimmed
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.find(scope, id); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Date != nil {
		date, err := utils.ParseDate(*req.Date)
		if err != nil {
			return nil, apperrors.Field("date", "Invalid date")
		}
		changes["date"] = date
	}
	if req.Reading != nil {
		changes["reading"] = *req.Reading
	}
	if req.Notes != nil {
		changes["notes"] = *req.Notes
	}
	if req.MealTime != nil {
		changes["meal_time"] = models.MealTime(*req.MealTime)
	}

	updated, err := s.repo.UpdateOwned(id, scope.OwnerFilter(), changes)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to update record")
	}
	if !updated {
		return nil, apperrors.NotFound(msgRecordNotFound)
	}
	return s.Get(scope, id)
}

// Delete removes a record the scope permits
func (s *GlucometryService) Delete(scope authz.Scope, id string) error {
	deleted, err := s.repo.DeleteOwned(id, scope.OwnerFilter())
	if err != nil {
		return apperrors.Internal(err, "Failed to delete record")
	}
	if !deleted {
		return apperrors.NotFound(msgRecordNotFound)
	}
	return nil
}

func readings(records []models.GlucometryRecord) []float64 {
	values := make([]float64, len(records))
	for i, record := range records {
		values[i] = record.Reading
	}
	return values
}

// Stats summarizes the owner's readings of the last periodDays days
func (s *GlucometryService) Stats(ownerID string, periodDays int) (*dto.GlucometryStatsResponse, error) {
	if periodDays < 1 {
		periodDays = DefaultStatsPeriod
	}
	if periodDays > MaxStatsPeriod {
		periodDays = MaxStatsPeriod
	}

	records, err := s.repo.FindSince(ownerID, utils.DaysAgo(s.now().UTC(), periodDays))
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}

	values := readings(records)
	chart := make([]dto.ChartPoint, len(records))
	for i, record := range records {
		// records are newest first; the chart runs oldest first
		chart[len(records)-1-i] = dto.ChartPoint{
			Date:     record.Date,
			Reading:  record.Reading,
			MealTime: record.MealTime,
		}
	}

	return &dto.GlucometryStatsResponse{
		PeriodDays: periodDays,
		Stats:      glucose.Summarize(values),
		Trend:      glucose.Trend(values),
		ChartData:  chart,
	}, nil
}

// Dashboard returns the landing-page summary of the owner's readings
func (s *GlucometryService) Dashboard(ownerID string) (*dto.DashboardResponse, error) {
	latest, err := s.repo.FindLatest(ownerID, dashboardTrendSize)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve dashboard")
	}
	total, err := s.repo.CountByUser(ownerID, time.Time{})
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve dashboard")
	}
	lastMonth, err := s.repo.CountByUser(ownerID, utils.DaysAgo(s.now().UTC(), 30))
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve dashboard")
	}

	values := readings(latest)
	response := &dto.DashboardResponse{
		RecentRecords:     make([]dto.GlucometryRecordResponse, 0, dashboardRecent),
		AverageReading:    glucose.Average(values),
		Trend:             glucose.Trend(values),
		TotalRecords:      total,
		RecordsLast30Days: lastMonth,
	}
	for i, record := range latest {
		if i == dashboardRecent {
			break
		}
		response.RecentRecords = append(response.RecentRecords, dto.NewGlucometryRecordResponse(record))
	}
	if len(response.RecentRecords) > 0 {
		response.LatestReading = &response.RecentRecords[0]
	}
	return response, nil
}

// AdminList returns records of every owner with the owner attached
func (s *GlucometryService) AdminList(filter dto.AdminGlucometryFilter) (*dto.AdminGlucometryListResponse, error) {
	records, total, err := s.repo.FindAllWithOwners(filter)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve records")
	}

	response := &dto.AdminGlucometryListResponse{
		Records:    make([]dto.AdminGlucometryRecord, 0, len(records)),
		Pagination: dto.NewPagination(filter.PageRequest, total),
	}
	for _, record := range records {
		response.Records = append(response.Records, dto.AdminGlucometryRecord{
			GlucometryRecordResponse: dto.NewGlucometryRecordResponse(record),
			Owner:                    ownerOf(record.User),
		})
	}
	return response, nil
}

// AdminStats summarizes every stored reading
func (s *GlucometryService) AdminStats() (*dto.AdminGlucometryStats, error) {
	values, err := s.repo.AllReadings()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}
	users, err := s.repo.CountDistinctUsers()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}
	return &dto.AdminGlucometryStats{Summary: glucose.Summarize(values), TotalUsers: users}, nil
}

// ownerOf turns a preloaded user into the identity shown in admin lists
func ownerOf(user *models.User) *dto.Owner {
	if user == nil {
		return nil
	}
	return &dto.Owner{ID: user.ID, Name: user.Name, Email: user.Email}
}
