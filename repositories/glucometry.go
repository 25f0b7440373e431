package repositories

import (
	"time"

	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/glucose"
	"github.com/appcontrol-api/models"
	"gorm.io/gorm"
)

// GlucometryRepository handles database operations for glucose records
type GlucometryRepository struct {
	db *gorm.DB
}

// NewGlucometryRepository creates a new glucometry repository instance
func NewGlucometryRepository(db *gorm.DB) *GlucometryRepository {
	return &GlucometryRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GlucometryRepository) WithTx(tx *gorm.DB) *GlucometryRepository {
	return &GlucometryRepository{db: tx}
}

// Create inserts a new record into the database
func (r *GlucometryRepository) Create(record *models.GlucometryRecord) error {
	return r.db.Create(record).Error
}

// FindOwned retrieves a record by ID; a non-empty ownerID restricts the
// lookup to that owner's records
func (r *GlucometryRepository) FindOwned(id, ownerID string) (models.GlucometryRecord, error) {
	var record models.GlucometryRecord
	db := r.db.Where("id = ?", id)
	if ownerID != "" {
		db = db.Where("user_id = ?", ownerID)
	}
	result := db.First(&record)
	return record, result.Error
}

// UpdateOwned writes columns of a record; a non-empty ownerID restricts
// the update to that owner. It reports whether the record still exists.
func (r *GlucometryRepository) UpdateOwned(id, ownerID string, columns map[string]interface{}) (bool, error) {
	return updateScoped(r.db, &models.GlucometryRecord{}, id, "user_id", ownerID, columns)
}

// DeleteOwned removes a record; a non-empty ownerID restricts the delete
// to that owner. It reports whether a row was removed.
func (r *GlucometryRepository) DeleteOwned(id, ownerID string) (bool, error) {
	db := r.db.Where("id = ?", id)
	if ownerID != "" {
		db = db.Where("user_id = ?", ownerID)
	}
	result := db.Delete(&models.GlucometryRecord{})
	return result.RowsAffected > 0, result.Error
}

// DeleteByUser removes every record of a user
func (r *GlucometryRepository) DeleteByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.GlucometryRecord{}).Error
}

func dateRange(db *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		db = db.Where(column+" >= ?", *from)
	}
	if to != nil {
		db = db.Where(column+" <= ?", *to)
	}
	return db
}

// levelRange restricts readings to a three-band historical level
func levelRange(db *gorm.DB, level glucose.Level) *gorm.DB {
	switch level {
	case glucose.Low:
		return db.Where("reading < ?", glucose.LowThreshold)
	case glucose.Normal:
		return db.Where("reading >= ? AND reading <= ?", glucose.LowThreshold, glucose.NormalCeiling)
	case glucose.High:
		return db.Where("reading > ?", glucose.NormalCeiling)
	}
	return db
}

// FindWithPagination retrieves an owner's records, most recent first
func (r *GlucometryRepository) FindWithPagination(filter dto.GlucometryFilter) ([]models.GlucometryRecord, int64, error) {
	var records []models.GlucometryRecord
	var totalCount int64

	db := r.db.Model(&models.GlucometryRecord{}).Where("user_id = ?", filter.UserID)
	db = dateRange(db, "date", filter.StartDate, filter.EndDate)
	if filter.MealTime != "" {
		db = db.Where("meal_time = ?", filter.MealTime)
	}
	db = levelRange(db, filter.Level)

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("date DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&records).Error
	return records, totalCount, err
}

// FindAllWithOwners retrieves records across owners with the owner loaded
func (r *GlucometryRepository) FindAllWithOwners(filter dto.AdminGlucometryFilter) ([]models.GlucometryRecord, int64, error) {
	var records []models.GlucometryRecord
	var totalCount int64

	db := r.db.Model(&models.GlucometryRecord{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	db = dateRange(db, "date", filter.StartDate, filter.EndDate)

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("User").
		Order("date DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&records).Error
	return records, totalCount, err
}

// FindSince returns an owner's records dated at or after since, most
// recent first
func (r *GlucometryRepository) FindSince(ownerID string, since time.Time) ([]models.GlucometryRecord, error) {
	var records []models.GlucometryRecord
	err := r.db.Where("user_id = ? AND date >= ?", ownerID, since).
		Order("date DESC").
		Find(&records).Error
	return records, err
}

// FindLatest returns an owner's n most recent records
func (r *GlucometryRepository) FindLatest(ownerID string, n int) ([]models.GlucometryRecord, error) {
	var records []models.GlucometryRecord
	err := r.db.Where("user_id = ?", ownerID).
		Order("date DESC").
		Limit(n).
		Find(&records).Error
	return records, err
}

// CountByUser counts an owner's records dated at or after since; a zero
// since counts them all
func (r *GlucometryRepository) CountByUser(ownerID string, since time.Time) (int64, error) {
	var count int64
	db := r.db.Model(&models.GlucometryRecord{}).Where("user_id = ?", ownerID)
	if !since.IsZero() {
		db = db.Where("date >= ?", since)
	}
	err := db.Count(&count).Error
	return count, err
}

// AllReadings returns every stored reading
func (r *GlucometryRepository) AllReadings() ([]float64, error) {
	var readings []float64
	err := r.db.Model(&models.GlucometryRecord{}).Pluck("reading", &readings).Error
	return readings, err
}

// CountDistinctUsers counts owners with at least one record
func (r *GlucometryRepository) CountDistinctUsers() (int64, error) {
	var count int64
	err := r.db.Model(&models.GlucometryRecord{}).Distinct("user_id").Count(&count).Error
	return count, err
}
