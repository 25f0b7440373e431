package repositories

import (
	"time"

	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/models"
	"gorm.io/gorm"
)

// ExamRepository handles database operations for medical exams
type ExamRepository struct {
	db *gorm.DB
}

// NewExamRepository creates a new exam repository instance
func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ExamRepository) WithTx(tx *gorm.DB) *ExamRepository {
	return &ExamRepository{db: tx}
}

// Create inserts a new exam into the database
func (r *ExamRepository) Create(exam *models.MedicalExam) error {
	return r.db.Create(exam).Error
}

// FindOwned retrieves an exam by ID; a non-empty ownerID restricts the
// lookup to that owner's exams
func (r *ExamRepository) FindOwned(id, ownerID string) (models.MedicalExam, error) {
	var exam models.MedicalExam
	db := r.db.Where("id = ?", id)
	if ownerID != "" {
		db = db.Where("user_id = ?", ownerID)
	}
	result := db.First(&exam)
	return exam, result.Error
}

// UpdateOwned writes columns of an exam; a non-empty ownerID restricts the
// update to that owner. It reports whether the exam still exists.
func (r *ExamRepository) UpdateOwned(id, ownerID string, columns map[string]interface{}) (bool, error) {
	return updateScoped(r.db, &models.MedicalExam{}, id, "user_id", ownerID, columns)
}

// Delete removes an exam row
func (r *ExamRepository) Delete(id string) error {
	return r.db.Delete(&models.MedicalExam{}, "id = ?", id).Error
}

// FileURLsByUser lists the stored files of a user's exams
func (r *ExamRepository) FileURLsByUser(userID string) ([]string, error) {
	var urls []string
	err := r.db.Model(&models.MedicalExam{}).Where("user_id = ?", userID).Pluck("file_url", &urls).Error
	return urls, err
}

// DeleteByUser removes every exam row of a user
func (r *ExamRepository) DeleteByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.MedicalExam{}).Error
}

func (r *ExamRepository) filtered(filter dto.ExamFilter) *gorm.DB {
	db := r.db.Model(&models.MedicalExam{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.ExamType != "" {
		db = db.Where("exam_type = ?", filter.ExamType)
	}
	return dateRange(db, "upload_date", filter.StartDate, filter.EndDate)
}

// FindWithPagination retrieves exams, newest upload first; withOwners
// loads the owning user of each exam
func (r *ExamRepository) FindWithPagination(filter dto.ExamFilter, withOwners bool) ([]models.MedicalExam, int64, error) {
	var exams []models.MedicalExam
	var totalCount int64

	db := r.filtered(filter)
	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if withOwners {
		db = db.Preload("User")
	}
	err := db.Order("upload_date DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&exams).Error
	return exams, totalCount, err
}

// ExamTotals are the aggregate figures behind the exam statistics
type ExamTotals struct {
	Total     int64
	Recent    int64
	TotalSize int64
	ByType    map[string]int64
	Users     int64
}

// Totals aggregates exams of ownerID, or of everyone when ownerID is empty
func (r *ExamRepository) Totals(ownerID string, recentSince time.Time) (ExamTotals, error) {
	totals := ExamTotals{ByType: make(map[string]int64)}

	scoped := func() *gorm.DB {
		db := r.db.Model(&models.MedicalExam{})
		if ownerID != "" {
			db = db.Where("user_id = ?", ownerID)
		}
		return db
	}

	if err := scoped().Count(&totals.Total).Error; err != nil {
		return totals, err
	}
	if err := scoped().Where("upload_date >= ?", recentSince).Count(&totals.Recent).Error; err != nil {
		return totals, err
	}
	if err := scoped().Select("COALESCE(SUM(file_size), 0)").Scan(&totals.TotalSize).Error; err != nil {
		return totals, err
	}

	var rows []struct {
		ExamType string
		Count    int64
	}
	if err := scoped().Select("exam_type, COUNT(*) AS count").Group("exam_type").Scan(&rows).Error; err != nil {
		return totals, err
	}
	for _, row := range rows {
		totals.ByType[row.ExamType] = row.Count
	}

	if ownerID == "" {
		if err := scoped().Distinct("user_id").Count(&totals.Users).Error; err != nil {
			return totals, err
		}
	}
	return totals, nil
}
