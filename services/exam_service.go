package services

import (
	"errors"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/logging"
	"github.com/appcontrol-api/metrics"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/repositories"
	"github.com/appcontrol-api/storage"
	"github.com/appcontrol-api/utils"
	"gorm.io/gorm"
)

const msgExamNotFound = "Exam not found"

// ExamService handles medical exam uploads and their metadata
type ExamService struct {
	db    *gorm.DB
	repo  *repositories.ExamRepository
	store FileStore
	now   func() time.Time
}

// NewExamService creates a new exam service instance
func NewExamService(db *gorm.DB, store FileStore) *ExamService {
	return &ExamService{
		db:    db,
		repo:  repositories.NewExamRepository(db),
		store: store,
		now:   time.Now,
	}
}

// Download is what the download endpoint streams
type Download struct {
	Path     string
	Name     string
	MimeType string
}

// Create stores the uploaded file and its metadata. The file is removed
// again when the metadata cannot be saved.
func (s *ExamService) Create(ownerID string, req dto.CreateExamRequest, file *multipart.FileHeader) (*models.MedicalExam, error) {
	req.Title = strings.TrimSpace(req.Title)
	if file == nil {
		return nil, apperrors.Field("examFile", "Exam file is required")
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	examDate, err := utils.ParseOptionalDate(req.ExamDate)
	if err != nil {
		return nil, apperrors.Field("examDate", "Invalid exam date")
	}

	stored, err := s.store.Save(storage.PurposeExam, file, models.ExamMimeTypes)
	if err != nil {
		return nil, err
	}

	exam := models.MedicalExam{
		UserID:       ownerID,
		Title:        req.Title,
		FileURL:      stored.URL,
		OriginalName: stored.OriginalName,
		FileSize:     stored.Size,
		MimeType:     stored.MimeType,
		ExamDate:     examDate,
		ExamType:     models.ExamType(req.ExamType),
	}
	if err := s.repo.Create(&exam); err != nil {
		discard(s.store, stored.URL)
		return nil, apperrors.Internal(err, "Failed to save exam")
	}

	metrics.RecordUpload(string(storage.PurposeExam))
	return &exam, nil
}

// List returns the caller's own exams
func (s *ExamService) List(scope authz.Scope, filter dto.ExamFilter) (*dto.ExamListResponse, error) {
	filter.UserID = scope.Principal.UserID

	exams, total, err := s.repo.FindWithPagination(filter, false)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve exams")
	}
	if exams == nil {
		exams = []models.MedicalExam{}
	}
	return &dto.ExamListResponse{Exams: exams, Pagination: dto.NewPagination(filter.PageRequest, total)}, nil
}

// Get returns a single exam; exams outside the scope are not found
func (s *ExamService) Get(scope authz.Scope, id string) (*models.MedicalExam, error) {
	exam, err := s.repo.FindOwned(id, scope.OwnerFilter())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgExamNotFound)
		}
		return nil, apperrors.Internal(err, "Failed to retrieve exam")
	}
	return &exam, nil
}

// Download resolves the stored file of an exam
func (s *ExamService) Download(scope authz.Scope, id string) (*Download, error) {
	exam, err := s.Get(scope, id)
	if err != nil {
		return nil, err
	}
	path, err := s.store.Path(exam.FileURL)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to locate exam file")
	}
	return &Download{Path: path, Name: exam.OriginalName, MimeType: exam.MimeType}, nil
}

// Update merges the non-nil metadata fields; the file itself is immutable
func (s *ExamService) Update(scope authz.Scope, id string, req dto.UpdateExamRequest) (*models.MedicalExam, error) {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.Get(scope, id); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Title != nil {
		changes["title"] = *req.Title
	}
	if req.ExamDate != nil {
		examDate, err := utils.ParseOptionalDate(*req.ExamDate)
		if err != nil {
			return nil, apperrors.Field("examDate", "Invalid exam date")
		}
		changes["exam_date"] = examDate
	}
	if req.ExamType != nil {
		changes["exam_type"] = models.ExamType(*req.ExamType)
	}

	updated, err := s.repo.UpdateOwned(id, scope.OwnerFilter(), changes)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to update exam")
	}
	if !updated {
		return nil, apperrors.NotFound(msgExamNotFound)
	}
	return s.Get(scope, id)
}

// Delete removes the exam row and its file together. When the file cannot
// be removed the row is kept and an internal error is returned.
func (s *ExamService) Delete(scope authz.Scope, id string) error {
	exam, err := s.Get(scope, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(exam.ID); err != nil {
			return apperrors.Internal(err, "Failed to delete exam")
		}
		if err := s.store.Remove(exam.FileURL); err != nil {
			return apperrors.Internal(err, "Failed to remove exam file; the exam was not deleted")
		}
		return nil
	})
	if err != nil {
		logging.Error().Err(err).Str("exam_id", exam.ID).Msg("Exam deletion failed")
		return err
	}
	return nil
}

func (s *ExamService) stats(ownerID string) (dto.ExamStatsResponse, int64, error) {
	totals, err := s.repo.Totals(ownerID, utils.DaysAgo(s.now().UTC(), 30))
	if err != nil {
		return dto.ExamStatsResponse{}, 0, apperrors.Internal(err, "Failed to retrieve statistics")
	}
	return dto.ExamStatsResponse{
		TotalExams:  totals.Total,
		RecentExams: totals.Recent,
		TotalSizeMB: math.Round(float64(totals.TotalSize)/(1024*1024)*100) / 100,
		ByType:      totals.ByType,
	}, totals.Users, nil
}

// Stats summarizes the owner's exams
func (s *ExamService) Stats(ownerID string) (*dto.ExamStatsResponse, error) {
	stats, _, err := s.stats(ownerID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// AdminList returns exams of every owner with the owner attached
func (s *ExamService) AdminList(filter dto.ExamFilter) (*dto.AdminExamListResponse, error) {
	exams, total, err := s.repo.FindWithPagination(filter, true)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve exams")
	}

	response := &dto.AdminExamListResponse{
		Exams:      make([]dto.AdminExam, 0, len(exams)),
		Pagination: dto.NewPagination(filter.PageRequest, total),
	}
	for _, exam := range exams {
		owner := ownerOf(exam.User)
		exam.User = nil
		response.Exams = append(response.Exams, dto.AdminExam{MedicalExam: exam, Owner: owner})
	}
	return response, nil
}

// AdminStats summarizes every stored exam
func (s *ExamService) AdminStats() (*dto.AdminExamStats, error) {
	stats, users, err := s.stats("")
	if err != nil {
		return nil, err
	}
	return &dto.AdminExamStats{ExamStatsResponse: stats, TotalUsers: users}, nil
}
