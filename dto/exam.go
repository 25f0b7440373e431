package dto

import (
	"time"

	"github.com/appcontrol-api/models"
)

// CreateExamRequest holds the form fields sent alongside the exam file
type CreateExamRequest struct {
	Title    string `form:"title" json:"title" validate:"required,max=200"`
	ExamDate string `form:"examDate" json:"examDate" validate:"omitempty,pastdate"`
	ExamType string `form:"examType" json:"examType" validate:"omitempty,examtype"`
}

// UpdateExamRequest merges the non-nil fields into the exam metadata
type UpdateExamRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	ExamDate *string `json:"examDate" validate:"omitempty,pastdate"`
	ExamType *string `json:"examType" validate:"omitempty,examtype"`
}

// ExamFilter represents filter criteria for exam listings; an empty
// UserID lists every owner
type ExamFilter struct {
	UserID    string
	ExamType  models.ExamType
	StartDate *time.Time
	EndDate   *time.Time
	PageRequest
}

// ExamListResponse represents paginated exam list response
type ExamListResponse struct {
	Exams      []models.MedicalExam `json:"exams"`
	Pagination Pagination           `json:"pagination"`
}

// AdminExam is an exam with its owner attached
type AdminExam struct {
	models.MedicalExam
	Owner *Owner `json:"owner"`
}

// AdminExamListResponse represents paginated admin exam list
type AdminExamListResponse struct {
	Exams      []AdminExam `json:"exams"`
	Pagination Pagination  `json:"pagination"`
}

// ExamStatsResponse summarizes stored exams
type ExamStatsResponse struct {
	TotalExams  int64            `json:"totalExams"`
	RecentExams int64            `json:"recentExams"`
	TotalSizeMB float64          `json:"totalSizeMB"`
	ByType      map[string]int64 `json:"byType"`
}

// AdminExamStats adds the number of distinct owners
type AdminExamStats struct {
	ExamStatsResponse
	TotalUsers int64 `json:"totalUsers"`
}
