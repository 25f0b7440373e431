package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExamType categorizes an uploaded medical exam
type ExamType string

const (
	ExamTypeGlycatedHemoglobin ExamType = "Glycated Hemoglobin"
	ExamTypeFastingGlucose     ExamType = "Fasting Glucose"
	ExamTypeToleranceCurve     ExamType = "Tolerance Curve"
	ExamTypeMicroalbumin       ExamType = "Microalbumin"
	ExamTypeLipidProfile       ExamType = "Lipid Profile"
	ExamTypeKidneyFunction     ExamType = "Kidney Function"
	ExamTypeEyeFundus          ExamType = "Eye Fundus"
	ExamTypeOther              ExamType = "Other"
)

// ExamTypes lists the accepted exam categories
var ExamTypes = []ExamType{
	ExamTypeGlycatedHemoglobin,
	ExamTypeFastingGlucose,
	ExamTypeToleranceCurve,
	ExamTypeMicroalbumin,
	ExamTypeLipidProfile,
	ExamTypeKidneyFunction,
	ExamTypeEyeFundus,
	ExamTypeOther,
}

// IsValid reports whether t is one of ExamTypes
func (t ExamType) IsValid() bool {
	for _, known := range ExamTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ExamMimeTypes is the upload allow-list for exam files
var ExamMimeTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/gif",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// MedicalExam is an uploaded exam file plus its metadata
type MedicalExam struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string     `json:"userId" gorm:"type:varchar(36);not null;index:idx_exam_user_upload,priority:1"`
	Title        string     `json:"title" gorm:"size:200;not null"`
	FileURL      string     `json:"fileUrl" gorm:"not null"`
	OriginalName string     `json:"originalName" gorm:"not null"`
	FileSize     int64      `json:"fileSize" gorm:"not null"`
	MimeType     string     `json:"mimeType" gorm:"size:100;not null"`
	UploadDate   time.Time  `json:"uploadDate" gorm:"not null;index:idx_exam_user_upload,priority:2"`
	ExamDate     *time.Time `json:"examDate,omitempty"`
	ExamType     ExamType   `json:"examType" gorm:"type:varchar(32);not null"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Relations
	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a UUID, the upload timestamp and the default type
func (e *MedicalExam) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.UploadDate.IsZero() {
		e.UploadDate = time.Now().UTC()
	}
	if e.ExamType == "" {
		e.ExamType = ExamTypeOther
	}
	return nil
}
