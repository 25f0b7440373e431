package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role represents user role types
type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Roles lists every assignable role
var Roles = []Role{RoleUser, RoleEditor, RoleAdmin}

// ParseRole normalizes a role name and reports whether it is known
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Roles {
		if role == known {
			return role, true
		}
	}
	return "", false
}

// DiabetesType is the diagnosis recorded in a medical profile
type DiabetesType string

const (
	DiabetesType1           DiabetesType = "Type 1"
	DiabetesType2           DiabetesType = "Type 2"
	DiabetesTypeGestational DiabetesType = "Gestational"
	DiabetesTypeMODY        DiabetesType = "MODY"
	DiabetesTypeOther       DiabetesType = "Other"
)

// DiabetesTypes lists the accepted diagnosis labels
var DiabetesTypes = []DiabetesType{
	DiabetesType1,
	DiabetesType2,
	DiabetesTypeGestational,
	DiabetesTypeMODY,
	DiabetesTypeOther,
}

// MedicalProfile holds the optional self-reported health data of a user
type MedicalProfile struct {
	Age               *int         `json:"age,omitempty"`
	Height            *float64     `json:"height,omitempty"`
	Weight            *float64     `json:"weight,omitempty"`
	DiabetesType      DiabetesType `json:"diabetesType,omitempty" gorm:"type:varchar(20)"`
	DiagnosisDate     *time.Time   `json:"diagnosisDate,omitempty"`
	CurrentMedication string       `json:"currentMedication,omitempty" gorm:"size:500"`
	EmergencyContact  string       `json:"emergencyContact,omitempty" gorm:"size:100"`
	EmergencyPhone    string       `json:"emergencyPhone,omitempty" gorm:"size:20"`
}

// User represents a user in the system
type User struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string         `json:"name" gorm:"size:100;not null"`
	Email     string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password  string         `json:"-" gorm:"not null"` // Password is not exposed in JSON
	Role      Role           `json:"role" gorm:"type:varchar(10);not null;index"`
	IsActive  bool           `json:"isActive" gorm:"not null;index"`
	Profile   MedicalProfile `json:"profile" gorm:"embedded;embeddedPrefix:profile_"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports whether the user currently holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
