package dto

import (
	"time"

	"github.com/appcontrol-api/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents our custom JWT claims
type TokenClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents registration data
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,strongpassword"`
}

// AuthResponse represents the response after authentication
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// ProfileInput is a partial update of the medical profile; nil fields are
// left unchanged
type ProfileInput struct {
	Age               *int     `json:"age" validate:"omitempty,gte=1,lte=150"`
	Height            *float64 `json:"height" validate:"omitempty,gte=50,lte=300"`
	Weight            *float64 `json:"weight" validate:"omitempty,gte=20,lte=500"`
	DiabetesType      *string  `json:"diabetesType" validate:"omitempty,diabetestype"`
	DiagnosisDate     *string  `json:"diagnosisDate" validate:"omitempty,pastdate"`
	CurrentMedication *string  `json:"currentMedication" validate:"omitempty,max=500"`
	EmergencyContact  *string  `json:"emergencyContact" validate:"omitempty,max=100"`
	EmergencyPhone    *string  `json:"emergencyPhone" validate:"omitempty,max=20"`
}

// UpdateProfileRequest is the self-service profile update
type UpdateProfileRequest struct {
	Name            *string       `json:"name" validate:"omitempty,min=1,max=100"`
	Email           *string       `json:"email" validate:"omitempty,email"`
	Profile         *ProfileInput `json:"profile"`
	CurrentPassword string        `json:"currentPassword"`
	NewPassword     string        `json:"newPassword" validate:"omitempty,min=6,strongpassword"`
}
