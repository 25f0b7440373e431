package services

import (
	"errors"
	"strings"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/logging"
	"github.com/appcontrol-api/metrics"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/repositories"
	"github.com/appcontrol-api/utils"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Messages shared by the login and token paths
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgTokenRequired      = "Access token required"
	MsgTokenExpired       = "Token expired"
	MsgTokenMalformed     = "Malformed token"
	MsgInactiveUser       = "Invalid token or inactive user"
)

// AuthService issues and verifies tokens and owns self-service account changes
type AuthService struct {
	userRepo  *repositories.UserRepository
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service instance
func NewAuthService(db *gorm.DB, secret string, expiresIn time.Duration) *AuthService {
	return &AuthService{
		userRepo:  repositories.NewUserRepository(db),
		secret:    []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// HashPassword hashes a plain-text password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// duplicateEmail maps a unique-constraint violation onto a conflict
func duplicateEmail(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Conflict("email", "Email already registered")
	}
	return apperrors.Internal(err, "Failed to save user")
}

// Register creates a new user account and signs it in
func (s *AuthService) Register(req dto.RegisterRequest) (*dto.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if err := dto.Validate(req); err != nil {
		metrics.RecordAuthAttempt("register", false)
		return nil, err
	}

	taken, err := s.userRepo.EmailTaken(req.Email, "")
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to check email")
	}
	if taken {
		metrics.RecordAuthAttempt("register", false)
		return nil, apperrors.Conflict("email", "Email already registered")
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to hash password")
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := s.userRepo.Create(&user); err != nil {
		metrics.RecordAuthAttempt("register", false)
		return nil, duplicateEmail(err)
	}

	metrics.RecordAuthAttempt("register", true)
	logging.Info().Str("user_id", user.ID).Msg("User registered")
	return s.issue(user)
}

// Login authenticates a user and returns a token. Unknown email, wrong
// password and inactive account are indistinguishable to the caller.
func (s *AuthService) Login(req dto.LoginRequest) (*dto.AuthResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordAuthAttempt("login", false)
			return nil, apperrors.Unauthenticated(MsgInvalidCredentials)
		}
		return nil, apperrors.Internal(err, "Failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil || !user.IsActive {
		metrics.RecordAuthAttempt("login", false)
		return nil, apperrors.Unauthenticated(MsgInvalidCredentials)
	}

	metrics.RecordAuthAttempt("login", true)
	return s.issue(user)
}

func (s *AuthService) issue(user models.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to issue token")
	}
	return &dto.AuthResponse{Token: token, User: user, ExpiresAt: expiresAt}, nil
}

// GenerateToken generates a new JWT token for a user
func (s *AuthService) GenerateToken(userID string, role models.Role) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("JWT secret is not configured")
	}

	now := s.now()
	expiresAt := now.Add(s.expiresIn)

	claims := dto.TokenClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns its claims. Expired
// tokens and every other failure are reported with different messages.
func (s *AuthService) ValidateToken(tokenString string) (*dto.TokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, apperrors.Unauthenticated(MsgTokenRequired)
	}

	token, err := jwt.ParseWithClaims(tokenString, &dto.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Unauthenticated(MsgTokenExpired)
		}
		return nil, apperrors.Unauthenticated(MsgTokenMalformed)
	}

	claims, ok := token.Claims.(*dto.TokenClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, apperrors.Unauthenticated(MsgTokenMalformed)
	}
	return claims, nil
}

// Authenticate validates a token and re-reads its user from the store; the
// role embedded in the token is not trusted
func (s *AuthService) Authenticate(tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthenticated(MsgInactiveUser)
		}
		return nil, apperrors.Internal(err, "Failed to load user")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthenticated(MsgInactiveUser)
	}
	return &user, nil
}

// Refresh issues a new token for an already authenticated user
func (s *AuthService) Refresh(user models.User) (*dto.AuthResponse, error) {
	return s.issue(user)
}

// GetUser retrieves a user by ID
func (s *AuthService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal(err, "Failed to load user")
	}
	return &user, nil
}

// UpdateProfile applies a partial self-service update
func (s *AuthService) UpdateProfile(userID string, req dto.UpdateProfileRequest) (*models.User, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if req.Email != nil {
		normalized := NormalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Email != nil && *req.Email != user.Email {
		taken, err := s.userRepo.EmailTaken(*req.Email, user.ID)
		if err != nil {
			return nil, apperrors.Internal(err, "Failed to check email")
		}
		if taken {
			return nil, apperrors.Conflict("email", "Email already in use")
		}
		changes["email"] = *req.Email
	}
	if req.Profile != nil {
		profile := user.Profile
		if err := applyProfile(&profile, *req.Profile); err != nil {
			return nil, err
		}
		for column, value := range profileColumns(profile) {
			changes[column] = value
		}
	}
	if req.NewPassword != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
			return nil, apperrors.Field("currentPassword", "Current password is incorrect")
		}
		hashed, err := HashPassword(req.NewPassword)
		if err != nil {
			return nil, apperrors.Internal(err, "Failed to hash password")
		}
		changes["password"] = hashed
	}

	// role and is_active are never written here so a concurrent admin
	// change to either survives
	updated, err := s.userRepo.UpdateColumns(user.ID, changes)
	if err != nil {
		return nil, duplicateEmail(err)
	}
	if !updated {
		return nil, apperrors.NotFound("User not found")
	}
	return s.GetUser(user.ID)
}

func profileColumns(profile models.MedicalProfile) map[string]interface{} {
	return map[string]interface{}{
		"profile_age":                profile.Age,
		"profile_height":             profile.Height,
		"profile_weight":             profile.Weight,
		"profile_diabetes_type":      profile.DiabetesType,
		"profile_diagnosis_date":     profile.DiagnosisDate,
		"profile_current_medication": profile.CurrentMedication,
		"profile_emergency_contact":  profile.EmergencyContact,
		"profile_emergency_phone":    profile.EmergencyPhone,
	}
}

// applyProfile merges the non-nil profile fields; input is already validated
func applyProfile(profile *models.MedicalProfile, input dto.ProfileInput) error {
	if input.Age != nil {
		profile.Age = input.Age
	}
	if input.Height != nil {
		profile.Height = input.Height
	}
	if input.Weight != nil {
		profile.Weight = input.Weight
	}
	if input.DiabetesType != nil {
		profile.DiabetesType = models.DiabetesType(*input.DiabetesType)
	}
	if input.DiagnosisDate != nil {
		date, err := utils.ParseOptionalDate(*input.DiagnosisDate)
		if err != nil {
			return apperrors.Field("profile.diagnosisDate", "Invalid diagnosis date")
		}
		profile.DiagnosisDate = date
	}
	if input.CurrentMedication != nil {
		profile.CurrentMedication = strings.TrimSpace(*input.CurrentMedication)
	}
	if input.EmergencyContact != nil {
		profile.EmergencyContact = strings.TrimSpace(*input.EmergencyContact)
	}
	if input.EmergencyPhone != nil {
		profile.EmergencyPhone = strings.TrimSpace(*input.EmergencyPhone)
	}
	return nil
}
