package services

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/logging"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/repositories"
	"github.com/appcontrol-api/utils"
	"gorm.io/gorm"
)

const (
	msgUserNotFound  = "User not found"
	msgLastAdmin     = "Cannot remove the last active administrator"
	msgSelfDelete    = "You cannot delete your own account"
	generatedPassLen = 16
)

// UserService handles administration of user accounts
type UserService struct {
	db         *gorm.DB
	userRepo   *repositories.UserRepository
	recordRepo *repositories.GlucometryRepository
	examRepo   *repositories.ExamRepository
	recipeRepo *repositories.RecipeRepository
	store      FileStore
	now        func() time.Time
}

// NewUserService creates a new user service instance
func NewUserService(db *gorm.DB, store FileStore) *UserService {
	return &UserService{
		db:         db,
		userRepo:   repositories.NewUserRepository(db),
		recordRepo: repositories.NewGlucometryRepository(db),
		examRepo:   repositories.NewExamRepository(db),
		recipeRepo: repositories.NewRecipeRepository(db),
		store:      store,
		now:        time.Now,
	}
}

// List returns users matching filter; callers default IsActive to true
func (s *UserService) List(filter dto.UserFilter) (*dto.UserListResponse, error) {
	users, total, err := s.userRepo.FindWithPagination(filter)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve users")
	}
	if users == nil {
		users = []models.User{}
	}
	return &dto.UserListResponse{Users: users, Pagination: dto.NewPagination(filter.PageRequest, total)}, nil
}

// Get retrieves a user by ID
func (s *UserService) Get(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgUserNotFound)
		}
		return nil, apperrors.Internal(err, "Failed to retrieve user")
	}
	return &user, nil
}

// Stats counts active accounts per role
func (s *UserService) Stats() (*dto.UserStatsResponse, error) {
	byRole, err := s.userRepo.CountActiveByRole()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}
	inactive, err := s.userRepo.CountInactive()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}
	now := s.now().UTC()
	recent, err := s.userRepo.CountCreatedBetween(utils.DaysAgo(now, 30), now, true)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}

	stats := &dto.UserStatsResponse{Inactive: inactive, NewUsersLast30Day: recent}
	for _, row := range byRole {
		stats.Total += row.Count
		switch row.Role {
		case models.RoleAdmin:
			stats.Admins = row.Count
		case models.RoleEditor:
			stats.Editors = row.Count
		case models.RoleUser:
			stats.RegularUsers = row.Count
		}
	}
	return stats, nil
}

// Create adds an account with the requested role
func (s *UserService) Create(req dto.CreateUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.EmailTaken(req.Email, "")
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to check email")
	}
	if taken {
		return nil, apperrors.Conflict("email", "Email already registered")
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to hash password")
	}

	role := models.RoleUser
	if req.Role != "" {
		role, _ = models.ParseRole(req.Role)
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	if err := s.userRepo.Create(&user); err != nil {
		return nil, duplicateEmail(err)
	}
	logging.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("User created by admin")
	return &user, nil
}

// guardedUpdate applies updates to id, refusing changes that would leave
// no active admin
func (s *UserService) guardedUpdate(id string, updates map[string]interface{}) (*models.User, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	changed, err := s.userRepo.UpdateGuarded(id, updates)
	if err != nil {
		return nil, duplicateEmail(err)
	}
	if !changed {
		return nil, apperrors.Validation(msgLastAdmin)
	}
	return s.Get(id)
}

// Update edits another account. Deactivation goes through the admin guard.
func (s *UserService) Update(id string, req dto.UpdateUserRequest) (*models.User, error) {
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

	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		taken, err := s.userRepo.EmailTaken(*req.Email, id)
		if err != nil {
			return nil, apperrors.Internal(err, "Failed to check email")
		}
		if taken {
			return nil, apperrors.Conflict("email", "Email already in use")
		}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Profile != nil {
		profile := user.Profile
		if err := applyProfile(&profile, *req.Profile); err != nil {
			return nil, err
		}
		updates["profile_age"] = profile.Age
		updates["profile_height"] = profile.Height
		updates["profile_weight"] = profile.Weight
		updates["profile_diabetes_type"] = profile.DiabetesType
		updates["profile_diagnosis_date"] = profile.DiagnosisDate
		updates["profile_current_medication"] = profile.CurrentMedication
		updates["profile_emergency_contact"] = profile.EmergencyContact
		updates["profile_emergency_phone"] = profile.EmergencyPhone
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return user, nil
	}

	if req.IsActive != nil && !*req.IsActive {
		return s.guardedUpdate(id, updates)
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, duplicateEmail(err)
	}
	return s.Get(id)
}

// UpdateRole changes a user's role; demoting the last active admin fails
func (s *UserService) UpdateRole(id string, req dto.UpdateRoleRequest) (*models.User, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	role, _ := models.ParseRole(req.Role)

	var user *models.User
	var err error
	if role == models.RoleAdmin {
		if _, err = s.Get(id); err != nil {
			return nil, err
		}
		if err = s.db.Model(&models.User{}).Where("id = ?", id).Update("role", role).Error; err != nil {
			return nil, apperrors.Internal(err, "Failed to update role")
		}
		user, err = s.Get(id)
	} else {
		user, err = s.guardedUpdate(id, map[string]interface{}{"role": role})
	}
	if err != nil {
		return nil, err
	}
	logging.Info().Str("user_id", id).Str("role", string(role)).Msg("User role changed")
	return user, nil
}

// Deactivate clears the active flag; the last active admin stays active
func (s *UserService) Deactivate(id string) (*models.User, error) {
	return s.guardedUpdate(id, map[string]interface{}{"is_active": false})
}

// Reactivate sets the active flag again
func (s *UserService) Reactivate(id string) (*models.User, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", true).Error; err != nil {
		return nil, apperrors.Internal(err, "Failed to reactivate user")
	}
	return s.Get(id)
}

// Delete removes a user together with their records, exams and recipes.
// Stored files are removed after the rows are gone; failures there are
// logged as orphans and do not undo the deletion.
func (s *UserService) Delete(actorID, id string) error {
	if actorID == id {
		return apperrors.Validation(msgSelfDelete)
	}
	if _, err := s.Get(id); err != nil {
		return err
	}

	var files []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		examRepo := s.examRepo.WithTx(tx)
		recipeRepo := s.recipeRepo.WithTx(tx)

		examFiles, err := examRepo.FileURLsByUser(id)
		if err != nil {
			return apperrors.Internal(err, "Failed to delete user")
		}
		images, err := recipeRepo.ImageURLsByEditor(id)
		if err != nil {
			return apperrors.Internal(err, "Failed to delete user")
		}

		if err := s.recordRepo.WithTx(tx).DeleteByUser(id); err != nil {
			return apperrors.Internal(err, "Failed to delete user")
		}
		if err := examRepo.DeleteByUser(id); err != nil {
			return apperrors.Internal(err, "Failed to delete user")
		}
		if err := recipeRepo.DeleteByEditor(id); err != nil {
			return apperrors.Internal(err, "Failed to delete user")
		}

		deleted, err := s.userRepo.WithTx(tx).DeleteGuarded(id)
		if err != nil {
			return apperrors.Internal(err, "Failed to delete user")
		}
		if !deleted {
			return apperrors.Validation(msgLastAdmin)
		}

		files = append(examFiles, images...)
		return nil
	})
	if err != nil {
		return err
	}

	for _, url := range files {
		discard(s.store, url)
	}
	logging.Info().Str("user_id", id).Str("actor_id", actorID).Int("files", len(files)).Msg("User deleted")
	return nil
}

// ExportCSV writes every user as CSV
func (s *UserService) ExportCSV(w io.Writer) error {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return apperrors.Internal(err, "Failed to export users")
	}

	rows := make([][]string, 0, len(users))
	for _, user := range users {
		status := "Inactive"
		if user.IsActive {
			status = "Active"
		}
		rows = append(rows, []string{
			user.ID,
			user.Name,
			user.Email,
			string(user.Role),
			status,
			user.CreatedAt.UTC().Format(utils.DateLayout),
		})
	}

	if err := utils.WriteCSV(w, []string{"ID", "Name", "Email", "Role", "Status", "Registered"}, rows); err != nil {
		return apperrors.Internal(err, "Failed to export users")
	}
	return nil
}

// MonthlyReport collects the figures of the given month
func (s *UserService) MonthlyReport(year int, month time.Month) (*dto.MonthlyReport, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.Field("month", "Month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, apperrors.Field("year", "Invalid year")
	}

	start, end := utils.MonthRange(year, month)
	active, err := s.userRepo.CountActive()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to build report")
	}
	created, err := s.userRepo.CountCreatedBetween(start, end, false)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to build report")
	}
	byRole, err := s.userRepo.CountActiveByRole()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to build report")
	}

	return &dto.MonthlyReport{
		Month:       month,
		Year:        year,
		ActiveUsers: active,
		NewUsers:    created,
		ByRole:      byRole,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// RenderMonthlyReport formats report as plain text
func RenderMonthlyReport(report *dto.MonthlyReport) string {
	var b strings.Builder
	title := fmt.Sprintf("MONTHLY REPORT - %d/%d", int(report.Month), report.Year)
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")

	b.WriteString("SUMMARY:\n")
	fmt.Fprintf(&b, "- Active users: %d\n", report.ActiveUsers)
	fmt.Fprintf(&b, "- New users this month: %d\n\n", report.NewUsers)

	b.WriteString("DISTRIBUTION BY ROLE:\n")
	for _, row := range report.ByRole {
		fmt.Fprintf(&b, "- %s: %d\n", row.Role, row.Count)
	}

	fmt.Fprintf(&b, "\nReport generated at: %s\n", report.GeneratedAt.Format(time.RFC3339))
	return b.String()
}

// ReportFilename is the attachment name of a monthly report
func ReportFilename(report *dto.MonthlyReport) string {
	return fmt.Sprintf("report_%d_%d.txt", int(report.Month), report.Year)
}

// Notify logs a broadcast to every active user. There is no delivery
// channel; the response only reports the audience size.
func (s *UserService) Notify(actorID string, req dto.NotificationRequest) (*dto.NotificationResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	active, err := s.userRepo.CountActive()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to send notification")
	}

	logging.Info().
		Str("actor_id", actorID).
		Str("title", req.Title).
		Int64("recipients", active).
		Msg("Notification broadcast")
	return &dto.NotificationResponse{SentTo: active, Title: req.Title, Message: req.Message}, nil
}

// EnsureAdmin creates the bootstrap admin when no user holds email. An
// empty password is replaced by a generated one, returned to the caller.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(name, email, password string) (bool, string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return false, "", errors.New("admin email is required")
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return false, "", nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, "", err
	}

	if password == "" {
		generated, err := utils.GenerateSecurePassword(generatedPassLen)
		if err != nil {
			return false, "", err
		}
		password = generated
	}
	if !dto.IsStrongPassword(password) || len(password) < 6 {
		return false, "", errors.New("admin password must have at least 6 characters with a lower-case letter, an upper-case letter and a digit")
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return false, "", err
	}
	if name = strings.TrimSpace(name); name == "" {
		name = "Administrator"
	}

	admin := models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := s.userRepo.Create(&admin); err != nil {
		return false, "", err
	}
	return true, password, nil
}
