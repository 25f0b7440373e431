package services

import (
	"strings"
	"testing"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/models"
)

func newAuth(t *testing.T) (*AuthService, func(time.Time)) {
	t.Helper()
	s := NewAuthService(newDB(t), "test-secret", time.Hour)
	clock := time.Now()
	s.now = func() time.Time { return clock }
	return s, func(at time.Time) { clock = at }
}

func TestRegisterAndLogin(t *testing.T) {
	s, _ := newAuth(t)

	registered, err := s.Register(dto.RegisterRequest{Name: " Ana ", Email: "Ana@Example.com", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registered.User.Email != "ana@example.com" || registered.User.Role != models.RoleUser || !registered.User.IsActive {
		t.Errorf("registered user = %+v", registered.User)
	}
	if registered.Token == "" {
		t.Fatal("Register() returned no token")
	}

	loggedIn, err := s.Login(dto.LoginRequest{Email: "ANA@example.com", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	claims, err := s.ValidateToken(loggedIn.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != registered.User.ID || claims.Role != "user" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	s, _ := newAuth(t)
	req := dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"}
	if _, err := s.Register(req); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := s.Register(req)
	wantKind(t, err, apperrors.KindConflict)
	if fields := apperrors.As(err).Fields; len(fields) != 1 || fields[0].Field != "email" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	s, _ := newAuth(t)
	_, err := s.Register(dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret"})
	wantKind(t, err, apperrors.KindValidation)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	s, _ := newAuth(t)
	if _, err := s.Register(dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	inactive, err := s.Register(dto.RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.userRepo.DB().Model(&models.User{}).Where("id = ?", inactive.User.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	tests := []struct {
		name string
		req  dto.LoginRequest
	}{
		{"unknown email", dto.LoginRequest{Email: "nobody@example.com", Password: "Secret123"}},
		{"wrong password", dto.LoginRequest{Email: "ana@example.com", Password: "Wrong123"}},
		{"inactive", dto.LoginRequest{Email: "bo@example.com", Password: "Secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Login(tt.req)
			wantKind(t, err, apperrors.KindUnauthenticated)
			if got := apperrors.As(err).Message; got != MsgInvalidCredentials {
				t.Errorf("message = %q", got)
			}
		})
	}
}

func TestValidateTokenReasons(t *testing.T) {
	s, setClock := newAuth(t)
	resp, err := s.Register(dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	other := NewAuthService(s.userRepo.DB(), "another-secret", time.Hour)
	foreign, _, err := other.GenerateToken(resp.User.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"missing", "", MsgTokenRequired},
		{"garbage", "not.a.token", MsgTokenMalformed},
		{"bad signature", foreign, MsgTokenMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateToken(tt.token)
			wantKind(t, err, apperrors.KindUnauthenticated)
			if got := apperrors.As(err).Message; got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("expired", func(t *testing.T) {
		setClock(time.Now().Add(2 * time.Hour))
		_, err := s.ValidateToken(resp.Token)
		if got := apperrors.As(err).Message; got != MsgTokenExpired {
			t.Errorf("message = %q, want %q", got, MsgTokenExpired)
		}
	})
}

func TestAuthenticateRereadsUser(t *testing.T) {
	s, _ := newAuth(t)
	resp, err := s.Register(dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	db := s.userRepo.DB()
	if err := db.Model(&models.User{}).Where("id = ?", resp.User.ID).Update("role", models.RoleEditor).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	user, err := s.Authenticate(resp.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.Role != models.RoleEditor {
		t.Errorf("role = %s, want the stored role", user.Role)
	}

	if err := db.Model(&models.User{}).Where("id = ?", resp.User.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = s.Authenticate(resp.Token)
	if got := apperrors.As(err).Message; got != MsgInactiveUser {
		t.Errorf("message = %q", got)
	}
}

func TestUpdateProfile(t *testing.T) {
	s, _ := newAuth(t)
	ana, err := s.Register(dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := s.Register(dto.RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "Secret123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("profile fields", func(t *testing.T) {
		user, err := s.UpdateProfile(ana.User.ID, dto.UpdateProfileRequest{
			Profile: &dto.ProfileInput{Age: ptr(41), DiabetesType: ptr("Type 2"), DiagnosisDate: ptr("2020-03-01")},
		})
		if err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if *user.Profile.Age != 41 || user.Profile.DiabetesType != models.DiabetesType2 || user.Profile.DiagnosisDate == nil {
			t.Errorf("profile = %+v", user.Profile)
		}
	})

	t.Run("email in use", func(t *testing.T) {
		_, err := s.UpdateProfile(ana.User.ID, dto.UpdateProfileRequest{Email: ptr("BO@example.com")})
		wantKind(t, err, apperrors.KindConflict)
	})

	t.Run("password needs current password", func(t *testing.T) {
		_, err := s.UpdateProfile(ana.User.ID, dto.UpdateProfileRequest{CurrentPassword: "Wrong123", NewPassword: "Better456"})
		wantKind(t, err, apperrors.KindValidation)

		if _, err := s.UpdateProfile(ana.User.ID, dto.UpdateProfileRequest{CurrentPassword: "Secret123", NewPassword: "Better456"}); err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if _, err := s.Login(dto.LoginRequest{Email: "ana@example.com", Password: "Better456"}); err != nil {
			t.Errorf("Login() with new password error = %v", err)
		}
	})

	t.Run("future diagnosis date", func(t *testing.T) {
		tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
		_, err := s.UpdateProfile(ana.User.ID, dto.UpdateProfileRequest{Profile: &dto.ProfileInput{DiagnosisDate: &tomorrow}})
		wantKind(t, err, apperrors.KindValidation)
		if fields := apperrors.As(err).Fields; len(fields) == 0 || !strings.HasPrefix(fields[0].Field, "profile.") {
			t.Errorf("fields = %+v", fields)
		}
	})
}
