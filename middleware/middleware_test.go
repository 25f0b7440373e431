package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/models"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// tokenAuth maps tokens straight to users
type tokenAuth map[string]*models.User

func (a tokenAuth) Authenticate(token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated("Access token required")
	}
	user, ok := a[token]
	if !ok {
		return nil, apperrors.Unauthenticated("Malformed token")
	}
	return user, nil
}

var users = tokenAuth{
	"user-token":   {ID: "u1", Role: models.RoleUser},
	"editor-token": {ID: "e1", Role: models.RoleEditor},
	"admin-token":  {ID: "a1", Role: models.RoleAdmin},
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func serve(t *testing.T, handler gin.HandlerFunc, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	router := gin.New()
	router.GET("/", handler, func(c *gin.Context) {
		scope := GetScope(c)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": scope.OwnerFilter()})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		handler  gin.HandlerFunc
		token    string
		want     int
		wantBody string
	}{
		{"public without token", Authorize(users, authz.Public()), "", http.StatusOK, ""},
		{"authenticated without token", Authorize(users, authz.AnyAuthenticated()), "", http.StatusUnauthorized, "Access token required"},
		{"authenticated bad token", Authorize(users, authz.AnyAuthenticated()), "nope", http.StatusUnauthorized, "Malformed token"},
		{"authenticated user", Authorize(users, authz.AnyAuthenticated()), "user-token", http.StatusOK, "u1"},
		{"admin route as user", AdminMiddleware(users), "user-token", http.StatusForbidden, ""},
		{"admin route as admin", AdminMiddleware(users), "admin-token", http.StatusOK, "a1"},
		{"editor route as editor", EditorMiddleware(users), "editor-token", http.StatusOK, "e1"},
		{"editor route as user", EditorMiddleware(users), "user-token", http.StatusForbidden, ""},
		{"owner route as user", Authorize(users, authz.OwnerOrRole(models.RoleAdmin)), "user-token", http.StatusOK, "u1"},
		{"owner route as admin is elevated", Authorize(users, authz.OwnerOrRole(models.RoleAdmin)), "admin-token", http.StatusOK, ""},
		{"editor owner route as admin", EditorMiddleware(users, authz.OwnerOrRole(models.RoleAdmin)), "admin-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(t, tt.handler, tt.token)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && body.Message != tt.wantBody {
				t.Errorf("owner filter = %q, want %q", body.Message, tt.wantBody)
			}
			if tt.want != http.StatusOK && (body.Success || (tt.wantBody != "" && body.Message != tt.wantBody)) {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc ": "abc",
		"Basic abc":   "",
		"abc":         "",
		"":            "",
	}
	for header, want := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		if got := bearerToken(c); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestErrorHidesInternalsInRelease(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Error(c, apperrors.Internal(nil, "Failed to query table users"))

	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "users") {
		t.Errorf("response = %d %s", rec.Code, rec.Body.String())
	}
}

func TestErrorFields(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Error(c, apperrors.Field("reading", "reading must be at most 600"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"field":"reading"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.POST("/", BodyLimit(8), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("response = %d %s", rec.Code, rec.Body.String())
	}
}
