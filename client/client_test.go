package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v1 "github.com/appcontrol-api/api/v1"
	"github.com/appcontrol-api/database/testdb"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/storage"
	"github.com/gin-gonic/gin"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	router := gin.New()
	v1.RegisterRoutes(router.Group("/api/v1"), v1.Dependencies{
		DB:            testdb.New(t),
		Store:         store,
		MaxUploadSize: 1 << 20,
		JWTSecret:     "client-secret",
		JWTExpiresIn:  time.Hour,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionLifecycle(t *testing.T) {
	srv := newServer(t)
	session := NewSession()
	c := New(srv.URL+"/api/v1/", session, srv.Client())
	ctx := context.Background()

	if session.Authenticated() || session.User() != nil {
		t.Fatal("new session should be signed out")
	}

	user, err := c.Register(ctx, "Bea", "Bea@Example.com", "Secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "bea@example.com" || !session.Authenticated() {
		t.Fatalf("after register: user=%+v authenticated=%v", user, session.Authenticated())
	}
	if got := session.User(); got == nil || got.ID != user.ID {
		t.Errorf("session user = %+v", got)
	}

	reading := 95.0
	record, err := c.CreateReading(ctx, dto.CreateGlucometryRequest{Date: "2024-05-01", Reading: &reading, MealTime: string(models.MealTimeFasting)})
	if err != nil {
		t.Fatalf("CreateReading() error = %v", err)
	}
	if record.Reading != 95 || record.MealTime != models.MealTimeFasting {
		t.Errorf("record = %+v", record)
	}

	list, err := c.ListReadings(ctx, ReadingQuery{Level: "normal"})
	if err != nil {
		t.Fatalf("ListReadings() error = %v", err)
	}
	if len(list.Records) != 1 || list.Pagination.Total != 1 {
		t.Errorf("list = %+v", list)
	}

	previous := session.Token()
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !session.Authenticated() || session.Token() == "" {
		t.Errorf("refresh dropped the session (previous token %q)", previous)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if session.Authenticated() || session.User() != nil {
		t.Error("session not cleared by Logout")
	}

	_, err = c.Dashboard(ctx)
	if !IsUnauthorized(err) {
		t.Errorf("Dashboard() after logout error = %v, want 401", err)
	}

	if _, err := c.Login(ctx, "bea@example.com", "Wrong123"); !IsUnauthorized(err) {
		t.Errorf("Login() with bad password error = %v", err)
	}
	if session.Authenticated() {
		t.Error("failed login must not authenticate the session")
	}
}

func TestRejectedTokenClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Token expired"}`))
	}))
	defer srv.Close()

	session := NewSession()
	session.set("stale", models.User{ID: "u1"}, time.Now().Add(time.Hour))
	c := New(srv.URL, session, srv.Client())

	_, err := c.Me(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Token expired" {
		t.Fatalf("Me() error = %v", err)
	}
	if session.Authenticated() || session.User() != nil {
		t.Error("session not cleared after 401")
	}
	if !IsUnauthorized(fmt.Errorf("load profile: %w", err)) {
		t.Error("wrapped 401 not recognised")
	}
	if IsUnauthorized(fmt.Errorf("load profile: %w", &APIError{Status: http.StatusForbidden})) {
		t.Error("403 reported as unauthorized")
	}
}

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	session := NewSession()
	session.now = func() time.Time { return now }
	session.set("token", models.User{ID: "u1"}, now.Add(time.Minute))

	if !session.Authenticated() {
		t.Fatal("fresh token should be authenticated")
	}
	now = now.Add(time.Minute)
	if session.Authenticated() || session.Token() != "" || session.User() != nil {
		t.Error("expired token still reported")
	}
}
