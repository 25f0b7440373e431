package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/models"
	"github.com/goccy/go-json"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response of the API
type APIError struct {
	Status  int
	Message string
	Fields  []apperrors.FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is, or wraps, a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client calls the API under baseURL, e.g. "http://localhost:5000/api/v1"
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// New creates a client signing its requests with session. A nil
// httpClient uses one with a 30 second timeout.
func New(baseURL string, session *Session, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
	}
}

// Session returns the session the client signs requests with
func (c *Client) Session() *Session {
	return c.session
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Errors  []apperrors.FieldError `json:"errors"`
}

// do sends a JSON request and decodes the data of the envelope into out.
// A 401 on a signed request clears the session.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.session.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			c.session.clear()
		}
		return &APIError{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Login signs in and stores the issued token in the session
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, dto.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.session.set(resp.Token, resp.User, resp.ExpiresAt)
	return &resp.User, nil
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	req := dto.RegisterRequest{Name: name, Email: email, Password: password}
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	c.session.set(resp.Token, resp.User, resp.ExpiresAt)
	return &resp.User, nil
}

// Refresh exchanges the current token for a new one
func (c *Client) Refresh(ctx context.Context) error {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, nil, &resp); err != nil {
		return err
	}
	c.session.set(resp.Token, resp.User, resp.ExpiresAt)
	return nil
}

// Logout tells the server and clears the session even when that fails
func (c *Client) Logout(ctx context.Context) error {
	if !c.session.Authenticated() {
		c.session.clear()
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	c.session.clear()
	return err
}

// Me reloads the signed in user and updates the session copy
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	c.session.setUser(resp.User)
	return &resp.User, nil
}

// ReadingQuery filters ListReadings
type ReadingQuery struct {
	StartDate string
	EndDate   string
	MealTime  models.MealTime
	Level     string
	Page      int
	Limit     int
}

func (q ReadingQuery) values() url.Values {
	v := url.Values{}
	setIf(v, "startDate", q.StartDate)
	setIf(v, "endDate", q.EndDate)
	setIf(v, "mealTime", string(q.MealTime))
	setIf(v, "level", q.Level)
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)
	return v
}

// CreateReading stores a reading for the signed in user
func (c *Client) CreateReading(ctx context.Context, req dto.CreateGlucometryRequest) (*dto.GlucometryRecordResponse, error) {
	var resp struct {
		Record dto.GlucometryRecordResponse `json:"record"`
	}
	if err := c.do(ctx, http.MethodPost, "/records/glucometry", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Record, nil
}

// ListReadings lists the signed in user's readings
func (c *Client) ListReadings(ctx context.Context, q ReadingQuery) (*dto.GlucometryListResponse, error) {
	var resp dto.GlucometryListResponse
	if err := c.do(ctx, http.MethodGet, "/records/glucometry", q.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteReading removes one of the signed in user's readings
func (c *Client) DeleteReading(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/records/glucometry/"+url.PathEscape(id), nil, nil, nil)
}

// GlucoseStats summarizes the last period days of readings
func (c *Client) GlucoseStats(ctx context.Context, period int) (*dto.GlucometryStatsResponse, error) {
	q := url.Values{}
	setInt(q, "period", period)
	var resp dto.GlucometryStatsResponse
	if err := c.do(ctx, http.MethodGet, "/records/glucometry/stats", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Dashboard returns the landing summary of the signed in user
func (c *Client) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	var resp dto.DashboardResponse
	if err := c.do(ctx, http.MethodGet, "/records/glucometry/dashboard", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecipeQuery filters ListRecipes
type RecipeQuery struct {
	Search     string
	Tag        string
	Difficulty models.Difficulty
	SortBy     string
	Order      string
	Page       int
	Limit      int
}

func (q RecipeQuery) values() url.Values {
	v := url.Values{}
	setIf(v, "search", q.Search)
	setIf(v, "tag", q.Tag)
	setIf(v, "difficulty", string(q.Difficulty))
	setIf(v, "sortBy", q.SortBy)
	setIf(v, "order", q.Order)
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)
	return v
}

// ListRecipes lists published recipes; no session is needed
func (c *Client) ListRecipes(ctx context.Context, q RecipeQuery) (*dto.RecipeListResponse, error) {
	var resp dto.RecipeListResponse
	if err := c.do(ctx, http.MethodGet, "/recipes", q.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRecipe returns a published recipe
func (c *Client) GetRecipe(ctx context.Context, id string) (*dto.RecipeResponse, error) {
	var resp struct {
		Recipe dto.RecipeResponse `json:"recipe"`
	}
	if err := c.do(ctx, http.MethodGet, "/recipes/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Recipe, nil
}

// RecipeTags returns the most used tags of published recipes
func (c *Client) RecipeTags(ctx context.Context) ([]dto.TagCount, error) {
	var resp struct {
		Tags []dto.TagCount `json:"tags"`
	}
	if err := c.do(ctx, http.MethodGet, "/recipes/tags", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setInt(v url.Values, key string, value int) {
	if value > 0 {
		v.Set(key, strconv.Itoa(value))
	}
}
