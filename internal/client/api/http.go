package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dkravets/questpath/internal/client/models"
)

const defaultRequestTimeout = 12 * time.Second

// HTTPClient implements SessionAPI and DataAPI over the backend's JSON REST
// API. It holds the bearer token attached to every outbound request; the
// session manager is the only writer of that token.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

// NewHTTPClient constructs a client for the given base URL, e.g.
// "https://api.questpath.io". A zero timeout falls back to the default.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
}

// SetToken attaches token to all subsequent requests.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken detaches the current token.
func (c *HTTPClient) ClearToken() {
	c.SetToken("")
}

// Token returns the currently attached token.
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// errorEnvelope is the backend's JSON error body.
type errorEnvelope struct {
	Message string `json:"message"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// mapError folds HTTP status codes into the client error taxonomy.
func (c *HTTPClient) mapError(resp *http.Response) error {
	var env errorEnvelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	if env.Message == "" {
		env.Message = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Message: env.Message}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return &ValidationError{Message: env.Message}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, env.Message)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, env.Message)
	}
}

// ---- SessionAPI ----

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Credentials, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (c *HTTPClient) Register(ctx context.Context, reg Registration) (*Credentials, error) {
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", reg, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) RefreshToken(ctx context.Context) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// ---- DataAPI ----

func (c *HTTPClient) CurrentProgress(ctx context.Context) (*models.Progress, error) {
	var p models.Progress
	if err := c.do(ctx, http.MethodGet, "/api/data/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) Statistics(ctx context.Context) (*models.Statistics, error) {
	var s models.Statistics
	if err := c.do(ctx, http.MethodGet, "/api/data/statistics", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) NextSteps(ctx context.Context) (*models.NextSteps, error) {
	var n models.NextSteps
	if err := c.do(ctx, http.MethodGet, "/api/data/next-steps", nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) Achievements(ctx context.Context) ([]models.Achievement, error) {
	var resp struct {
		Achievements []models.Achievement `json:"achievements"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/data/achievements", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Achievements, nil
}

func (c *HTTPClient) CheckNewAchievements(ctx context.Context) (*models.AchievementCheck, error) {
	var check models.AchievementCheck
	if err := c.do(ctx, http.MethodPost, "/api/data/achievements/check", nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

func (c *HTTPClient) CompleteLesson(ctx context.Context, data models.LessonCompletion) (*models.LessonResult, error) {
	var res models.LessonResult
	if err := c.do(ctx, http.MethodPost, "/api/data/lessons/complete", data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) AdvanceProgress(ctx context.Context, stepType string) (*models.Progress, error) {
	req := struct {
		StepType string `json:"step_type"`
	}{StepType: stepType}

	var p models.Progress
	if err := c.do(ctx, http.MethodPost, "/api/data/progress/advance", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) Leaderboard(ctx context.Context, metric string, limit int) ([]models.LeaderboardEntry, error) {
	q := url.Values{}
	q.Set("metric", metric)
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Entries []models.LeaderboardEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/data/leaderboard?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *HTTPClient) StudyStreak(ctx context.Context) (*models.StudyStreak, error) {
	var s models.StudyStreak
	if err := c.do(ctx, http.MethodGet, "/api/data/streak", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Interface guards.
var (
	_ SessionAPI = (*HTTPClient)(nil)
	_ DataAPI    = (*HTTPClient)(nil)
)
