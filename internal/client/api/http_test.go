package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkravets/questpath/internal/client/models"
)

// newTestClient spins up an httptest server with the given handler and
// returns a client pointed at it.
func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, 3*time.Second)
}

func writeJSON(t *testing.T, w http.ResponseWriter, code int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestLogin_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "u@example.com", req.Email)
		require.Equal(t, "secret", req.Password)

		writeJSON(t, w, http.StatusOK, Credentials{Token: "tok-1", UserID: "42"})
	})

	creds, err := c.Login(context.Background(), "u@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-1", creds.Token)
	require.Equal(t, "42", creds.UserID)
}

func TestLogin_BadCredentials_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
	})

	_, err := c.Login(context.Background(), "u@example.com", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Contains(t, err.Error(), "invalid credentials")
}

func TestRegister_MalformedInput_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]string{"message": "email is required"})
	})

	_, err := c.Register(context.Background(), Registration{Password: "p"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "email is required", verr.Message)
}

func TestCurrentUser_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, models.User{ID: "42", Email: "u@example.com"})
	})

	c.SetToken("tok-1")
	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-1", gotAuth)
	require.Equal(t, "u@example.com", user.Email)
}

func TestClearToken_NoAuthorizationHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, models.NextSteps{})
	})

	c.SetToken("tok-1")
	c.ClearToken()
	_, err := c.NextSteps(context.Background())
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestServerError_Unavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Statistics(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestTransportError_Unavailable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := c.CurrentProgress(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRefreshToken_ReturnsNewToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/refresh", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]string{"token": "tok-2"})
	})

	tok, err := c.RefreshToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)
}

func TestRefreshToken_NotRenewable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
	})

	_, err := c.RefreshToken(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAchievements_DecodesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"achievements": []models.Achievement{{ID: "a1", Title: "First Lesson", Badge: "bronze"}},
		})
	})

	got, err := c.Achievements(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "First Lesson", got[0].Title)
}

func TestLeaderboard_SendsMetricAndLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "xp", r.URL.Query().Get("metric"))
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"entries": []models.LeaderboardEntry{{Rank: 1, Email: "top@example.com", Value: 900}},
		})
	})

	entries, err := c.Leaderboard(context.Background(), "xp", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, entries[0].Rank)
}

func TestAdvanceProgress_SendsStepType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StepType string `json:"step_type"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "lesson", req.StepType)
		writeJSON(t, w, http.StatusOK, models.Progress{CompletedLessons: 3})
	})

	p, err := c.AdvanceProgress(context.Background(), "lesson")
	require.NoError(t, err)
	require.Equal(t, 3, p.CompletedLessons)
}

func TestMapError_ErrorBodyWithoutMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := c.Logout(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.True(t, errors.Is(err, ErrUnauthorized))
}
