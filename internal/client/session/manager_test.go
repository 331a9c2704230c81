package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dkravets/questpath/internal/client/api"
	"github.com/dkravets/questpath/internal/client/models"
	"github.com/dkravets/questpath/internal/logging"
)

// ---- fakes ----

type fakeSessionAPI struct {
	LoginCreds *api.Credentials
	LoginErr   error

	RegisterCreds *api.Credentials
	RegisterErr   error

	UserRet *models.User
	UserErr error

	RefreshRet string
	RefreshErr error

	LogoutErr error

	LoginCalls       int
	CurrentUserCalls int
	RefreshCalls     int
	LogoutCalls      int

	LastLoginEmail    string
	LastLoginPassword string

	// onCurrentUser lets tests observe state at the moment of the
	// confirmation call (ordering checks).
	onCurrentUser func()
}

func (f *fakeSessionAPI) Login(ctx context.Context, email, password string) (*api.Credentials, error) {
	f.LoginCalls++
	f.LastLoginEmail = email
	f.LastLoginPassword = password
	return f.LoginCreds, f.LoginErr
}

func (f *fakeSessionAPI) Register(ctx context.Context, reg api.Registration) (*api.Credentials, error) {
	return f.RegisterCreds, f.RegisterErr
}

func (f *fakeSessionAPI) CurrentUser(ctx context.Context) (*models.User, error) {
	f.CurrentUserCalls++
	if f.onCurrentUser != nil {
		f.onCurrentUser()
	}
	return f.UserRet.Clone(), f.UserErr
}

func (f *fakeSessionAPI) RefreshToken(ctx context.Context) (string, error) {
	f.RefreshCalls++
	return f.RefreshRet, f.RefreshErr
}

func (f *fakeSessionAPI) Logout(ctx context.Context) error {
	f.LogoutCalls++
	return f.LogoutErr
}

type fakeSink struct {
	mu     sync.Mutex
	token  string
	clears int
}

func (f *fakeSink) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeSink) ClearToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.clears++
}

func (f *fakeSink) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

type fakeStore struct {
	mu    sync.Mutex
	token string
	user  *models.User

	SaveTokenErr error
	LoadErr      error
}

func (f *fakeStore) SaveToken(ctx context.Context, token string) error {
	if f.SaveTokenErr != nil {
		return f.SaveTokenErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	return nil
}

func (f *fakeStore) SaveUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = user.Clone()
	return nil
}

func (f *fakeStore) Load(ctx context.Context) (string, *models.User, error) {
	if f.LoadErr != nil {
		return "", nil, f.LoadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == "" || f.user == nil {
		return "", nil, nil
	}
	return f.token, f.user.Clone(), nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.user = nil
	return nil
}

func (f *fakeStore) stored() (string, *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.user.Clone()
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestManager(fc *fakeSessionAPI) (*Manager, *fakeSink, *fakeStore) {
	sink := &fakeSink{}
	store := &fakeStore{}
	return NewManager(fc, sink, store, testLogger()), sink, store
}

func strp(s string) *string { return &s }

// ---- bootstrap ----

func TestBootstrap_NoStoredCredentials_Unauthenticated(t *testing.T) {
	fc := &fakeSessionAPI{}
	m, _, _ := newTestManager(fc)

	m.Bootstrap(context.Background())

	require.Equal(t, StatusUnauthenticated, m.Snapshot().Status)
	require.Zero(t, fc.CurrentUserCalls)
}

func TestBootstrap_StoredCredentialsValid_Authenticated(t *testing.T) {
	fc := &fakeSessionAPI{UserRet: &models.User{Email: "u@example.com", ProfileXP: 250}}
	m, sink, store := newTestManager(fc)
	require.NoError(t, store.SaveToken(context.Background(), "tok-1"))
	require.NoError(t, store.SaveUser(context.Background(), &models.User{Email: "u@example.com", ProfileXP: 100}))

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	require.Equal(t, StatusAuthenticated, snap.Status)
	require.Equal(t, "tok-1", snap.Token)
	require.NotEmpty(t, snap.Epoch)
	// refreshed snapshot wins over the stored one
	require.Equal(t, 250, snap.User.ProfileXP)
	require.Equal(t, "tok-1", sink.Token())

	_, storedUser := store.stored()
	require.Equal(t, 250, storedUser.ProfileXP)
}

func TestBootstrap_ValidationFails_SilentlyUnauthenticated(t *testing.T) {
	fc := &fakeSessionAPI{UserErr: &api.AuthError{Message: "token expired"}}
	m, sink, store := newTestManager(fc)
	require.NoError(t, store.SaveToken(context.Background(), "tok-stale"))
	require.NoError(t, store.SaveUser(context.Background(), &models.User{Email: "u@example.com"}))

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	// never StatusError: the user took no action
	require.Equal(t, StatusUnauthenticated, snap.Status)
	require.Empty(t, snap.Err)

	token, user := store.stored()
	require.Empty(t, token)
	require.Nil(t, user)
	require.Empty(t, sink.Token())
}

func TestBootstrap_Idempotent(t *testing.T) {
	fc := &fakeSessionAPI{UserRet: &models.User{Email: "u@example.com"}}
	m, _, store := newTestManager(fc)
	require.NoError(t, store.SaveToken(context.Background(), "tok-1"))
	require.NoError(t, store.SaveUser(context.Background(), &models.User{Email: "u@example.com"}))

	m.Bootstrap(context.Background())
	m.Bootstrap(context.Background())

	require.Equal(t, 1, fc.CurrentUserCalls)
}

// ---- login / register ----

func TestLogin_Success(t *testing.T) {
	fc := &fakeSessionAPI{
		LoginCreds: &api.Credentials{Token: "tok-1", UserID: "42"},
		UserRet:    &models.User{ID: "42", Email: "u@example.com"},
	}
	m, sink, store := newTestManager(fc)

	require.NoError(t, m.Login(context.Background(), "u@example.com", "secret"))

	snap := m.Snapshot()
	require.Equal(t, StatusAuthenticated, snap.Status)
	require.Equal(t, "u@example.com", snap.User.Email)
	require.NotEmpty(t, snap.Epoch)
	require.Equal(t, "tok-1", sink.Token())

	token, user := store.stored()
	require.Equal(t, "tok-1", token)
	require.Equal(t, "u@example.com", user.Email)
	require.Equal(t, "u@example.com", fc.LastLoginEmail)
}

func TestLogin_TokenAttachedBeforeConfirmCall(t *testing.T) {
	fc := &fakeSessionAPI{
		LoginCreds: &api.Credentials{Token: "tok-1"},
		UserRet:    &models.User{Email: "u@example.com"},
	}
	m, sink, store := newTestManager(fc)

	var tokenAtConfirm, storedAtConfirm string
	fc.onCurrentUser = func() {
		tokenAtConfirm = sink.Token()
		storedAtConfirm, _ = store.stored()
	}

	require.NoError(t, m.Login(context.Background(), "u@example.com", "secret"))

	// strict happens-before: persisted and attached before "who am I"
	require.Equal(t, "tok-1", tokenAtConfirm)
	require.Equal(t, "tok-1", storedAtConfirm)
}

func TestLogin_Rejected_ErrorStateAndNothingPersisted(t *testing.T) {
	fc := &fakeSessionAPI{LoginErr: &api.AuthError{Message: "invalid credentials"}}
	m, sink, store := newTestManager(fc)

	err := m.Login(context.Background(), "a", "b")
	require.ErrorIs(t, err, api.ErrUnauthorized)

	snap := m.Snapshot()
	require.Equal(t, StatusError, snap.Status)
	require.Equal(t, "invalid credentials", snap.Err)

	token, user := store.stored()
	require.Empty(t, token)
	require.Nil(t, user)
	require.Empty(t, sink.Token())
	require.Zero(t, fc.CurrentUserCalls)
}

func TestLogin_ConfirmFails_PhaseOneRolledBack(t *testing.T) {
	fc := &fakeSessionAPI{
		LoginCreds: &api.Credentials{Token: "tok-1"},
		UserErr:    errors.New("connection reset"),
	}
	m, sink, store := newTestManager(fc)

	require.Error(t, m.Login(context.Background(), "u@example.com", "secret"))

	require.Equal(t, StatusError, m.Snapshot().Status)
	token, user := store.stored()
	require.Empty(t, token)
	require.Nil(t, user)
	require.Empty(t, sink.Token())
}

func TestRegister_ValidationError_Surfaced(t *testing.T) {
	fc := &fakeSessionAPI{RegisterErr: &api.ValidationError{Message: "email is required"}}
	m, _, store := newTestManager(fc)

	err := m.Register(context.Background(), api.Registration{Password: "p"})
	var verr *api.ValidationError
	require.ErrorAs(t, err, &verr)

	snap := m.Snapshot()
	require.Equal(t, StatusError, snap.Status)
	require.Equal(t, "email is required", snap.Err)

	token, _ := store.stored()
	require.Empty(t, token)
}

func TestRegister_Success(t *testing.T) {
	fc := &fakeSessionAPI{
		RegisterCreds: &api.Credentials{Token: "tok-1", UserID: "7"},
		UserRet:       &models.User{ID: "7", Email: "new@example.com"},
	}
	m, _, _ := newTestManager(fc)

	require.NoError(t, m.Register(context.Background(), api.Registration{Email: "new@example.com", Password: "p"}))
	snap := m.Snapshot()
	require.Equal(t, StatusAuthenticated, snap.Status)
	require.True(t, snap.User.IsNewUser())
}

// ---- logout ----

func login(t *testing.T, m *Manager, fc *fakeSessionAPI) {
	t.Helper()
	if fc.LoginCreds == nil {
		fc.LoginCreds = &api.Credentials{Token: "tok-1", UserID: "42"}
	}
	if fc.UserRet == nil {
		fc.UserRet = &models.User{ID: "42", Email: "u@example.com"}
	}
	require.NoError(t, m.Login(context.Background(), "u@example.com", "secret"))
}

func TestLogout_ClearsEverything(t *testing.T) {
	fc := &fakeSessionAPI{}
	m, sink, store := newTestManager(fc)
	login(t, m, fc)

	m.Logout(context.Background())

	require.Equal(t, StatusUnauthenticated, m.Snapshot().Status)
	token, user := store.stored()
	require.Empty(t, token)
	require.Nil(t, user)
	require.Empty(t, sink.Token())
	require.Equal(t, 1, fc.LogoutCalls)
}

func TestLogout_RemoteFailureIgnored(t *testing.T) {
	fc := &fakeSessionAPI{LogoutErr: errors.New("network down")}
	m, _, store := newTestManager(fc)
	login(t, m, fc)

	m.Logout(context.Background())

	require.Equal(t, StatusUnauthenticated, m.Snapshot().Status)
	token, _ := store.stored()
	require.Empty(t, token)
}

func TestLogout_HooksObserveTransition(t *testing.T) {
	fc := &fakeSessionAPI{}
	m, _, _ := newTestManager(fc)

	var observed []Status
	m.OnTransition(func(s Snapshot) { observed = append(observed, s.Status) })

	login(t, m, fc)
	m.Logout(context.Background())

	require.Contains(t, observed, StatusAuthenticated)
	require.Equal(t, StatusUnauthenticated, observed[len(observed)-1])
}

// ---- refresh ----

func TestRefreshToken_RotatesAndKeepsEpoch(t *testing.T) {
	fc := &fakeSessionAPI{RefreshRet: "tok-2"}
	m, sink, store := newTestManager(fc)
	login(t, m, fc)
	before := m.Snapshot()

	require.NoError(t, m.RefreshToken(context.Background()))

	after := m.Snapshot()
	require.Equal(t, StatusAuthenticated, after.Status)
	require.Equal(t, "tok-2", after.Token)
	require.Equal(t, before.Epoch, after.Epoch)
	require.Equal(t, "tok-2", sink.Token())
	token, _ := store.stored()
	require.Equal(t, "tok-2", token)
}

func TestRefreshToken_Failure_ForcesLogout(t *testing.T) {
	fc := &fakeSessionAPI{RefreshErr: &api.AuthError{Message: "not renewable"}}
	m, sink, store := newTestManager(fc)
	login(t, m, fc)

	require.Error(t, m.RefreshToken(context.Background()))

	require.Equal(t, StatusUnauthenticated, m.Snapshot().Status)
	token, _ := store.stored()
	require.Empty(t, token)
	require.Empty(t, sink.Token())
}

func TestRefreshToken_NotAuthenticated(t *testing.T) {
	fc := &fakeSessionAPI{}
	m, _, _ := newTestManager(fc)
	require.ErrorIs(t, m.RefreshToken(context.Background()), api.ErrUnauthorized)
	require.Zero(t, fc.RefreshCalls)
}

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestEnsureFresh_FarFromExpiry_NoRefresh(t *testing.T) {
	fc := &fakeSessionAPI{LoginCreds: &api.Credentials{Token: signedToken(t, time.Hour)}}
	m, _, _ := newTestManager(fc)
	login(t, m, fc)

	require.NoError(t, m.EnsureFresh(context.Background()))
	require.Zero(t, fc.RefreshCalls)
}

func TestEnsureFresh_NearExpiry_Refreshes(t *testing.T) {
	fc := &fakeSessionAPI{
		LoginCreds: &api.Credentials{Token: signedToken(t, 5*time.Second)},
		RefreshRet: signedToken(t, time.Hour),
	}
	m, _, _ := newTestManager(fc)
	login(t, m, fc)

	require.NoError(t, m.EnsureFresh(context.Background()))
	require.Equal(t, 1, fc.RefreshCalls)
}

func TestEnsureFresh_OpaqueToken_NoRefresh(t *testing.T) {
	fc := &fakeSessionAPI{LoginCreds: &api.Credentials{Token: "opaque-token"}}
	m, _, _ := newTestManager(fc)
	login(t, m, fc)

	require.NoError(t, m.EnsureFresh(context.Background()))
	require.Zero(t, fc.RefreshCalls)
}

// ---- profile updates ----

func TestUpdateUser_MergesAndPersists(t *testing.T) {
	fc := &fakeSessionAPI{}
	m, _, store := newTestManager(fc)
	login(t, m, fc)

	require.NoError(t, m.UpdateUser(context.Background(), models.UserPatch{
		CurrentTrack:   strp("backend"),
		CurrentSubarea: strp("databases"),
	}))

	snap := m.Snapshot()
	require.True(t, snap.User.IsFullyConfigured())
	require.Equal(t, "u@example.com", snap.User.Email)

	_, stored := store.stored()
	require.Equal(t, "backend", *stored.CurrentTrack)
}

func TestUpdateUser_NotAuthenticated(t *testing.T) {
	fc := &fakeSessionAPI{}
	m, _, _ := newTestManager(fc)
	err := m.UpdateUser(context.Background(), models.UserPatch{CurrentTrack: strp("backend")})
	require.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestAddXP_AdditiveMerge(t *testing.T) {
	fc := &fakeSessionAPI{UserRet: &models.User{Email: "u@example.com", ProfileXP: 100}}
	m, _, store := newTestManager(fc)
	login(t, m, fc)

	m.AddXP(context.Background(), 50)

	require.Equal(t, 150, m.Snapshot().User.ProfileXP)
	_, stored := store.stored()
	require.Equal(t, 150, stored.ProfileXP)
}

func TestAddXP_NoSession_NoOp(t *testing.T) {
	fc := &fakeSessionAPI{}
	m, _, _ := newTestManager(fc)
	m.AddXP(context.Background(), 50)
	require.Equal(t, StatusUninitialized, m.Snapshot().Status)
}

func TestHasPermission_StubOnUserPresence(t *testing.T) {
	fc := &fakeSessionAPI{}
	m, _, _ := newTestManager(fc)
	require.False(t, m.HasPermission("complete-lesson"))
	login(t, m, fc)
	require.True(t, m.HasPermission("complete-lesson"))
}

func TestSnapshot_UserIsACopy(t *testing.T) {
	fc := &fakeSessionAPI{}
	m, _, _ := newTestManager(fc)
	login(t, m, fc)

	snap := m.Snapshot()
	snap.User.Email = "tampered@example.com"
	require.Equal(t, "u@example.com", m.Snapshot().User.Email)
}
