package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkravets/questpath/internal/client/api"
	"github.com/dkravets/questpath/internal/client/credstore"
	"github.com/dkravets/questpath/internal/client/models"
	"github.com/dkravets/questpath/internal/logging"
)

// defaultRefreshSkew is how close to expiry a token may get before
// EnsureFresh refreshes it.
const defaultRefreshSkew = 30 * time.Second

// TokenSink is the outbound-request default-authorization mechanism: the
// transport the token gets attached to. *api.HTTPClient satisfies it.
type TokenSink interface {
	SetToken(token string)
	ClearToken()
}

// Manager owns the session. It is the only writer of session state and of
// the credential store.
type Manager struct {
	api   api.SessionAPI
	sink  TokenSink
	creds credstore.Store
	log   logging.Logger

	refreshSkew time.Duration

	mu    sync.Mutex
	snap  Snapshot
	hooks []func(Snapshot)
}

func NewManager(sessionAPI api.SessionAPI, sink TokenSink, creds credstore.Store, log logging.Logger) *Manager {
	return &Manager{
		api:         sessionAPI,
		sink:        sink,
		creds:       creds,
		log:         log,
		refreshSkew: defaultRefreshSkew,
		snap:        Snapshot{Status: StatusUninitialized},
	}
}

// Snapshot returns the current session state. The contained user is a copy.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.clone()
}

// Epoch returns the identity of the current authenticated session, or ""
// when there is none.
func (m *Manager) Epoch() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Epoch
}

// OnTransition registers fn to run synchronously after every state change.
// The cache manager subscribes here to clear itself when the session ends.
func (m *Manager) OnTransition(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// HasPermission reports whether the current user may perform the named
// action. Fine-grained roles are not modeled yet: any authenticated user
// passes.
func (m *Manager) HasPermission(string) bool {
	return m.Snapshot().Authenticated()
}

// apply dispatches ev through the transition function and fires hooks with
// the resulting snapshot. Hooks run outside the lock.
func (m *Manager) apply(ev event) Snapshot {
	m.mu.Lock()
	m.snap = transition(m.snap, ev)
	snap := m.snap.clone()
	hooks := make([]func(Snapshot), len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	for _, h := range hooks {
		h(snap)
	}
	return snap
}

// Bootstrap restores the session from stored credentials at process start.
// Failures are silent: the user took no action, so they land on the
// unauthenticated state without an error message. Calling it more than once
// is a no-op.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.mu.Lock()
	if m.snap.Status != StatusUninitialized {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	token, user, err := m.creds.Load(ctx)
	if err != nil {
		m.log.Warn(ctx, "credential store unreadable", "error", err)
	}
	if err != nil || token == "" || user == nil {
		m.apply(evSessionLost{})
		return
	}

	m.apply(evAuthBegin{})
	m.sink.SetToken(token)

	refreshed, err := m.api.CurrentUser(ctx)
	if err != nil {
		m.log.Info(ctx, "stored session no longer valid", "error", err)
		m.discardCredentials(ctx)
		m.apply(evSessionLost{})
		return
	}

	if err := m.creds.SaveUser(ctx, refreshed); err != nil {
		m.log.Warn(ctx, "persisting refreshed user snapshot failed", "error", err)
	}
	m.apply(evAuthOK{token: token, user: refreshed, epoch: uuid.NewString()})
}

// Login authenticates with the remote session service. On failure the
// session moves to StatusError carrying the server's message and nothing is
// persisted.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.apply(evAuthBegin{})

	creds, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.apply(evAuthFail{reason: api.Reason(err)})
		return err
	}
	return m.commitCredentials(ctx, creds.Token)
}

// Register creates an account and logs the new user in.
func (m *Manager) Register(ctx context.Context, reg api.Registration) error {
	m.apply(evAuthBegin{})

	creds, err := m.api.Register(ctx, reg)
	if err != nil {
		m.apply(evAuthFail{reason: api.Reason(err)})
		return err
	}
	return m.commitCredentials(ctx, creds.Token)
}

// commitCredentials is the two-phase commit shared by Login and Register.
// Phase 1 persists the token and attaches it to outbound requests; the
// confirmation call needs it to succeed. Phase 2 fetches the profile and
// finalizes the session. Phase 2 failure rolls phase 1 back.
func (m *Manager) commitCredentials(ctx context.Context, token string) error {
	if err := m.creds.SaveToken(ctx, token); err != nil {
		m.apply(evAuthFail{reason: api.Reason(err)})
		return fmt.Errorf("persist token: %w", err)
	}
	m.sink.SetToken(token)

	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		m.discardCredentials(ctx)
		m.apply(evAuthFail{reason: api.Reason(err)})
		return err
	}

	if err := m.creds.SaveUser(ctx, user); err != nil {
		m.log.Warn(ctx, "persisting user snapshot failed", "error", err)
	}
	m.apply(evAuthOK{token: token, user: user, epoch: uuid.NewString()})
	return nil
}

// Logout ends the session. The remote call is best effort; local state is
// cleared unconditionally and registered hooks observe the transition.
func (m *Manager) Logout(ctx context.Context) {
	if m.Snapshot().Authenticated() {
		if err := m.api.Logout(ctx); err != nil {
			m.log.Warn(ctx, "remote logout failed", "error", err)
		}
	}
	m.discardCredentials(ctx)
	m.apply(evSessionLost{})
}

// RefreshToken rotates the access token. A failed refresh means the session
// is not renewable: credentials are dropped and the session ends.
func (m *Manager) RefreshToken(ctx context.Context) error {
	if !m.Snapshot().Authenticated() {
		return api.ErrUnauthorized
	}

	token, err := m.api.RefreshToken(ctx)
	if err != nil {
		m.log.Warn(ctx, "token refresh failed, dropping session", "error", err)
		m.discardCredentials(ctx)
		m.apply(evSessionLost{})
		return err
	}

	if err := m.creds.SaveToken(ctx, token); err != nil {
		m.log.Warn(ctx, "persisting rotated token failed", "error", err)
	}
	m.sink.SetToken(token)
	m.apply(evTokenRotated{token: token})
	return nil
}

// EnsureFresh refreshes the token when it is close to expiry. A no-op for
// unauthenticated sessions and for tokens whose expiry cannot be read.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	snap := m.Snapshot()
	if !snap.Authenticated() || !tokenExpiringSoon(snap.Token, m.refreshSkew) {
		return nil
	}
	return m.RefreshToken(ctx)
}

// UpdateUser merges partial profile fields into the in-memory and persisted
// user snapshot.
func (m *Manager) UpdateUser(ctx context.Context, patch models.UserPatch) error {
	m.mu.Lock()
	if m.snap.Status != StatusAuthenticated {
		m.mu.Unlock()
		return api.ErrUnauthorized
	}
	merged := m.snap.User.Apply(patch)
	m.mu.Unlock()

	if err := m.creds.SaveUser(ctx, merged); err != nil {
		return fmt.Errorf("persist user snapshot: %w", err)
	}
	m.apply(evUserUpdated{user: merged})
	return nil
}

// AddXP additively merges locally earned experience points into the user
// snapshot. The value is provisional: the next authoritative user fetch
// overwrites it.
func (m *Manager) AddXP(ctx context.Context, delta int) {
	if delta == 0 {
		return
	}
	m.mu.Lock()
	if m.snap.Status != StatusAuthenticated {
		m.mu.Unlock()
		return
	}
	merged := m.snap.User.Clone()
	merged.ProfileXP += delta
	m.mu.Unlock()

	m.apply(evUserUpdated{user: merged})
	if err := m.creds.SaveUser(ctx, merged); err != nil {
		m.log.Warn(ctx, "persisting xp merge failed", "error", err)
	}
}

// discardCredentials rolls back persisted and attached credentials. Errors
// are logged, never propagated: the local session must always end cleanly.
func (m *Manager) discardCredentials(ctx context.Context) {
	if err := m.creds.Clear(ctx); err != nil {
		m.log.Warn(ctx, "clearing credential store failed", "error", err)
	}
	m.sink.ClearToken()
}
