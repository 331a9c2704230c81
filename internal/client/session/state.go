// Package session owns the authentication state machine. All session
// mutation goes through the pure transition function; the Manager only
// dispatches events and hands out immutable snapshots.
package session

import "github.com/dkravets/questpath/internal/client/models"

// Status is the session lifecycle state.
type Status string

const (
	StatusUninitialized   Status = "uninitialized"
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
	StatusError           Status = "error"
)

// Snapshot is an immutable view of the session. Token and User are non-zero
// iff Status is StatusAuthenticated. Epoch identifies one authenticated
// session; asynchronous completions compare it before committing results.
type Snapshot struct {
	Status Status
	Token  string
	User   *models.User
	Epoch  string
	Err    string
}

// Authenticated reports whether the snapshot carries a live session.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

func (s Snapshot) clone() Snapshot {
	s.User = s.User.Clone()
	return s
}

// The closed event set. Only the Manager constructs events.
type event interface{ isEvent() }

type evAuthBegin struct{}

type evAuthOK struct {
	token string
	user  *models.User
	epoch string
}

type evAuthFail struct{ reason string }

type evSessionLost struct{}

type evTokenRotated struct{ token string }

type evUserUpdated struct{ user *models.User }

func (evAuthBegin) isEvent()    {}
func (evAuthOK) isEvent()       {}
func (evAuthFail) isEvent()     {}
func (evSessionLost) isEvent()  {}
func (evTokenRotated) isEvent() {}
func (evUserUpdated) isEvent()  {}

// transition is the single place session state changes. It upholds the
// invariant Status==Authenticated <=> token != "" && user != nil: an
// evAuthOK with missing parts degrades to Unauthenticated instead of
// producing a half-authenticated state.
func transition(s Snapshot, ev event) Snapshot {
	switch e := ev.(type) {
	case evAuthBegin:
		return Snapshot{Status: StatusLoading}

	case evAuthOK:
		if e.token == "" || e.user == nil {
			return Snapshot{Status: StatusUnauthenticated}
		}
		return Snapshot{Status: StatusAuthenticated, Token: e.token, User: e.user, Epoch: e.epoch}

	case evAuthFail:
		return Snapshot{Status: StatusError, Err: e.reason}

	case evSessionLost:
		return Snapshot{Status: StatusUnauthenticated}

	case evTokenRotated:
		// Rotation keeps the session and its epoch: cached data stays valid.
		if s.Status != StatusAuthenticated {
			return s
		}
		s.Token = e.token
		return s

	case evUserUpdated:
		if s.Status != StatusAuthenticated || e.user == nil {
			return s
		}
		s.User = e.user
		return s
	}
	return s
}
