// Package nav decides which top-level view the user is shown. Resolve is a
// pure function of session state and the requested view; the Router only
// remembers the last request and its one-shot payload.
package nav

import (
	"sync"

	"github.com/dkravets/questpath/internal/client/session"
)

// View names one top-level screen.
type View string

const (
	ViewDashboard       View = "dashboard"
	ViewLearning        View = "learning"
	ViewAreas           View = "areas"
	ViewMapping         View = "mapping"
	ViewFeedback        View = "feedback"
	ViewAchievements    View = "achievements"
	ViewProjects        View = "projects"
	ViewResources       View = "resources"
	ViewTeacher         View = "teacher"
	ViewAssessment      View = "assessment"
	ViewStudySession    View = "study-session"
	ViewLearningPath    View = "learning-path"
	ViewProfile         View = "profile"
	ViewSettings        View = "settings"
	ViewCommunity       View = "community"
	ViewProgressDetails View = "progress-details"

	// ViewWelcome is the unauthenticated landing screen and ViewLoading the
	// placeholder shown while the session is validated. Neither is part of
	// the requestable set.
	ViewWelcome View = "welcome"
	ViewLoading View = "loading"
)

var knownViews = map[View]struct{}{
	ViewDashboard: {}, ViewLearning: {}, ViewAreas: {}, ViewMapping: {},
	ViewFeedback: {}, ViewAchievements: {}, ViewProjects: {}, ViewResources: {},
	ViewTeacher: {}, ViewAssessment: {}, ViewStudySession: {}, ViewLearningPath: {},
	ViewProfile: {}, ViewSettings: {}, ViewCommunity: {}, ViewProgressDetails: {},
}

// Known reports whether v is a requestable view.
func Known(v View) bool {
	_, ok := knownViews[v]
	return ok
}

// Resolve maps (session state, requested view) to the view actually
// rendered. Precedence, highest first:
//
//  1. a loading session renders the loading placeholder
//  2. no session renders the welcome screen, whatever was requested
//  3. a user with neither recommendation nor track is forced into mapping
//  4. a user with a recommendation but no chosen track is forced into areas
//  5. everyone else gets the requested view; unknown views fall back to the
//     dashboard
//
// Forced onboarding always beats an explicit request; once the profile is
// configured, manual re-entry into mapping or areas is honored via rule 5.
func Resolve(snap session.Snapshot, requested View) View {
	switch snap.Status {
	case session.StatusUninitialized, session.StatusLoading:
		return ViewLoading
	case session.StatusAuthenticated:
	default:
		return ViewWelcome
	}

	u := snap.User
	if u.IsNewUser() && requested != ViewMapping {
		return ViewMapping
	}
	if u.HasRecommendation() && !u.HasCompletedMapping() && requested != ViewAreas {
		return ViewAreas
	}

	if !Known(requested) {
		return ViewDashboard
	}
	return requested
}

// Router holds the presentational layer's last navigation request plus an
// optional one-shot payload handed to the next view (e.g. which lesson was
// just completed).
type Router struct {
	mu        sync.Mutex
	requested View
	payload   any
}

func NewRouter() *Router {
	return &Router{requested: ViewDashboard}
}

// Navigate records the requested view and an optional payload for the next
// render pass.
func (r *Router) Navigate(view View, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requested = view
	r.payload = payload
}

// Current resolves the effective view for snap and consumes the pending
// payload; subsequent calls return a nil payload until the next Navigate.
func (r *Router) Current(snap session.Snapshot) (View, any) {
	r.mu.Lock()
	requested := r.requested
	payload := r.payload
	r.payload = nil
	r.mu.Unlock()

	return Resolve(snap, requested), payload
}

// Requested returns the last requested view without resolving it.
func (r *Router) Requested() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requested
}
