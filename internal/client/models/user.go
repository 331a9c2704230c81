// Package models defines the client-side data models: the user profile and
// the server-derived learning data rendered by the UI.
package models

// User is the client-side snapshot of the authenticated user's profile.
// Track fields are pointers because a missing value is meaningful: it drives
// the onboarding flow.
type User struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	CurrentTrack     *string `json:"current_track"`
	CurrentSubarea   *string `json:"current_subarea"`
	RecommendedTrack *string `json:"recommended_track"`
	ProfileXP        int     `json:"profile_xp"`
	ProfileLevel     int     `json:"profile_level"`
}

// UserPatch carries a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	Email            *string
	CurrentTrack     *string
	CurrentSubarea   *string
	RecommendedTrack *string
	ProfileXP        *int
	ProfileLevel     *int
}

// IsFullyConfigured reports whether the user picked both a track and a
// subarea, i.e. onboarding is complete.
func (u *User) IsFullyConfigured() bool {
	return u != nil && u.CurrentTrack != nil && u.CurrentSubarea != nil
}

// HasRecommendation reports whether the mapping step produced a recommended
// track the user has not acted on yet.
func (u *User) HasRecommendation() bool {
	return u != nil && u.RecommendedTrack != nil
}

// IsNewUser reports whether the user has neither a recommendation nor a
// chosen track and must be sent through mapping first.
func (u *User) IsNewUser() bool {
	return u != nil && u.RecommendedTrack == nil && u.CurrentTrack == nil
}

// HasCompletedMapping is a derived read of track presence, not separate state.
func (u *User) HasCompletedMapping() bool {
	return u != nil && u.CurrentTrack != nil
}

// Clone returns a deep copy of the user so snapshots handed out to callers
// cannot alias the manager's internal state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.CurrentTrack = cloneStr(u.CurrentTrack)
	c.CurrentSubarea = cloneStr(u.CurrentSubarea)
	c.RecommendedTrack = cloneStr(u.RecommendedTrack)
	return &c
}

// Apply merges the non-nil fields of p into a copy of u and returns it.
func (u *User) Apply(p UserPatch) *User {
	c := u.Clone()
	if c == nil {
		return nil
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.CurrentTrack != nil {
		c.CurrentTrack = cloneStr(p.CurrentTrack)
	}
	if p.CurrentSubarea != nil {
		c.CurrentSubarea = cloneStr(p.CurrentSubarea)
	}
	if p.RecommendedTrack != nil {
		c.RecommendedTrack = cloneStr(p.RecommendedTrack)
	}
	if p.ProfileXP != nil {
		c.ProfileXP = *p.ProfileXP
	}
	if p.ProfileLevel != nil {
		c.ProfileLevel = *p.ProfileLevel
	}
	return c
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
