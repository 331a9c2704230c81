package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dkravets/questpath/internal/client/api"
	"github.com/dkravets/questpath/internal/client/models"
	"github.com/dkravets/questpath/internal/client/session"
	"github.com/dkravets/questpath/internal/logging"
)

// Session is the slice of the session manager the cache depends on.
// *session.Manager satisfies it.
type Session interface {
	Snapshot() session.Snapshot
	Epoch() string
	AddXP(ctx context.Context, delta int)
}

// Manager is the data cache manager. All entry mutation happens inside it;
// callers dispatch loads and read the latest snapshot.
type Manager struct {
	api     api.DataAPI
	session Session
	log     logging.Logger

	ttl time.Duration
	now func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	entries   map[Kind]*entry
	initEpoch string
}

func NewManager(dataAPI api.DataAPI, sess Session, log logging.Logger) *Manager {
	return &Manager{
		api:     dataAPI,
		session: sess,
		log:     log,
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[Kind]*entry),
	}
}

// SetTTL overrides the freshness window. Non-positive values are ignored.
// Call before the manager is shared between goroutines.
func (m *Manager) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		m.ttl = ttl
	}
}

// OnSessionChange clears the cache whenever the session leaves the
// authenticated state. Register it with the session manager:
//
//	sm.OnTransition(cm.OnSessionChange)
func (m *Manager) OnSessionChange(snap session.Snapshot) {
	if !snap.Authenticated() {
		m.Clear()
	}
}

// Clear resets every entry. Fetches already in flight are not cancelled;
// their results are discarded on commit because the epoch they started
// under is gone.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[Kind]*entry)
	m.initEpoch = ""
}

// Load returns the cached value for kind, fetching when needed:
//
//  1. Unauthenticated sessions get nil with no side effect.
//  2. A load already in flight for kind returns the current value as is.
//  3. A fresh entry is returned without a network call unless force is set.
//  4. Otherwise the entry is fetched; on failure the previous value stays
//     visible and the error is only logged.
func (m *Manager) Load(ctx context.Context, kind Kind, force bool) (any, error) {
	snap := m.session.Snapshot()
	if !snap.Authenticated() {
		return nil, nil
	}
	epoch := snap.Epoch

	m.mu.Lock()
	e := m.entryLocked(kind)
	if e.loading {
		v := e.value
		m.mu.Unlock()
		return v, nil
	}
	if !force && m.freshLocked(e, kind) {
		v := e.value
		m.mu.Unlock()
		return v, nil
	}
	e.loading = true
	m.mu.Unlock()

	value, err, _ := m.group.Do(epoch+"/"+string(kind), func() (any, error) {
		return m.fetch(ctx, kind)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	e = m.entryLocked(kind)
	e.loading = false

	if epoch != m.session.Epoch() {
		// The session this fetch started under is gone. Committing now
		// would leak one user's data into the next session's cache.
		return nil, nil
	}
	if err != nil {
		m.log.Warn(ctx, "cache fetch failed", "kind", string(kind), "error", err)
		return e.value, nil
	}
	e.value = value
	e.fetchedAt = m.now()
	return value, nil
}

// Initialize warms every stale or empty entry in parallel. Kinds fail
// independently; a failed fetch leaves its entry stale for the next load.
// Idempotent within one authenticated session.
func (m *Manager) Initialize(ctx context.Context) {
	snap := m.session.Snapshot()
	if !snap.Authenticated() {
		return
	}

	m.mu.Lock()
	if m.initEpoch == snap.Epoch {
		m.mu.Unlock()
		return
	}
	m.initEpoch = snap.Epoch
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, kind := range Kinds {
		wg.Add(1)
		go func(kind Kind) {
			defer wg.Done()
			_, _ = m.Load(ctx, kind, false)
		}(kind)
	}
	wg.Wait()
}

// CheckNewAchievements asks the server whether new badges were earned. New
// badges force an achievements refresh and merge the earned XP into the
// in-memory user snapshot (provisional: the next authoritative user fetch
// wins). Returns the newly earned badges, empty when there are none.
func (m *Manager) CheckNewAchievements(ctx context.Context) ([]models.Achievement, error) {
	if !m.session.Snapshot().Authenticated() {
		return nil, api.ErrUnauthorized
	}

	check, err := m.api.CheckNewAchievements(ctx)
	if err != nil {
		return nil, err
	}
	if len(check.NewBadges) == 0 {
		return []models.Achievement{}, nil
	}

	if _, err := m.Load(ctx, KindAchievements, true); err != nil {
		m.log.Warn(ctx, "achievements refresh after badge check failed", "error", err)
	}
	m.session.AddXP(ctx, check.XPEarned)
	return check.NewBadges, nil
}

// CompleteLesson reports a finished lesson, force-refreshes progress (the
// mutation result and canonical progress state can diverge), runs the badge
// check, and returns the merged result.
func (m *Manager) CompleteLesson(ctx context.Context, data models.LessonCompletion) (*models.LessonResult, error) {
	if !m.session.Snapshot().Authenticated() {
		return nil, api.ErrUnauthorized
	}

	res, err := m.api.CompleteLesson(ctx, data)
	if err != nil {
		return nil, err
	}

	if _, err := m.Load(ctx, KindProgress, true); err != nil {
		m.log.Warn(ctx, "progress refresh after lesson completion failed", "error", err)
	}

	badges, err := m.CheckNewAchievements(ctx)
	if err != nil {
		m.log.Warn(ctx, "achievement check after lesson completion failed", "error", err)
		badges = nil
	}

	return &models.LessonResult{
		LessonID:  res.LessonID,
		XPEarned:  res.XPEarned,
		NewBadges: badges,
	}, nil
}

// AdvanceProgress performs the advance mutation and force-refreshes the
// progress entry.
func (m *Manager) AdvanceProgress(ctx context.Context, stepType string) (*models.Progress, error) {
	if !m.session.Snapshot().Authenticated() {
		return nil, api.ErrUnauthorized
	}

	p, err := m.api.AdvanceProgress(ctx, stepType)
	if err != nil {
		return nil, err
	}

	if _, err := m.Load(ctx, KindProgress, true); err != nil {
		m.log.Warn(ctx, "progress refresh after advance failed", "error", err)
	}
	return p, nil
}

// Leaderboard and StudyStreak are uncached pass-throughs, gated on session
// state like every other read.

func (m *Manager) Leaderboard(ctx context.Context, metric string, limit int) ([]models.LeaderboardEntry, error) {
	if !m.session.Snapshot().Authenticated() {
		return nil, api.ErrUnauthorized
	}
	return m.api.Leaderboard(ctx, metric, limit)
}

func (m *Manager) StudyStreak(ctx context.Context) (*models.StudyStreak, error) {
	if !m.session.Snapshot().Authenticated() {
		return nil, api.ErrUnauthorized
	}
	return m.api.StudyStreak(ctx)
}

// Typed loads over Load.

func (m *Manager) LoadProgress(ctx context.Context, force bool) (*models.Progress, error) {
	v, err := m.Load(ctx, KindProgress, force)
	if v == nil {
		return nil, err
	}
	p, _ := v.(*models.Progress)
	return p, err
}

func (m *Manager) LoadAchievements(ctx context.Context, force bool) ([]models.Achievement, error) {
	v, err := m.Load(ctx, KindAchievements, force)
	if v == nil {
		return nil, err
	}
	a, _ := v.([]models.Achievement)
	return a, err
}

func (m *Manager) LoadStatistics(ctx context.Context, force bool) (*models.Statistics, error) {
	v, err := m.Load(ctx, KindStatistics, force)
	if v == nil {
		return nil, err
	}
	s, _ := v.(*models.Statistics)
	return s, err
}

func (m *Manager) LoadNextSteps(ctx context.Context) (*models.NextSteps, error) {
	v, err := m.Load(ctx, KindNextSteps, false)
	if v == nil {
		return nil, err
	}
	n, _ := v.(*models.NextSteps)
	return n, err
}

func (m *Manager) entryLocked(kind Kind) *entry {
	e := m.entries[kind]
	if e == nil {
		e = &entry{}
		m.entries[kind] = e
	}
	return e
}

// freshLocked applies the TTL rule. Next-steps is fetch-only and never
// fresh.
func (m *Manager) freshLocked(e *entry, kind Kind) bool {
	if kind == KindNextSteps {
		return false
	}
	return !e.fetchedAt.IsZero() && m.now().Sub(e.fetchedAt) < m.ttl
}

func (m *Manager) fetch(ctx context.Context, kind Kind) (any, error) {
	switch kind {
	case KindProgress:
		return m.api.CurrentProgress(ctx)
	case KindAchievements:
		return m.api.Achievements(ctx)
	case KindStatistics:
		return m.api.Statistics(ctx)
	case KindNextSteps:
		return m.api.NextSteps(ctx)
	}
	return nil, fmt.Errorf("unknown cache kind %q", kind)
}
