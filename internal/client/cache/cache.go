// Package cache owns the client's TTL-bounded copies of server-derived user
// data: progress, achievements, statistics, and the next-steps feed. It
// gates every fetch on session state, de-duplicates concurrent loads, and
// drops in-flight results that outlive the session they started under.
package cache

import "time"

// Kind names one cached data set.
type Kind string

const (
	KindProgress     Kind = "progress"
	KindAchievements Kind = "achievements"
	KindStatistics   Kind = "statistics"
	KindNextSteps    Kind = "nextsteps"
)

// Kinds lists every data kind the manager tracks.
var Kinds = []Kind{KindProgress, KindAchievements, KindStatistics, KindNextSteps}

// DefaultTTL bounds the staleness of progress, achievements and statistics.
// Next-steps is recomputed server-side per request and is never considered
// fresh.
const DefaultTTL = 5 * time.Minute

// entry is one cached data set. A zero fetchedAt always means stale.
// Entries are mutated only by the Manager, under its lock.
type entry struct {
	value     any
	fetchedAt time.Time
	loading   bool
}
