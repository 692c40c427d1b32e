package main

import (
	"database/sql"
	"time"
)

type Freshness int

const (
	Stale Freshness = iota
	Fresh
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "stale"
}

// checkFreshness decides whether the stored dataset can be served as-is.
// latest is the newest last_updated across the whole table; an invalid value
// means the table is empty. Exactly one window of age is already stale.
func checkFreshness(now time.Time, latest sql.NullTime, window time.Duration) Freshness {
	if !latest.Valid {
		return Stale
	}
	if now.Sub(latest.Time) < window {
		return Fresh
	}
	return Stale
}
