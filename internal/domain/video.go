package domain

import (
	"strings"
	"time"
)

// videoIDPrefix is the namespace qualifier YouTube puts in Atom entry ids.
const videoIDPrefix = "yt:video:"

// Video is one catalog entry, keyed by (ID, UserID). Watched and
// SavedForLater are set only through the toggle operations and are never
// touched by a re-sync.
type Video struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"-"`
	FeedID        int64      `db:"feed_id" json:"feed_id"`
	Title         string     `db:"title" json:"title"`
	Source        string     `db:"source" json:"source"`
	PublishedAt   time.Time  `db:"published_at" json:"published_at"`
	Watched       bool       `db:"watched" json:"watched"`
	SavedForLater bool       `db:"saved_for_later" json:"saved_for_later"`
	FetchedOn     *time.Time `db:"fetched_on" json:"-"`
}

// NormalizeVideoID strips the "yt:video:" qualifier from a raw entry
// identifier. Identifiers are stored and returned in this normalized form.
func NormalizeVideoID(raw string) string {
	return strings.TrimPrefix(raw, videoIDPrefix)
}
