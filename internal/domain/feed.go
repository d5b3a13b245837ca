package domain

import "time"

// Feed is a subscription owned by exactly one user. URL is the canonical
// feed endpoint after reference resolution; Title comes from the feed
// document at registration time.
type Feed struct {
	ID           int64      `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"-"`
	URL          string     `db:"url" json:"feed_url"`
	Title        string     `db:"title" json:"feed_title"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastSyncedAt *time.Time `db:"last_synced_at" json:"last_synced_at,omitempty"`
	TotalSynced  int64      `db:"total_synced" json:"-"`
}

// ParsedFeed is a fetched syndication document normalized to the fields the
// sync pipeline cares about. Entries keep document order.
type ParsedFeed struct {
	Title   string
	Entries []Entry
}

// Entry is one item of a fetched document. ID is the raw identifier as given
// by the document; prefix stripping happens at merge time.
type Entry struct {
	ID          string
	Title       string
	PublishedAt time.Time
}

// Channel is one candidate returned by the external channel lookup.
type Channel struct {
	ID        string
	Title     string
	CustomURL string
}
