package domain

import "time"

// SyncStats holds the aggregate outcome of a full sync across a user's
// feeds. Failed feeds are counted, never fatal for the batch.
type SyncStats struct {
	UserID    string        `json:"-"`
	Feeds     int           `json:"feeds"`
	Synced    int           `json:"synced"`
	Failed    int           `json:"failed"`
	NewVideos int           `json:"new_videos"`
	Duration  time.Duration `json:"-"`
}

// SyncResult is the outcome of syncing a single feed.
type SyncResult struct {
	FeedID    int64   `json:"feed_id"`
	NewVideos []Video `json:"new_videos"`
}

// RegisterResult is returned by feed registration. NewVideos holds the
// entries inserted by the immediate first sync; it is empty when that sync
// failed, which leaves the feed registered for a later retry.
type RegisterResult struct {
	Feed      *Feed   `json:"feed"`
	NewVideos []Video `json:"new_videos"`
}
