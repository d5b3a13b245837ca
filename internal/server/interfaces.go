package server

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"tubefeed/internal/domain"
)

// FeedService exposes the sync pipeline operations the HTTP layer drives.
type FeedService interface {
	Register(ctx context.Context, userID, reference string) (*domain.RegisterResult, error)
	SyncFeed(ctx context.Context, userID string, feedID int64) (*domain.SyncResult, error)
	SyncAll(ctx context.Context, userID string) (*domain.SyncStats, error)
	DeleteFeed(ctx context.Context, userID string, feedID int64) error
}

// FeedLister reads a user's registered feeds.
type FeedLister interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Feed, error)
}

// VideoQuery reads and mutates the per-user video catalog.
type VideoQuery interface {
	SelectSince(ctx context.Context, userID string, since time.Time) ([]domain.Video, error)
	ToggleWatched(ctx context.Context, videoID, userID string) (bool, error)
	ToggleSaved(ctx context.Context, videoID, userID string) (bool, error)
	ResetWatched(ctx context.Context, userID string) error
}

// TokenVerifier resolves a bearer token to a user identifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}
