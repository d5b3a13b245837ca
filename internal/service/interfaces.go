package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"tubefeed/internal/domain"
)

type Resolver interface {
	Resolve(ctx context.Context, reference string) (string, error)
}

type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) (*domain.ParsedFeed, error)
}

type FeedStore interface {
	Create(ctx context.Context, feed *domain.Feed) (*domain.Feed, error)
	GetByID(ctx context.Context, feedID int64, userID string) (*domain.Feed, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Feed, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, feedID int64, userID string) error
	UpdateSyncState(ctx context.Context, feedID int64, userID string, syncedAt time.Time, newVideos int) error
}

type VideoStore interface {
	UpsertBatch(ctx context.Context, videos []domain.Video) ([]domain.Video, error)
	DeleteByFeed(ctx context.Context, feedID int64, userID string) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, video *domain.Video) error
	Close() error
}
