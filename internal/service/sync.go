package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tubefeed/internal/config"
	"tubefeed/internal/domain"
)

type SyncService struct {
	resolver  Resolver
	source    FeedSource
	feeds     FeedStore
	videos    VideoStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.SyncConfig
}

func NewSyncService(
	resolver Resolver,
	source FeedSource,
	feeds FeedStore,
	videos VideoStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		resolver:  resolver,
		source:    source,
		feeds:     feeds,
		videos:    videos,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
	}
}

// Register resolves a raw reference, validates that the endpoint serves a
// parseable feed, creates the subscription and runs an immediate first sync.
// Resolution, fetch and conflict errors are terminal: nothing is created.
// A failure of the first sync is not; the feed stays registered and the
// next scheduled run retries.
func (s *SyncService) Register(ctx context.Context, userID, reference string) (*domain.RegisterResult, error) {
	canonicalURL, err := s.resolver.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}

	parsed, err := s.source.Fetch(ctx, canonicalURL)
	if err != nil {
		return nil, err
	}

	title := parsed.Title
	if title == "" {
		title = "Untitled Feed"
	}

	feed, err := s.feeds.Create(ctx, &domain.Feed{
		UserID: userID,
		URL:    canonicalURL,
		Title:  title,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("feed registered",
		"user_id", userID,
		"feed_id", feed.ID,
		"url", canonicalURL,
		"title", title,
	)

	result := &domain.RegisterResult{Feed: feed}

	inserted, err := s.merge(ctx, feed, parsed)
	if err != nil {
		s.logger.Warn("first sync failed, feed remains registered",
			"feed_id", feed.ID,
			"error", err,
		)
		return result, nil
	}

	result.NewVideos = inserted
	return result, nil
}

// SyncFeed fetches one feed of the user and merges its entries. Newly
// inserted videos are returned so the caller can display them without a
// full reload.
func (s *SyncService) SyncFeed(ctx context.Context, userID string, feedID int64) (*domain.SyncResult, error) {
	feed, err := s.feeds.GetByID(ctx, feedID, userID)
	if err != nil {
		return nil, err
	}

	parsed, err := s.source.Fetch(ctx, feed.URL)
	if err != nil {
		return nil, err
	}

	inserted, err := s.merge(ctx, feed, parsed)
	if err != nil {
		return nil, err
	}

	return &domain.SyncResult{FeedID: feed.ID, NewVideos: inserted}, nil
}

// SyncAll refreshes every feed of one user with bounded fan-out. A feed's
// failure is counted and logged but never aborts the rest; total failure of
// all feeds is still a zero-new-videos success.
func (s *SyncService) SyncAll(ctx context.Context, userID string) (*domain.SyncStats, error) {
	startTime := time.Now()

	feeds, err := s.feeds.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}

	stats := &domain.SyncStats{UserID: userID, Feeds: len(feeds)}
	if len(feeds) == 0 {
		return stats, nil
	}

	workers := s.config.MaxParallel
	if workers < 1 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
	)

	for i := range feeds {
		feed := feeds[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			inserted, err := s.syncOne(ctx, &feed)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				s.logger.Warn("feed sync failed",
					"user_id", userID,
					"feed_id", feed.ID,
					"url", feed.URL,
					"error", err,
				)
				return
			}
			stats.Synced++
			stats.NewVideos += len(inserted)
		}()
	}

	wg.Wait()
	stats.Duration = time.Since(startTime)

	s.logger.Info("full sync completed",
		"user_id", userID,
		"feeds", stats.Feeds,
		"synced", stats.Synced,
		"failed", stats.Failed,
		"new_videos", stats.NewVideos,
		"duration", stats.Duration,
	)

	return stats, nil
}

// SyncAllUsers runs SyncAll for every user that owns at least one feed.
// Entry point for the scheduler.
func (s *SyncService) SyncAllUsers(ctx context.Context) (*domain.SyncStats, error) {
	users, err := s.feeds.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	total := &domain.SyncStats{}
	for _, userID := range users {
		stats, err := s.SyncAll(ctx, userID)
		if err != nil {
			s.logger.Error("user sync failed", "user_id", userID, "error", err)
			continue
		}
		total.Feeds += stats.Feeds
		total.Synced += stats.Synced
		total.Failed += stats.Failed
		total.NewVideos += stats.NewVideos
	}

	return total, nil
}

// DeleteFeed removes a feed and, in the same transaction, the user's videos
// that came from it.
func (s *SyncService) DeleteFeed(ctx context.Context, userID string, feedID int64) error {
	if _, err := s.feeds.GetByID(ctx, feedID, userID); err != nil {
		return err
	}

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.videos.DeleteByFeed(txCtx, feedID, userID); err != nil {
			return fmt.Errorf("delete videos: %w", err)
		}
		if err := s.feeds.Delete(txCtx, feedID, userID); err != nil {
			return fmt.Errorf("delete feed: %w", err)
		}
		return nil
	})
}

func (s *SyncService) syncOne(ctx context.Context, feed *domain.Feed) ([]domain.Video, error) {
	parsed, err := s.source.Fetch(ctx, feed.URL)
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, feed, parsed)
}

// merge converts entries into catalog records and upserts them keyed by
// (id, user_id). Existing records keep their watched/saved_for_later state;
// only newly inserted videos come back.
func (s *SyncService) merge(ctx context.Context, feed *domain.Feed, parsed *domain.ParsedFeed) ([]domain.Video, error) {
	fetchedOn := time.Now()

	videos := make([]domain.Video, 0, len(parsed.Entries))
	for _, entry := range parsed.Entries {
		videos = append(videos, domain.Video{
			ID:          domain.NormalizeVideoID(entry.ID),
			UserID:      feed.UserID,
			FeedID:      feed.ID,
			Title:       entry.Title,
			Source:      feed.Title,
			PublishedAt: entry.PublishedAt,
			FetchedOn:   &fetchedOn,
		})
	}

	inserted, err := s.videos.UpsertBatch(ctx, videos)
	if err != nil {
		return nil, fmt.Errorf("upsert videos: %w", err)
	}

	if s.publisher != nil {
		for i := range inserted {
			if err := s.publisher.Publish(ctx, &inserted[i]); err != nil {
				s.logger.Warn("publish video failed",
					"video_id", inserted[i].ID,
					"error", err,
				)
			}
		}
	}

	if err := s.feeds.UpdateSyncState(ctx, feed.ID, feed.UserID, time.Now(), len(inserted)); err != nil {
		s.logger.Warn("update sync state failed", "feed_id", feed.ID, "error", err)
	}

	s.logger.Debug("feed merged",
		"feed_id", feed.ID,
		"entries", len(parsed.Entries),
		"new_videos", len(inserted),
	)

	return inserted, nil
}
