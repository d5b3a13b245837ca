package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tubefeed/internal/domain"
)

const uniqueViolation = pq.ErrorCode("23505")

const feedColumns = "id, user_id, url, title, created_at, last_synced_at, total_synced"

type FeedStore struct {
	db *sqlx.DB
}

func NewFeedStore(db *sqlx.DB) *FeedStore {
	return &FeedStore{db: db}
}

// Create inserts a new subscription. A (user_id, url) unique violation is
// reported as ConflictError so registration can be rejected, not merged.
func (s *FeedStore) Create(ctx context.Context, feed *domain.Feed) (*domain.Feed, error) {
	query := `
		INSERT INTO feeds (user_id, url, title)
		VALUES ($1, $2, $3)
		RETURNING ` + feedColumns

	var created domain.Feed
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &created, query,
		feed.UserID,
		feed.URL,
		feed.Title,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, &domain.ConflictError{UserID: feed.UserID, URL: feed.URL}
		}
		return nil, err
	}

	return &created, nil
}

func (s *FeedStore) GetByID(ctx context.Context, feedID int64, userID string) (*domain.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE id = $1 AND user_id = $2`

	var feed domain.Feed
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &feed, query, feedID, userID)
	if err == sql.ErrNoRows {
		return nil, domain.ErrFeedNotFound
	}
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (s *FeedStore) ListByUser(ctx context.Context, userID string) ([]domain.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE user_id = $1 ORDER BY created_at DESC`

	var feeds []domain.Feed
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &feeds, query, userID)
	return feeds, err
}

func (s *FeedStore) ListUserIDs(ctx context.Context) ([]string, error) {
	var users []string
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &users,
		`SELECT DISTINCT user_id FROM feeds ORDER BY user_id`)
	return users, err
}

func (s *FeedStore) Delete(ctx context.Context, feedID int64, userID string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM feeds WHERE id = $1 AND user_id = $2`, feedID, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrFeedNotFound
	}
	return nil
}

func (s *FeedStore) UpdateSyncState(ctx context.Context, feedID int64, userID string, syncedAt time.Time, newVideos int) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		UPDATE feeds
		SET last_synced_at = $3, total_synced = total_synced + $4
		WHERE id = $1 AND user_id = $2`,
		feedID, userID, syncedAt, newVideos,
	)
	return err
}
