package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"tubefeed/internal/domain"
)

const videoColumns = "id, user_id, feed_id, title, source, published_at, watched, saved_for_later, fetched_on"

type VideoStore struct {
	db *sqlx.DB
}

func NewVideoStore(db *sqlx.DB) *VideoStore {
	return &VideoStore{db: db}
}

// UpsertBatch merges records keyed by (id, user_id). Conflicting rows are
// left completely untouched, so watched/saved_for_later survive re-syncs.
// Only the rows actually inserted are returned.
func (s *VideoStore) UpsertBatch(ctx context.Context, videos []domain.Video) ([]domain.Video, error) {
	if len(videos) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO videos (id, user_id, feed_id, title, source, published_at, fetched_on) VALUES ")
	valueArgs := make([]interface{}, 0, len(videos)*7)

	for i, v := range videos {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 1; j <= 7; j++ {
			if j > 1 {
				sb.WriteString(", $")
			} else {
				sb.WriteString("$")
			}
			sb.WriteString(itoa(i*7 + j))
		}
		sb.WriteString(")")
		valueArgs = append(valueArgs,
			v.ID, v.UserID, v.FeedID, v.Title, v.Source, v.PublishedAt, v.FetchedOn)
	}
	sb.WriteString(" ON CONFLICT (id, user_id) DO NOTHING RETURNING ")
	sb.WriteString(videoColumns)

	var inserted []domain.Video
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &inserted, sb.String(), valueArgs...); err != nil {
		return nil, err
	}

	return inserted, nil
}

// SelectSince returns the user's videos published at or after since, newest
// first. The lower bound is inclusive.
func (s *VideoStore) SelectSince(ctx context.Context, userID string, since time.Time) ([]domain.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE user_id = $1 AND published_at >= $2
		ORDER BY published_at DESC`

	var videos []domain.Video
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &videos, query, userID, since)
	return videos, err
}

// ToggleWatched flips the watched flag and returns the new value. Read and
// write are separate statements; a concurrent toggle of the same record can
// lose one update, which is accepted.
func (s *VideoStore) ToggleWatched(ctx context.Context, videoID, userID string) (bool, error) {
	return s.toggleFlag(ctx, "watched", videoID, userID)
}

// ToggleSaved flips the saved_for_later flag and returns the new value.
func (s *VideoStore) ToggleSaved(ctx context.Context, videoID, userID string) (bool, error) {
	return s.toggleFlag(ctx, "saved_for_later", videoID, userID)
}

func (s *VideoStore) toggleFlag(ctx context.Context, column, videoID, userID string) (bool, error) {
	exec := GetExecutor(ctx, s.db)

	var current bool
	err := sqlx.GetContext(ctx, exec, &current,
		fmt.Sprintf("SELECT %s FROM videos WHERE id = $1 AND user_id = $2", column),
		videoID, userID,
	)
	if err == sql.ErrNoRows {
		return false, domain.ErrVideoNotFound
	}
	if err != nil {
		return false, err
	}

	_, err = exec.ExecContext(ctx,
		fmt.Sprintf("UPDATE videos SET %s = $3 WHERE id = $1 AND user_id = $2", column),
		videoID, userID, !current,
	)
	if err != nil {
		return false, err
	}

	return !current, nil
}

// ResetWatched clears the watched flag on all of the user's videos.
func (s *VideoStore) ResetWatched(ctx context.Context, userID string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE videos SET watched = FALSE WHERE user_id = $1 AND watched = TRUE`, userID)
	return err
}

// DeleteByFeed removes the user's videos originating from one feed. Called
// inside the feed-deletion transaction.
func (s *VideoStore) DeleteByFeed(ctx context.Context, feedID int64, userID string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM videos WHERE feed_id = $1 AND user_id = $2`, feedID, userID)
	return err
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}
