//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"tubefeed/internal/domain"
	"tubefeed/testdata/utils"
)

const testUser = "auth0|integration-user"

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_feeds.up.sql"),
			filepath.Join(migrationsPath, "002_create_videos.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM videos")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM feeds")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) createFeed(userID, url, title string) *domain.Feed {
	store := NewFeedStore(s.db)
	feed, err := store.Create(s.ctx, &domain.Feed{UserID: userID, URL: url, Title: title})
	s.Require().NoError(err)
	return feed
}

func (s *PostgresIntegrationSuite) TestFeedStore_Create() {
	feed := s.createFeed(testUser, "https://example.com/rss.xml", "Example")

	s.NotZero(feed.ID)
	s.Equal(testUser, feed.UserID)
	s.Equal("Example", feed.Title)
	s.False(feed.CreatedAt.IsZero())
	s.Nil(feed.LastSyncedAt)
}

func (s *PostgresIntegrationSuite) TestFeedStore_Create_Conflict() {
	store := NewFeedStore(s.db)
	s.createFeed(testUser, "https://example.com/rss.xml", "Example")

	_, err := store.Create(s.ctx, &domain.Feed{
		UserID: testUser,
		URL:    "https://example.com/rss.xml",
		Title:  "Example Again",
	})

	var conflict *domain.ConflictError
	s.ErrorAs(err, &conflict)

	var count int
	s.Require().NoError(s.db.GetContext(s.ctx, &count,
		"SELECT count(*) FROM feeds WHERE user_id = $1", testUser))
	s.Equal(1, count, "no duplicate feed row may exist")
}

func (s *PostgresIntegrationSuite) TestFeedStore_Create_SameURLDifferentUsers() {
	s.createFeed("user-a", "https://example.com/rss.xml", "Example")
	s.createFeed("user-b", "https://example.com/rss.xml", "Example")
}

func (s *PostgresIntegrationSuite) TestFeedStore_GetByID_WrongUser() {
	store := NewFeedStore(s.db)
	feed := s.createFeed(testUser, "https://example.com/rss.xml", "Example")

	_, err := store.GetByID(s.ctx, feed.ID, "someone-else")
	s.ErrorIs(err, domain.ErrFeedNotFound)
}

func (s *PostgresIntegrationSuite) TestFeedStore_ListUserIDs() {
	store := NewFeedStore(s.db)
	s.createFeed("user-a", "https://a.example/rss", "A")
	s.createFeed("user-b", "https://b.example/rss", "B")
	s.createFeed("user-a", "https://a2.example/rss", "A2")

	users, err := store.ListUserIDs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"user-a", "user-b"}, users)
}

func (s *PostgresIntegrationSuite) TestFeedStore_UpdateSyncState() {
	store := NewFeedStore(s.db)
	feed := s.createFeed(testUser, "https://example.com/rss.xml", "Example")

	syncedAt := time.Now().Truncate(time.Microsecond)
	s.Require().NoError(store.UpdateSyncState(s.ctx, feed.ID, testUser, syncedAt, 3))
	s.Require().NoError(store.UpdateSyncState(s.ctx, feed.ID, testUser, syncedAt, 2))

	got, err := store.GetByID(s.ctx, feed.ID, testUser)
	s.Require().NoError(err)
	s.Require().NotNil(got.LastSyncedAt)
	s.Equal(int64(5), got.TotalSynced)
}

func (s *PostgresIntegrationSuite) TestVideoStore_UpsertBatch_Idempotent() {
	videos := NewVideoStore(s.db)
	feed := s.createFeed(testUser, "https://example.com/rss.xml", "Example")

	now := time.Now().Truncate(time.Microsecond)
	batch := []domain.Video{
		{ID: "vid-1", UserID: testUser, FeedID: feed.ID, Title: "One", Source: "Example", PublishedAt: now, FetchedOn: utils.Ptr(now)},
		{ID: "vid-2", UserID: testUser, FeedID: feed.ID, Title: "Two", Source: "Example", PublishedAt: now.Add(-time.Hour), FetchedOn: utils.Ptr(now)},
	}

	inserted, err := videos.UpsertBatch(s.ctx, batch)
	s.Require().NoError(err)
	s.Len(inserted, 2)
	s.False(inserted[0].Watched)
	s.False(inserted[0].SavedForLater)

	// Second run against an unchanged upstream inserts nothing.
	inserted, err = videos.UpsertBatch(s.ctx, batch)
	s.Require().NoError(err)
	s.Empty(inserted)
}

func (s *PostgresIntegrationSuite) TestVideoStore_UpsertBatch_PreservesFlags() {
	videos := NewVideoStore(s.db)
	feed := s.createFeed(testUser, "https://example.com/rss.xml", "Example")

	now := time.Now().Truncate(time.Microsecond)
	batch := []domain.Video{
		{ID: "vid-1", UserID: testUser, FeedID: feed.ID, Title: "One", Source: "Example", PublishedAt: now},
	}

	_, err := videos.UpsertBatch(s.ctx, batch)
	s.Require().NoError(err)

	watched, err := videos.ToggleWatched(s.ctx, "vid-1", testUser)
	s.Require().NoError(err)
	s.True(watched)

	saved, err := videos.ToggleSaved(s.ctx, "vid-1", testUser)
	s.Require().NoError(err)
	s.True(saved)

	// Re-sync must not reset user-set flags.
	_, err = videos.UpsertBatch(s.ctx, batch)
	s.Require().NoError(err)

	got, err := videos.SelectSince(s.ctx, testUser, now.Add(-time.Minute))
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.True(got[0].Watched)
	s.True(got[0].SavedForLater)
}

func (s *PostgresIntegrationSuite) TestVideoStore_UpsertBatch_ScopedPerUser() {
	videos := NewVideoStore(s.db)
	feedA := s.createFeed("user-a", "https://example.com/rss.xml", "Example")
	feedB := s.createFeed("user-b", "https://example.com/rss.xml", "Example")

	now := time.Now().Truncate(time.Microsecond)

	inserted, err := videos.UpsertBatch(s.ctx, []domain.Video{
		{ID: "vid-1", UserID: "user-a", FeedID: feedA.ID, Title: "One", Source: "Example", PublishedAt: now},
	})
	s.Require().NoError(err)
	s.Len(inserted, 1)

	// Same entry id for another user is a distinct catalog record.
	inserted, err = videos.UpsertBatch(s.ctx, []domain.Video{
		{ID: "vid-1", UserID: "user-b", FeedID: feedB.ID, Title: "One", Source: "Example", PublishedAt: now},
	})
	s.Require().NoError(err)
	s.Len(inserted, 1)
}

func (s *PostgresIntegrationSuite) TestVideoStore_SelectSince_InclusiveBound() {
	videos := NewVideoStore(s.db)
	feed := s.createFeed(testUser, "https://example.com/rss.xml", "Example")

	cutoff := time.Now().Truncate(time.Microsecond)
	_, err := videos.UpsertBatch(s.ctx, []domain.Video{
		{ID: "at-cutoff", UserID: testUser, FeedID: feed.ID, Title: "Boundary", Source: "Example", PublishedAt: cutoff},
		{ID: "before", UserID: testUser, FeedID: feed.ID, Title: "Old", Source: "Example", PublishedAt: cutoff.Add(-time.Second)},
		{ID: "after", UserID: testUser, FeedID: feed.ID, Title: "New", Source: "Example", PublishedAt: cutoff.Add(time.Second)},
	})
	s.Require().NoError(err)

	got, err := videos.SelectSince(s.ctx, testUser, cutoff)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("after", got[0].ID, "newest first")
	s.Equal("at-cutoff", got[1].ID, "entry exactly at the cutoff is included")
}

func (s *PostgresIntegrationSuite) TestVideoStore_ToggleWatched_RoundTrip() {
	videos := NewVideoStore(s.db)
	feed := s.createFeed(testUser, "https://example.com/rss.xml", "Example")

	now := time.Now().Truncate(time.Microsecond)
	_, err := videos.UpsertBatch(s.ctx, []domain.Video{
		{ID: "vid-1", UserID: testUser, FeedID: feed.ID, Title: "One", Source: "Example", PublishedAt: now},
	})
	s.Require().NoError(err)

	watched, err := videos.ToggleWatched(s.ctx, "vid-1", testUser)
	s.Require().NoError(err)
	s.True(watched)

	watched, err = videos.ToggleWatched(s.ctx, "vid-1", testUser)
	s.Require().NoError(err)
	s.False(watched)
}

func (s *PostgresIntegrationSuite) TestVideoStore_Toggle_NotFound() {
	videos := NewVideoStore(s.db)

	_, err := videos.ToggleWatched(s.ctx, "missing", testUser)
	s.ErrorIs(err, domain.ErrVideoNotFound)
}

func (s *PostgresIntegrationSuite) TestVideoStore_ResetWatched() {
	videos := NewVideoStore(s.db)
	feed := s.createFeed(testUser, "https://example.com/rss.xml", "Example")

	now := time.Now().Truncate(time.Microsecond)
	_, err := videos.UpsertBatch(s.ctx, []domain.Video{
		{ID: "vid-1", UserID: testUser, FeedID: feed.ID, Title: "One", Source: "Example", PublishedAt: now},
		{ID: "vid-2", UserID: testUser, FeedID: feed.ID, Title: "Two", Source: "Example", PublishedAt: now},
	})
	s.Require().NoError(err)

	_, err = videos.ToggleWatched(s.ctx, "vid-1", testUser)
	s.Require().NoError(err)

	s.Require().NoError(videos.ResetWatched(s.ctx, testUser))

	got, err := videos.SelectSince(s.ctx, testUser, now.Add(-time.Minute))
	s.Require().NoError(err)
	for _, v := range got {
		s.False(v.Watched)
	}
}

func (s *PostgresIntegrationSuite) TestDeleteFeed_CascadeInTransaction() {
	feeds := NewFeedStore(s.db)
	videos := NewVideoStore(s.db)
	tm := NewTransactionManager(s.db)

	keep := s.createFeed(testUser, "https://keep.example/rss", "Keep")
	doomed := s.createFeed(testUser, "https://doomed.example/rss", "Doomed")

	now := time.Now().Truncate(time.Microsecond)
	_, err := videos.UpsertBatch(s.ctx, []domain.Video{
		{ID: "keep-1", UserID: testUser, FeedID: keep.ID, Title: "Keep", Source: "Keep", PublishedAt: now},
		{ID: "doomed-1", UserID: testUser, FeedID: doomed.ID, Title: "Doomed", Source: "Doomed", PublishedAt: now},
	})
	s.Require().NoError(err)

	err = tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		if err := videos.DeleteByFeed(txCtx, doomed.ID, testUser); err != nil {
			return err
		}
		return feeds.Delete(txCtx, doomed.ID, testUser)
	})
	s.Require().NoError(err)

	got, err := videos.SelectSince(s.ctx, testUser, now.Add(-time.Minute))
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("keep-1", got[0].ID)

	_, err = feeds.GetByID(s.ctx, doomed.ID, testUser)
	s.ErrorIs(err, domain.ErrFeedNotFound)
}
