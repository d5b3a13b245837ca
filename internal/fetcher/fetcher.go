// Package fetcher retrieves syndication documents and normalizes them into
// entries for the sync pipeline.
package fetcher

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"tubefeed/internal/domain"
)

type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// New creates a fetcher whose requests are bounded by timeout so one
// unresponsive source cannot stall a sync batch.
func New(timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		logger:  logger.With("component", "fetcher"),
	}
}

// Fetch retrieves and parses the document at feedURL. RSS and Atom are both
// accepted. Entries keep document order and carry the raw identifier as
// given by the document. No retries; retry policy belongs to the caller.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*domain.ParsedFeed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = f.httpClient
	parser.UserAgent = "Tubefeed/1.0"

	parsed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, &domain.FeedUnreachableError{URL: feedURL, Err: err}
	}

	now := time.Now()
	entries := make([]domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		if id == "" {
			continue
		}

		published := now
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}

		entries = append(entries, domain.Entry{
			ID:          id,
			Title:       item.Title,
			PublishedAt: published,
		})
	}

	f.logger.Debug("fetched feed",
		"url", feedURL,
		"title", parsed.Title,
		"entries", len(entries),
	)

	return &domain.ParsedFeed{
		Title:   parsed.Title,
		Entries: entries,
	}, nil
}
