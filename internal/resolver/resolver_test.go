package resolver

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubefeed/internal/domain"
)

type stubLookup struct {
	channels []domain.Channel
	err      error
	queries  []string
}

func (s *stubLookup) SearchChannels(_ context.Context, query string) ([]domain.Channel, error) {
	s.queries = append(s.queries, query)
	return s.channels, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestResolve_DirectChannelID(t *testing.T) {
	lookup := &stubLookup{}
	r := New(lookup, testLogger())

	got, err := r.Resolve(context.Background(), "https://www.youtube.com/channel/UCabc_123-X")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UCabc_123-X", got)
	assert.Empty(t, lookup.queries, "direct channel id must not hit the lookup")
}

func TestResolve_LookupShapes(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		wantQuery string
	}{
		{name: "handle", reference: "https://www.youtube.com/@SomeHandle", wantQuery: "SomeHandle"},
		{name: "handle with trailing path", reference: "https://youtube.com/@SomeHandle/videos", wantQuery: "SomeHandle"},
		{name: "legacy user path", reference: "https://www.youtube.com/user/OldTimer", wantQuery: "OldTimer"},
		{name: "legacy c path", reference: "https://www.youtube.com/c/CustomName", wantQuery: "CustomName"},
		{name: "bare root custom path", reference: "https://www.youtube.com/TodoNoticias", wantQuery: "TodoNoticias"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &stubLookup{channels: []domain.Channel{{ID: "UC42", Title: "whatever"}}}
			r := New(lookup, testLogger())

			got, err := r.Resolve(context.Background(), tt.reference)
			require.NoError(t, err)
			assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UC42", got)
			require.Len(t, lookup.queries, 1)
			assert.Equal(t, tt.wantQuery, lookup.queries[0])
		})
	}
}

func TestResolve_PrecedenceChannelIDOverHandle(t *testing.T) {
	lookup := &stubLookup{channels: []domain.Channel{{ID: "UCwrong"}}}
	r := New(lookup, testLogger())

	got, err := r.Resolve(context.Background(), "https://www.youtube.com/channel/UCdirect?ref=@decoy")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UCdirect", got)
	assert.Empty(t, lookup.queries)
}

func TestResolve_PassthroughDirectFeedURL(t *testing.T) {
	r := New(&stubLookup{}, testLogger())

	for _, reference := range []string{
		"https://example.com/rss.xml",
		"https://blog.example.org/feed/atom",
		"https://www.youtube.com/feeds/videos.xml?channel_id=UC123",
	} {
		got, err := r.Resolve(context.Background(), reference)
		require.NoError(t, err)
		assert.Equal(t, reference, got)
	}
}

func TestResolve_ExactMatchSelection(t *testing.T) {
	lookup := &stubLookup{channels: []domain.Channel{
		{ID: "UC456", Title: "Example Channel Clips"},
		{ID: "UC123", Title: "Example Channel"},
	}}
	r := New(lookup, testLogger())

	got, err := r.Resolve(context.Background(), "https://www.youtube.com/@ExampleChannel")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UC123", got)
}

func TestResolve_CustomSlugSelection(t *testing.T) {
	lookup := &stubLookup{channels: []domain.Channel{
		{ID: "UC456", Title: "Something Else"},
		{ID: "UC123", Title: "Display Name Differs", CustomURL: "@examplechannel"},
	}}
	r := New(lookup, testLogger())

	got, err := r.Resolve(context.Background(), "https://www.youtube.com/@ExampleChannel")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UC123", got)
}

func TestResolve_FirstCandidateFallback(t *testing.T) {
	lookup := &stubLookup{channels: []domain.Channel{
		{ID: "UCfirst", Title: "Close Enough"},
		{ID: "UCsecond", Title: "Also Close"},
	}}
	r := New(lookup, testLogger())

	got, err := r.Resolve(context.Background(), "https://www.youtube.com/@NoExactMatch")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UCfirst", got)
}

func TestResolve_LookupFailure(t *testing.T) {
	lookup := &stubLookup{err: errors.New("api down")}
	r := New(lookup, testLogger())

	_, err := r.Resolve(context.Background(), "https://www.youtube.com/@SomeHandle")

	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "https://www.youtube.com/@SomeHandle", resErr.Reference)
	assert.Equal(t, "channel lookup failed", resErr.Reason)
}

func TestResolve_NoCandidates(t *testing.T) {
	lookup := &stubLookup{}
	r := New(lookup, testLogger())

	_, err := r.Resolve(context.Background(), "https://www.youtube.com/c/Unknown")

	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, resErr.Reason, "no channel found")
}
