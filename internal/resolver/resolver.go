// Package resolver turns a raw user-supplied source reference into a
// canonical, directly fetchable feed endpoint.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"tubefeed/internal/domain"
)

const feedURLFormat = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// YouTube URL shapes, checked in precedence order. A direct /channel/<ID>
// needs no lookup; the rest carry a name or handle that does.
var (
	channelIDPattern  = regexp.MustCompile(`youtube\.com/channel/([A-Za-z0-9_-]+)`)
	handlePattern     = regexp.MustCompile(`youtube\.com/@([^/?#]+)`)
	legacyPathPattern = regexp.MustCompile(`youtube\.com/(?:user|c)/([^/?#]+)`)
	rootPathPattern   = regexp.MustCompile(`youtube\.com/([A-Za-z0-9_-]+)$`)
)

// ChannelLookup resolves a free-text name or handle to channel candidates.
type ChannelLookup interface {
	SearchChannels(ctx context.Context, query string) ([]domain.Channel, error)
}

type Resolver struct {
	lookup ChannelLookup
	logger *slog.Logger
}

func New(lookup ChannelLookup, logger *slog.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		logger: logger.With("component", "resolver"),
	}
}

// Resolve maps a reference to its canonical feed URL. References that match
// no YouTube channel shape pass through unchanged and are treated as direct
// feed endpoints.
func (r *Resolver) Resolve(ctx context.Context, reference string) (string, error) {
	if m := channelIDPattern.FindStringSubmatch(reference); m != nil {
		return fmt.Sprintf(feedURLFormat, m[1]), nil
	}

	for _, pattern := range []*regexp.Regexp{handlePattern, legacyPathPattern, rootPathPattern} {
		if m := pattern.FindStringSubmatch(reference); m != nil {
			return r.resolveByName(ctx, reference, m[1])
		}
	}

	return reference, nil
}

func (r *Resolver) resolveByName(ctx context.Context, reference, name string) (string, error) {
	channels, err := r.lookup.SearchChannels(ctx, name)
	if err != nil {
		return "", &domain.ResolutionError{
			Reference: reference,
			Reason:    "channel lookup failed",
			Err:       err,
		}
	}
	if len(channels) == 0 {
		return "", &domain.ResolutionError{
			Reference: reference,
			Reason:    fmt.Sprintf("no channel found for %q", name),
		}
	}

	channel := pickChannel(channels, name)

	r.logger.Debug("resolved channel reference",
		"reference", reference,
		"name", name,
		"channel_id", channel.ID,
		"channel_title", channel.Title,
	)

	return fmt.Sprintf(feedURLFormat, channel.ID), nil
}

// pickChannel prefers an exact match on the whitespace-stripped display name
// or on the custom-URL slug, both case-insensitive. With no exact match the
// first candidate wins; that fallback is deliberate best effort, not an
// error.
func pickChannel(channels []domain.Channel, name string) domain.Channel {
	want := strings.ToLower(name)

	for _, c := range channels {
		title := strings.ToLower(stripSpace(c.Title))
		slug := strings.ToLower(strings.TrimPrefix(c.CustomURL, "@"))
		if title == want || (slug != "" && slug == want) {
			return c
		}
	}

	return channels[0]
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
