// Package youtube implements the channel lookup against the YouTube Data
// API search endpoint, restricted to channel-type results.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"tubefeed/internal/domain"
)

// ErrNoAPIKey is returned when no credential is configured; callers surface
// it as a resolution failure without attempting the network call.
var ErrNoAPIKey = errors.New("youtube api key not configured")

const maxResults = 10

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger.With("component", "youtube"),
	}
}

// SearchChannels returns candidate channels for a free-text name or handle,
// in the order the API ranked them.
func (c *Client) SearchChannels(ctx context.Context, query string) ([]domain.Channel, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	searchURL := fmt.Sprintf("%s/search?part=snippet&type=channel&maxResults=%d&q=%s&key=%s",
		c.baseURL, maxResults, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Tubefeed/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var apiResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("channel search completed",
		"query", query,
		"candidates", len(apiResp.Items),
	)

	return transform(apiResp.Items), nil
}

func transform(items []searchItem) []domain.Channel {
	channels := make([]domain.Channel, 0, len(items))

	for _, item := range items {
		id := item.Snippet.ChannelID
		if id == "" {
			id = item.ID.ChannelID
		}
		if id == "" {
			continue
		}

		channels = append(channels, domain.Channel{
			ID:        id,
			Title:     item.Snippet.ChannelTitle,
			CustomURL: item.Snippet.CustomURL,
		})
	}

	return channels
}
