package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tubefeed/internal/domain"
)

// Verifier resolves a bearer token to a stable user identifier.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// OIDCVerifier validates tokens against an OpenID Connect userinfo endpoint.
type OIDCVerifier struct {
	httpClient  *http.Client
	userinfoURL string
	logger      *slog.Logger
}

type Config struct {
	UserinfoURL string
	Timeout     time.Duration
}

func NewOIDCVerifier(cfg Config, logger *slog.Logger) *OIDCVerifier {
	return &OIDCVerifier{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		userinfoURL: cfg.UserinfoURL,
		logger:      logger,
	}
}

type userinfoResponse struct {
	Sub string `json:"sub"`
}

// Verify calls the userinfo endpoint with the token and returns the subject
// claim. Any rejection by the identity provider maps to ErrUnauthorized.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", domain.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo response: %w", err)
	}

	if info.Sub == "" {
		v.logger.Warn("userinfo response missing subject claim")
		return "", domain.ErrUnauthorized
	}

	return info.Sub, nil
}
