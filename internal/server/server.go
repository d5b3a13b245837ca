// Package server provides the HTTP API over the feed catalog.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tubefeed/internal/config"
	"tubefeed/internal/domain"
)

type ctxKey int

const userIDKey ctxKey = iota

// Server is the HTTP front for the sync pipeline and video catalog.
type Server struct {
	feeds    FeedService
	catalog  FeedLister
	videos   VideoQuery
	verifier TokenVerifier
	cfg      config.ServerConfig
	logger   *slog.Logger
	router   chi.Router
}

func New(
	feeds FeedService,
	catalog FeedLister,
	videos VideoQuery,
	verifier TokenVerifier,
	cfg config.ServerConfig,
	logger *slog.Logger,
) *Server {
	s := &Server{
		feeds:    feeds,
		catalog:  catalog,
		videos:   videos,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/recent", s.handleRecent)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/feeds", s.handleRegisterFeed)
			r.Get("/feeds", s.handleListFeeds)
			r.Delete("/feeds/{feedID}", s.handleDeleteFeed)
			r.Post("/feeds/{feedID}/sync", s.handleSyncFeed)
			r.Post("/sync", s.handleSyncAll)

			r.Get("/videos", s.handleListVideos)
			r.Post("/videos/watched", s.handleToggleWatched)
			r.Post("/videos/saved", s.handleToggleSaved)
			r.Post("/videos/reset-watched", s.handleResetWatched)
		})
	})

	s.router = r
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// --- Middleware ---

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		userID, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			s.respondError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

func userFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, status, map[string]string{"error": publicMessage(err, status)})
}

func statusFromError(err error) int {
	var resolution *domain.ResolutionError
	var unreachable *domain.FeedUnreachableError
	var conflict *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrFeedNotFound), errors.Is(err, domain.ErrVideoNotFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &resolution), errors.As(err, &unreachable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// sinceForRange maps a query range to an inclusive lower publish bound.
// "today" means the local start of day; other ranges are trailing windows.
func sinceForRange(rng string, now time.Time) time.Time {
	switch rng {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "month":
		return now.AddDate(0, -1, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}
