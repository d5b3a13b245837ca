package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tubefeed/internal/domain"
)

func (s *Server) handleRegisterFeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeedURL string `json:"feed_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	reference := strings.TrimSpace(req.FeedURL)
	if reference == "" {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "feed_url is required"})
		return
	}

	result, err := s.feeds.Register(r.Context(), userFromContext(r.Context()), reference)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := s.catalog.ListByUser(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if feeds == nil {
		feeds = []domain.Feed{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"feeds": feeds})
}

func (s *Server) handleDeleteFeed(w http.ResponseWriter, r *http.Request) {
	feedID, err := parseFeedID(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid feed id"})
		return
	}

	if err := s.feeds.DeleteFeed(r.Context(), userFromContext(r.Context()), feedID); err != nil {
		s.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncFeed(w http.ResponseWriter, r *http.Request) {
	feedID, err := parseFeedID(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid feed id"})
		return
	}

	result, err := s.feeds.SyncFeed(r.Context(), userFromContext(r.Context()), feedID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if result.NewVideos == nil {
		result.NewVideos = []domain.Video{}
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	stats, err := s.feeds.SyncAll(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	since := sinceForRange(r.URL.Query().Get("range"), time.Now())

	videos, err := s.videos.SelectSince(r.Context(), userFromContext(r.Context()), since)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if videos == nil {
		videos = []domain.Video{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"videos": videos})
}

func (s *Server) handleToggleWatched(w http.ResponseWriter, r *http.Request) {
	s.toggleFlag(w, r, s.videos.ToggleWatched, "watched")
}

func (s *Server) handleToggleSaved(w http.ResponseWriter, r *http.Request) {
	s.toggleFlag(w, r, s.videos.ToggleSaved, "saved_for_later")
}

func (s *Server) toggleFlag(
	w http.ResponseWriter,
	r *http.Request,
	toggle func(ctx context.Context, videoID, userID string) (bool, error),
	field string,
) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	videoID := domain.NormalizeVideoID(req.ID)
	value, err := toggle(r.Context(), videoID, userFromContext(r.Context()))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"id": videoID, field: value})
}

func (s *Server) handleResetWatched(w http.ResponseWriter, r *http.Request) {
	if err := s.videos.ResetWatched(r.Context(), userFromContext(r.Context())); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRecent serves today's unwatched videos for the configured public
// user without authentication.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.cfg.PublicUser == "" {
		s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "no public catalog configured"})
		return
	}

	since := sinceForRange("today", time.Now())
	videos, err := s.videos.SelectSince(r.Context(), s.cfg.PublicUser, since)
	if err != nil {
		s.respondError(w, err)
		return
	}

	recent := make([]domain.Video, 0, len(videos))
	for _, v := range videos {
		if !v.Watched {
			recent = append(recent, v)
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"videos": recent})
}

func parseFeedID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "feedID"), 10, 64)
}
