package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/storage"
)

// StatusResponse is the JSON response for /api/status.
type StatusResponse struct {
	Status       string                 `json:"status"`
	Connection   domain.ConnectionState `json:"connection"`
	FeedSize     int                    `json:"feed_size"`
	FeedCapacity int                    `json:"feed_capacity"`
	StartedAt    time.Time              `json:"started_at"`
	Uptime       string                 `json:"uptime"`
}

// StageCountsResponse is the JSON response for /api/decisions/stats.
type StageCountsResponse struct {
	Start  int64                            `json:"start"`
	End    int64                            `json:"end"`
	Counts map[domain.ModerationStage]int64 `json:"counts"`
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := domain.StateDisconnected
	if s.state != nil {
		state = s.state.State()
	}

	now := s.now()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:       "running",
		Connection:   state,
		FeedSize:     s.feed.Len(),
		FeedCapacity: s.feed.Capacity(),
		StartedAt:    s.startedAt,
		Uptime:       now.Sub(s.startedAt).Truncate(time.Second).String(),
	})
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if s.decisions == nil {
		writeError(w, http.StatusServiceUnavailable, "decision log disabled")
		return
	}

	mint := chi.URLParam(r, "mint")
	decisions, err := s.decisions.GetByMint(r.Context(), mint)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusOK, []*domain.ModerationDecision{})
			return
		}
		s.logger.Printf("[api] decisions for %s: %v", mint, err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if decisions == nil {
		decisions = []*domain.ModerationDecision{}
	}
	writeJSON(w, http.StatusOK, decisions)
}

// handleDecisionStats counts decisions per stage in [start, end] (unix ms).
// Defaults to the last hour.
func (s *Server) handleDecisionStats(w http.ResponseWriter, r *http.Request) {
	if s.decisions == nil {
		writeError(w, http.StatusServiceUnavailable, "decision log disabled")
		return
	}

	end := s.now().UnixMilli()
	start := end - time.Hour.Milliseconds()
	var err error
	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = strconv.ParseInt(v, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start")
			return
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = strconv.ParseInt(v, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end")
			return
		}
	}
	if start > end {
		writeError(w, http.StatusBadRequest, "start after end")
		return
	}

	counts, err := s.decisions.CountByStage(r.Context(), start, end)
	if err != nil {
		s.logger.Printf("[api] decision stats: %v", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, StageCountsResponse{Start: start, End: end, Counts: counts})
}
