package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Liiiii222/debate/internal/domain"
	"github.com/Liiiii222/debate/internal/http/response"
	"github.com/Liiiii222/debate/internal/service"
)

// findMatchRequest is the matchmaking request body: the requester's debate
// preferences plus an optional display name.
type findMatchRequest struct {
	Username   string `json:"username"`
	Category   string `json:"category" validate:"required"`
	Topic      string `json:"topic" validate:"required"`
	AgeRange   string `json:"ageRange"`
	Language   string `json:"language"`
	Country    string `json:"country"`
	University string `json:"university"`
}

// matchPayload is the opponent block of a successful match.
type matchPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AgeRange   string `json:"ageRange"`
	Country    string `json:"country"`
	University string `json:"university,omitempty"`
	MatchScore int    `json:"matchScore"`
}

type findMatchResponse struct {
	Success   bool          `json:"success"`
	Match     *matchPayload `json:"match"`
	SessionID string        `json:"sessionId"`
}

// handleFindMatch registers the caller as a searching session and tries to
// pair it immediately. A null match means the caller is queued.
func (s *Server) handleFindMatch(w http.ResponseWriter, r *http.Request) {
	var req findMatchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	prefs := domain.Preferences{
		Category:   req.Category,
		Topic:      req.Topic,
		AgeRange:   req.AgeRange,
		Language:   req.Language,
		Country:    req.Country,
		University: req.University,
	}

	result, err := s.matchmaking.FindMatch(r.Context(), prefs, req.Username)
	if err != nil {
		s.handleServiceError(w, err)
		return
	}

	resp := findMatchResponse{
		Success:   true,
		SessionID: result.SessionID,
	}
	if result.Match != nil {
		opp := result.Match.Opponent
		resp.Match = &matchPayload{
			ID:         opp.ID,
			Name:       opp.DisplayName(),
			AgeRange:   opp.Preferences.AgeRange,
			Country:    opp.Preferences.Country,
			University: opp.Preferences.University,
			MatchScore: result.Match.Score,
		}
	}

	response.Success(w, resp, s.logger)
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleHeartbeat refreshes a session's activity timestamp.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.matchmaking.Heartbeat(r.Context(), sessionID); err != nil {
		s.handleServiceError(w, err)
		return
	}

	response.Success(w, messageResponse{Success: true, Message: "Activity updated"}, s.logger)
}

// handleEndSession takes a session out of the searching pool.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.matchmaking.EndSession(r.Context(), sessionID); err != nil {
		s.handleServiceError(w, err)
		return
	}

	response.Success(w, messageResponse{Success: true, Message: "Session ended"}, s.logger)
}

type statsResponse struct {
	Success bool                 `json:"success"`
	Stats   *service.ServerStats `json:"stats"`
}

// handleStats returns the aggregate session counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.matchmaking.Stats(r.Context())
	if err != nil {
		s.handleServiceError(w, err)
		return
	}

	response.Success(w, statsResponse{Success: true, Stats: stats}, s.logger)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealthCheck reports liveness and process uptime.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response.Success(w, healthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}, s.logger)
}
