// Package service implements the business logic for matchmaking and debate
// invitations on top of the session store.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Liiiii222/debate/internal/domain"
	domainerrors "github.com/Liiiii222/debate/internal/errors"
	"github.com/Liiiii222/debate/internal/id"
	"github.com/Liiiii222/debate/internal/store"
)

// MatchmakingService owns the find-match flow and session lifecycle.
type MatchmakingService struct {
	store          *store.Store
	logger         *slog.Logger
	activityWindow time.Duration
	candidateLimit int
}

// NewMatchmakingService creates a matchmaking service.
func NewMatchmakingService(st *store.Store, logger *slog.Logger, activityWindow time.Duration, candidateLimit int) *MatchmakingService {
	return &MatchmakingService{
		store:          st,
		logger:         logger,
		activityWindow: activityWindow,
		candidateLimit: candidateLimit,
	}
}

// FindMatchResult is what a matchmaking request produces: the requester's
// fresh session token, and a match if one was reserved.
type FindMatchResult struct {
	SessionID string
	Match     *domain.MatchResult
}

// FindMatch registers the requester as a searching session and tries to
// reserve the best candidate.
//
// Selection is by recency: the most-recently-active candidate wins, and the
// compatibility score is computed only for display. Candidates that a racing
// request reserves first are discarded and the next one is tried; if every
// candidate is gone, the requester stays in the searching pool.
func (s *MatchmakingService) FindMatch(ctx context.Context, prefs domain.Preferences, username string) (*FindMatchResult, error) {
	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create session")
	}

	session := domain.NewSession(sessionID, username, prefs)
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create session")
	}

	candidates, err := s.store.FindCandidates(ctx, prefs, sessionID, s.activityWindow, s.candidateLimit)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to query candidates")
	}

	for _, candidate := range candidates {
		err := s.store.ReserveMatch(ctx, sessionID, candidate.ID)
		if domainerrors.Is(err, store.ErrCandidateTaken) || domainerrors.Is(err, store.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to reserve match")
		}

		score := domain.Score(prefs, candidate.Preferences)
		s.logger.Info("Match found",
			"session_id", sessionID,
			"opponent_id", candidate.ID,
			"score", score,
		)

		return &FindMatchResult{
			SessionID: sessionID,
			Match: &domain.MatchResult{
				RequesterID: sessionID,
				Opponent:    candidate,
				Score:       score,
			},
		}, nil
	}

	// No match yet: the requester stays searching and the client polls or
	// waits for a push from the realtime layer.
	return &FindMatchResult{SessionID: sessionID}, nil
}

// Heartbeat refreshes a session's activity timestamp.
func (s *MatchmakingService) Heartbeat(ctx context.Context, sessionID string) error {
	err := s.store.TouchSession(ctx, sessionID, time.Now().UTC())
	if domainerrors.Is(err, store.ErrSessionNotFound) {
		return domainerrors.NotFound("User session not found")
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update activity")
	}
	return nil
}

// EndSession takes a session out of the searching pool. Repeating the call
// for a known session succeeds; an unknown session is a 404.
func (s *MatchmakingService) EndSession(ctx context.Context, sessionID string) error {
	err := s.store.EndSession(ctx, sessionID)
	if domainerrors.Is(err, store.ErrSessionNotFound) {
		return domainerrors.NotFound("User session not found")
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to end session")
	}
	return nil
}

// ServerStats are the aggregate counts periodically pushed to clients and
// served from the stats endpoint.
type ServerStats struct {
	TotalUsers     int       `json:"totalUsers"`
	SearchingUsers int       `json:"searchingUsers"`
	ActiveUsers    int       `json:"activeUsers"`
	Timestamp      time.Time `json:"timestamp"`
}

// Stats returns current aggregate session counts.
func (s *MatchmakingService) Stats(ctx context.Context) (*ServerStats, error) {
	now := time.Now().UTC()
	counts, err := s.store.CountSessions(ctx, now.Add(-s.activityWindow))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to fetch statistics")
	}

	return &ServerStats{
		TotalUsers:     counts.Total,
		SearchingUsers: counts.Searching,
		ActiveUsers:    counts.Active,
		Timestamp:      now,
	}, nil
}

// SweepInactive demotes stale searching sessions. Run periodically by the
// scheduler; a blunt liveness mechanism, not a delete.
func (s *MatchmakingService) SweepInactive(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.activityWindow)
	count, err := s.store.SweepInactiveSessions(ctx, cutoff)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("Cleaned up inactive sessions", "count", count)
	}
	return nil
}
