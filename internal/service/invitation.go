package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Liiiii222/debate/internal/domain"
	domainerrors "github.com/Liiiii222/debate/internal/errors"
	"github.com/Liiiii222/debate/internal/store"
)

// InvitationService owns the direct-invitation pairing path.
type InvitationService struct {
	store  *store.Store
	logger *slog.Logger
	ttl    time.Duration
}

// NewInvitationService creates an invitation service.
func NewInvitationService(st *store.Store, logger *slog.Logger, ttl time.Duration) *InvitationService {
	return &InvitationService{
		store:  st,
		logger: logger,
		ttl:    ttl,
	}
}

// CreateInvitationInput carries a validated invitation request.
type CreateInvitationInput struct {
	InviterSessionID string
	InviteeUsername  string
	Category         string
	Topic            string
	Format           domain.DebateFormat
}

// InvitationSummary is the creation response payload.
type InvitationSummary struct {
	ID              string    `json:"id"`
	InviteeUsername string    `json:"inviteeUsername"`
	Category        string    `json:"category"`
	Topic           string    `json:"topic"`
	DebateFormat    string    `json:"debateFormat"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// Create sends an invitation from a session to a username.
func (s *InvitationService) Create(ctx context.Context, in CreateInvitationInput) (*InvitationSummary, error) {
	invitee, err := s.store.GetSessionByUsername(ctx, in.InviteeUsername)
	if domainerrors.Is(err, store.ErrSessionNotFound) {
		return nil, domainerrors.NotFound("User not found")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to send invitation")
	}

	if in.InviterSessionID == invitee.ID {
		return nil, domainerrors.Conflict("You cannot invite yourself")
	}

	inv := domain.NewInvitation(uuid.NewString(), in.InviterSessionID, invitee.ID, in.Category, in.Topic, in.Format, s.ttl)

	err = s.store.CreateInvitation(ctx, inv)
	if domainerrors.Is(err, store.ErrDuplicatePending) {
		return nil, domainerrors.Conflict("You already have a pending invitation to this user")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to send invitation")
	}

	s.logger.Info("Invitation created",
		"invitation_id", inv.ID,
		"inviter", inv.InviterSessionID,
		"invitee", inv.InviteeSessionID,
	)

	return &InvitationSummary{
		ID:              inv.ID,
		InviteeUsername: in.InviteeUsername,
		Category:        inv.Category,
		Topic:           inv.Topic,
		DebateFormat:    string(inv.Format),
		ExpiresAt:       inv.ExpiresAt,
	}, nil
}

// AcceptedDebate is the accept response payload.
type AcceptedDebate struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	Topic           string `json:"topic"`
	DebateFormat    string `json:"debateFormat"`
	InviterUsername string `json:"inviterUsername"`
	InviteeUsername string `json:"inviteeUsername"`
}

// Accept transitions a pending, unexpired invitation to accepted. Expiry is
// checked lazily at accept time: a stale pending row past its expiresAt is
// rejected even if the sweep has not caught it yet.
func (s *InvitationService) Accept(ctx context.Context, invitationID string) (*AcceptedDebate, error) {
	inv, err := s.loadPending(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	if inv.Expired(time.Now().UTC()) {
		return nil, domainerrors.Expired("Invitation has expired")
	}

	if err := s.transition(ctx, inv.ID, domain.InvitationAccepted); err != nil {
		return nil, err
	}

	return &AcceptedDebate{
		ID:              inv.ID,
		Category:        inv.Category,
		Topic:           inv.Topic,
		DebateFormat:    string(inv.Format),
		InviterUsername: s.displayName(ctx, inv.InviterSessionID),
		InviteeUsername: s.displayName(ctx, inv.InviteeSessionID),
	}, nil
}

// Decline transitions a pending invitation to declined. No expiry check: a
// decline of a stale invitation is harmless and still terminal.
func (s *InvitationService) Decline(ctx context.Context, invitationID string) error {
	inv, err := s.loadPending(ctx, invitationID)
	if err != nil {
		return err
	}

	return s.transition(ctx, inv.ID, domain.InvitationDeclined)
}

// PendingInvitation is a row in the invitee's pending list.
type PendingInvitation struct {
	ID              string    `json:"id"`
	InviterUsername string    `json:"inviterUsername"`
	Category        string    `json:"category"`
	Topic           string    `json:"topic"`
	DebateFormat    string    `json:"debateFormat"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// ListPending returns unexpired pending invitations addressed to a session,
// newest first, with inviter display names resolved.
func (s *InvitationService) ListPending(ctx context.Context, sessionID string) ([]PendingInvitation, error) {
	invitations, err := s.store.ListPendingInvitations(ctx, sessionID, time.Now().UTC())
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to fetch invitations")
	}

	result := make([]PendingInvitation, 0, len(invitations))
	for _, inv := range invitations {
		result = append(result, PendingInvitation{
			ID:              inv.ID,
			InviterUsername: s.displayName(ctx, inv.InviterSessionID),
			Category:        inv.Category,
			Topic:           inv.Topic,
			DebateFormat:    string(inv.Format),
			CreatedAt:       inv.CreatedAt,
			ExpiresAt:       inv.ExpiresAt,
		})
	}

	return result, nil
}

// ActiveInvitation is a row in the either-role active list.
type ActiveInvitation struct {
	ID              string    `json:"id"`
	InviterUsername string    `json:"inviterUsername"`
	InviteeUsername string    `json:"inviteeUsername"`
	Category        string    `json:"category"`
	Topic           string    `json:"topic"`
	DebateFormat    string    `json:"debateFormat"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// ListActive returns unexpired pending or accepted invitations involving a
// session in either role, newest first.
func (s *InvitationService) ListActive(ctx context.Context, sessionID string) ([]ActiveInvitation, error) {
	invitations, err := s.store.ListActiveInvitations(ctx, sessionID, time.Now().UTC())
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to fetch invitations")
	}

	result := make([]ActiveInvitation, 0, len(invitations))
	for _, inv := range invitations {
		result = append(result, ActiveInvitation{
			ID:              inv.ID,
			InviterUsername: s.displayName(ctx, inv.InviterSessionID),
			InviteeUsername: s.displayName(ctx, inv.InviteeSessionID),
			Category:        inv.Category,
			Topic:           inv.Topic,
			DebateFormat:    string(inv.Format),
			Status:          string(inv.Status),
			CreatedAt:       inv.CreatedAt,
			ExpiresAt:       inv.ExpiresAt,
		})
	}

	return result, nil
}

// SweepExpired moves pending invitations past their expiry to expired. Run
// periodically by the scheduler.
func (s *InvitationService) SweepExpired(ctx context.Context) error {
	count, err := s.store.SweepExpiredInvitations(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("Expired stale invitations", "count", count)
	}
	return nil
}

// loadPending fetches an invitation and verifies it is still pending.
func (s *InvitationService) loadPending(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	inv, err := s.store.GetInvitation(ctx, invitationID)
	if domainerrors.Is(err, store.ErrInvitationNotFound) {
		return nil, domainerrors.NotFound("Invitation not found")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load invitation")
	}

	if !inv.Pending() {
		return nil, domainerrors.InvalidState("Invitation is no longer pending")
	}

	return inv, nil
}

// transition applies a pending -> to transition, translating the
// conditional-update failure into the domain error the API reports.
func (s *InvitationService) transition(ctx context.Context, invitationID string, to domain.InvitationStatus) error {
	err := s.store.TransitionInvitation(ctx, invitationID, domain.InvitationPending, to)
	if domainerrors.Is(err, store.ErrStatusChanged) {
		return domainerrors.InvalidState("Invitation is no longer pending")
	}
	if domainerrors.Is(err, store.ErrInvitationNotFound) {
		return domainerrors.NotFound("Invitation not found")
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update invitation")
	}
	return nil
}

// displayName resolves a session's display name, falling back to the
// anonymous form when the session is gone or has no username.
func (s *InvitationService) displayName(ctx context.Context, sessionID string) string {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil || session.Username == "" {
		return domain.AnonymousUser(sessionID)
	}
	return session.Username
}
