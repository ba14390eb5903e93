package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Liiiii222/debate/internal/domain"
	"github.com/Liiiii222/debate/internal/http/response"
	"github.com/Liiiii222/debate/internal/service"
)

type createInvitationRequest struct {
	InviterSessionID string `json:"inviterSessionId" validate:"required"`
	InviteeUsername  string `json:"inviteeUsername" validate:"required"`
	Category         string `json:"category" validate:"required"`
	Topic            string `json:"topic" validate:"required"`
	DebateFormat     string `json:"debateFormat" validate:"required,oneof=Video Voice Text"`
}

type createInvitationResponse struct {
	Success    bool                       `json:"success"`
	Invitation *service.InvitationSummary `json:"invitation"`
}

// handleCreateInvitation sends a debate invitation to a user by name.
func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req createInvitationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	invitation, err := s.invitations.Create(r.Context(), service.CreateInvitationInput{
		InviterSessionID: req.InviterSessionID,
		InviteeUsername:  req.InviteeUsername,
		Category:         req.Category,
		Topic:            req.Topic,
		Format:           domain.DebateFormat(req.DebateFormat),
	})
	if err != nil {
		s.handleServiceError(w, err)
		return
	}

	response.Created(w, createInvitationResponse{Success: true, Invitation: invitation}, s.logger)
}

type acceptInvitationResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Debate  *service.AcceptedDebate `json:"debate"`
}

// handleAcceptInvitation accepts a pending invitation and returns the
// resulting debate pairing.
func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID := chi.URLParam(r, "invitationID")

	debate, err := s.invitations.Accept(r.Context(), invitationID)
	if err != nil {
		s.handleServiceError(w, err)
		return
	}

	response.Success(w, acceptInvitationResponse{
		Success: true,
		Message: "Invitation accepted",
		Debate:  debate,
	}, s.logger)
}

// handleDeclineInvitation declines a pending invitation.
func (s *Server) handleDeclineInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID := chi.URLParam(r, "invitationID")

	if err := s.invitations.Decline(r.Context(), invitationID); err != nil {
		s.handleServiceError(w, err)
		return
	}

	response.Success(w, messageResponse{Success: true, Message: "Invitation declined"}, s.logger)
}

type pendingInvitationsResponse struct {
	Success     bool                        `json:"success"`
	Invitations []service.PendingInvitation `json:"invitations"`
}

// handleListPending lists unexpired pending invitations addressed to a session.
func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		response.BadRequest(w, "Session ID is required", s.logger)
		return
	}

	invitations, err := s.invitations.ListPending(r.Context(), sessionID)
	if err != nil {
		s.handleServiceError(w, err)
		return
	}

	response.Success(w, pendingInvitationsResponse{Success: true, Invitations: invitations}, s.logger)
}

type activeInvitationsResponse struct {
	Success     bool                       `json:"success"`
	Invitations []service.ActiveInvitation `json:"invitations"`
}

// handleListActive lists unexpired pending or accepted invitations involving
// a session in either role.
func (s *Server) handleListActive(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		response.BadRequest(w, "Session ID is required", s.logger)
		return
	}

	invitations, err := s.invitations.ListActive(r.Context(), sessionID)
	if err != nil {
		s.handleServiceError(w, err)
		return
	}

	response.Success(w, activeInvitationsResponse{Success: true, Invitations: invitations}, s.logger)
}
