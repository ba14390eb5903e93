package realtime

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/Liiiii222/debate/internal/errors"
	"github.com/Liiiii222/debate/internal/http/response"
	"github.com/Liiiii222/debate/internal/validation"
)

const (
	heartbeatInterval = 30 * time.Second
	writeDeadline     = 60 * time.Second
)

// Handler serves the SSE stream and the event post endpoints.
type Handler struct {
	manager   *Manager
	validator *validation.Validator
	logger    *slog.Logger
}

// NewHandler creates a relay handler.
func NewHandler(manager *Manager, validator *validation.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		manager:   manager,
		validator: validator,
		logger:    logger,
	}
}

// Routes returns the relay routes, mounted under /api/realtime.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/stream", h.handleStream)
	r.Route("/{clientID}", func(r chi.Router) {
		r.Post("/join", h.handleJoin)
		r.Post("/message", h.handleMessage)
		r.Post("/typing", h.handleTyping)
		r.Post("/action", h.handleAction)
		r.Post("/leave", h.handleLeave)
		r.Post("/ping", h.handlePing)
	})

	return r
}

// handleStream holds the SSE connection open and pushes relay events. The
// first event is "connected" and carries the connection id the client uses
// to address its posts.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("Failed to flush stream headers", "error", err)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect()
	if err != nil {
		h.logger.Error("Failed to register relay client", "error", err)
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(r.Context(), client.ID)

	clientLogger := h.logger.With("client_id", client.ID)

	connected := NewEvent(EventConnected, map[string]string{
		"clientId": client.ID,
		"message":  "Realtime connection established",
	})
	if err := h.sendEvent(w, rc, connected); err != nil {
		clientLogger.Warn("Failed to send connected event", "error", err)
		return
	}

	ctx := r.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event := <-client.EventChan:
			if err := h.sendEvent(w, rc, event); err != nil {
				// Client disconnect is normal, not an error condition.
				clientLogger.Info("Client disconnected during send")
				return
			}

		case <-heartbeat.C:
			if err := h.sendEvent(w, rc, NewEvent(EventHeartbeat, nil)); err != nil {
				clientLogger.Info("Client disconnected during heartbeat")
				return
			}

		case <-client.Done:
			// Manager closed this client (server shutdown).
			clientLogger.Info("Client closed by manager")
			return

		case <-ctx.Done():
			clientLogger.Info("Client context canceled")
			return
		}
	}
}

// sendEvent writes one SSE frame and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset after each successful write to catch hung connections.
	if err := rc.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		h.logger.Debug("Failed to set write deadline", "error", err)
	}

	return nil
}

type eventAck struct {
	Success bool `json:"success"`
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var in JoinInput
	if !h.decodeEvent(w, r, clientID, &in) {
		return
	}

	h.finishEvent(w, clientID, h.manager.Join(r.Context(), clientID, in))
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var in MessageInput
	if !h.decodeEvent(w, r, clientID, &in) {
		return
	}

	h.finishEvent(w, clientID, h.manager.Message(clientID, in))
}

func (h *Handler) handleTyping(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var in TypingInput
	if !h.decodeEvent(w, r, clientID, &in) {
		return
	}

	h.finishEvent(w, clientID, h.manager.Typing(clientID, in))
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var in ActionInput
	if !h.decodeEvent(w, r, clientID, &in) {
		return
	}

	h.finishEvent(w, clientID, h.manager.Action(clientID, in))
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	h.finishEvent(w, clientID, h.manager.Leave(r.Context(), clientID))
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	h.finishEvent(w, clientID, h.manager.Ping(clientID))
}

// decodeEvent parses and validates an event body. On failure it answers the
// post with 400 and also pushes an error event down the stream, mirroring
// how a socket transport would surface a bad frame.
func (h *Handler) decodeEvent(w http.ResponseWriter, r *http.Request, clientID string, dst any) bool {
	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		response.BadRequest(w, "Invalid request body", h.logger)
		h.manager.SendError(clientID, "Invalid event payload")
		return false
	}

	if err := h.validator.Validate(dst); err != nil {
		var domainErr *domainerrors.Error
		msg := "Invalid event payload"
		if domainerrors.As(err, &domainErr) {
			msg = domainErr.Message
		}
		response.BadRequest(w, msg, h.logger)
		h.manager.SendError(clientID, msg)
		return false
	}

	return true
}

// finishEvent maps a relay outcome to the post response.
func (h *Handler) finishEvent(w http.ResponseWriter, clientID string, err error) {
	if err == nil {
		response.Success(w, eventAck{Success: true}, h.logger)
		return
	}

	if domainerrors.Is(err, ErrClientNotFound) {
		response.NotFound(w, "Connection not found", h.logger)
		return
	}

	h.logger.Error("Relay event failed", "client_id", clientID, "error", err)
	response.InternalError(w, "Failed to process event", h.logger)
}
