package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Liiiii222/debate/internal/id"
	"github.com/Liiiii222/debate/internal/store"
)

// ErrClientNotFound is returned when an event addresses a connection id that
// is not (or no longer) registered.
var ErrClientNotFound = errors.New("realtime: client not found")

// SessionStore is the slice of the session store the relay needs: activity
// upserts on join, release on leave or disconnect, and counts for the
// periodic stats push.
type SessionStore interface {
	UpsertSessionActivity(ctx context.Context, id string, now time.Time) error
	ReleaseSession(ctx context.Context, id string) error
	CountSessions(ctx context.Context, activeSince time.Time) (store.SessionCounts, error)
}

// Client is a single SSE connection.
type Client struct {
	ID        string
	EventChan chan Event
	Done      chan struct{}

	// Guarded by the manager's mutex.
	sessionID string
	room      string
}

// Manager tracks connected clients and their room membership, and fans relay
// events out to room members.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	sessions       SessionStore
	logger         *slog.Logger
	activityWindow time.Duration
	bufferSize     int
}

// NewManager creates a relay manager.
func NewManager(sessions SessionStore, logger *slog.Logger, activityWindow time.Duration, bufferSize int) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		rooms:          make(map[string]map[string]*Client),
		sessions:       sessions,
		logger:         logger,
		activityWindow: activityWindow,
		bufferSize:     bufferSize,
	}
}

// Connect registers a new client connection.
func (m *Manager) Connect() (*Client, error) {
	clientID, err := id.Generate("conn")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:        clientID,
		EventChan: make(chan Event, m.bufferSize),
		Done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.clients[clientID] = client
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("Relay client connected", "client_id", clientID, "total_clients", total)
	return client, nil
}

// Disconnect removes a client. If the client was in a room, the room is
// notified with user-disconnected and the client's session is released back
// to non-searching so stale matches do not linger.
func (m *Manager) Disconnect(ctx context.Context, clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	room, sessionID := client.room, client.sessionID
	m.removeFromRoomLocked(client)
	total := len(m.clients)
	m.mu.Unlock()

	close(client.Done)

	if room != "" {
		m.broadcastToRoom(room, clientID, NewEvent(EventUserDisconnected, map[string]any{
			"sessionId": sessionID,
		}))
	}
	if sessionID != "" {
		// Teardown runs after the stream's context is already canceled; the
		// release must still reach the store or the session stays searching
		// until the sweep.
		if err := m.sessions.ReleaseSession(context.WithoutCancel(ctx), sessionID); err != nil {
			m.logger.Warn("Failed to release session on disconnect",
				"session_id", sessionID, "error", err)
		}
	}

	m.logger.Info("Relay client disconnected", "client_id", clientID, "total_clients", total)
}

// JoinInput identifies the debate room a client enters.
type JoinInput struct {
	SessionID string `json:"sessionId" validate:"required"`
	Username  string `json:"username"`
	Category  string `json:"category" validate:"required"`
	Topic     string `json:"topic" validate:"required"`
}

// Join puts a client into the debate room for a category and topic, refreshes
// the session's activity, and announces the arrival to the other members. A
// client can be in one room at a time; joining again moves it.
func (m *Manager) Join(ctx context.Context, clientID string, in JoinInput) error {
	room := RoomKey(in.Category, in.Topic)

	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return ErrClientNotFound
	}
	m.removeFromRoomLocked(client)
	client.sessionID = in.SessionID
	client.room = room
	if m.rooms[room] == nil {
		m.rooms[room] = make(map[string]*Client)
	}
	m.rooms[room][clientID] = client
	m.mu.Unlock()

	if err := m.sessions.UpsertSessionActivity(ctx, in.SessionID, time.Now().UTC()); err != nil {
		m.logger.Warn("Failed to record join activity", "session_id", in.SessionID, "error", err)
	}

	m.logger.Info("Client joined debate room",
		"client_id", clientID, "session_id", in.SessionID, "room", room)

	m.broadcastToRoom(room, clientID, NewEvent(EventUserJoined, map[string]any{
		"sessionId": in.SessionID,
		"username":  in.Username,
	}))
	return nil
}

// Leave takes a client out of its room and announces the departure. Leaving
// also releases the session so the user drops out of the searching pool.
func (m *Manager) Leave(ctx context.Context, clientID string) error {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return ErrClientNotFound
	}
	room, sessionID := client.room, client.sessionID
	m.removeFromRoomLocked(client)
	client.sessionID = ""
	m.mu.Unlock()

	if room == "" {
		return nil
	}

	m.broadcastToRoom(room, clientID, NewEvent(EventUserLeft, map[string]any{
		"sessionId": sessionID,
	}))

	if sessionID != "" {
		if err := m.sessions.ReleaseSession(ctx, sessionID); err != nil {
			m.logger.Warn("Failed to release session on leave",
				"session_id", sessionID, "error", err)
		}
	}
	return nil
}

// MessageInput is a chat message relayed to the room.
type MessageInput struct {
	Message string `json:"message" validate:"required"`
}

// Message relays a chat message to the other members of the sender's room.
// A sender that is not in a room is a silent no-op.
func (m *Manager) Message(clientID string, in MessageInput) error {
	return m.relay(clientID, EventDebateMessage, func(sessionID string) any {
		return map[string]any{
			"sessionId": sessionID,
			"message":   in.Message,
		}
	})
}

// TypingInput is a typing indicator state change.
type TypingInput struct {
	Typing bool `json:"typing"`
}

// Typing relays a typing indicator to the other members of the sender's room.
func (m *Manager) Typing(clientID string, in TypingInput) error {
	return m.relay(clientID, EventUserTyping, func(sessionID string) any {
		return map[string]any{
			"sessionId": sessionID,
			"typing":    in.Typing,
		}
	})
}

// ActionInput is a structured debate action.
type ActionInput struct {
	Action string `json:"action" validate:"required"`
}

// Action relays a debate action to the other members of the sender's room.
func (m *Manager) Action(clientID string, in ActionInput) error {
	return m.relay(clientID, EventDebateAction, func(sessionID string) any {
		return map[string]any{
			"sessionId": sessionID,
			"action":    in.Action,
		}
	})
}

// Ping answers a liveness probe to the sender only.
func (m *Manager) Ping(clientID string) error {
	m.mu.RLock()
	client, ok := m.clients[clientID]
	m.mu.RUnlock()
	if !ok {
		return ErrClientNotFound
	}
	m.send(client, NewEvent(EventPong, nil))
	return nil
}

// SendError pushes a non-fatal error event to a single connection.
func (m *Manager) SendError(clientID, message string) {
	m.mu.RLock()
	client, ok := m.clients[clientID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	m.send(client, NewEvent(EventError, map[string]any{"message": message}))
}

// BroadcastStats pushes the aggregate session counts to every connected
// client. Run periodically by the scheduler.
func (m *Manager) BroadcastStats(ctx context.Context) error {
	now := time.Now().UTC()
	counts, err := m.sessions.CountSessions(ctx, now.Add(-m.activityWindow))
	if err != nil {
		return err
	}

	event := NewEvent(EventServerStats, map[string]any{
		"totalUsers":     counts.Total,
		"searchingUsers": counts.Searching,
		"activeUsers":    counts.Active,
		"timestamp":      now,
	})

	m.mu.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	for _, client := range clients {
		m.send(client, event)
	}
	return nil
}

// ClientCount returns the number of open connections.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Shutdown closes every connection.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.rooms = make(map[string]map[string]*Client)
	m.mu.Unlock()

	for _, client := range clients {
		close(client.Done)
	}

	m.logger.Info("Relay manager shut down", "closed_clients", len(clients))
}

// relay fans an event built from the sender's session id out to the sender's
// room, excluding the sender.
func (m *Manager) relay(clientID string, eventType EventType, payload func(sessionID string) any) error {
	m.mu.RLock()
	client, ok := m.clients[clientID]
	var room, sessionID string
	if ok {
		room, sessionID = client.room, client.sessionID
	}
	m.mu.RUnlock()

	if !ok {
		return ErrClientNotFound
	}
	if room == "" {
		// Not in a room; events sent before join are dropped.
		return nil
	}

	m.broadcastToRoom(room, clientID, NewEvent(eventType, payload(sessionID)))
	return nil
}

// broadcastToRoom delivers an event to every room member except the sender.
// Slow clients have the event dropped rather than blocking the room.
func (m *Manager) broadcastToRoom(room, senderID string, event Event) {
	m.mu.RLock()
	members := make([]*Client, 0, len(m.rooms[room]))
	for cid, client := range m.rooms[room] {
		if cid == senderID {
			continue
		}
		members = append(members, client)
	}
	m.mu.RUnlock()

	for _, client := range members {
		m.send(client, event)
	}
}

// send delivers an event without blocking; a full buffer drops the event.
func (m *Manager) send(client *Client, event Event) {
	select {
	case client.EventChan <- event:
	default:
		m.logger.Warn("Dropped event for slow client",
			"client_id", client.ID, "event_type", event.Type)
	}
}

// removeFromRoomLocked detaches a client from its current room. Caller holds
// the write lock.
func (m *Manager) removeFromRoomLocked(client *Client) {
	if client.room == "" {
		return
	}
	if members, ok := m.rooms[client.room]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(m.rooms, client.room)
		}
	}
	client.room = ""
}
