// Package realtime implements the presence relay for paired debate sessions:
// per-connection rooms keyed by category and topic, message/typing/action
// forwarding, and session-state reconciliation on disconnect.
//
// The relay is server-push over SSE; client-to-server events arrive as plain
// HTTP posts addressed to the connection id handed out at stream setup.
package realtime

import (
	"strings"
	"time"
)

// EventType represents the type of relay event.
type EventType string

const (
	// EventConnected is the first event on a new stream and carries the
	// connection id the client must address its posts to.
	EventConnected EventType = "connected"
	// EventHeartbeat is the per-connection keepalive.
	EventHeartbeat EventType = "heartbeat"

	// EventUserJoined announces a participant entering the room.
	EventUserJoined EventType = "user-joined"
	// EventUserLeft announces a deliberate leave.
	EventUserLeft EventType = "user-left"
	// EventUserDisconnected announces a transport-level drop.
	EventUserDisconnected EventType = "user-disconnected"
	// EventUserTyping carries a typing indicator.
	EventUserTyping EventType = "user-typing"

	// EventDebateMessage is a relayed chat message.
	EventDebateMessage EventType = "debate-message"
	// EventDebateAction is a relayed debate action (agree/disagree/neutral).
	EventDebateAction EventType = "debate-action"

	// EventPong answers a client ping.
	EventPong EventType = "pong"
	// EventServerStats carries the periodic aggregate session counts.
	EventServerStats EventType = "server-stats"
	// EventError reports a per-event failure back to the originating
	// connection without tearing it down.
	EventError EventType = "error"
)

// Event is a relay event pushed to clients.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// NewEvent creates an event stamped with the server time.
func NewEvent(t EventType, data any) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// RoomKey derives the deterministic room name for a category and topic:
// lowercase, whitespace runs collapsed to hyphens.
// ("Politics", "Tax Reform") -> "debate-politics-tax-reform".
func RoomKey(category, topic string) string {
	key := strings.ToLower("debate-" + category + "-" + topic)
	return strings.Join(strings.Fields(key), "-")
}
