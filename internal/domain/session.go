package domain

import "time"

// Session is one participant's live matchmaking state, keyed by an opaque
// token. A fresh session record is created every time a participant starts
// searching; re-searching never updates an old record in place.
type Session struct {
	ID          string      `json:"sessionId"`
	Username    string      `json:"username,omitempty"`
	Preferences Preferences `json:"preferences"`
	IsSearching bool        `json:"isSearching"`
	LastActive  time.Time   `json:"lastActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewSession creates a searching session for the given preferences.
func NewSession(id, username string, prefs Preferences) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		Username:    username,
		Preferences: prefs,
		IsSearching: true,
		LastActive:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ActiveWithin reports whether the session was active inside the window
// ending at now. Only such sessions are eligible match candidates.
func (s *Session) ActiveWithin(window time.Duration, now time.Time) bool {
	return now.Sub(s.LastActive) <= window
}

// DisplayName returns the participant's username, or the anonymous
// "Debater <token prefix>" fallback when none was provided.
func (s *Session) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return FallbackName(s.ID)
}

// FallbackName derives an anonymous display name from a session token.
func FallbackName(sessionID string) string {
	return "Debater " + shortToken(sessionID)
}

// AnonymousUser is the invitation surface's anonymous display name. The
// invitation endpoints label unknown participants "User" where matchmaking
// says "Debater".
func AnonymousUser(sessionID string) string {
	return "User " + shortToken(sessionID)
}

func shortToken(sessionID string) string {
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}
