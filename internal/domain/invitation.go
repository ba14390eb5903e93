package domain

import "time"

// InvitationStatus is the lifecycle state of a debate invitation.
// pending is the only non-terminal state; transitions are one-way.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// DebateFormat is the requested medium for an invited debate.
type DebateFormat string

const (
	FormatVideo DebateFormat = "Video"
	FormatVoice DebateFormat = "Voice"
	FormatText  DebateFormat = "Text"
)

// Valid reports whether the format is a member of the closed set.
func (f DebateFormat) Valid() bool {
	switch f {
	case FormatVideo, FormatVoice, FormatText:
		return true
	}
	return false
}

// Invitation is a direct, addressed debate request between two known
// sessions. Invitations expire a fixed offset after creation and are never
// deleted, only transitioned.
type Invitation struct {
	ID               string           `json:"id"`
	InviterSessionID string           `json:"inviterSessionId"`
	InviteeSessionID string           `json:"inviteeSessionId"`
	Category         string           `json:"category"`
	Topic            string           `json:"topic"`
	Format           DebateFormat     `json:"debateFormat"`
	Status           InvitationStatus `json:"status"`
	CreatedAt        time.Time        `json:"createdAt"`
	ExpiresAt        time.Time        `json:"expiresAt"`
}

// NewInvitation creates a pending invitation expiring ttl from now.
func NewInvitation(id, inviterSessionID, inviteeSessionID, category, topic string, format DebateFormat, ttl time.Duration) *Invitation {
	now := time.Now().UTC()
	return &Invitation{
		ID:               id,
		InviterSessionID: inviterSessionID,
		InviteeSessionID: inviteeSessionID,
		Category:         category,
		Topic:            topic,
		Format:           format,
		Status:           InvitationPending,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}
}

// Pending reports whether the invitation can still transition.
func (i *Invitation) Pending() bool {
	return i.Status == InvitationPending
}

// Expired reports whether the invitation's expiry time has passed.
// Status may still read pending in storage; acceptors must check both.
func (i *Invitation) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// Involves reports whether the session plays either role in the invitation.
func (i *Invitation) Involves(sessionID string) bool {
	return i.InviterSessionID == sessionID || i.InviteeSessionID == sessionID
}
