package store

// Key layout. Document prefixes and index prefixes deliberately do not share
// a common prefix ("session:" vs "session_idx:"), so a prefix scan over
// documents never has to skip index rows.
const (
	sessionPrefix      = "session:"
	sessionTopicIdx    = "session_idx:topic:"
	sessionUsernameIdx = "session_idx:username:"

	invitationPrefix     = "invitation:"
	invitationInviteeIdx = "invitation_idx:invitee:"
	invitationInviterIdx = "invitation_idx:inviter:"
	// invitationPendingIdx keys are the uniqueness guard for "at most one
	// pending invitation per ordered (inviter, invitee) pair". The key is
	// written in the same transaction as the invitation and removed when it
	// leaves pending.
	invitationPendingIdx = "invitation_idx:pending:"
)

// idxSep separates variable-length components inside index keys. User text
// could in principle contain it; the post-load equality checks keep results
// correct regardless, a collision only widens a prefix scan.
const idxSep = "\x1f"

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

func sessionTopicIdxPrefix(category, topic string) []byte {
	return []byte(sessionTopicIdx + category + idxSep + topic + idxSep)
}

func sessionTopicIdxKey(category, topic, id string) []byte {
	return []byte(sessionTopicIdx + category + idxSep + topic + idxSep + id)
}

func sessionUsernameIdxKey(username string) []byte {
	return []byte(sessionUsernameIdx + username)
}

func invitationKey(id string) []byte {
	return []byte(invitationPrefix + id)
}

func invitationInviteeIdxPrefix(sessionID string) []byte {
	return []byte(invitationInviteeIdx + sessionID + idxSep)
}

func invitationInviteeIdxKey(sessionID, invitationID string) []byte {
	return []byte(invitationInviteeIdx + sessionID + idxSep + invitationID)
}

func invitationInviterIdxPrefix(sessionID string) []byte {
	return []byte(invitationInviterIdx + sessionID + idxSep)
}

func invitationInviterIdxKey(sessionID, invitationID string) []byte {
	return []byte(invitationInviterIdx + sessionID + idxSep + invitationID)
}

func invitationPendingPairKey(inviterSessionID, inviteeSessionID string) []byte {
	return []byte(invitationPendingIdx + inviterSessionID + idxSep + inviteeSessionID)
}
