package store

import "errors"

// Sentinel errors returned by store operations. Services translate these
// into domain errors; the store itself stays HTTP-agnostic.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")

	// ErrCandidateTaken means the conditional reserve did not apply: the
	// candidate was no longer searching, or a concurrent reservation won.
	ErrCandidateTaken = errors.New("candidate no longer searching")

	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrDuplicatePending means a pending invitation already connects the
	// same ordered (inviter, invitee) pair.
	ErrDuplicatePending = errors.New("pending invitation already exists")

	// ErrStatusChanged means a conditional status transition found the
	// invitation no longer in its expected state.
	ErrStatusChanged = errors.New("invitation status changed")
)
