package domain

// MatchResult pairs a requester with a reserved opponent. Ephemeral: it is
// computed once per matchmaking call and returned to both clients, never
// persisted.
type MatchResult struct {
	RequesterID string
	Opponent    *Session
	// Score is the display/telemetry compatibility number. Selection among
	// candidates is by recency, not by score.
	Score int
}
