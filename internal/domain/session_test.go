package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSession(t *testing.T) {
	p := prefs("Politics", "Tax Reform", "25-34", "English", "USA", "")
	s := NewSession("sess-abc123def456", "alice", p)

	assert.True(t, s.IsSearching)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, p, s.Preferences)
	assert.False(t, s.LastActive.IsZero())
	assert.Equal(t, s.CreatedAt, s.UpdatedAt)
}

func TestSession_ActiveWithin(t *testing.T) {
	now := time.Now().UTC()
	s := &Session{LastActive: now.Add(-3 * time.Minute)}

	assert.True(t, s.ActiveWithin(5*time.Minute, now))
	assert.False(t, s.ActiveWithin(2*time.Minute, now))
}

func TestSession_DisplayName(t *testing.T) {
	named := &Session{ID: "sess-abc123def456", Username: "alice"}
	assert.Equal(t, "alice", named.DisplayName())

	anonymous := &Session{ID: "sess-abc123def456"}
	assert.Equal(t, "Debater sess-abc", anonymous.DisplayName())
}

func TestFallbackName_ShortID(t *testing.T) {
	assert.Equal(t, "Debater abc", FallbackName("abc"))
}

func TestAnonymousUser(t *testing.T) {
	assert.Equal(t, "User sess-abc", AnonymousUser("sess-abc123def456"))
	assert.Equal(t, "User abc", AnonymousUser("abc"))
}

func TestInvitation_Lifecycle(t *testing.T) {
	inv := NewInvitation("inv-1", "sess-a", "sess-b", "Politics", "Tax Reform", FormatVideo, 24*time.Hour)

	assert.True(t, inv.Pending())
	assert.False(t, inv.Expired(time.Now().UTC()))
	assert.True(t, inv.Expired(time.Now().UTC().Add(25*time.Hour)))
	assert.True(t, inv.Involves("sess-a"))
	assert.True(t, inv.Involves("sess-b"))
	assert.False(t, inv.Involves("sess-c"))
}

func TestDebateFormat_Valid(t *testing.T) {
	assert.True(t, FormatVideo.Valid())
	assert.True(t, FormatVoice.Valid())
	assert.True(t, FormatText.Valid())
	assert.False(t, DebateFormat("Telepathy").Valid())
	assert.False(t, DebateFormat("").Valid())
}
