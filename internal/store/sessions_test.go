package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liiiii222/debate/internal/domain"
)

func testPrefs(category, topic string) domain.Preferences {
	return domain.Preferences{
		Category: category,
		Topic:    topic,
		AgeRange: domain.AnyAge,
		Language: domain.AnyLanguage,
		Country:  domain.AnyCountry,
	}
}

func TestCreateSession_AndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := domain.NewSession("sess-1", "alice", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.IsSearching)
	assert.Equal(t, "Politics", got.Preferences.Category)
}

func TestCreateSession_DuplicateID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := domain.NewSession("sess-1", "alice", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, session))

	err := s.CreateSession(ctx, session)
	assert.ErrorIs(t, err, ErrSessionExists)
}

func TestGetSession_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetSession(context.Background(), "sess-missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetSessionByUsername(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := domain.NewSession("sess-1", "alice", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, first))

	got, err := s.GetSessionByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)

	// Re-searching creates a fresh session; the username resolves to it.
	second := domain.NewSession("sess-2", "alice", testPrefs("Science", "Climate"))
	require.NoError(t, s.CreateSession(ctx, second))

	got, err = s.GetSessionByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "sess-2", got.ID)

	_, err = s.GetSessionByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTouchSession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := domain.NewSession("sess-1", "", testPrefs("Politics", "Tax Reform"))
	session.LastActive = time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, s.CreateSession(ctx, session))

	now := time.Now().UTC()
	require.NoError(t, s.TouchSession(ctx, "sess-1", now))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, now, got.LastActive, time.Second)

	assert.ErrorIs(t, s.TouchSession(ctx, "sess-missing", now), ErrSessionNotFound)
}

func TestUpsertSessionActivity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Unknown session: a minimal non-searching record is created.
	require.NoError(t, s.UpsertSessionActivity(ctx, "sess-relay", now))

	got, err := s.GetSession(ctx, "sess-relay")
	require.NoError(t, err)
	assert.False(t, got.IsSearching)
	assert.WithinDuration(t, now, got.LastActive, time.Second)

	// Known session: activity refreshes, searching state untouched.
	session := domain.NewSession("sess-1", "alice", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, session))

	later := now.Add(time.Minute)
	require.NoError(t, s.UpsertSessionActivity(ctx, "sess-1", later))

	got, err = s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, got.IsSearching)
	assert.WithinDuration(t, later, got.LastActive, time.Second)
}

func TestEndSession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := domain.NewSession("sess-1", "", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, session))

	require.NoError(t, s.EndSession(ctx, "sess-1"))
	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, got.IsSearching)

	// Idempotent for a known session.
	require.NoError(t, s.EndSession(ctx, "sess-1"))

	assert.ErrorIs(t, s.EndSession(ctx, "sess-missing"), ErrSessionNotFound)
}

func TestReleaseSession_MissingIsNoop(t *testing.T) {
	s := setupTestStore(t)

	assert.NoError(t, s.ReleaseSession(context.Background(), "sess-missing"))
}

func TestFindCandidates_Filtering(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	matching := domain.NewSession("sess-match", "bob", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, matching))

	otherTopic := domain.NewSession("sess-topic", "", testPrefs("Politics", "Climate"))
	require.NoError(t, s.CreateSession(ctx, otherTopic))

	notSearching := domain.NewSession("sess-idle", "", testPrefs("Politics", "Tax Reform"))
	notSearching.IsSearching = false
	require.NoError(t, s.CreateSession(ctx, notSearching))

	stale := domain.NewSession("sess-stale", "", testPrefs("Politics", "Tax Reform"))
	stale.LastActive = time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, s.CreateSession(ctx, stale))

	got, err := s.FindCandidates(ctx, testPrefs("Politics", "Tax Reform"), "sess-req", 5*time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sess-match", got[0].ID)
}

func TestFindCandidates_ExcludesRequester(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := domain.NewSession("sess-1", "", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.FindCandidates(ctx, testPrefs("Politics", "Tax Reform"), "sess-1", 5*time.Minute, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindCandidates_NarrowedFilters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	english := domain.NewSession("sess-en", "", domain.Preferences{
		Category: "Politics", Topic: "Tax Reform",
		AgeRange: "25-34", Language: "English", Country: "USA",
	})
	require.NoError(t, s.CreateSession(ctx, english))

	spanish := domain.NewSession("sess-es", "", domain.Preferences{
		Category: "Politics", Topic: "Tax Reform",
		AgeRange: "25-34", Language: "Spanish", Country: "Mexico",
	})
	require.NoError(t, s.CreateSession(ctx, spanish))

	// Narrowed language filter keeps only the exact match.
	narrowed := domain.Preferences{
		Category: "Politics", Topic: "Tax Reform",
		AgeRange: domain.AnyAge, Language: "English", Country: domain.AnyCountry,
	}
	got, err := s.FindCandidates(ctx, narrowed, "sess-req", 5*time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sess-en", got[0].ID)

	// Wildcards on the requester's side skip the filters entirely.
	got, err = s.FindCandidates(ctx, testPrefs("Politics", "Tax Reform"), "sess-req", 5*time.Minute, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFindCandidates_RecencyOrderAndLimit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, id := range []string{"sess-old", "sess-mid", "sess-new"} {
		session := domain.NewSession(id, "", testPrefs("Politics", "Tax Reform"))
		session.LastActive = now.Add(time.Duration(i-3) * time.Minute)
		require.NoError(t, s.CreateSession(ctx, session))
	}

	got, err := s.FindCandidates(ctx, testPrefs("Politics", "Tax Reform"), "sess-req", 5*time.Minute, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sess-new", got[0].ID)
	assert.Equal(t, "sess-mid", got[1].ID)
}

func TestReserveMatch_FlipsBoth(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	requester := domain.NewSession("sess-req", "", testPrefs("Politics", "Tax Reform"))
	candidate := domain.NewSession("sess-cand", "", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, requester))
	require.NoError(t, s.CreateSession(ctx, candidate))

	require.NoError(t, s.ReserveMatch(ctx, "sess-req", "sess-cand"))

	for _, id := range []string{"sess-req", "sess-cand"} {
		got, err := s.GetSession(ctx, id)
		require.NoError(t, err)
		assert.False(t, got.IsSearching, "session %s should be reserved", id)
	}
}

func TestReserveMatch_CandidateAlreadyTaken(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	requester := domain.NewSession("sess-req", "", testPrefs("Politics", "Tax Reform"))
	candidate := domain.NewSession("sess-cand", "", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, requester))
	require.NoError(t, s.CreateSession(ctx, candidate))
	require.NoError(t, s.EndSession(ctx, "sess-cand"))

	err := s.ReserveMatch(ctx, "sess-req", "sess-cand")
	assert.ErrorIs(t, err, ErrCandidateTaken)

	// The requester keeps searching when the reservation fails.
	got, err := s.GetSession(ctx, "sess-req")
	require.NoError(t, err)
	assert.True(t, got.IsSearching)
}

func TestReserveMatch_LoserOfRace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	candidate := domain.NewSession("sess-cand", "", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, candidate))
	for _, id := range []string{"sess-a", "sess-b"} {
		require.NoError(t, s.CreateSession(ctx, domain.NewSession(id, "", testPrefs("Politics", "Tax Reform"))))
	}

	require.NoError(t, s.ReserveMatch(ctx, "sess-a", "sess-cand"))

	err := s.ReserveMatch(ctx, "sess-b", "sess-cand")
	assert.ErrorIs(t, err, ErrCandidateTaken)

	got, err := s.GetSession(ctx, "sess-b")
	require.NoError(t, err)
	assert.True(t, got.IsSearching, "loser of the race must stay in the pool")
}

func TestReserveMatch_MissingCandidate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	requester := domain.NewSession("sess-req", "", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, requester))

	err := s.ReserveMatch(ctx, "sess-req", "sess-missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSweepInactiveSessions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := domain.NewSession("sess-stale", "", testPrefs("Politics", "Tax Reform"))
	stale.LastActive = now.Add(-10 * time.Minute)
	require.NoError(t, s.CreateSession(ctx, stale))

	fresh := domain.NewSession("sess-fresh", "", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, fresh))

	count, err := s.SweepInactiveSessions(ctx, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.GetSession(ctx, "sess-stale")
	require.NoError(t, err)
	assert.False(t, got.IsSearching)

	got, err = s.GetSession(ctx, "sess-fresh")
	require.NoError(t, err)
	assert.True(t, got.IsSearching)
}

func TestCountSessions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	searching := domain.NewSession("sess-1", "", testPrefs("Politics", "Tax Reform"))
	require.NoError(t, s.CreateSession(ctx, searching))

	idle := domain.NewSession("sess-2", "", testPrefs("Politics", "Climate"))
	idle.IsSearching = false
	idle.LastActive = now.Add(-10 * time.Minute)
	require.NoError(t, s.CreateSession(ctx, idle))

	counts, err := s.CountSessions(ctx, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 1, counts.Searching)
	assert.Equal(t, 1, counts.Active)
}
