package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liiiii222/debate/internal/domain"
	domainerrors "github.com/Liiiii222/debate/internal/errors"
	"github.com/Liiiii222/debate/internal/store"
)

func setupInvitations(t *testing.T) (*InvitationService, *store.Store) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := NewInvitationService(st, slog.New(slog.DiscardHandler), 24*time.Hour)
	return svc, st
}

func seedSession(t *testing.T, st *store.Store, id, username string) {
	t.Helper()
	session := domain.NewSession(id, username, domain.Preferences{Category: "Politics", Topic: "Tax Reform"})
	require.NoError(t, st.CreateSession(context.Background(), session))
}

func inviteInput(inviterID, inviteeName string) CreateInvitationInput {
	return CreateInvitationInput{
		InviterSessionID: inviterID,
		InviteeUsername:  inviteeName,
		Category:         "Politics",
		Topic:            "Tax Reform",
		Format:           domain.FormatVideo,
	}
}

func requireDomainError(t *testing.T, err error, code domainerrors.Code, message string) {
	t.Helper()

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
	assert.Equal(t, message, domainErr.Message)
}

func TestCreateInvitation(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")
	seedSession(t, st, "sess-b", "bob")

	inv, err := svc.Create(context.Background(), inviteInput("sess-a", "bob"))
	require.NoError(t, err)

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "bob", inv.InviteeUsername)
	assert.Equal(t, "Video", inv.DebateFormat)
	assert.False(t, inv.ExpiresAt.IsZero())
}

func TestCreateInvitation_UnknownInvitee(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")

	_, err := svc.Create(context.Background(), inviteInput("sess-a", "nobody"))
	requireDomainError(t, err, domainerrors.CodeNotFound, "User not found")
}

func TestCreateInvitation_SelfInvite(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")

	_, err := svc.Create(context.Background(), inviteInput("sess-a", "alice"))
	requireDomainError(t, err, domainerrors.CodeConflict, "You cannot invite yourself")
}

func TestCreateInvitation_DuplicatePending(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")
	seedSession(t, st, "sess-b", "bob")

	_, err := svc.Create(context.Background(), inviteInput("sess-a", "bob"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), inviteInput("sess-a", "bob"))
	requireDomainError(t, err, domainerrors.CodeConflict, "You already have a pending invitation to this user")
}

func TestAcceptInvitation(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")
	seedSession(t, st, "sess-b", "bob")
	ctx := context.Background()

	inv, err := svc.Create(ctx, inviteInput("sess-a", "bob"))
	require.NoError(t, err)

	debate, err := svc.Accept(ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, inv.ID, debate.ID)
	assert.Equal(t, "alice", debate.InviterUsername)
	assert.Equal(t, "bob", debate.InviteeUsername)
	assert.Equal(t, "Video", debate.DebateFormat)

	stored, err := st.GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationAccepted, stored.Status)
}

func TestAcceptInvitation_NotFound(t *testing.T) {
	svc, _ := setupInvitations(t)

	_, err := svc.Accept(context.Background(), "inv-missing")
	requireDomainError(t, err, domainerrors.CodeNotFound, "Invitation not found")
}

func TestAcceptInvitation_NoLongerPending(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")
	seedSession(t, st, "sess-b", "bob")
	ctx := context.Background()

	inv, err := svc.Create(ctx, inviteInput("sess-a", "bob"))
	require.NoError(t, err)
	require.NoError(t, svc.Decline(ctx, inv.ID))

	_, err = svc.Accept(ctx, inv.ID)
	requireDomainError(t, err, domainerrors.CodeInvalidState, "Invitation is no longer pending")
}

func TestAcceptInvitation_LazyExpiry(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")
	seedSession(t, st, "sess-b", "bob")
	ctx := context.Background()

	// Persist an already-expired invitation the sweep has not caught yet.
	stale := domain.NewInvitation("inv-stale", "sess-a", "sess-b", "Politics", "Tax Reform", domain.FormatText, -time.Hour)
	require.NoError(t, st.CreateInvitation(ctx, stale))

	_, err := svc.Accept(ctx, "inv-stale")
	requireDomainError(t, err, domainerrors.CodeExpired, "Invitation has expired")
}

func TestDeclineInvitation(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")
	seedSession(t, st, "sess-b", "bob")
	ctx := context.Background()

	inv, err := svc.Create(ctx, inviteInput("sess-a", "bob"))
	require.NoError(t, err)

	require.NoError(t, svc.Decline(ctx, inv.ID))

	stored, err := st.GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationDeclined, stored.Status)
}

func TestListPending_ResolvesDisplayNames(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")
	seedSession(t, st, "sess-b", "bob")
	ctx := context.Background()

	// An inviter without a username resolves to the anonymous fallback.
	anon := domain.NewSession("sess-anon-123", "", domain.Preferences{Category: "Politics", Topic: "Tax Reform"})
	require.NoError(t, st.CreateSession(ctx, anon))

	_, err := svc.Create(ctx, inviteInput("sess-a", "bob"))
	require.NoError(t, err)

	fromAnon := domain.NewInvitation("inv-anon", "sess-anon-123", "sess-b", "Politics", "Tax Reform", domain.FormatVoice, 24*time.Hour)
	require.NoError(t, st.CreateInvitation(ctx, fromAnon))

	got, err := svc.ListPending(ctx, "sess-b")
	require.NoError(t, err)
	require.Len(t, got, 2)

	names := map[string]bool{}
	for _, inv := range got {
		names[inv.InviterUsername] = true
	}
	assert.True(t, names["alice"])
	assert.True(t, names["User sess-ano"])
}

func TestListActive_BothRoles(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")
	seedSession(t, st, "sess-b", "bob")
	seedSession(t, st, "sess-c", "carol")
	ctx := context.Background()

	incoming, err := svc.Create(ctx, inviteInput("sess-a", "bob"))
	require.NoError(t, err)

	outgoing, err := svc.Create(ctx, inviteInput("sess-b", "carol"))
	require.NoError(t, err)

	_, err = svc.Accept(ctx, outgoing.ID)
	require.NoError(t, err)

	got, err := svc.ListActive(ctx, "sess-b")
	require.NoError(t, err)
	require.Len(t, got, 2)

	statuses := map[string]string{}
	for _, inv := range got {
		statuses[inv.ID] = inv.Status
	}
	assert.Equal(t, "pending", statuses[incoming.ID])
	assert.Equal(t, "accepted", statuses[outgoing.ID])
}

func TestSweepExpired(t *testing.T) {
	svc, st := setupInvitations(t)
	seedSession(t, st, "sess-a", "alice")
	seedSession(t, st, "sess-b", "bob")
	ctx := context.Background()

	stale := domain.NewInvitation("inv-stale", "sess-a", "sess-b", "Politics", "Tax Reform", domain.FormatText, -time.Hour)
	require.NoError(t, st.CreateInvitation(ctx, stale))

	require.NoError(t, svc.SweepExpired(ctx))

	got, err := st.GetInvitation(ctx, "inv-stale")
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationExpired, got.Status)
}
