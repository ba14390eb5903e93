package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Liiiii222/debate/internal/domain"
)

// CreateInvitation persists a pending invitation. The pending-pair key is
// checked and written in the same transaction, so two racing creates for the
// same ordered (inviter, invitee) pair cannot both commit.
func (s *Store) CreateInvitation(ctx context.Context, inv *domain.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pairKey := invitationPendingPairKey(inv.InviterSessionID, inv.InviteeSessionID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(pairKey); err == nil {
			return ErrDuplicatePending
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check pending pair: %w", err)
		}

		if err := setInTxn(txn, invitationKey(inv.ID), inv); err != nil {
			return err
		}
		if err := txn.Set(pairKey, []byte(inv.ID)); err != nil {
			return fmt.Errorf("set pending pair key: %w", err)
		}
		if err := txn.Set(invitationInviteeIdxKey(inv.InviteeSessionID, inv.ID), nil); err != nil {
			return fmt.Errorf("set invitee index: %w", err)
		}
		if err := txn.Set(invitationInviterIdxKey(inv.InviterSessionID, inv.ID), nil); err != nil {
			return fmt.Errorf("set inviter index: %w", err)
		}

		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		// A racing create for the same pair committed first.
		return ErrDuplicatePending
	}
	return err
}

// GetInvitation retrieves an invitation by id.
func (s *Store) GetInvitation(ctx context.Context, id string) (*domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var inv domain.Invitation
	if err := s.get(invitationKey(id), &inv); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	return &inv, nil
}

// TransitionInvitation moves an invitation from one status to another as a
// conditional update: if the stored status no longer matches from, nothing
// changes and ErrStatusChanged is returned. Leaving pending releases the
// pending-pair key so the pair may be invited again.
func (s *Store) TransitionInvitation(ctx context.Context, id string, from, to domain.InvitationStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		var inv domain.Invitation
		if err := getInTxn(txn, invitationKey(id), &inv); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrInvitationNotFound
			}
			return fmt.Errorf("get invitation: %w", err)
		}

		if inv.Status != from {
			return ErrStatusChanged
		}

		inv.Status = to
		if err := setInTxn(txn, invitationKey(id), &inv); err != nil {
			return err
		}

		if from == domain.InvitationPending {
			pairKey := invitationPendingPairKey(inv.InviterSessionID, inv.InviteeSessionID)
			if err := txn.Delete(pairKey); err != nil {
				return fmt.Errorf("delete pending pair key: %w", err)
			}
		}

		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return ErrStatusChanged
	}
	return err
}

// ListPendingInvitations returns pending, unexpired invitations addressed to
// the given session, newest first.
func (s *Store) ListPendingInvitations(ctx context.Context, inviteeSessionID string, now time.Time) ([]*domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	invitations, err := s.invitationsByIndex(invitationInviteeIdxPrefix(inviteeSessionID))
	if err != nil {
		return nil, err
	}

	filtered := invitations[:0]
	for _, inv := range invitations {
		if inv.Pending() && !inv.Expired(now) {
			filtered = append(filtered, inv)
		}
	}

	sortNewestFirst(filtered)
	return filtered, nil
}

// ListActiveInvitations returns pending or accepted, unexpired invitations
// involving the given session in either role, newest first.
func (s *Store) ListActiveInvitations(ctx context.Context, sessionID string, now time.Time) ([]*domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asInvitee, err := s.invitationsByIndex(invitationInviteeIdxPrefix(sessionID))
	if err != nil {
		return nil, err
	}
	asInviter, err := s.invitationsByIndex(invitationInviterIdxPrefix(sessionID))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(asInvitee)+len(asInviter))
	var active []*domain.Invitation
	for _, inv := range append(asInvitee, asInviter...) {
		if seen[inv.ID] {
			continue
		}
		seen[inv.ID] = true

		if inv.Expired(now) {
			continue
		}
		if inv.Status == domain.InvitationPending || inv.Status == domain.InvitationAccepted {
			active = append(active, inv)
		}
	}

	sortNewestFirst(active)
	return active, nil
}

// SweepExpiredInvitations transitions every pending invitation past its
// expiry to expired, in bulk. Returns how many were expired.
func (s *Store) SweepExpiredInvitations(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// The pending-pair index enumerates exactly the pending invitations,
	// which keeps the sweep from scanning terminal records.
	var expired []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(invitationPendingIdx)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var invitationID string
			if err := it.Item().Value(func(val []byte) error {
				invitationID = string(val)
				return nil
			}); err != nil {
				return err
			}

			var inv domain.Invitation
			err := getInTxn(txn, invitationKey(invitationID), &inv)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // dangling pair key
			}
			if err != nil {
				return fmt.Errorf("load invitation %s: %w", invitationID, err)
			}

			if inv.Pending() && inv.Expired(now) {
				expired = append(expired, inv.ID)
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan pending invitations: %w", err)
	}

	count := 0
	for _, id := range expired {
		err := s.TransitionInvitation(ctx, id, domain.InvitationPending, domain.InvitationExpired)
		if errors.Is(err, ErrStatusChanged) || errors.Is(err, ErrInvitationNotFound) {
			// Accepted or declined between scan and sweep; leave it be.
			continue
		}
		if err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// invitationsByIndex loads every invitation referenced by an index prefix.
// Index keys embed the invitation id as their suffix.
func (s *Store) invitationsByIndex(prefix []byte) ([]*domain.Invitation, error) {
	var invitations []*domain.Invitation

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			invitationID := string(key[len(prefix):])

			var inv domain.Invitation
			err := getInTxn(txn, invitationKey(invitationID), &inv)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // dangling index entry
			}
			if err != nil {
				return fmt.Errorf("load invitation %s: %w", invitationID, err)
			}

			invitations = append(invitations, &inv)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return invitations, nil
}

func sortNewestFirst(invitations []*domain.Invitation) {
	sort.Slice(invitations, func(i, j int) bool {
		return invitations[i].CreatedAt.After(invitations[j].CreatedAt)
	})
}
