package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Liiiii222/debate/internal/domain"
)

// CreateSession persists a new participant session.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := sessionKey(session.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrSessionExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing session: %w", err)
		}

		if err := setInTxn(txn, key, session); err != nil {
			return err
		}

		// Topic index drives candidate queries; only searching sessions
		// created through matchmaking carry preferences worth indexing.
		if session.Preferences.Category != "" || session.Preferences.Topic != "" {
			idxKey := sessionTopicIdxKey(session.Preferences.Category, session.Preferences.Topic, session.ID)
			if err := txn.Set(idxKey, []byte(session.ID)); err != nil {
				return fmt.Errorf("set topic index: %w", err)
			}
		}

		// Username lookup is last-writer-wins: a participant who re-searches
		// gets a fresh session and the name should resolve to it.
		if session.Username != "" {
			if err := txn.Set(sessionUsernameIdxKey(session.Username), []byte(session.ID)); err != nil {
				return fmt.Errorf("set username index: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

// GetSession retrieves a session by its token.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var session domain.Session
	if err := s.get(sessionKey(id), &session); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &session, nil
}

// GetSessionByUsername resolves a display username to its current session.
func (s *Store) GetSessionByUsername(ctx context.Context, username string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sessionID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionUsernameIdxKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			sessionID = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup username index: %w", err)
	}

	return s.GetSession(ctx, sessionID)
}

// TouchSession refreshes a session's activity timestamp (the heartbeat).
func (s *Store) TouchSession(ctx context.Context, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.updateSession(id, func(session *domain.Session) {
		session.LastActive = now
		session.UpdatedAt = now
	})
}

// UpsertSessionActivity refreshes a session's activity timestamp, creating a
// minimal record if none exists yet. Used by the presence relay on room join
// so relay-only participants still appear in stats and sweeps. A record
// created this way is not searching: a participant joining a room is already
// paired.
func (s *Store) UpsertSessionActivity(ctx context.Context, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := sessionKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		var session domain.Session
		err := getInTxn(txn, key, &session)
		if errors.Is(err, badger.ErrKeyNotFound) {
			session = domain.Session{
				ID:          id,
				IsSearching: false,
				LastActive:  now,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			return setInTxn(txn, key, &session)
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		session.LastActive = now
		session.UpdatedAt = now
		return setInTxn(txn, key, &session)
	})
}

// EndSession flips a session out of the searching pool. Idempotent for a
// known session; unknown sessions report ErrSessionNotFound.
func (s *Store) EndSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.updateSession(id, func(session *domain.Session) {
		session.IsSearching = false
		session.UpdatedAt = now
	})
}

// ReleaseSession flips a session out of the searching pool and records the
// moment as its last activity. Used by the presence relay on leave and on
// transport disconnect; a missing session is not an error there.
func (s *Store) ReleaseSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	err := s.updateSession(id, func(session *domain.Session) {
		session.IsSearching = false
		session.LastActive = now
		session.UpdatedAt = now
	})
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

// updateSession applies mutate to a session inside one transaction.
func (s *Store) updateSession(id string, mutate func(*domain.Session)) error {
	key := sessionKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		var session domain.Session
		if err := getInTxn(txn, key, &session); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("get session: %w", err)
		}

		mutate(&session)
		return setInTxn(txn, key, &session)
	})
}

// FindCandidates returns match candidates for the given preferences:
// searching sessions other than the requester's with the exact category and
// topic, active within the window, satisfying every non-wildcard optional
// filter. Ordered most-recently-active first and capped at limit.
func (s *Store) FindCandidates(ctx context.Context, prefs domain.Preferences, excludeSessionID string, window time.Duration, limit int) ([]*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var candidates []*domain.Session

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := sessionTopicIdxPrefix(prefs.Category, prefs.Topic)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sessionID string
			if err := it.Item().Value(func(val []byte) error {
				sessionID = string(val)
				return nil
			}); err != nil {
				return err
			}

			if sessionID == excludeSessionID {
				continue
			}

			var session domain.Session
			err := getInTxn(txn, sessionKey(sessionID), &session)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // dangling index entry
			}
			if err != nil {
				return fmt.Errorf("load candidate %s: %w", sessionID, err)
			}

			if matchesQuery(&session, prefs, window, now) {
				candidates = append(candidates, &session)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastActive.After(candidates[j].LastActive)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

// matchesQuery applies the candidate predicate: hard filters (searching,
// exact category/topic, recency) plus each optional filter the requester
// actually narrowed. Wildcards on the requester's side skip the filter
// entirely, so candidate wildcards only matter when the requester narrowed.
func matchesQuery(session *domain.Session, prefs domain.Preferences, window time.Duration, now time.Time) bool {
	if !session.IsSearching {
		return false
	}
	if session.Preferences.Category != prefs.Category || session.Preferences.Topic != prefs.Topic {
		return false
	}
	if !session.ActiveWithin(window, now) {
		return false
	}

	if age, narrowed := prefs.AgeFilter(); narrowed && session.Preferences.AgeRange != age {
		return false
	}
	if lang, narrowed := prefs.LanguageFilter(); narrowed && session.Preferences.Language != lang {
		return false
	}
	if country, narrowed := prefs.CountryFilter(); narrowed && session.Preferences.Country != country {
		return false
	}
	if uni, narrowed := prefs.UniversityFilter(); narrowed && session.Preferences.University != uni {
		return false
	}

	return true
}

// ReserveMatch atomically takes both sessions out of the searching pool.
// The candidate flip is conditional: if the candidate is no longer
// searching, or a concurrent reservation commits first, the whole
// transaction fails with ErrCandidateTaken and neither record changes. The
// caller must then discard the candidate rather than report a phantom match.
func (s *Store) ReserveMatch(ctx context.Context, requesterID, candidateID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	err := s.db.Update(func(txn *badger.Txn) error {
		var candidate domain.Session
		if err := getInTxn(txn, sessionKey(candidateID), &candidate); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("get candidate: %w", err)
		}
		if !candidate.IsSearching {
			return ErrCandidateTaken
		}

		var requester domain.Session
		if err := getInTxn(txn, sessionKey(requesterID), &requester); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("get requester: %w", err)
		}

		candidate.IsSearching = false
		candidate.UpdatedAt = now
		requester.IsSearching = false
		requester.UpdatedAt = now

		if err := setInTxn(txn, sessionKey(candidateID), &candidate); err != nil {
			return err
		}
		return setInTxn(txn, sessionKey(requesterID), &requester)
	})
	if errors.Is(err, badger.ErrConflict) {
		// A racing transaction touched the candidate first.
		return ErrCandidateTaken
	}
	return err
}

// SweepInactiveSessions demotes every searching session whose last activity
// is older than the cutoff. Records are never deleted, only stopped from
// being matched. Returns how many sessions were demoted.
func (s *Store) SweepInactiveSessions(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var stale []string
	err := s.db.View(func(txn *badger.Txn) error {
		return s.forEachSession(txn, func(session *domain.Session) error {
			if session.IsSearching && session.LastActive.Before(cutoff) {
				stale = append(stale, session.ID)
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	count := 0
	for _, id := range stale {
		err := s.updateSession(id, func(session *domain.Session) {
			// Re-check under the write transaction; a heartbeat may have
			// arrived between scan and update.
			if session.IsSearching && session.LastActive.Before(cutoff) {
				session.IsSearching = false
				session.UpdatedAt = time.Now().UTC()
			}
		})
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// SessionCounts holds aggregate session statistics.
type SessionCounts struct {
	Total     int
	Searching int
	Active    int
}

// CountSessions tallies total, searching, and recently-active sessions.
func (s *Store) CountSessions(ctx context.Context, activeSince time.Time) (SessionCounts, error) {
	if err := ctx.Err(); err != nil {
		return SessionCounts{}, err
	}

	var counts SessionCounts
	err := s.db.View(func(txn *badger.Txn) error {
		return s.forEachSession(txn, func(session *domain.Session) error {
			counts.Total++
			if session.IsSearching {
				counts.Searching++
			}
			if !session.LastActive.Before(activeSince) {
				counts.Active++
			}
			return nil
		})
	})
	if err != nil {
		return SessionCounts{}, fmt.Errorf("count sessions: %w", err)
	}

	return counts, nil
}

// forEachSession iterates every session document in the given transaction.
func (s *Store) forEachSession(txn *badger.Txn, fn func(*domain.Session) error) error {
	opts := badger.DefaultIteratorOptions
	prefix := []byte(sessionPrefix)
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var session domain.Session
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
		if err != nil {
			return err
		}
		if err := fn(&session); err != nil {
			return err
		}
	}

	return nil
}
