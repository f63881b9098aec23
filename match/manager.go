/*
manager.go - Registry of live match sessions

PURPOSE:
  Maps match ids to their single mutation-capable Session. Creating a
  match registers a session; looking one up rehydrates it from the
  persistence collaborator if it is not already live (service restart,
  reconnect after crash).

SEE ALSO:
  - session.go: What the manager hands out
*/
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/warp/cricket-engine/scoring"
)

// ErrMatchExists is returned when creating a match whose id is taken.
var ErrMatchExists = errors.New("match already exists")

// Manager owns the live sessions. All methods are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store       LedgerStore // optional
	broadcaster Broadcaster // optional
}

// NewManager creates a manager whose sessions share the given
// collaborators (either may be nil).
func NewManager(store LedgerStore, broadcaster Broadcaster) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		store:       store,
		broadcaster: broadcaster,
	}
}

func (m *Manager) sessionOpts() []Option {
	var opts []Option
	if m.store != nil {
		opts = append(opts, WithStore(m.store))
	}
	if m.broadcaster != nil {
		opts = append(opts, WithBroadcaster(m.broadcaster))
	}
	return opts
}

// Create registers a new match and persists its empty ledger.
func (m *Manager) Create(ctx context.Context, cfg scoring.MatchConfig) (*Session, error) {
	if cfg.MatchID == "" {
		return nil, fmt.Errorf("match id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, live := m.sessions[cfg.MatchID]; live {
		return nil, ErrMatchExists
	}
	if m.store != nil {
		if _, err := m.store.LoadMatch(ctx, cfg.MatchID); err == nil {
			return nil, ErrMatchExists
		}
	}

	sess := NewSession(cfg, m.sessionOpts()...)
	if m.store != nil {
		if err := m.store.SaveMatch(ctx, MatchRecord{Config: cfg, Ledger: scoring.Ledger{}}); err != nil {
			return nil, fmt.Errorf("persist new match: %w", err)
		}
	}
	m.sessions[cfg.MatchID] = sess
	return sess, nil
}

// Get returns the live session for a match, rehydrating it from the store
// if needed. Returns ErrMatchNotFound when the match is unknown.
func (m *Manager) Get(ctx context.Context, matchID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, live := m.sessions[matchID]; live {
		return sess, nil
	}
	if m.store == nil {
		return nil, ErrMatchNotFound
	}

	rec, err := m.store.LoadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	sess, err := Resume(rec, m.sessionOpts()...)
	if err != nil {
		return nil, fmt.Errorf("rehydrate match %s: %w", matchID, err)
	}
	m.sessions[matchID] = sess
	return sess, nil
}

// List returns all known match ids: live sessions plus stored matches.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]bool{}
	var ids []string
	for id := range m.sessions {
		seen[id] = true
		ids = append(ids, id)
	}
	if m.store != nil {
		stored, err := m.store.ListMatchIDs(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range stored {
			if !seen[id] {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}
