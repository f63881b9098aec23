/*
store.go - Collaborator interfaces for the match layer

PURPOSE:
  Defines the seams between the core and its external collaborators:
  persistence and broadcast. The core never depends on a storage
  technology or a transport; it emits values through these interfaces
  strictly AFTER a successful fold.

CONTRACTS:
  LedgerStore  durably stores a match's config and full ledger and
               returns them unchanged on load; a committed ledger is
               visible exactly once to subsequent folds. Corrections
               rewrite the stored ledger atomically.
  Broadcaster  receives a snapshot after every successful mutation and
               fans it out; the core does not track subscriber identity
               and never re-folds because a push failed.

IMPLEMENTATIONS:
  - store/memory.go: In-memory LedgerStore for tests and dev
  - store/sqlite:    SQLite-backed LedgerStore
  - broadcast:       In-process Broadcaster hub

SEE ALSO:
  - session.go: Calls these after each committed mutation
*/
package match

import (
	"context"
	"errors"

	"github.com/warp/cricket-engine/scoring"
)

// ErrMatchNotFound is returned by stores and the manager when no match
// with the given id exists.
var ErrMatchNotFound = errors.New("match not found")

// MatchRecord is what a LedgerStore persists and returns for one match.
type MatchRecord struct {
	Config scoring.MatchConfig
	Ledger scoring.Ledger
}

// LedgerStore is the persistence collaborator.
type LedgerStore interface {
	// SaveMatch durably stores the config and the full ledger, replacing
	// any previous ledger for the match atomically.
	SaveMatch(ctx context.Context, rec MatchRecord) error

	// LoadMatch returns the stored record, or ErrMatchNotFound.
	LoadMatch(ctx context.Context, matchID string) (MatchRecord, error)

	// ListMatchIDs returns the ids of all stored matches.
	ListMatchIDs(ctx context.Context) ([]string, error)
}

// Broadcaster is the broadcast collaborator. Publish must not block the
// mutation path.
type Broadcaster interface {
	Publish(matchID string, snap scoring.Snapshot)
}
