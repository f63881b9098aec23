/*
session.go - One mutation-capable handle per live match

PURPOSE:
  Session is the concurrency boundary around one match. The core engine
  is pure; the Session provides the one thing the design demands of its
  caller: at most one in-flight mutating operation per match. Two
  concurrent corrections, or a correction racing an append, both
  read-then-replace the whole ledger - unserialized they would silently
  discard a legal delivery or a correction.

LOCKING MODEL:
  - Mutations (append, correct, undo, revision) hold the write lock for
    the validate-fold-swap sequence.
  - Reads (Snapshot, Deliveries) hold the read lock just long enough to
    copy the immutable (ledger, state) pair; projection runs outside any
    lock since the values are never mutated in place.

COMMIT ORDER:
  fold -> swap -> persist -> broadcast. The ledger swap IS the commit:
  persistence or broadcast failure after a successful fold is logged and
  left to the collaborator's retry - it never un-commits the ledger and
  never triggers a re-fold.

SEE ALSO:
  - store.go: Collaborator interfaces
  - manager.go: Session registry and rehydration
*/
package match

import (
	"context"
	"log"
	"sync"

	"github.com/warp/cricket-engine/scoring"
)

// Session serializes mutations for one match and owns its authoritative
// (ledger, state) pair.
type Session struct {
	mu     sync.RWMutex
	cfg    scoring.MatchConfig
	ledger scoring.Ledger
	state  scoring.MatchState

	store       LedgerStore // optional
	broadcaster Broadcaster // optional
}

// Option configures a Session.
type Option func(*Session)

// WithStore attaches the persistence collaborator.
func WithStore(s LedgerStore) Option {
	return func(sess *Session) { sess.store = s }
}

// WithBroadcaster attaches the broadcast collaborator.
func WithBroadcaster(b Broadcaster) Option {
	return func(sess *Session) { sess.broadcaster = b }
}

// NewSession creates a session for a new match with an empty ledger.
func NewSession(cfg scoring.MatchConfig, opts ...Option) *Session {
	s := &Session{
		cfg:   cfg,
		state: scoring.InitialState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resume rebuilds a session from a stored record by folding its ledger.
func Resume(rec MatchRecord, opts ...Option) (*Session, error) {
	state, folded, err := scoring.Fold(rec.Config, rec.Ledger)
	if err != nil {
		return nil, err
	}
	s := NewSession(rec.Config, opts...)
	s.ledger = folded
	s.state = state
	return s, nil
}

// MatchID returns the match this session scores.
func (s *Session) MatchID() string { return s.cfg.MatchID }

// =============================================================================
// MUTATIONS - Serialized, atomic-swap, persist+broadcast after commit
// =============================================================================

// AppendDelivery accepts one delivery through the reducer's accept path
// and returns the projected snapshot.
func (s *Session) AppendDelivery(ctx context.Context, raw scoring.Delivery) (scoring.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, state, _, err := scoring.Accept(s.cfg, s.state, s.ledger, raw)
	if err != nil {
		return scoring.Snapshot{}, err
	}
	return s.commitLocked(ctx, ledger, state), nil
}

// CorrectDelivery edits one delivery by id and replays the full ledger.
func (s *Session) CorrectDelivery(ctx context.Context, id scoring.DeliveryID, edit scoring.DeliveryEdit) (scoring.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, state, err := scoring.Correct(s.cfg, s.ledger, id, edit)
	if err != nil {
		return scoring.Snapshot{}, err
	}
	return s.commitLocked(ctx, ledger, state), nil
}

// UndoLast removes the highest-ordered delivery and replays.
func (s *Session) UndoLast(ctx context.Context) (scoring.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, state, err := scoring.UndoLast(s.cfg, s.ledger)
	if err != nil {
		return scoring.Snapshot{}, err
	}
	return s.commitLocked(ctx, ledger, state), nil
}

// ApplyRevision records an externally supplied target and/or revised overs
// limit (rain-affected matches) and re-folds: a shortened limit can
// retroactively end the innings. Nil fields leave the current value.
func (s *Session) ApplyRevision(ctx context.Context, target, oversLimit *int) (scoring.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	if target != nil {
		t := *target
		cfg.RevisedTarget = &t
	}
	if oversLimit != nil {
		o := *oversLimit
		cfg.RevisedOversLimit = &o
	}

	state, ledger, err := scoring.Fold(cfg, s.ledger)
	if err != nil {
		return scoring.Snapshot{}, err
	}
	s.cfg = cfg
	return s.commitLocked(ctx, ledger, state), nil
}

// commitLocked swaps in the new (ledger, state) pair, then hands the
// committed values to the collaborators. Their failures never un-commit.
func (s *Session) commitLocked(ctx context.Context, ledger scoring.Ledger, state scoring.MatchState) scoring.Snapshot {
	s.ledger = ledger
	s.state = state

	snap := scoring.Project(s.cfg, state, ledger)

	if s.store != nil {
		if err := s.store.SaveMatch(ctx, MatchRecord{Config: s.cfg, Ledger: ledger}); err != nil {
			log.Printf("match %s: persist failed (collaborator will retry): %v", s.cfg.MatchID, err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(s.cfg.MatchID, snap)
	}
	return snap
}

// =============================================================================
// READS - Unlimited concurrency against immutable values
// =============================================================================

// Snapshot projects the current state. It is computed by the same
// projector path that feeds the broadcast push, so a reconnecting client
// sees exactly the figures the last push delivered.
func (s *Session) Snapshot() scoring.Snapshot {
	s.mu.RLock()
	cfg, state, ledger := s.cfg, s.state, s.ledger
	s.mu.RUnlock()
	return scoring.Project(cfg, state, ledger)
}

// Deliveries returns the ordered ledger contents.
func (s *Session) Deliveries() []scoring.Delivery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Deliveries()
}

// Config returns the match configuration, including any revisions.
func (s *Session) Config() scoring.MatchConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}
