/*
Package broadcast fans committed snapshots out to subscribers.

PURPOSE:
  The broadcast collaborator of the scoring core. After every successful
  mutation the match layer publishes the projected snapshot here; the
  hub fans it out to every subscriber of that match. The hub never
  blocks the mutation path: a slow subscriber's stale snapshot is
  dropped and replaced by the newer one, because a scoreboard only ever
  wants the latest view. A dropped push is recoverable - reconnecting
  clients fall back to the pull endpoint, which is computed by the same
  projector path.

SEE ALSO:
  - match/session.go: Publishes after each commit
  - api/handlers.go: SSE endpoint consuming subscriptions
*/
package broadcast

import (
	"sync"

	"github.com/warp/cricket-engine/scoring"
)

// subscriberBuffer holds at most one pending snapshot per subscriber:
// only the latest view matters.
const subscriberBuffer = 1

// Hub is an in-process Broadcaster. The zero value is not usable; use New.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch chan scoring.Snapshot
}

func New() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers for a match's snapshots. The returned cancel func
// must be called exactly once; the channel closes after cancellation.
func (h *Hub) Subscribe(matchID string) (<-chan scoring.Snapshot, func()) {
	sub := &subscriber{ch: make(chan scoring.Snapshot, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[matchID] == nil {
		h.subs[matchID] = make(map[*subscriber]struct{})
	}
	h.subs[matchID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[matchID], sub)
			if len(h.subs[matchID]) == 0 {
				delete(h.subs, matchID)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers the snapshot to every subscriber of the match without
// blocking. A subscriber that has not drained its previous snapshot gets
// the stale one replaced with this newer one.
func (h *Hub) Publish(matchID string, snap scoring.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[matchID] {
		select {
		case sub.ch <- snap:
		default:
			// Drain the stale snapshot, then offer the fresh one. If the
			// subscriber raced us and drained first, the second send wins.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}

// SubscriberCount reports how many subscribers a match currently has.
func (h *Hub) SubscriberCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[matchID])
}
