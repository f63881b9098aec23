// Package store provides LedgerStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/cricket-engine/match"
	"github.com/warp/cricket-engine/scoring"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps match records in a map. Records go in and come out by
// value, so callers can never alias the stored ledger.
type Memory struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	config     scoring.MatchConfig
	deliveries []scoring.Delivery
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]memoryRecord)}
}

// SaveMatch replaces the stored record for the match atomically.
func (m *Memory) SaveMatch(_ context.Context, rec match.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Config.MatchID] = memoryRecord{
		config:     rec.Config,
		deliveries: rec.Ledger.Deliveries(),
	}
	return nil
}

// LoadMatch returns the stored record unchanged.
func (m *Memory) LoadMatch(_ context.Context, matchID string) (match.MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[matchID]
	if !ok {
		return match.MatchRecord{}, match.ErrMatchNotFound
	}
	ledger, err := scoring.NewLedger(rec.deliveries)
	if err != nil {
		return match.MatchRecord{}, err
	}
	return match.MatchRecord{Config: rec.config, Ledger: ledger}, nil
}

func (m *Memory) ListMatchIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
