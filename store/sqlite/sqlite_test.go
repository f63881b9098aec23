/*
sqlite_test.go - Durable ledger round-trips

Tests for:
- Save/load preserving configs, delivery order and identity
- Replace-all rewrites after a correction
- Fold equivalence between the saved and the loaded ledger
*/
package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cricket-engine/match"
	"github.com/warp/cricket-engine/scoring"
	"github.com/warp/cricket-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sqliteConfig(matchID string) scoring.MatchConfig {
	return scoring.MatchConfig{
		MatchID:      matchID,
		Home:         scoring.Team{ID: "home", Name: "Home XI"},
		Away:         scoring.Team{ID: "away", Name: "Away XI"},
		OversLimit:   20,
		TossWinner:   "away",
		TossDecision: scoring.TossBowl,
	}
}

func fair(striker, nonStriker, bowler string, runs int) scoring.Delivery {
	return scoring.Delivery{
		Striker: scoring.PlayerID(striker), NonStriker: scoring.PlayerID(nonStriker),
		Bowler: scoring.PlayerID(bowler), RunsOffBat: runs, Extra: scoring.ExtraNone,
	}
}

// playedLedger folds a short passage so the saved deliveries carry
// reducer-assigned ordering metadata, like every ledger the session saves.
func playedLedger(t *testing.T, cfg scoring.MatchConfig) (scoring.MatchState, scoring.Ledger) {
	t.Helper()
	st := scoring.InitialState()
	var l scoring.Ledger
	wicket := fair("h1", "h2", "a1", 0)
	wicket.IsWicket = true
	wicket.Dismissal = scoring.DismissalCaught
	wicket.DismissedPlayer = "h1"
	wicket.Fielder = "a7"
	wicket.Commentary = "top edge"

	for _, d := range []scoring.Delivery{
		fair("h1", "h2", "a1", 1),
		{Striker: "h2", NonStriker: "h1", Bowler: "a1", Extra: scoring.ExtraWide, ExtraRuns: 1},
		{Striker: "h2", NonStriker: "h1", Bowler: "a1", Extra: scoring.ExtraNoBall, RunsOffBat: 2, ExtraRuns: 1},
		fair("h2", "h1", "a1", 1),
		wicket,
	} {
		var err error
		l, st, _, err = scoring.Accept(cfg, st, l, d)
		require.NoError(t, err)
	}
	return st, l
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestStore_RoundTripFoldsIdentically(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	cfg := sqliteConfig("m1")
	want, l := playedLedger(t, cfg)

	require.NoError(t, db.SaveMatch(ctx, match.MatchRecord{Config: cfg, Ledger: l}))

	rec, err := db.LoadMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, cfg.MatchID, rec.Config.MatchID)
	assert.Equal(t, cfg.TossDecision, rec.Config.TossDecision)

	got, _, err := scoring.Fold(rec.Config, rec.Ledger)
	require.NoError(t, err)
	assert.Equal(t, want, got, "the loaded ledger folds to the saved state")
}

func TestStore_PreservesOrderIdentityAndFields(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	cfg := sqliteConfig("m1")
	_, l := playedLedger(t, cfg)

	require.NoError(t, db.SaveMatch(ctx, match.MatchRecord{Config: cfg, Ledger: l}))
	rec, err := db.LoadMatch(ctx, "m1")
	require.NoError(t, err)

	saved := l.Deliveries()
	loaded := rec.Ledger.Deliveries()
	require.Len(t, loaded, len(saved))
	for i := range saved {
		assert.Equal(t, saved[i].ID, loaded[i].ID)
		assert.Equal(t, saved[i].Over, loaded[i].Over)
		assert.Equal(t, saved[i].BallInOver, loaded[i].BallInOver)
		assert.Equal(t, saved[i].Extra, loaded[i].Extra)
		assert.Equal(t, saved[i].RunsOffBat, loaded[i].RunsOffBat)
		assert.Equal(t, saved[i].IsWicket, loaded[i].IsWicket)
		assert.Equal(t, saved[i].Dismissal, loaded[i].Dismissal)
		assert.Equal(t, saved[i].Fielder, loaded[i].Fielder)
		assert.Equal(t, saved[i].Commentary, loaded[i].Commentary)
		assert.True(t, saved[i].At.Equal(loaded[i].At), "audit timestamp survives")
	}
}

func TestStore_SaveReplacesTheWholeLedger(t *testing.T) {
	// GIVEN: a saved five-delivery ledger
	// WHEN: a corrected three-delivery ledger is saved for the same match
	// THEN: only the new rows remain
	ctx := context.Background()
	db := newTestStore(t)
	cfg := sqliteConfig("m1")
	_, l := playedLedger(t, cfg)
	require.NoError(t, db.SaveMatch(ctx, match.MatchRecord{Config: cfg, Ledger: l}))

	shorter := l
	for i := 0; i < 2; i++ {
		var err error
		shorter, _, err = shorter.RemoveLast()
		require.NoError(t, err)
	}
	state, shorter, err := scoring.Fold(cfg, shorter)
	require.NoError(t, err)
	require.NoError(t, db.SaveMatch(ctx, match.MatchRecord{Config: cfg, Ledger: shorter}))

	rec, err := db.LoadMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Ledger.Len())

	got, _, err := scoring.Fold(rec.Config, rec.Ledger)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestStore_ConfigRevisionsSurvive(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	cfg := sqliteConfig("m1")
	target, overs := 132, 15
	cfg.RevisedTarget = &target
	cfg.RevisedOversLimit = &overs

	require.NoError(t, db.SaveMatch(ctx, match.MatchRecord{Config: cfg}))
	rec, err := db.LoadMatch(ctx, "m1")
	require.NoError(t, err)

	require.NotNil(t, rec.Config.RevisedTarget)
	assert.Equal(t, 132, *rec.Config.RevisedTarget)
	require.NotNil(t, rec.Config.RevisedOversLimit)
	assert.Equal(t, 15, *rec.Config.RevisedOversLimit)
}

func TestStore_LoadUnknownAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)

	_, err := db.LoadMatch(ctx, "nope")
	assert.ErrorIs(t, err, match.ErrMatchNotFound)

	require.NoError(t, db.SaveMatch(ctx, match.MatchRecord{Config: sqliteConfig("m2")}))
	require.NoError(t, db.SaveMatch(ctx, match.MatchRecord{Config: sqliteConfig("m1")}))

	ids, err := db.ListMatchIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
}
