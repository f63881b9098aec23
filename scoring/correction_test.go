/*
correction_test.go - Edit-then-replay semantics

Tests for:
- Retroactive reclassification (wide -> fair ball) and its knock-on
  effects on over accounting and strike
- Run corrections rippling into totals and scorecards
- Undo as the degenerate correction
- Sealed ledgers, unknown ids, atomicity on replay failure
*/
package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cricket-engine/scoring"
)

func TestCorrect_WideReclassifiedAsFairBall(t *testing.T) {
	// GIVEN: a wide followed by a single; 2 runs, 1 legal ball
	// WHEN: the wide is corrected into a fair ball with one off the bat
	// THEN: the replay yields 2 runs off 2 legal balls and renumbers the over
	cfg := t20Config(20)
	st, l := play(t, cfg,
		extraBall("l1", "l2", "t1", scoring.ExtraWide, 0, 1),
		ball("l1", "l2", "t1", 1),
	)
	require.Equal(t, 2, st.TotalRuns)
	require.Equal(t, 1, st.LegalBalls)

	wideID := l.Deliveries()[0].ID
	fair := scoring.ExtraNone
	one, zero := 1, 0
	replayed, newState, err := scoring.Correct(cfg, l, wideID, scoring.DeliveryEdit{
		Extra:      &fair,
		ExtraRuns:  &zero,
		RunsOffBat: &one,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, newState.TotalRuns)
	assert.Equal(t, 2, newState.LegalBalls)

	ds := replayed.Deliveries()
	assert.Equal(t, 1, ds[0].BallInOver)
	assert.Equal(t, 2, ds[1].BallInOver, "the second ball now advances the over")

	// The corrected single swapped the strike, so the tracked crease puts
	// l2 on the second ball.
	assert.Equal(t, 1, newState.Batting["l1"].Runs)
	assert.Equal(t, 1, newState.Batting["l2"].Runs)

	// The extras breakdown is a ledger summation, so the wide vanished.
	snap := scoring.Project(cfg, newState, replayed)
	assert.Equal(t, 0, snap.Extras.Wides)
	assert.Equal(t, 0, snap.Extras.Total)
}

func TestCorrect_RunCorrectionRipplesThroughTotals(t *testing.T) {
	// GIVEN: 2, 0, 4 off the bat
	// WHEN: the first ball is corrected from 2 to 6
	cfg := t20Config(20)
	st, l := play(t, cfg,
		ball("l1", "l2", "t1", 2),
		ball("l1", "l2", "t1", 0),
		ball("l1", "l2", "t1", 4),
	)
	require.Equal(t, 6, st.TotalRuns)

	six := 6
	_, newState, err := scoring.Correct(cfg, l, l.Deliveries()[0].ID,
		scoring.DeliveryEdit{RunsOffBat: &six})
	require.NoError(t, err)

	assert.Equal(t, 10, newState.TotalRuns)
	assert.Equal(t, 3, newState.LegalBalls)
	assert.Equal(t, 10, newState.Batting["l1"].Runs)
	assert.Equal(t, 1, newState.Batting["l1"].Sixes)
	assert.Equal(t, 1, newState.Batting["l1"].Fours)
	assert.Equal(t, 10, newState.Bowling["t1"].Conceded)
}

func TestCorrect_NoOpEditIsIdempotent(t *testing.T) {
	cfg := t20Config(20)
	st, l := play(t, cfg,
		ball("l1", "l2", "t1", 1),
		ball("l2", "l1", "t1", 0),
	)

	note := "edged, no run"
	replayed, newState, err := scoring.Correct(cfg, l, l.Deliveries()[1].ID,
		scoring.DeliveryEdit{Commentary: &note})
	require.NoError(t, err)

	assert.Equal(t, st, newState, "commentary carries no semantic weight")
	assert.Equal(t, note, replayed.Deliveries()[1].Commentary)
}

func TestCorrect_SealedAfterCompletion(t *testing.T) {
	cfg := t20Config(1)
	_, l := play(t, cfg,
		ball("l1", "l2", "t1", 1),
		ball("l1", "l2", "t1", 1),
		ball("l1", "l2", "t1", 1),
		ball("l1", "l2", "t1", 1),
		ball("l1", "l2", "t1", 1),
		ball("l1", "l2", "t1", 1),
		ball("t1", "t2", "l1", 6),
		ball("t1", "t2", "l1", 1),
	)

	zero := 0
	_, _, err := scoring.Correct(cfg, l, l.Deliveries()[0].ID,
		scoring.DeliveryEdit{RunsOffBat: &zero})
	assert.ErrorIs(t, err, scoring.ErrMatchCompleted)

	_, _, err = scoring.UndoLast(cfg, l)
	assert.ErrorIs(t, err, scoring.ErrMatchCompleted)
}

func TestCorrect_UnknownDeliveryID(t *testing.T) {
	cfg := t20Config(20)
	_, l := play(t, cfg, ball("l1", "l2", "t1", 0))

	_, _, err := scoring.Correct(cfg, l, "no-such-id", scoring.DeliveryEdit{})
	assert.ErrorIs(t, err, scoring.ErrDeliveryNotFound)
}

func TestCorrect_FailedReplayLeavesLedgerUntouched(t *testing.T) {
	// GIVEN: a wicket followed by the newcomer's first ball
	// WHEN: the wicket is edited away, stranding the newcomer
	// THEN: the replay fails and the original ledger is still valid
	cfg := t20Config(20)
	st, l := play(t, cfg,
		wicketBall("l1", "l2", "t1", scoring.DismissalBowled, "l1", ""),
		ball("l3", "l2", "t1", 0),
	)

	noWicket := false
	noKind := scoring.Dismissal("")
	noPlayer := scoring.PlayerID("")
	kept, _, err := scoring.Correct(cfg, l, l.Deliveries()[0].ID, scoring.DeliveryEdit{
		IsWicket:        &noWicket,
		Dismissal:       &noKind,
		DismissedPlayer: &noPlayer,
	})

	var seqErr *scoring.SequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, l.Deliveries(), kept.Deliveries(), "nothing was partially applied")

	// The untouched ledger still folds to the same state.
	refolded, _, err := scoring.Fold(cfg, l)
	require.NoError(t, err)
	assert.Equal(t, st, refolded)
}

func TestUndoLast_RecoversThePriorState(t *testing.T) {
	cfg := t20Config(20)
	before, l := play(t, cfg,
		ball("l1", "l2", "t1", 4),
		ball("l1", "l2", "t1", 1),
	)

	lAfter, _, _, err := scoring.Accept(cfg, before, l,
		wicketBall("l2", "l1", "t1", scoring.DismissalBowled, "l2", ""))
	require.NoError(t, err)

	trimmed, recovered, err := scoring.UndoLast(cfg, lAfter)
	require.NoError(t, err)

	assert.Equal(t, before, recovered)
	assert.Equal(t, l.Len(), trimmed.Len())
}

func TestUndoLast_EmptyLedger(t *testing.T) {
	cfg := t20Config(20)
	_, _, err := scoring.UndoLast(cfg, scoring.Ledger{})
	assert.ErrorIs(t, err, scoring.ErrEmptyLedger)
}
