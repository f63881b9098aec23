/*
correction.go - Correction/replay engine

PURPOSE:
  Lets an operator retroactively fix a past delivery without hand-patching
  totals. The algorithm is deliberately brute force:

    1. Locate the delivery by id (never by index - indices shift)
    2. Apply the partial edit, producing a new ledger value
    3. Re-run the FULL reducer fold from the empty initial state

  There is no incremental patching of running totals, ever. History
  dependence (strike rotation, over boundaries) makes any such patch the
  exact defect this engine exists to prevent.

ATOMICITY:
  Every operation either returns a (new ledger, new state) pair or an
  error with the inputs untouched. Value semantics make this free: the
  original ledger is never modified, so a failed replay simply isn't
  committed.

FAILURE MODES:
  ErrDeliveryNotFound  no delivery with that id
  InvalidEditError     edited fields violate the extras table
  ErrMatchCompleted    the match is over; its ledger is sealed
  SequenceViolation    the edited history no longer folds (e.g. the edit
                       removed the wicket a later new batter replaced)

SEE ALSO:
  - reducer.go: The fold being replayed
  - ledger.go: Edit/RemoveLast primitives
*/
package scoring

// =============================================================================
// CORRECT - Edit one delivery and replay the world
// =============================================================================

// Correct applies a partial edit to the delivery with the given id and
// replays the entire ledger. On any failure the original ledger and state
// are still valid; nothing is partially applied.
func Correct(cfg MatchConfig, l Ledger, id DeliveryID, edit DeliveryEdit) (Ledger, MatchState, error) {
	if err := rejectIfCompleted(cfg, l); err != nil {
		return l, MatchState{}, err
	}

	edited, err := l.Edit(id, edit)
	if err != nil {
		return l, MatchState{}, err
	}

	state, replayed, err := Fold(cfg, edited)
	if err != nil {
		return l, MatchState{}, err
	}
	return replayed, state, nil
}

// UndoLast removes the highest-ordered delivery and replays. It is the
// degenerate correction: same replay, one fewer entry.
func UndoLast(cfg MatchConfig, l Ledger) (Ledger, MatchState, error) {
	if err := rejectIfCompleted(cfg, l); err != nil {
		return l, MatchState{}, err
	}

	trimmed, _, err := l.RemoveLast()
	if err != nil {
		return l, MatchState{}, err
	}

	state, replayed, err := Fold(cfg, trimmed)
	if err != nil {
		return l, MatchState{}, err
	}
	return replayed, state, nil
}

// rejectIfCompleted seals a finished match's ledger against mutation.
func rejectIfCompleted(cfg MatchConfig, l Ledger) error {
	state, _, err := Fold(cfg, l)
	if err != nil {
		// A ledger that no longer folds cannot be "completed"; let the
		// correction proceed so the operator can repair it.
		return nil
	}
	if state.Status == StatusCompleted {
		return ErrMatchCompleted
	}
	return nil
}
