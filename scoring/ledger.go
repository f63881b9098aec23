/*
ledger.go - Append-only delivery ledger

PURPOSE:
  The Ledger is the source of truth for one match. Every figure anyone
  ever sees (score, overs, run rates, scorecards) is recomputed from it;
  there is no separately-maintained total that can drift.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: deliveries are never inserted or reordered.
  2. VALUE SEMANTICS: Append/Edit/RemoveLast return a NEW ledger; the
     caller decides whether to commit it. Nothing mutates in place.
  3. STABLE IDS: corrections address deliveries by id, never by index.
  4. VALIDATED AT THE DOOR: the extras constraint table is enforced
     before a delivery enters the ledger.

WHAT VALIDATION DOES NOT DO:
  It does not enforce cricket legality (right bowler, innings still
  open). Legality depends on fold-time context - how many legal balls
  have been bowled, who is at the crease - so it belongs to the reducer.

EXTRAS CONSTRAINT TABLE:
  none     RunsOffBat >= 0            ExtraRuns must be 0
  wide     ExtraRuns  >= 1            RunsOffBat must be 0
  bye      ExtraRuns  >= 1            RunsOffBat must be 0
  leg-bye  ExtraRuns  >= 1            RunsOffBat must be 0
  no-ball  ExtraRuns  >= 1 (penalty)  RunsOffBat may be > 0

SEE ALSO:
  - reducer.go: Fold-time legality and ordering metadata
  - correction.go: Edit-then-replay on top of Edit/RemoveLast
*/
package scoring

import "time"

// =============================================================================
// LEDGER - Ordered, append-only collection of deliveries
// =============================================================================

// Ledger is an immutable value. The zero value is an empty ledger.
type Ledger struct {
	deliveries []Delivery
}

// NewLedger builds a ledger from existing deliveries (e.g. loaded from the
// persistence collaborator). Each delivery is validated on the way in.
func NewLedger(deliveries []Delivery) (Ledger, error) {
	l := Ledger{}
	for _, d := range deliveries {
		var err error
		l, _, err = l.Append(d)
		if err != nil {
			return Ledger{}, err
		}
	}
	return l, nil
}

// Len returns the number of deliveries.
func (l Ledger) Len() int { return len(l.deliveries) }

// Deliveries returns a copy of the ordered deliveries.
func (l Ledger) Deliveries() []Delivery {
	return append([]Delivery(nil), l.deliveries...)
}

// Last returns the highest-ordered delivery, if any.
func (l Ledger) Last() (Delivery, bool) {
	if len(l.deliveries) == 0 {
		return Delivery{}, false
	}
	return l.deliveries[len(l.deliveries)-1], true
}

// Get returns the delivery with the given id.
func (l Ledger) Get(id DeliveryID) (Delivery, bool) {
	for _, d := range l.deliveries {
		if d.ID == id {
			return d, true
		}
	}
	return Delivery{}, false
}

// Append validates raw and returns a new ledger with it appended, plus the
// accepted delivery (id and audit timestamp filled in when absent).
func (l Ledger) Append(raw Delivery) (Ledger, Delivery, error) {
	if err := ValidateDelivery(raw); err != nil {
		return l, Delivery{}, err
	}
	if raw.ID == "" {
		raw.ID = NewDeliveryID()
	} else if _, exists := l.Get(raw.ID); exists {
		return l, Delivery{}, &ValidationError{Field: "id", Reason: "delivery id already present"}
	}
	if raw.At.IsZero() {
		raw.At = time.Now().UTC()
	}

	next := Ledger{deliveries: make([]Delivery, len(l.deliveries), len(l.deliveries)+1)}
	copy(next.deliveries, l.deliveries)
	next.deliveries = append(next.deliveries, raw)
	return next, raw, nil
}

// Edit applies a partial edit to the delivery with the given id and returns
// a new ledger. The original ledger is untouched; the caller decides
// whether to commit the result (typically after a successful replay).
func (l Ledger) Edit(id DeliveryID, edit DeliveryEdit) (Ledger, error) {
	idx := -1
	for i, d := range l.deliveries {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return l, ErrDeliveryNotFound
	}

	edited := edit.apply(l.deliveries[idx])
	if err := ValidateDelivery(edited); err != nil {
		return l, &InvalidEditError{DeliveryID: id, Cause: err}
	}

	next := Ledger{deliveries: append([]Delivery(nil), l.deliveries...)}
	next.deliveries[idx] = edited
	return next, nil
}

// RemoveLast returns a new ledger without the highest-ordered delivery.
func (l Ledger) RemoveLast() (Ledger, Delivery, error) {
	if len(l.deliveries) == 0 {
		return l, Delivery{}, ErrEmptyLedger
	}
	last := l.deliveries[len(l.deliveries)-1]
	next := Ledger{deliveries: append([]Delivery(nil), l.deliveries[:len(l.deliveries)-1]...)}
	return next, last, nil
}

// withOrdering returns a new ledger whose entries carry the ordering
// metadata assigned by a fold. Reducer-internal.
func (l Ledger) withOrdering(annotated []Delivery) Ledger {
	return Ledger{deliveries: annotated}
}

// =============================================================================
// VALIDATION - The extras constraint table
// =============================================================================

// ValidateDelivery enforces the per-delivery constraints that hold
// independent of fold-time context.
func ValidateDelivery(d Delivery) error {
	if !d.Extra.Valid() {
		return &ValidationError{Field: "extra", Reason: "unknown extra kind " + string(d.Extra)}
	}
	if d.RunsOffBat < 0 {
		return &ValidationError{Field: "runs_off_bat", Reason: "must not be negative"}
	}
	if d.ExtraRuns < 0 {
		return &ValidationError{Field: "extra_runs", Reason: "must not be negative"}
	}

	switch d.Extra {
	case ExtraNone:
		if d.ExtraRuns != 0 {
			return &ValidationError{Field: "extra_runs", Reason: "must be 0 on a fair delivery"}
		}
	case ExtraWide, ExtraBye, ExtraLegBye:
		if d.ExtraRuns < 1 {
			return &ValidationError{Field: "extra_runs", Reason: "at least 1 required for " + string(d.Extra)}
		}
		if d.RunsOffBat != 0 {
			return &ValidationError{Field: "runs_off_bat", Reason: "must be 0 on a " + string(d.Extra)}
		}
	case ExtraNoBall:
		if d.ExtraRuns < 1 {
			return &ValidationError{Field: "extra_runs", Reason: "no-ball penalty requires at least 1"}
		}
	}

	if d.Striker == "" || d.NonStriker == "" || d.Bowler == "" {
		return &ValidationError{Field: "players", Reason: "striker, non-striker and bowler are required"}
	}
	if d.Striker == d.NonStriker {
		return &ValidationError{Field: "players", Reason: "striker and non-striker must differ"}
	}

	if d.IsWicket {
		if !d.Dismissal.Valid() {
			return &ValidationError{Field: "dismissal_type", Reason: "unknown dismissal " + string(d.Dismissal)}
		}
		if d.DismissedPlayer == "" {
			return &ValidationError{Field: "dismissed_player_id", Reason: "required on a wicket"}
		}
		if !d.Dismissal.AllowedOn(d.Extra) {
			return &ValidationError{
				Field:  "dismissal_type",
				Reason: string(d.Dismissal) + " is not possible on a " + string(d.Extra),
			}
		}
	} else if d.Dismissal != "" || d.DismissedPlayer != "" {
		return &ValidationError{Field: "dismissal_type", Reason: "set without is_wicket"}
	}

	return nil
}
