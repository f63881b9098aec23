/*
Package scoring contains the core match-scoring engine.

PURPOSE:
  This package holds the domain types and pure algorithms for scoring a
  cricket match delivery-by-delivery: the append-only delivery ledger, the
  deterministic reducer that folds the ledger into match state, the
  correction/replay engine, and the snapshot projector.

KEY CONCEPTS IN THIS FILE (types.go):
  - Delivery: One ball bowled (legal or not), the only input record
  - Extra / Dismissal: Closed enumerations - no runtime defaulting
  - MatchConfig: Immutable match setup (teams, overs limit, toss)
  - MatchState: Derived state, only ever produced by a fold
  - BattingEntry / BowlingEntry: Scorecard rows keyed by player id

DESIGN PRINCIPLES:
  1. Derive, never store: team runs are always RunsOffBat + ExtraRuns,
     overs are always a view of LegalBalls. No second counter exists.
  2. Exhaustive enums: every Extra and Dismissal case is handled
     explicitly; an unknown value is a validation error, never a default.
  3. Value semantics: ledgers and states are values. Every mutation
     produces a new value; nothing is patched in place.
  4. Stable identity: deliveries are addressed by opaque ids, never by
     position - positions shift under corrections.

SEE ALSO:
  - ledger.go: Append/edit with extras-table validation
  - reducer.go: The fold that turns a ledger into MatchState
  - projector.go: Consumer-facing snapshot derivation
*/
package scoring

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PlayerID string
type TeamID string

// DeliveryID is a stable opaque identifier. It is never reused and is
// independent of the delivery's position in the ledger.
type DeliveryID string

// NewDeliveryID returns a fresh random delivery id.
func NewDeliveryID() DeliveryID {
	return DeliveryID(uuid.NewString())
}

// =============================================================================
// EXTRAS - Closed enumeration of illegal/extra delivery kinds
// =============================================================================

type Extra string

const (
	ExtraNone   Extra = "none"
	ExtraWide   Extra = "wide"
	ExtraNoBall Extra = "no-ball"
	ExtraBye    Extra = "bye"
	ExtraLegBye Extra = "leg-bye"
)

// Valid reports whether e is a known extra kind.
func (e Extra) Valid() bool {
	switch e {
	case ExtraNone, ExtraWide, ExtraNoBall, ExtraBye, ExtraLegBye:
		return true
	}
	return false
}

// Legal reports whether a delivery of this kind counts toward the 6-ball
// over. Wides and no-balls are re-bowled; byes and leg-byes are legal.
func (e Extra) Legal() bool {
	return e == ExtraNone || e == ExtraBye || e == ExtraLegBye
}

// =============================================================================
// DISMISSALS - Closed enumeration of wicket kinds
// =============================================================================

type Dismissal string

const (
	DismissalBowled      Dismissal = "bowled"
	DismissalCaught      Dismissal = "caught"
	DismissalLBW         Dismissal = "lbw"
	DismissalRunOut      Dismissal = "run-out"
	DismissalStumped     Dismissal = "stumped"
	DismissalHitWicket   Dismissal = "hit-wicket"
	DismissalObstructing Dismissal = "obstructing-the-field"
	DismissalRetired     Dismissal = "retired"
)

// Valid reports whether d is a known dismissal kind.
func (d Dismissal) Valid() bool {
	switch d {
	case DismissalBowled, DismissalCaught, DismissalLBW, DismissalRunOut,
		DismissalStumped, DismissalHitWicket, DismissalObstructing, DismissalRetired:
		return true
	}
	return false
}

// CreditedToBowler reports whether the wicket counts in the bowler's column.
func (d Dismissal) CreditedToBowler() bool {
	switch d {
	case DismissalBowled, DismissalCaught, DismissalLBW, DismissalStumped, DismissalHitWicket:
		return true
	}
	return false
}

// AllowedOn reports whether this dismissal kind can occur on a delivery of
// the given extra kind. The ball is dead for bowler-credited dismissals on
// wides and no-balls, with the stumped/hit-wicket exception on wides.
func (d Dismissal) AllowedOn(extra Extra) bool {
	switch extra {
	case ExtraNoBall:
		return d == DismissalRunOut || d == DismissalObstructing || d == DismissalRetired
	case ExtraWide:
		switch d {
		case DismissalRunOut, DismissalStumped, DismissalHitWicket, DismissalObstructing, DismissalRetired:
			return true
		}
		return false
	default:
		return true
	}
}

// =============================================================================
// DELIVERY - One ball bowled, the ledger's only record type
// =============================================================================

// Delivery records one legal-or-illegal ball. Over, BallInOver and Inning
// are ordering metadata assigned by the reducer at fold time; values
// submitted by the caller are overwritten, never trusted.
type Delivery struct {
	ID DeliveryID

	// Assigned at fold time. Over is zero-based.
	Inning     int
	Over       int
	BallInOver int

	Striker    PlayerID
	NonStriker PlayerID
	Bowler     PlayerID

	RunsOffBat int
	Extra      Extra
	ExtraRuns  int

	IsWicket        bool
	Dismissal       Dismissal // set only when IsWicket
	DismissedPlayer PlayerID
	Fielder         PlayerID

	// MidOverChange marks an explicit bowler change within an over
	// (injury etc). Recording it on the delivery itself makes the
	// adjacent-over restriction replay deterministically.
	MidOverChange bool

	// Commentary carries no semantic weight.
	Commentary string

	// At is audit-only. It never influences the fold.
	At time.Time
}

// RunsScored is the team total attributed to this delivery. It is always
// derived; there is no independently stored field that can drift.
func (d Delivery) RunsScored() int {
	return d.RunsOffBat + d.ExtraRuns
}

// IsLegal reports whether this delivery counts toward the over.
func (d Delivery) IsLegal() bool {
	return d.Extra.Legal()
}

// CountsAsBallFaced reports whether the striker faced this ball. Wides do
// not count as a ball faced; no-balls do.
func (d Delivery) CountsAsBallFaced() bool {
	return d.Extra != ExtraWide
}

// runsPhysicallyRun is the number of times the batters crossed, which is
// what decides the odd/even strike swap. The one-run wide/no-ball penalty
// is awarded without running and is excluded.
func (d Delivery) runsPhysicallyRun() int {
	switch d.Extra {
	case ExtraNone:
		return d.RunsOffBat
	case ExtraBye, ExtraLegBye:
		return d.ExtraRuns
	case ExtraWide, ExtraNoBall:
		return d.RunsOffBat + d.ExtraRuns - 1
	}
	return 0
}

// =============================================================================
// DELIVERY EDIT - Partial update used by the correction engine
// =============================================================================

// DeliveryEdit is a partial edit applied to one delivery by id. Nil fields
// are left unchanged. Ordering metadata is not editable - it is reassigned
// by the replay fold.
type DeliveryEdit struct {
	Striker         *PlayerID
	NonStriker      *PlayerID
	Bowler          *PlayerID
	RunsOffBat      *int
	Extra           *Extra
	ExtraRuns       *int
	IsWicket        *bool
	Dismissal       *Dismissal
	DismissedPlayer *PlayerID
	Fielder         *PlayerID
	MidOverChange   *bool
	Commentary      *string
}

// apply returns a copy of d with the non-nil edit fields replaced.
func (e DeliveryEdit) apply(d Delivery) Delivery {
	if e.Striker != nil {
		d.Striker = *e.Striker
	}
	if e.NonStriker != nil {
		d.NonStriker = *e.NonStriker
	}
	if e.Bowler != nil {
		d.Bowler = *e.Bowler
	}
	if e.RunsOffBat != nil {
		d.RunsOffBat = *e.RunsOffBat
	}
	if e.Extra != nil {
		d.Extra = *e.Extra
	}
	if e.ExtraRuns != nil {
		d.ExtraRuns = *e.ExtraRuns
	}
	if e.IsWicket != nil {
		d.IsWicket = *e.IsWicket
	}
	if e.Dismissal != nil {
		d.Dismissal = *e.Dismissal
	}
	if e.DismissedPlayer != nil {
		d.DismissedPlayer = *e.DismissedPlayer
	}
	if e.Fielder != nil {
		d.Fielder = *e.Fielder
	}
	if e.MidOverChange != nil {
		d.MidOverChange = *e.MidOverChange
	}
	if e.Commentary != nil {
		d.Commentary = *e.Commentary
	}
	return d
}

// =============================================================================
// MATCH CONFIGURATION - Immutable setup, part of every fold's input
// =============================================================================

type Player struct {
	ID   PlayerID
	Name string
}

type Team struct {
	ID      TeamID
	Name    string
	Players []Player
}

// HasPlayer reports whether the team lists the given player.
func (t Team) HasPlayer(id PlayerID) bool {
	for _, p := range t.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

type TossDecision string

const (
	TossBat  TossDecision = "bat"
	TossBowl TossDecision = "bowl"
)

// MatchConfig is the initial configuration a fold runs against. The
// Revised* fields are opaque inputs from the interruption/DLS collaborator;
// keeping them here keeps the fold a pure function of (config, ledger).
type MatchConfig struct {
	MatchID string
	Home    Team
	Away    Team

	// OversLimit is per innings. Zero means unlimited.
	OversLimit int

	TossWinner   TeamID
	TossDecision TossDecision

	// Supplied externally for rain-affected matches. The engine performs
	// no Duckworth-Lewis computation itself.
	RevisedTarget     *int
	RevisedOversLimit *int
}

// EffectiveOversLimit returns the overs limit after any external revision.
func (c MatchConfig) EffectiveOversLimit() int {
	if c.RevisedOversLimit != nil {
		return *c.RevisedOversLimit
	}
	return c.OversLimit
}

// BattingFirst returns the team batting in the first innings.
func (c MatchConfig) BattingFirst() Team {
	winnerBats := c.TossDecision != TossBowl
	if (c.TossWinner == c.Home.ID) == winnerBats {
		return c.Home
	}
	return c.Away
}

// BattingTeam returns the team batting in the given (1-based) innings.
func (c MatchConfig) BattingTeam(inning int) Team {
	first := c.BattingFirst()
	if inning%2 == 1 {
		return first
	}
	if first.ID == c.Home.ID {
		return c.Away
	}
	return c.Home
}

// WicketsToAllOut returns the wicket count that ends the given innings.
// With no squad listed, the conventional eleven-a-side value applies.
func (c MatchConfig) WicketsToAllOut(inning int) int {
	team := c.BattingTeam(inning)
	if len(team.Players) == 0 {
		return 10
	}
	return len(team.Players) - 1
}

// =============================================================================
// MATCH STATE - Pure fold output, never hand-edited
// =============================================================================

type MatchStatus string

const (
	StatusNotStarted   MatchStatus = "not-started"
	StatusInProgress   MatchStatus = "in-progress"
	StatusInningsBreak MatchStatus = "innings-break"
	StatusCompleted    MatchStatus = "completed"
)

// BattingEntry is one row of the batting scorecard.
type BattingEntry struct {
	Runs      int
	Balls     int
	Fours     int
	Sixes     int
	Out       bool
	Dismissal string // display summary, e.g. "c fielder b bowler"
}

// BowlingEntry is one row of the bowling scorecard.
type BowlingEntry struct {
	LegalBalls int
	Conceded   int
	Wickets    int
	Maidens    int
}

// InningsSummary freezes a completed innings. The first innings' summary is
// the chase context for the second.
type InningsSummary struct {
	Inning       int
	BattingTeam  TeamID
	Runs         int
	Wickets      int
	LegalBalls   int
	BattingOrder []PlayerID
	Batting      map[PlayerID]BattingEntry
	BowlingOrder []PlayerID
	Bowling      map[PlayerID]BowlingEntry
}

// MatchState is the derived state of a match: a pure fold over the ledger
// plus the initial configuration. Totals and scorecards cover the current
// innings; completed innings live in Completed summaries.
type MatchState struct {
	Inning int
	Status MatchStatus

	TotalRuns    int
	TotalWickets int

	// LegalBalls is the source of truth for overs in the current innings.
	// Overs/balls-this-over are display views of it, never stored.
	LegalBalls int

	Striker    PlayerID
	NonStriker PlayerID
	Bowler     PlayerID

	// Target is the chase target for the current innings, nil in the
	// first. Externally revised targets flow in via MatchConfig.
	Target *int

	// NeedsNewBatter is raised after a wicket: the next delivery must name
	// the incoming batter. The reducer never guesses.
	NeedsNewBatter bool

	// NeedsNewOver is raised at over end: the next delivery names the new
	// over's bowler, subject to the adjacent-over restriction.
	NeedsNewOver bool

	// LastOverBowler bowled the final ball of the previous over.
	LastOverBowler PlayerID

	// PrevOverHadChange records that the previous over contained an
	// explicit mid-over bowler change, which waives the adjacent-over
	// restriction for the bowler who finished it.
	PrevOverHadChange bool

	// Scorecards for the current innings. Order slices record first
	// appearance; maps hold the rows.
	BattingOrder []PlayerID
	Batting      map[PlayerID]BattingEntry
	BowlingOrder []PlayerID
	Bowling      map[PlayerID]BowlingEntry

	Completed []InningsSummary

	// Per-over fold accumulators (maiden detection, restriction waiver).
	overConceded  int
	overHadChange bool
}

// OversCompleted returns whole overs bowled this innings.
func (s MatchState) OversCompleted() int { return s.LegalBalls / 6 }

// BallsThisOver returns legal balls bowled in the over in progress.
func (s MatchState) BallsThisOver() int { return s.LegalBalls % 6 }

// FirstInnings returns the first-innings summary once published.
func (s MatchState) FirstInnings() *InningsSummary {
	for i := range s.Completed {
		if s.Completed[i].Inning == 1 {
			return &s.Completed[i]
		}
	}
	return nil
}

// clone deep-copies the state so that Apply never aliases a caller's maps.
func (s MatchState) clone() MatchState {
	out := s
	out.Batting = make(map[PlayerID]BattingEntry, len(s.Batting))
	for k, v := range s.Batting {
		out.Batting[k] = v
	}
	out.Bowling = make(map[PlayerID]BowlingEntry, len(s.Bowling))
	for k, v := range s.Bowling {
		out.Bowling[k] = v
	}
	out.BattingOrder = append([]PlayerID(nil), s.BattingOrder...)
	out.BowlingOrder = append([]PlayerID(nil), s.BowlingOrder...)
	out.Completed = append([]InningsSummary(nil), s.Completed...)
	if s.Target != nil {
		t := *s.Target
		out.Target = &t
	}
	return out
}
