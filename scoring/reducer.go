/*
reducer.go - Deterministic scoring reducer

PURPOSE:
  The reducer is a pure function: fold(config, ordered deliveries) ->
  MatchState. Same input always yields the same output; there is no hidden
  clock, no randomness, no ambient state. Every derived figure in the
  system is recomputed through this fold.

WHY A FULL FOLD:
  Cricket's over and strike-rotation rules are history-dependent. An edit
  to ball 3 can change who is on strike for every later ball, where each
  over ends, and whether a later over-end swap happened at all.
  Incrementally patching running totals is exactly the bug class this
  design exists to kill, so corrections always replay from scratch.

FOLD-TIME AUTHORITY:
  The reducer, not the caller, decides:
  - ordering metadata (innings, over number, ball-in-over)
  - who is on strike (recorded batters are adopted at innings start and
    after a wicket; from then on the tracked crease is authoritative)
  - whether a delivery is legal in context (right bowler, innings open)
  A context-illegal delivery fails the fold with a SequenceViolation; it
  is never skipped and never "defaulted" into the totals.

RULE SUMMARY:
  Legality    none/bye/leg-bye count toward the over; wide/no-ball do not
  Ball faced  legal or no-ball; a wide is never a ball faced
  Rotation    odd physically-run runs swap the batters; the 6th legal
              ball of an over swaps them again
  Wickets     clear the matching crease slot, raise NeedsNewBatter
  Overs       at 6 legal balls: maiden check, NeedsNewOver, and the
              adjacent-over restriction for the next bowler

SEE ALSO:
  - ledger.go: Per-delivery validation (context-free)
  - correction.go: Replays this fold over an edited ledger
*/
package scoring

// maxInnings is fixed for the limited-overs format this engine scores.
const maxInnings = 2

// =============================================================================
// FOLD ENTRY POINTS
// =============================================================================

// InitialState returns the state of a match with an empty ledger.
func InitialState() MatchState {
	return MatchState{
		Status:  StatusNotStarted,
		Batting: map[PlayerID]BattingEntry{},
		Bowling: map[PlayerID]BowlingEntry{},
	}
}

// Fold folds the entire ledger left-to-right from the initial state. It
// returns the resulting state and the ledger with reducer-assigned ordering
// metadata on every entry.
func Fold(cfg MatchConfig, l Ledger) (MatchState, Ledger, error) {
	st := InitialState()
	annotated := make([]Delivery, 0, l.Len())
	for _, d := range l.deliveries {
		var (
			ann Delivery
			err error
		)
		st, ann, err = Apply(cfg, st, d)
		if err != nil {
			return MatchState{}, Ledger{}, err
		}
		annotated = append(annotated, ann)
	}
	return st, l.withOrdering(annotated), nil
}

// Accept is the reducer's accept path for a live match: validate the raw
// delivery, append it, and apply it incrementally. On any failure the
// original ledger and state are unchanged.
func Accept(cfg MatchConfig, st MatchState, l Ledger, raw Delivery) (Ledger, MatchState, Delivery, error) {
	next, accepted, err := l.Append(raw)
	if err != nil {
		return l, st, Delivery{}, err
	}
	newState, annotated, err := Apply(cfg, st, accepted)
	if err != nil {
		return l, st, Delivery{}, err
	}
	next.deliveries[len(next.deliveries)-1] = annotated
	return next, newState, annotated, nil
}

// =============================================================================
// APPLY - One fold step
// =============================================================================

// Apply folds a single table-valid delivery into the state. It returns the
// new state and the delivery annotated with its fold-time ordering
// metadata. The input state is never modified.
func Apply(cfg MatchConfig, st MatchState, d Delivery) (MatchState, Delivery, error) {
	st = st.clone()

	switch st.Status {
	case StatusCompleted:
		return st, d, &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
			Reason: "match already completed"}
	case StatusNotStarted:
		startInnings(&st, cfg, 1)
	case StatusInningsBreak:
		startInnings(&st, cfg, st.Inning+1)
	}

	if err := resolveBatters(cfg, &st, d); err != nil {
		return st, d, err
	}
	if err := resolveBowler(cfg, &st, d); err != nil {
		return st, d, err
	}

	// Ordering metadata is assigned here, not trusted from input.
	d.Inning = st.Inning
	d.Over = st.LegalBalls / 6
	d.BallInOver = st.BallsThisOver() + 1

	scoreRuns(&st, d)

	if d.IsWicket {
		if err := applyWicket(cfg, &st, d); err != nil {
			return st, d, err
		}
	}

	rotateStrikeAndCloseOver(&st, d)
	closeInningsIfDone(cfg, &st)

	return st, d, nil
}

// =============================================================================
// FOLD STEPS
// =============================================================================

func startInnings(st *MatchState, cfg MatchConfig, inning int) {
	st.Inning = inning
	st.Status = StatusInProgress
	st.TotalRuns = 0
	st.TotalWickets = 0
	st.LegalBalls = 0
	st.Striker, st.NonStriker, st.Bowler = "", "", ""
	st.LastOverBowler = ""
	st.PrevOverHadChange = false
	st.NeedsNewBatter = false
	st.NeedsNewOver = false
	st.overConceded = 0
	st.overHadChange = false
	st.BattingOrder = nil
	st.Batting = map[PlayerID]BattingEntry{}
	st.BowlingOrder = nil
	st.Bowling = map[PlayerID]BowlingEntry{}
	st.Target = nil

	if inning >= 2 {
		if cfg.RevisedTarget != nil {
			t := *cfg.RevisedTarget
			st.Target = &t
		} else if fi := st.FirstInnings(); fi != nil {
			t := fi.Runs + 1
			st.Target = &t
		}
	}
}

// resolveBatters reconciles the delivery's recorded batters with the
// reducer-tracked crease.
func resolveBatters(cfg MatchConfig, st *MatchState, d Delivery) error {
	batting := cfg.BattingTeam(st.Inning)

	switch {
	case st.Striker == "" && st.NonStriker == "":
		// Innings start: the first delivery names the openers.
		for _, id := range []PlayerID{d.Striker, d.NonStriker} {
			if len(batting.Players) > 0 && !batting.HasPlayer(id) {
				return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
					Reason: string(id) + " is not in the batting side"}
			}
		}
		st.Striker, st.NonStriker = d.Striker, d.NonStriker
		registerBatter(st, st.Striker)
		registerBatter(st, st.NonStriker)

	case st.NeedsNewBatter:
		survivor := st.Striker
		if survivor == "" {
			survivor = st.NonStriker
		}
		var newcomer PlayerID
		switch survivor {
		case d.Striker:
			newcomer = d.NonStriker
		case d.NonStriker:
			newcomer = d.Striker
		default:
			return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
				Reason: "delivery does not include the not-out batter " + string(survivor)}
		}
		if len(batting.Players) > 0 && !batting.HasPlayer(newcomer) {
			return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
				Reason: string(newcomer) + " is not in the batting side"}
		}
		if entry, seen := st.Batting[newcomer]; seen && entry.Out {
			return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
				Reason: string(newcomer) + " was already dismissed"}
		}
		// The operator decides which end the new batter takes.
		st.Striker, st.NonStriker = d.Striker, d.NonStriker
		st.NeedsNewBatter = false
		registerBatter(st, newcomer)

	default:
		// The tracked crease is authoritative. The recorded pair must
		// match it as a set; the arrangement may lag a rotation the
		// operator had not seen when submitting.
		sameSet := (d.Striker == st.Striker && d.NonStriker == st.NonStriker) ||
			(d.Striker == st.NonStriker && d.NonStriker == st.Striker)
		if !sameSet {
			return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
				Reason: "recorded batters do not match the crease"}
		}
	}
	return nil
}

// resolveBowler enforces the over/bowler discipline: one bowler per over,
// adjacent overs by different bowlers, mid-over changes only with the
// explicit override recorded on the delivery.
func resolveBowler(cfg MatchConfig, st *MatchState, d Delivery) error {
	bowling := cfg.BattingTeam(st.Inning + 1) // the other side

	if st.Bowler == "" {
		if len(bowling.Players) > 0 && !bowling.HasPlayer(d.Bowler) {
			return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
				Reason: string(d.Bowler) + " is not in the bowling side"}
		}
		if st.NeedsNewOver && d.Bowler == st.LastOverBowler && !st.PrevOverHadChange {
			return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
				Reason: string(d.Bowler) + " bowled the previous over"}
		}
		st.Bowler = d.Bowler
		st.NeedsNewOver = false
	} else if d.Bowler != st.Bowler {
		if !d.MidOverChange {
			return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
				Reason: "bowler changed mid-over without a recorded override"}
		}
		if len(bowling.Players) > 0 && !bowling.HasPlayer(d.Bowler) {
			return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
				Reason: string(d.Bowler) + " is not in the bowling side"}
		}
		st.Bowler = d.Bowler
		st.overHadChange = true
	}
	registerBowler(st, st.Bowler)
	return nil
}

// scoreRuns updates the team total and both scorecard rows.
func scoreRuns(st *MatchState, d Delivery) {
	st.TotalRuns += d.RunsScored()

	batter := st.Batting[st.Striker]
	batter.Runs += d.RunsOffBat
	if d.CountsAsBallFaced() {
		batter.Balls++
	}
	switch d.RunsOffBat {
	case 4:
		batter.Fours++
	case 6:
		batter.Sixes++
	}
	st.Batting[st.Striker] = batter

	bowler := st.Bowling[st.Bowler]
	conceded := concededRuns(d)
	bowler.Conceded += conceded
	if d.IsLegal() {
		bowler.LegalBalls++
	}
	st.Bowling[st.Bowler] = bowler
	st.overConceded += conceded
}

// concededRuns is what goes in the bowler's column: byes and leg-byes are
// the keeper's problem, wide and no-ball penalties are the bowler's.
func concededRuns(d Delivery) int {
	switch d.Extra {
	case ExtraBye, ExtraLegBye:
		return 0
	default:
		return d.RunsScored()
	}
}

func applyWicket(cfg MatchConfig, st *MatchState, d Delivery) error {
	switch d.DismissedPlayer {
	case st.Striker:
		st.Striker = ""
	case st.NonStriker:
		st.NonStriker = ""
	default:
		return &SequenceError{DeliveryID: d.ID, Inning: st.Inning,
			Reason: string(d.DismissedPlayer) + " is not at the crease"}
	}

	entry := st.Batting[d.DismissedPlayer]
	entry.Out = true
	entry.Dismissal = dismissalSummary(cfg, d)
	st.Batting[d.DismissedPlayer] = entry
	st.TotalWickets++

	if d.Dismissal.CreditedToBowler() {
		bowler := st.Bowling[st.Bowler]
		bowler.Wickets++
		st.Bowling[st.Bowler] = bowler
	}

	st.NeedsNewBatter = true
	return nil
}

// rotateStrikeAndCloseOver applies the odd/even swap and, on the 6th legal
// ball, the over-end swap. An odd run on the last ball therefore cancels
// the over-end swap. Swapping works through a vacated crease slot too: a
// run-out on an odd run leaves the vacancy at the other end.
func rotateStrikeAndCloseOver(st *MatchState, d Delivery) {
	if d.runsPhysicallyRun()%2 == 1 {
		st.Striker, st.NonStriker = st.NonStriker, st.Striker
	}

	if !d.IsLegal() {
		return
	}
	st.LegalBalls++
	if st.LegalBalls%6 != 0 {
		return
	}

	// Over complete.
	st.Striker, st.NonStriker = st.NonStriker, st.Striker

	finisher := st.Bowler
	if st.overConceded == 0 && !st.overHadChange {
		bowler := st.Bowling[finisher]
		bowler.Maidens++
		st.Bowling[finisher] = bowler
	}
	st.LastOverBowler = finisher
	st.PrevOverHadChange = st.overHadChange
	st.overHadChange = false
	st.overConceded = 0
	st.Bowler = ""
	st.NeedsNewOver = true
}

// closeInningsIfDone checks all-out, overs limit and target, and moves the
// match to innings-break or completed.
func closeInningsIfDone(cfg MatchConfig, st *MatchState) {
	ended := false
	if st.TotalWickets >= cfg.WicketsToAllOut(st.Inning) {
		ended = true
	}
	if lim := cfg.EffectiveOversLimit(); lim > 0 && st.LegalBalls >= lim*6 {
		ended = true
	}
	if st.Target != nil && st.TotalRuns >= *st.Target {
		ended = true
	}
	if !ended {
		return
	}

	st.Completed = append(st.Completed, summarizeInnings(cfg, *st))
	st.Striker, st.NonStriker, st.Bowler = "", "", ""
	st.NeedsNewBatter = false
	st.NeedsNewOver = false

	if st.Inning >= maxInnings {
		st.Status = StatusCompleted
	} else {
		st.Status = StatusInningsBreak
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func registerBatter(st *MatchState, id PlayerID) {
	if _, ok := st.Batting[id]; !ok {
		st.Batting[id] = BattingEntry{}
		st.BattingOrder = append(st.BattingOrder, id)
	}
}

func registerBowler(st *MatchState, id PlayerID) {
	if _, ok := st.Bowling[id]; !ok {
		st.Bowling[id] = BowlingEntry{}
		st.BowlingOrder = append(st.BowlingOrder, id)
	}
}

func summarizeInnings(cfg MatchConfig, st MatchState) InningsSummary {
	batting := make(map[PlayerID]BattingEntry, len(st.Batting))
	for k, v := range st.Batting {
		batting[k] = v
	}
	bowling := make(map[PlayerID]BowlingEntry, len(st.Bowling))
	for k, v := range st.Bowling {
		bowling[k] = v
	}
	return InningsSummary{
		Inning:       st.Inning,
		BattingTeam:  cfg.BattingTeam(st.Inning).ID,
		Runs:         st.TotalRuns,
		Wickets:      st.TotalWickets,
		LegalBalls:   st.LegalBalls,
		BattingOrder: append([]PlayerID(nil), st.BattingOrder...),
		Batting:      batting,
		BowlingOrder: append([]PlayerID(nil), st.BowlingOrder...),
		Bowling:      bowling,
	}
}

func dismissalSummary(cfg MatchConfig, d Delivery) string {
	bowler := playerName(cfg, d.Bowler)
	fielder := playerName(cfg, d.Fielder)
	switch d.Dismissal {
	case DismissalBowled:
		return "b " + bowler
	case DismissalCaught:
		return "c " + fielder + " b " + bowler
	case DismissalLBW:
		return "lbw b " + bowler
	case DismissalRunOut:
		if fielder != "" {
			return "run out (" + fielder + ")"
		}
		return "run out"
	case DismissalStumped:
		return "st " + fielder + " b " + bowler
	case DismissalHitWicket:
		return "hit wicket b " + bowler
	case DismissalObstructing:
		return "obstructing the field"
	case DismissalRetired:
		return "retired"
	}
	return string(d.Dismissal)
}

func playerName(cfg MatchConfig, id PlayerID) string {
	if id == "" {
		return ""
	}
	for _, t := range []Team{cfg.Home, cfg.Away} {
		for _, p := range t.Players {
			if p.ID == id && p.Name != "" {
				return p.Name
			}
		}
	}
	return string(id)
}
