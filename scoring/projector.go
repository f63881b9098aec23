/*
projector.go - Snapshot projector

PURPOSE:
  Projects (config, state, ledger) into the single consumer-facing view:
  run rates, scorecards, extras breakdown, phase breakdown, recent balls.
  Pure and read-only - nothing flows back into state.

SINGLE POINT OF TRUTH:
  No other component, and no external consumer, recomputes any of these
  figures from raw deliveries. Divergent client-side recalculation is a
  documented source of visible drift; every subscriber and every
  reconnect fallback sees figures produced by this one path.

DRIFT AVOIDANCE:
  The extras breakdown is summed from the ledger on every projection,
  never kept as a side counter - a correction that changes a wide into a
  fair ball must change the wides total with no counter to forget.

PRECISION:
  Run rates use decimal arithmetic (two places, half-up) so that pushed
  and polled snapshots agree byte for byte. Division by zero is
  structurally impossible: no legal balls means rate zero, and the
  required-rate denominator is floored at one ball.

SEE ALSO:
  - reducer.go: Produces the MatchState being projected
*/
package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SNAPSHOT - The externally consumed view
// =============================================================================

type Snapshot struct {
	MatchID string      `json:"match_id"`
	Status  MatchStatus `json:"status"`
	Inning  int         `json:"inning"`

	BattingTeam TeamID `json:"batting_team,omitempty"`
	BowlingTeam TeamID `json:"bowling_team,omitempty"`

	TotalRuns    int    `json:"total_runs"`
	TotalWickets int    `json:"total_wickets"`
	LegalBalls   int    `json:"legal_balls"`
	Overs        string `json:"overs"` // display view, e.g. "12.4"

	CurrentRunRate  decimal.Decimal  `json:"current_run_rate"`
	RequiredRunRate *decimal.Decimal `json:"required_run_rate,omitempty"`
	Target          *int             `json:"target,omitempty"`
	BallsRemaining  *int             `json:"balls_remaining,omitempty"`

	Striker    PlayerID `json:"striker,omitempty"`
	NonStriker PlayerID `json:"non_striker,omitempty"`
	Bowler     PlayerID `json:"bowler,omitempty"`

	NeedsNewBatter bool `json:"needs_new_batter"`
	NeedsNewOver   bool `json:"needs_new_over"`

	Extras  ExtrasBreakdown  `json:"extras"`
	Batting []BattingCardRow `json:"batting"`
	Bowling []BowlingCardRow `json:"bowling"`
	Phases  []PhaseBucket    `json:"phases"`

	CompletedInnings []InningsSummaryView `json:"completed_innings,omitempty"`
	RecentDeliveries []RecentDelivery     `json:"recent_deliveries,omitempty"`
}

// ExtrasBreakdown is run totals per extra kind, summed from the ledger.
type ExtrasBreakdown struct {
	Wides   int `json:"wides"`
	NoBalls int `json:"no_balls"`
	Byes    int `json:"byes"`
	LegByes int `json:"leg_byes"`
	Total   int `json:"total"`
}

type BattingCardRow struct {
	PlayerID  PlayerID `json:"player_id"`
	Name      string   `json:"name"`
	Runs      int      `json:"runs"`
	Balls     int      `json:"balls"`
	Fours     int      `json:"fours"`
	Sixes     int      `json:"sixes"`
	Out       bool     `json:"out"`
	Dismissal string   `json:"dismissal,omitempty"`
}

type BowlingCardRow struct {
	PlayerID PlayerID `json:"player_id"`
	Name     string   `json:"name"`
	Overs    string   `json:"overs"`
	Conceded int      `json:"conceded"`
	Wickets  int      `json:"wickets"`
	Maidens  int      `json:"maidens"`
}

// PhaseBucket groups the current innings' deliveries by over number at
// projection time. Phases are never stored on MatchState.
type PhaseBucket struct {
	Phase     string `json:"phase"` // powerplay | middle | death
	FromOver  int    `json:"from_over"`
	ToOver    int    `json:"to_over"`
	Runs      int    `json:"runs"`
	Wickets   int    `json:"wickets"`
	LegalBall int    `json:"legal_balls"`
}

type InningsSummaryView struct {
	Inning      int    `json:"inning"`
	BattingTeam TeamID `json:"batting_team"`
	Runs        int    `json:"runs"`
	Wickets     int    `json:"wickets"`
	Overs       string `json:"overs"`
}

type RecentDelivery struct {
	ID         DeliveryID `json:"id"`
	Over       int        `json:"over"`
	BallInOver int        `json:"ball_in_over"`
	Summary    string     `json:"summary"`
	Commentary string     `json:"commentary,omitempty"`
}

// recentWindow is how many trailing deliveries a snapshot carries.
const recentWindow = 12

// =============================================================================
// PROJECT - Pure derivation, no mutation back into state
// =============================================================================

// Project derives the consumer-facing snapshot. It never mutates state or
// ledger and has no side effects.
func Project(cfg MatchConfig, st MatchState, l Ledger) Snapshot {
	snap := Snapshot{
		MatchID:        cfg.MatchID,
		Status:         st.Status,
		Inning:         st.Inning,
		TotalRuns:      st.TotalRuns,
		TotalWickets:   st.TotalWickets,
		LegalBalls:     st.LegalBalls,
		Overs:          oversDisplay(st.LegalBalls),
		CurrentRunRate: runRate(st.TotalRuns, st.LegalBalls),
		Striker:        st.Striker,
		NonStriker:     st.NonStriker,
		Bowler:         st.Bowler,
		NeedsNewBatter: st.NeedsNewBatter,
		NeedsNewOver:   st.NeedsNewOver,
	}

	if st.Inning > 0 {
		snap.BattingTeam = cfg.BattingTeam(st.Inning).ID
		snap.BowlingTeam = cfg.BattingTeam(st.Inning + 1).ID
	}

	if st.Target != nil {
		target := *st.Target
		snap.Target = &target
		if lim := cfg.EffectiveOversLimit(); lim > 0 {
			remaining := lim*6 - st.LegalBalls
			if remaining < 0 {
				remaining = 0
			}
			snap.BallsRemaining = &remaining
			rrr := requiredRunRate(target, st.TotalRuns, remaining)
			snap.RequiredRunRate = &rrr
		}
	}

	snap.Extras = sumExtras(st.Inning, l)
	snap.Batting = battingCard(cfg, st)
	snap.Bowling = bowlingCard(cfg, st)
	snap.Phases = phaseBreakdown(cfg, st.Inning, l)
	snap.CompletedInnings = completedViews(st)
	snap.RecentDeliveries = recentDeliveries(cfg, l)

	return snap
}

// =============================================================================
// RATES AND DISPLAYS
// =============================================================================

// runRate is total_runs / legal_balls * 6, zero when no legal ball has
// been bowled. Never a client-side fallback.
func runRate(runs, legalBalls int) decimal.Decimal {
	if legalBalls == 0 {
		return decimal.Zero.Round(2)
	}
	return decimal.NewFromInt(int64(runs * 6)).
		Div(decimal.NewFromInt(int64(legalBalls))).
		Round(2)
}

// requiredRunRate is runs-still-needed per remaining over, with the
// denominator floored at one ball so the figure stays finite and
// meaningful inside the final over.
func requiredRunRate(target, runs, ballsRemaining int) decimal.Decimal {
	needed := target - runs
	if needed < 0 {
		needed = 0
	}
	if ballsRemaining < 1 {
		ballsRemaining = 1
	}
	return decimal.NewFromInt(int64(needed * 6)).
		Div(decimal.NewFromInt(int64(ballsRemaining))).
		Round(2)
}

func oversDisplay(legalBalls int) string {
	return fmt.Sprintf("%d.%d", legalBalls/6, legalBalls%6)
}

// =============================================================================
// LEDGER SUMMATIONS
// =============================================================================

// sumExtras recomputes the extras breakdown for the given innings by
// summing the ledger. No side counter exists to drift.
func sumExtras(inning int, l Ledger) ExtrasBreakdown {
	var b ExtrasBreakdown
	for _, d := range l.deliveries {
		if d.Inning != inning {
			continue
		}
		switch d.Extra {
		case ExtraWide:
			b.Wides += d.ExtraRuns
		case ExtraNoBall:
			b.NoBalls += d.ExtraRuns
		case ExtraBye:
			b.Byes += d.ExtraRuns
		case ExtraLegBye:
			b.LegByes += d.ExtraRuns
		case ExtraNone:
			// nothing
		}
	}
	b.Total = b.Wides + b.NoBalls + b.Byes + b.LegByes
	return b
}

// phaseBreakdown buckets the current innings by over number at projection
// time: powerplay (first 6 overs), death (final 5), middle (the rest).
// Short formats degrade gracefully to fewer buckets.
func phaseBreakdown(cfg MatchConfig, inning int, l Ledger) []PhaseBucket {
	lim := cfg.EffectiveOversLimit()

	powerplayEnd := 6 // first over after the powerplay, zero-based
	if lim > 0 && lim < 6 {
		powerplayEnd = lim
	}
	deathStart := -1
	if lim >= 12 {
		deathStart = lim - 5
	} else if lim > 0 {
		deathStart = lim
	}

	buckets := []PhaseBucket{
		{Phase: "powerplay", FromOver: 0, ToOver: powerplayEnd - 1},
	}
	if deathStart < 0 {
		buckets = append(buckets, PhaseBucket{Phase: "middle", FromOver: powerplayEnd, ToOver: -1})
	} else {
		if deathStart > powerplayEnd {
			buckets = append(buckets, PhaseBucket{Phase: "middle", FromOver: powerplayEnd, ToOver: deathStart - 1})
		}
		if lim > deathStart {
			buckets = append(buckets, PhaseBucket{Phase: "death", FromOver: deathStart, ToOver: lim - 1})
		}
	}

	for _, d := range l.deliveries {
		if d.Inning != inning {
			continue
		}
		for i := range buckets {
			if d.Over < buckets[i].FromOver {
				continue
			}
			if buckets[i].ToOver >= 0 && d.Over > buckets[i].ToOver {
				continue
			}
			buckets[i].Runs += d.RunsScored()
			if d.IsWicket {
				buckets[i].Wickets++
			}
			if d.IsLegal() {
				buckets[i].LegalBall++
			}
			break
		}
	}
	return buckets
}

func recentDeliveries(cfg MatchConfig, l Ledger) []RecentDelivery {
	start := len(l.deliveries) - recentWindow
	if start < 0 {
		start = 0
	}
	out := make([]RecentDelivery, 0, len(l.deliveries)-start)
	for _, d := range l.deliveries[start:] {
		out = append(out, RecentDelivery{
			ID:         d.ID,
			Over:       d.Over,
			BallInOver: d.BallInOver,
			Summary:    deliverySummary(cfg, d),
			Commentary: d.Commentary,
		})
	}
	return out
}

// deliverySummary is a terse human line, e.g. "w: 1 wide" or "4 runs".
func deliverySummary(cfg MatchConfig, d Delivery) string {
	var s string
	switch d.Extra {
	case ExtraNone:
		s = fmt.Sprintf("%d off the bat", d.RunsOffBat)
	case ExtraWide:
		s = fmt.Sprintf("%d wide", d.ExtraRuns)
	case ExtraNoBall:
		s = fmt.Sprintf("no-ball, %d total", d.RunsScored())
	case ExtraBye:
		s = fmt.Sprintf("%d bye", d.ExtraRuns)
	case ExtraLegBye:
		s = fmt.Sprintf("%d leg-bye", d.ExtraRuns)
	}
	if d.IsWicket {
		s += ", WICKET " + playerName(cfg, d.DismissedPlayer) + " " + dismissalSummary(cfg, d)
	}
	return s
}

// =============================================================================
// SCORECARD VIEWS
// =============================================================================

func battingCard(cfg MatchConfig, st MatchState) []BattingCardRow {
	rows := make([]BattingCardRow, 0, len(st.BattingOrder))
	for _, id := range st.BattingOrder {
		e := st.Batting[id]
		rows = append(rows, BattingCardRow{
			PlayerID:  id,
			Name:      playerName(cfg, id),
			Runs:      e.Runs,
			Balls:     e.Balls,
			Fours:     e.Fours,
			Sixes:     e.Sixes,
			Out:       e.Out,
			Dismissal: e.Dismissal,
		})
	}
	return rows
}

func bowlingCard(cfg MatchConfig, st MatchState) []BowlingCardRow {
	rows := make([]BowlingCardRow, 0, len(st.BowlingOrder))
	for _, id := range st.BowlingOrder {
		e := st.Bowling[id]
		rows = append(rows, BowlingCardRow{
			PlayerID: id,
			Name:     playerName(cfg, id),
			Overs:    oversDisplay(e.LegalBalls),
			Conceded: e.Conceded,
			Wickets:  e.Wickets,
			Maidens:  e.Maidens,
		})
	}
	return rows
}

func completedViews(st MatchState) []InningsSummaryView {
	views := make([]InningsSummaryView, 0, len(st.Completed))
	for _, s := range st.Completed {
		views = append(views, InningsSummaryView{
			Inning:      s.Inning,
			BattingTeam: s.BattingTeam,
			Runs:        s.Runs,
			Wickets:     s.Wickets,
			Overs:       oversDisplay(s.LegalBalls),
		})
	}
	return views
}
