/*
Package sqlite provides a SQLite-backed implementation of match.LedgerStore.

PURPOSE:
  Durable persistence for match configs and their delivery ledgers. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

STORAGE MODEL:
  The ledger is stored as ordered rows, one per delivery, and rewritten
  as a whole inside a transaction on every save. A correction changes
  one delivery and shifts the fold-time metadata of everything after it,
  so replace-all is the only write shape that cannot leave a torn
  ledger: a committed ledger is visible to subsequent folds exactly
  once, in full, or not at all.

KEY TABLES:
  matches:     Match id + config document
  deliveries:  Ordered delivery rows, (match_id, seq) primary key

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/matches.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - match/store.go: Interface definition
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/cricket-engine/match"
	"github.com/warp/cricket-engine/scoring"
)

// Store implements match.LedgerStore using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deliveries (
		match_id TEXT NOT NULL REFERENCES matches(id),
		seq INTEGER NOT NULL,
		id TEXT NOT NULL,
		inning INTEGER NOT NULL,
		over_number INTEGER NOT NULL,
		ball_in_over INTEGER NOT NULL,
		striker TEXT NOT NULL,
		non_striker TEXT NOT NULL,
		bowler TEXT NOT NULL,
		runs_off_bat INTEGER NOT NULL,
		extra TEXT NOT NULL,
		extra_runs INTEGER NOT NULL,
		is_wicket INTEGER NOT NULL,
		dismissal TEXT,
		dismissed_player TEXT,
		fielder TEXT,
		mid_over_change INTEGER NOT NULL,
		commentary TEXT,
		at TEXT NOT NULL,
		PRIMARY KEY (match_id, seq)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_deliveries_match_delivery
		ON deliveries(match_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER STORE IMPLEMENTATION
// =============================================================================

// SaveMatch rewrites the match's ledger atomically inside a transaction.
func (s *Store) SaveMatch(ctx context.Context, rec match.MatchRecord) error {
	configJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO matches (id, config_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET config_json = excluded.config_json,
			updated_at = excluded.updated_at`,
		rec.Config.MatchID, string(configJSON), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM deliveries WHERE match_id = ?`, rec.Config.MatchID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO deliveries (
			match_id, seq, id, inning, over_number, ball_in_over,
			striker, non_striker, bowler, runs_off_bat, extra, extra_runs,
			is_wicket, dismissal, dismissed_player, fielder,
			mid_over_change, commentary, at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for seq, d := range rec.Ledger.Deliveries() {
		_, err := stmt.ExecContext(ctx,
			rec.Config.MatchID, seq, string(d.ID), d.Inning, d.Over, d.BallInOver,
			string(d.Striker), string(d.NonStriker), string(d.Bowler),
			d.RunsOffBat, string(d.Extra), d.ExtraRuns,
			boolToInt(d.IsWicket), string(d.Dismissal), string(d.DismissedPlayer), string(d.Fielder),
			boolToInt(d.MidOverChange), d.Commentary, d.At.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert delivery %d: %w", seq, err)
		}
	}

	return tx.Commit()
}

// LoadMatch returns the stored record unchanged.
func (s *Store) LoadMatch(ctx context.Context, matchID string) (match.MatchRecord, error) {
	var configJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM matches WHERE id = ?`, matchID).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return match.MatchRecord{}, match.ErrMatchNotFound
	}
	if err != nil {
		return match.MatchRecord{}, err
	}

	var cfg scoring.MatchConfig
	if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
		return match.MatchRecord{}, fmt.Errorf("unmarshal config: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, inning, over_number, ball_in_over,
			striker, non_striker, bowler, runs_off_bat, extra, extra_runs,
			is_wicket, dismissal, dismissed_player, fielder,
			mid_over_change, commentary, at
		FROM deliveries WHERE match_id = ? ORDER BY seq ASC`, matchID)
	if err != nil {
		return match.MatchRecord{}, err
	}
	defer rows.Close()

	var deliveries []scoring.Delivery
	for rows.Next() {
		var (
			d                                    scoring.Delivery
			id, striker, nonStriker, bowler      string
			extra, dismissal, dismissed, fielder string
			isWicket, midOverChange              int
			at                                   string
		)
		err := rows.Scan(&id, &d.Inning, &d.Over, &d.BallInOver,
			&striker, &nonStriker, &bowler, &d.RunsOffBat, &extra, &d.ExtraRuns,
			&isWicket, &dismissal, &dismissed, &fielder,
			&midOverChange, &d.Commentary, &at)
		if err != nil {
			return match.MatchRecord{}, err
		}
		d.ID = scoring.DeliveryID(id)
		d.Striker = scoring.PlayerID(striker)
		d.NonStriker = scoring.PlayerID(nonStriker)
		d.Bowler = scoring.PlayerID(bowler)
		d.Extra = scoring.Extra(extra)
		d.Dismissal = scoring.Dismissal(dismissal)
		d.DismissedPlayer = scoring.PlayerID(dismissed)
		d.Fielder = scoring.PlayerID(fielder)
		d.IsWicket = isWicket != 0
		d.MidOverChange = midOverChange != 0
		d.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return match.MatchRecord{}, fmt.Errorf("parse delivery timestamp: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return match.MatchRecord{}, err
	}

	ledger, err := scoring.NewLedger(deliveries)
	if err != nil {
		return match.MatchRecord{}, fmt.Errorf("stored ledger invalid: %w", err)
	}
	return match.MatchRecord{Config: cfg, Ledger: ledger}, nil
}

// ListMatchIDs returns the ids of all stored matches.
func (s *Store) ListMatchIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM matches ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
