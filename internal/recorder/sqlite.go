package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists fetched series and regime runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS series_points (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			recorded   INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			field      TEXT NOT NULL,
			period     TEXT,
			interval   TEXT,
			ts         INTEGER NOT NULL,
			value      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_series_symbol_ts ON series_points(symbol, field, ts)`,

		`CREATE TABLE IF NOT EXISTS regime_runs (
			run_id          TEXT PRIMARY KEY,
			recorded        INTEGER NOT NULL,
			ticks           TEXT NOT NULL,
			states          INTEGER,
			covariance_type TEXT,
			iterations      INTEGER,
			converged       INTEGER,
			log_likelihood  REAL
		)`,

		`CREATE TABLE IF NOT EXISTS regime_states (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL,
			ts      INTEGER NOT NULL,
			state   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_regime_states_run ON regime_states(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSeries(snap *SeriesSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO series_points
		(run_id, recorded, symbol, field, period, interval, ts, value)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	s := snap.Series
	for i, ts := range s.Index {
		var v interface{}
		if !math.IsNaN(s.Values[i]) {
			v = s.Values[i]
		}
		if _, err := stmt.Exec(snap.RunID, now, snap.Symbol, snap.Field,
			string(snap.Period), string(snap.Interval), ts.Unix(), v); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s point %d: %w", snap.Symbol, i, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordRegimeRun(run *RegimeRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(run.Index) != len(run.Path) {
		return fmt.Errorf("regime run %s: %d timestamps for %d states", run.RunID, len(run.Index), len(run.Path))
	}
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	converged := 0
	if run.Converged {
		converged = 1
	}
	if _, err := tx.Exec(`INSERT INTO regime_runs
		(run_id, recorded, ticks, states, covariance_type, iterations, converged, log_likelihood)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.RunID, time.Now().Unix(), strings.Join(run.Ticks, ","), run.States,
		run.CovarianceType, run.Iterations, converged, run.LogLikelihood,
	); err != nil {
		tx.Rollback()
		return err
	}
	for i, ts := range run.Index {
		if _, err := tx.Exec(`INSERT INTO regime_states (run_id, ts, state) VALUES (?,?,?)`,
			run.RunID, ts.Unix(), run.Path[i]); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LastRegime returns the final decoded state of the most recent run for ticks.
func (r *SQLiteRecorder) LastRegime(ticks []string) (state int, found bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.db.QueryRow(`SELECT s.state FROM regime_states s
		JOIN regime_runs r ON r.run_id = s.run_id
		WHERE r.ticks = ?
		ORDER BY r.recorded DESC, s.ts DESC, s.id DESC LIMIT 1`, strings.Join(ticks, ","))
	if err := row.Scan(&state); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return state, true, nil
}

// CountPoints returns how many points are stored for a symbol and field.
func (r *SQLiteRecorder) CountPoints(symbol, field string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM series_points WHERE symbol = ? AND field = ?`, symbol, field).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
