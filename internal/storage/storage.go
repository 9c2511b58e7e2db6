// Package storage provides the SQLite-backed archive of scrape runs and the draws they collected.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/lottoracle/internal/models"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database for all archive operations.
type Storage struct {
	db      *sql.DB
	maxRuns int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/lottoracle/archive.db.
func New(maxRuns int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "lottoracle", "archive.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	s := &Storage{db: db, maxRuns: maxRuns}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := s.db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := s.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			lotto_type  TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			draw_count  INTEGER NOT NULL,
			pages       INTEGER NOT NULL,
			error       TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS draws (
			lotto_type      TEXT NOT NULL,
			draw_date       TEXT NOT NULL,
			first_prize     TEXT NOT NULL,
			last_two_digits TEXT NOT NULL DEFAULT '',
			run_id          TEXT REFERENCES runs(id) ON DELETE SET NULL,
			updated_at      INTEGER NOT NULL,
			PRIMARY KEY (lotto_type, draw_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun records a finished run and upserts its draws in one transaction,
// then drops runs beyond the retention cap. Draws outlive the run that found them.
func (s *Storage) SaveRun(run *models.ScrapeRun, draws []models.Draw) error {
	if run.ID == "" {
		return fmt.Errorf("invalid run: id must not be empty")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO runs (id, lotto_type, started_at, finished_at, draw_count, pages, error)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, string(run.LottoType), run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		run.DrawCount, run.Pages, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := upsertDraws(tx, run.ID, draws); err != nil {
		return err
	}

	if s.maxRuns > 0 {
		if _, err = tx.Exec(`
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
			)`, s.maxRuns); err != nil {
			return fmt.Errorf("failed to enforce run cap: %w", err)
		}
	}

	return tx.Commit()
}

func upsertDraws(tx *sql.Tx, runID string, draws []models.Draw) error {
	if len(draws) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO draws (lotto_type, draw_date, first_prize, last_two_digits, run_id, updated_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(lotto_type, draw_date) DO UPDATE SET
			first_prize=excluded.first_prize,
			last_two_digits=excluded.last_two_digits,
			run_id=excluded.run_id,
			updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare draw upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	for i := range draws {
		d := &draws[i]
		if err := d.Validate(); err != nil {
			return fmt.Errorf("invalid draw %d: %w", i, err)
		}
		if _, err := stmt.Exec(string(d.LottoType), d.DrawDate, d.FirstPrize, d.LastTwoDigits, runID, now); err != nil {
			return fmt.Errorf("failed to upsert draw %s: %w", d.DrawDate, err)
		}
	}
	return nil
}

// ListDraws returns archived draws of one lottery type, newest draw date first.
// A non-positive limit returns every draw.
func (s *Storage) ListDraws(lottoType models.LottoType, limit int) ([]models.Draw, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT lotto_type, draw_date, first_prize, last_two_digits
		FROM draws WHERE lotto_type = ?
		ORDER BY draw_date DESC LIMIT ?`, string(lottoType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query draws: %w", err)
	}
	defer rows.Close()

	draws := []models.Draw{}
	for rows.Next() {
		var d models.Draw
		var lt string
		if err := rows.Scan(&lt, &d.DrawDate, &d.FirstPrize, &d.LastTwoDigits); err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		d.LottoType = models.LottoType(lt)
		draws = append(draws, d)
	}
	return draws, rows.Err()
}

// ListRuns returns the most recent runs first.
func (s *Storage) ListRuns(limit int) ([]models.ScrapeRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, lotto_type, started_at, finished_at, draw_count, pages, error
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.ScrapeRun{}
	for rows.Next() {
		var r models.ScrapeRun
		var lt string
		var startedAtNano, finishedAtNano int64
		err := rows.Scan(&r.ID, &lt, &startedAtNano, &finishedAtNano, &r.DrawCount, &r.Pages, &r.Error)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.LottoType = models.LottoType(lt)
		r.StartedAt = time.Unix(0, startedAtNano)
		r.FinishedAt = time.Unix(0, finishedAtNano)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CountDraws reports how many draws of a lottery type are archived.
func (s *Storage) CountDraws(lottoType models.LottoType) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM draws WHERE lotto_type = ?`, string(lottoType)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count draws: %w", err)
	}
	return n, nil
}

// ArchiveJob stores a terminal job snapshot. Failed jobs are recorded without draws.
func (s *Storage) ArchiveJob(status models.JobStatus) error {
	if status.IsRunning {
		return fmt.Errorf("job %s is still running", status.JobID)
	}
	run := status.Run()
	return s.SaveRun(&run, status.Results)
}
