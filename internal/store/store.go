package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/examgen/internal/model"

	_ "modernc.org/sqlite"
)

// Store is the run ledger: one row per assembled exam plus its answer key.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		output TEXT NOT NULL,
		seed INTEGER NOT NULL,
		source_path TEXT NOT NULL DEFAULT '',
		source_hash TEXT NOT NULL DEFAULT '',
		num_questions INTEGER NOT NULL DEFAULT 0,
		shuffled_questions INTEGER NOT NULL DEFAULT 0,
		shuffled_choices INTEGER NOT NULL DEFAULT 0,
		pdf_path TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS runs_output_seed ON runs (output, seed);

	CREATE TABLE IF NOT EXISTS run_keys (
		run_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		letter TEXT NOT NULL,
		PRIMARY KEY (run_id, number),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a run and its key in one transaction. An empty ID is
// replaced by a new UUID; a zero CreatedAt by the current time.
func (s *Store) RecordRun(rec model.RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, output, seed, source_path, source_hash, num_questions,
		 shuffled_questions, shuffled_choices, pdf_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Output, rec.Seed, rec.SourcePath, rec.SourceHash, rec.NumQuestions,
		rec.ShuffledQuestions, rec.ShuffledChoices, rec.PDFPath, rec.CreatedAt,
	)
	if err != nil {
		return "", err
	}

	for _, k := range rec.Key {
		if _, err := tx.Exec(
			`INSERT INTO run_keys (run_id, number, letter) VALUES (?, ?, ?)`,
			rec.ID, k.Number, k.Letter,
		); err != nil {
			return "", err
		}
	}

	return rec.ID, tx.Commit()
}

const runColumns = `id, output, seed, source_path, source_hash, num_questions,
	shuffled_questions, shuffled_choices, pdf_path, created_at`

func scanRun(row interface{ Scan(...any) error }) (model.RunRecord, error) {
	var r model.RunRecord
	err := row.Scan(&r.ID, &r.Output, &r.Seed, &r.SourcePath, &r.SourceHash, &r.NumQuestions,
		&r.ShuffledQuestions, &r.ShuffledChoices, &r.PDFPath, &r.CreatedAt)
	return r, err
}

// LatestRun returns the most recent run for an output name and seed,
// including its key. It returns sql.ErrNoRows when there is none.
func (s *Store) LatestRun(output string, seed int64) (model.RunRecord, error) {
	r, err := scanRun(s.db.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE output = ? AND seed = ?
		 ORDER BY created_at DESC LIMIT 1`, output, seed,
	))
	if err != nil {
		return r, err
	}
	r.Key, err = s.getKey(r.ID)
	return r, err
}

// GetRun returns a run by ID, including its key.
func (s *Store) GetRun(id string) (model.RunRecord, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		return r, err
	}
	r.Key, err = s.getKey(r.ID)
	return r, err
}

// ListRuns returns runs newest first, without keys. limit <= 0 means all.
func (s *Store) ListRuns(limit int) ([]model.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []model.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) getKey(runID string) ([]model.KeyEntry, error) {
	rows, err := s.db.Query(`SELECT number, letter FROM run_keys WHERE run_id = ? ORDER BY number`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var key []model.KeyEntry
	for rows.Next() {
		var k model.KeyEntry
		if err := rows.Scan(&k.Number, &k.Letter); err != nil {
			return nil, err
		}
		key = append(key, k)
	}
	return key, rows.Err()
}

// RunCount returns the number of recorded runs.
func (s *Store) RunCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}
