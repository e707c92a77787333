// Package store handles SQLite persistence of completed rounds.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/typerace/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for round history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			words INTEGER NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			pig_latin INTEGER NOT NULL,
			autocorrect INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_mode ON rounds(mode);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRound stores a completed round and returns its id.
func (s *Store) InsertRound(ctx context.Context, r model.RoundRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (started_at, ended_at, mode, words, wpm, accuracy, pig_latin, autocorrect)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.EndedAt.UTC().Format(time.RFC3339Nano),
		r.Mode.String(),
		r.Words,
		r.WPM,
		r.Accuracy,
		boolInt(r.PigLatin),
		boolInt(r.AutoCorrect),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert round: %w", err)
	}
	return res.LastInsertId()
}

// ListRounds returns rounds matching filter, oldest first. Last limits the
// result to the most recent rounds.
func (s *Store) ListRounds(ctx context.Context, filter model.HistoryFilter) ([]model.RoundRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Mode != nil {
		clauses = append(clauses, "mode = ?")
		args = append(args, filter.Mode.String())
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	limit := -1
	if filter.Last > 0 {
		limit = filter.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, mode, words, wpm, accuracy, pig_latin, autocorrect
		FROM (
			SELECT * FROM rounds
			WHERE %s
			ORDER BY ended_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rounds []model.RoundRecord
	for rows.Next() {
		var (
			r                  model.RoundRecord
			startedAt, endedAt string
			mode               string
			pigLatin, autoCorr int
		)
		if err := rows.Scan(&r.ID, &startedAt, &endedAt, &mode, &r.Words, &r.WPM, &r.Accuracy, &pigLatin, &autoCorr); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if r.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		parsed, ok := model.ParseMode(mode)
		if !ok {
			return nil, fmt.Errorf("unknown mode %q in round %d", mode, r.ID)
		}
		r.Mode = parsed
		r.PigLatin = pigLatin != 0
		r.AutoCorrect = autoCorr != 0
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rounds, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
