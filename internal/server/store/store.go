// Package store persists operator settings, recommendations and the agent
// action log in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// ErrNotFound is returned for unknown recommendation ids.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	id                    INTEGER PRIMARY KEY CHECK (id = 1),
	dark_mode             INTEGER NOT NULL,
	language              TEXT    NOT NULL,
	notifications_enabled INTEGER NOT NULL,
	user_name             TEXT    NOT NULL DEFAULT '',
	user_email            TEXT    NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS recommendations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	status         TEXT NOT NULL DEFAULT 'pending',
	recommendation TEXT NOT NULL,
	confidence     REAL,
	created_at     TEXT NOT NULL,
	decided_at     TEXT
);
CREATE TABLE IF NOT EXISTS agent_actions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	status     TEXT NOT NULL,
	action     TEXT NOT NULL,
	parameter  TEXT NOT NULL DEFAULT '',
	value      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`

// Store is the SQLite-backed persistence for the mock API.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, applies pragmas, creates the
// schema and seeds first-run data. ":memory:" gives a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection: writes are serialized and :memory: stays a single database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := s.seed(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Tx executes fn within a transaction, committing when fn returns nil.
func (s *Store) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

func (s *Store) seed(ctx context.Context) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO settings
			(id, dark_mode, language, notifications_enabled, user_name, user_email)
			VALUES (1, 1, 'en', 1, 'Plant Operator', 'operator@example.com')`); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}

		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM recommendations").Scan(&n); err != nil {
			return fmt.Errorf("count recommendations: %w", err)
		}
		if n > 0 {
			return nil
		}
		now := formatTime(time.Now())
		recs := []struct {
			text       string
			confidence float64
		}{
			{"Increase fuel rate by 2% to stabilize temperature.", 0.95},
			{"Reduce raw meal moisture content.", 0.88},
		}
		for _, r := range recs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO recommendations (recommendation, confidence, created_at) VALUES (?, ?, ?)",
				r.text, r.confidence, now); err != nil {
				return fmt.Errorf("seed recommendations: %w", err)
			}
		}
		actions := []model.AgentAction{
			{Status: "success", Action: "Adjusted Kiln Feed Rate", Parameter: "Feed Rate", Value: "250 t/h"},
			{Status: "success", Action: "Increased Cooler Fan Speed", Parameter: "Fan Speed", Value: "75%"},
		}
		for _, a := range actions {
			if err := insertAction(ctx, tx, a, now); err != nil {
				return fmt.Errorf("seed actions: %w", err)
			}
		}
		return nil
	})
}

// Settings returns the preference bundle.
func (s *Store) Settings(ctx context.Context) (*model.Settings, error) {
	return querySettings(ctx, s.db)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func querySettings(ctx context.Context, q queryer) (*model.Settings, error) {
	var (
		dark, notify bool
		out          model.Settings
	)
	err := q.QueryRowContext(ctx,
		"SELECT dark_mode, language, notifications_enabled, user_name, user_email FROM settings WHERE id = 1",
	).Scan(&dark, &out.Language, &notify, &out.UserName, &out.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	out.DarkMode = &dark
	out.NotificationsEnabled = &notify
	return &out, nil
}

// UpdateSettings merges patch into the stored bundle and returns the result.
func (s *Store) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	var merged *model.Settings
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		cur, err := querySettings(ctx, tx)
		if err != nil {
			return err
		}
		patch.Apply(cur)
		_, err = tx.ExecContext(ctx, `UPDATE settings SET dark_mode = ?, language = ?,
			notifications_enabled = ?, user_name = ?, user_email = ? WHERE id = 1`,
			cur.DarkMode != nil && *cur.DarkMode, cur.Language, cur.NotificationsOn(), cur.UserName, cur.UserEmail)
		if err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		merged = cur
		return nil
	})
	return merged, err
}

// Recommendations lists every recommendation, oldest first.
func (s *Store) Recommendations(ctx context.Context) ([]model.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, status, recommendation, confidence, created_at FROM recommendations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	out := []model.Recommendation{}
	for rows.Next() {
		var (
			r          model.Recommendation
			confidence sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Status, &r.Recommendation, &confidence, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		if confidence.Valid {
			c := confidence.Float64
			r.Confidence = &c
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddRecommendation stores a new pending recommendation and returns its id.
func (s *Store) AddRecommendation(ctx context.Context, text string, confidence float64, at time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO recommendations (recommendation, confidence, created_at) VALUES (?, ?, ?)",
		text, confidence, formatTime(at))
	if err != nil {
		return 0, fmt.Errorf("insert recommendation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recommendation id: %w", err)
	}
	return int(id), nil
}

// Approve marks the recommendation approved and logs the executed action.
func (s *Store) Approve(ctx context.Context, id int, at time.Time) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		text, err := decide(ctx, tx, id, model.RecommendationApproved, at)
		if err != nil {
			return err
		}
		return insertAction(ctx, tx, model.AgentAction{
			Status:    "success",
			Action:    "Executed recommendation",
			Parameter: fmt.Sprintf("recommendation #%d", id),
			Value:     text,
		}, formatTime(at))
	})
}

// Reject marks the recommendation rejected.
func (s *Store) Reject(ctx context.Context, id int, at time.Time) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := decide(ctx, tx, id, model.RecommendationRejected, at)
		return err
	})
}

func decide(ctx context.Context, tx *sql.Tx, id int, status string, at time.Time) (string, error) {
	var text string
	err := tx.QueryRowContext(ctx, "SELECT recommendation FROM recommendations WHERE id = ?", id).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("recommendation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query recommendation %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE recommendations SET status = ?, decided_at = ? WHERE id = ?",
		status, formatTime(at), id); err != nil {
		return "", fmt.Errorf("update recommendation %d: %w", id, err)
	}
	return text, nil
}

// Actions returns the newest limit log entries, newest first.
func (s *Store) Actions(ctx context.Context, limit int) ([]model.AgentAction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, status, action, parameter, value, created_at FROM agent_actions ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	out := []model.AgentAction{}
	for rows.Next() {
		var a model.AgentAction
		if err := rows.Scan(&a.ID, &a.Status, &a.Action, &a.Parameter, &a.Value, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AppendAction adds an entry to the action log.
func (s *Store) AppendAction(ctx context.Context, a model.AgentAction, at time.Time) error {
	return insertAction(ctx, s.db, a, formatTime(at))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAction(ctx context.Context, e execer, a model.AgentAction, at string) error {
	_, err := e.ExecContext(ctx,
		"INSERT INTO agent_actions (status, action, parameter, value, created_at) VALUES (?, ?, ?, ?, ?)",
		a.Status, a.Action, a.Parameter, a.Value, at)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
