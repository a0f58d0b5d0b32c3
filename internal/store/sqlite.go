package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/northcart/promoplan/internal/promo"
)

// ErrNotFound is returned when the requested plan does not exist.
var ErrNotFound = eris.New("store: not found")

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS plans (
	id         TEXT PRIMARY KEY,
	budget     REAL NOT NULL,
	summary    TEXT NOT NULL,
	result     TEXT NOT NULL,
	brief      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS plan_cache (
	fingerprint TEXT PRIMARY KEY,
	result      TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreatePlan persists a plan. A missing ID or CreatedAt is filled in, so
// callers may pass a bare plan and read the assigned ID back.
func (s *SQLiteStore) CreatePlan(ctx context.Context, plan *promo.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}

	summaryJSON, err := json.Marshal(plan.Summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}
	resultJSON, err := json.Marshal(plan.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (id, budget, summary, result, brief, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.Budget, string(summaryJSON), string(resultJSON), plan.Brief, plan.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert plan")
}

func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*promo.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, budget, summary, result, brief, created_at FROM plans WHERE id = ?`, id)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "plan %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get plan %s", id)
	}
	return plan, nil
}

func (s *SQLiteStore) ListPlans(ctx context.Context, limit int) ([]promo.Plan, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, budget, summary, result, brief, created_at FROM plans ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list plans")
	}
	defer rows.Close() //nolint:errcheck

	var plans []promo.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan plan")
		}
		plans = append(plans, *plan)
	}
	return plans, eris.Wrap(rows.Err(), "sqlite: iterate plans")
}

// GetCachedResult returns the memoized result for a solve fingerprint, or
// nil when there is no entry.
func (s *SQLiteStore) GetCachedResult(ctx context.Context, fingerprint string) (*promo.Result, error) {
	var resultJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM plan_cache WHERE fingerprint = ?`, fingerprint).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached result")
	}
	var result promo.Result
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached result")
	}
	return &result, nil
}

func (s *SQLiteStore) PutCachedResult(ctx context.Context, fingerprint string, result *promo.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal cached result")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plan_cache (fingerprint, result, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET result = excluded.result, created_at = excluded.created_at`,
		fingerprint, string(resultJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: put cached result")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*promo.Plan, error) {
	var plan promo.Plan
	var summaryJSON, resultJSON string
	var brief sql.NullString
	if err := row.Scan(&plan.ID, &plan.Budget, &summaryJSON, &resultJSON, &brief, &plan.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(summaryJSON), &plan.Summary); err != nil {
		return nil, eris.Wrap(err, "unmarshal summary")
	}
	if err := json.Unmarshal([]byte(resultJSON), &plan.Result); err != nil {
		return nil, eris.Wrap(err, "unmarshal result")
	}
	plan.Brief = brief.String
	return &plan, nil
}
