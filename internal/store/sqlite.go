package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/linkforge/internal/model"
)

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
CREATE TABLE IF NOT EXISTS runs (
	job_id      TEXT PRIMARY KEY,
	input       TEXT NOT NULL,
	final_state TEXT NOT NULL,
	result      TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS artifacts (
	job_id     TEXT NOT NULL REFERENCES runs(job_id),
	kind       TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (job_id, kind)
);

CREATE TABLE IF NOT EXISTS serp_cache (
	query      TEXT NOT NULL,
	language   TEXT NOT NULL,
	location   TEXT NOT NULL,
	analysis   TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL,
	PRIMARY KEY (query, language, location)
);

CREATE INDEX IF NOT EXISTS idx_runs_final_state ON runs(final_state);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_serp_cache_expires_at ON serp_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	inputJSON, err := json.Marshal(run.Input)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal input")
	}
	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (job_id, input, final_state, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.JobID, string(inputJSON), string(run.FinalState), string(resultJSON), createdAt,
	)
	return eris.Wrapf(err, "sqlite: save run %s", run.JobID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, jobID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, input, final_state, result, created_at FROM runs WHERE job_id = ?`,
		jobID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT job_id, input, final_state, result, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.FinalState != "" {
		query += ` AND final_state = ?`
		args = append(args, string(filter.FinalState))
	}
	if filter.Publisher != "" {
		query += ` AND json_extract(input, '$.publisher_domain') = ?`
		args = append(args, filter.Publisher)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveArtifact(ctx context.Context, jobID string, kind model.ArtifactKind, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO artifacts (job_id, kind, data, created_at) VALUES (?, ?, ?, ?)`,
		jobID, string(kind), string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save artifact %s/%s", jobID, kind)
}

func (s *SQLiteStore) GetArtifact(ctx context.Context, jobID string, kind model.ArtifactKind) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM artifacts WHERE job_id = ? AND kind = ?`,
		jobID, string(kind),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("artifact not found: %s/%s", jobID, kind)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get artifact")
	}
	return []byte(data), nil
}

func (s *SQLiteStore) GetSerpAnalysis(ctx context.Context, q, language, location string) (*model.QueryAnalysis, bool, error) {
	var analysisJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT analysis FROM serp_cache
		 WHERE query = ? AND language = ? AND location = ? AND expires_at > datetime('now')`,
		q, language, location,
	).Scan(&analysisJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get serp analysis")
	}

	var analysis model.QueryAnalysis
	if err := json.Unmarshal([]byte(analysisJSON), &analysis); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: unmarshal serp analysis")
	}
	return &analysis, true, nil
}

func (s *SQLiteStore) SetSerpAnalysis(ctx context.Context, q, language, location string, analysis *model.QueryAnalysis, ttl time.Duration) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal serp analysis")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO serp_cache (query, language, location, analysis, fetched_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q, language, location, string(analysisJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set serp analysis")
}

func (s *SQLiteStore) DeleteExpiredSerp(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM serp_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired serp analyses")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var inputJSON string
	var resultJSON sql.NullString

	err := row.Scan(&r.JobID, &inputJSON, &r.FinalState, &resultJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(inputJSON), &r.Input); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal input")
	}
	if resultJSON.Valid && resultJSON.String != "null" {
		r.Result = &model.PipelineResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}
