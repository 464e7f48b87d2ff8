package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
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
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	params     TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_segments (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	segment_id INTEGER NOT NULL,
	category   INTEGER NOT NULL,
	score      REAL NOT NULL,
	PRIMARY KEY (run_id, segment_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save run")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, params, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), string(run.Params), string(run.Result), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	for _, seg := range run.Segments {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_segments (run_id, segment_id, category, score) VALUES (?, ?, ?, ?)`,
			run.ID, seg.SegmentID, seg.Category, seg.Score,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert segment %d of run %s", seg.SegmentID, run.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, params, result, created_at FROM runs WHERE id = ?`,
		runID,
	)

	var r Run
	var kind, params, result string
	err := row.Scan(&r.ID, &kind, &params, &result, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "id %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Kind = RunKind(kind)
	r.Params = []byte(params)
	r.Result = []byte(result)
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, kind, params, result, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
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

	var runs []Run
	for rows.Next() {
		var r Run
		var kind, params, result string
		if err := rows.Scan(&r.ID, &kind, &params, &result, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run row")
		}
		r.Kind = RunKind(kind)
		r.Params = []byte(params)
		r.Result = []byte(result)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SegmentScores(ctx context.Context, runID string) ([]SegmentScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT segment_id, category, score FROM run_segments WHERE run_id = ? ORDER BY segment_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: segment scores for run %s", runID)
	}
	defer rows.Close()

	var scores []SegmentScore
	for rows.Next() {
		var sc SegmentScore
		if err := rows.Scan(&sc.SegmentID, &sc.Category, &sc.Score); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan segment score")
		}
		scores = append(scores, sc)
	}
	return scores, eris.Wrap(rows.Err(), "sqlite: segment scores iterate")
}

func (s *SQLiteStore) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE created_at < ?`, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete old runs")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
