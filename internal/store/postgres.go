package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/lakeshore-group/coastline-cli/internal/db"
)

// PostgresStore implements Store over a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to PostgreSQL and wraps the pool in a store.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; tests inject pgxmock here.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	params     JSONB NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_segments (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	segment_id INTEGER NOT NULL,
	category   INTEGER NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, segment_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, kind, params, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, string(run.Kind), run.Params, run.Result, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	rows := make([][]any, len(run.Segments))
	for i, seg := range run.Segments {
		rows[i] = []any{run.ID, seg.SegmentID, seg.Category, seg.Score}
	}
	_, err = db.CopyFrom(ctx, s.pool, "run_segments",
		[]string{"run_id", "segment_id", "category", "score"}, rows)
	return err
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, kind, params, result, created_at FROM runs WHERE id = $1`,
		runID,
	)

	var r Run
	var kind string
	err := row.Scan(&r.ID, &kind, &r.Params, &r.Result, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "id %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	r.Kind = RunKind(kind)
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, kind, params, result, created_at FROM runs`
	var args []any

	if filter.Kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, string(filter.Kind))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var kind string
		if err := rows.Scan(&r.ID, &kind, &r.Params, &r.Result, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run row")
		}
		r.Kind = RunKind(kind)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SegmentScores(ctx context.Context, runID string) ([]SegmentScore, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT segment_id, category, score FROM run_segments WHERE run_id = $1 ORDER BY segment_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: segment scores for run %s", runID)
	}
	defer rows.Close()

	var scores []SegmentScore
	for rows.Next() {
		var sc SegmentScore
		if err := rows.Scan(&sc.SegmentID, &sc.Category, &sc.Score); err != nil {
			return nil, eris.Wrap(err, "postgres: scan segment score")
		}
		scores = append(scores, sc)
	}
	return scores, eris.Wrap(rows.Err(), "postgres: segment scores iterate")
}

func (s *PostgresStore) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete old runs")
	}
	return int(tag.RowsAffected()), nil
}
