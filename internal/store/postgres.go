package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/blueline-sports/streamer-cli/internal/db"
	"github.com/blueline-sports/streamer-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS history (
	id       TEXT PRIMARY KEY,
	ts       TIMESTAMPTZ NOT NULL,
	players  JSONB NOT NULL,
	decision TEXT NOT NULL,
	outcome  JSONB
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_history_ts ON history(ts);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		id, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	return eris.Wrap(err, "postgres: update run status")
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run result")
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	return eris.Wrap(err, "postgres: update run result")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, result, created_at, updated_at FROM runs WHERE id = $1`, runID)

	run, err := scanPgRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrap(err, "postgres: run not found")
		}
		return nil, err
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, result, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs rows")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var run model.Run
	var status string
	var resultJSON []byte

	if err := row.Scan(&run.ID, &status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)

	if len(resultJSON) > 0 {
		var result model.RunResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run result")
		}
		run.Result = &result
	}
	return &run, nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, record model.HistoricalRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal history players")
	}

	var outcomeJSON []byte
	if record.Outcome != nil {
		outcomeJSON, err = json.Marshal(record.Outcome)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal history outcome")
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO history (id, ts, players, decision, outcome) VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.Timestamp.UTC(), playersJSON, record.Decision, outcomeJSON,
	)
	return eris.Wrap(err, "postgres: append history")
}

func (s *PostgresStore) ReadHistory(ctx context.Context, since time.Time) ([]model.HistoricalRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, ts, players, decision, outcome FROM history WHERE ts >= $1 ORDER BY ts DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: read history")
	}
	defer rows.Close()

	var records []model.HistoricalRecord
	for rows.Next() {
		var rec model.HistoricalRecord
		var playersJSON, outcomeJSON []byte

		if err := rows.Scan(&rec.ID, &rec.Timestamp, &playersJSON, &rec.Decision, &outcomeJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history")
		}
		if err := json.Unmarshal(playersJSON, &rec.Players); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal history players")
		}
		if len(outcomeJSON) > 0 {
			var outcome model.Outcome
			if err := json.Unmarshal(outcomeJSON, &outcome); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal history outcome")
			}
			rec.Outcome = &outcome
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: read history rows")
}
