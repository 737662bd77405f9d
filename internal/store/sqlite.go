package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/blueline-sports/streamer-cli/internal/model"
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
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS history (
	id         TEXT PRIMARY KEY,
	ts         DATETIME NOT NULL,
	players    TEXT NOT NULL,
	decision   TEXT NOT NULL,
	outcome    TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_history_ts ON history(ts);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	return eris.Wrap(err, "sqlite: update run status")
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run result")
	}

	status := model.RunStatusComplete
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(status), time.Now().UTC(), runID,
	)
	return eris.Wrap(err, "sqlite: update run result")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, result, created_at, updated_at FROM runs WHERE id = ?`, runID)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, result, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs rows")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var status string
	var resultJSON sql.NullString

	if err := row.Scan(&run.ID, &status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrap(err, "sqlite: run not found")
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	run.Status = model.RunStatus(status)

	if resultJSON.Valid && resultJSON.String != "" {
		var result model.RunResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal run result")
		}
		run.Result = &result
	}
	return &run, nil
}

func (s *SQLiteStore) AppendHistory(ctx context.Context, record model.HistoricalRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal history players")
	}

	var outcomeJSON sql.NullString
	if record.Outcome != nil {
		data, err := json.Marshal(record.Outcome)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal history outcome")
		}
		outcomeJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (id, ts, players, decision, outcome) VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.Timestamp.UTC(), string(playersJSON), record.Decision, outcomeJSON,
	)
	return eris.Wrap(err, "sqlite: append history")
}

func (s *SQLiteStore) ReadHistory(ctx context.Context, since time.Time) ([]model.HistoricalRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, players, decision, outcome FROM history WHERE ts >= ? ORDER BY ts DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: read history")
	}
	defer rows.Close()

	var records []model.HistoricalRecord
	for rows.Next() {
		var rec model.HistoricalRecord
		var playersJSON string
		var outcomeJSON sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Timestamp, &playersJSON, &rec.Decision, &outcomeJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history")
		}
		if err := json.Unmarshal([]byte(playersJSON), &rec.Players); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal history players")
		}
		if outcomeJSON.Valid && outcomeJSON.String != "" {
			var outcome model.Outcome
			if err := json.Unmarshal([]byte(outcomeJSON.String), &outcome); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal history outcome")
			}
			rec.Outcome = &outcome
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: read history rows")
}
