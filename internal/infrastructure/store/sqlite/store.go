package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/glebarez/go-sqlite"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
)

var _ output.RunStore = (*RunStore)(nil)

const DefaultListLimit = 50

// Fixed-width timestamps keep ORDER BY started_at chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RunStore keeps one row per command run; the full report is stored as JSON.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(dbPath string) (*RunStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	// A single connection keeps :memory: databases alive across queries.
	db.SetMaxOpenConns(1)

	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			session_id TEXT PRIMARY KEY,
			instruction TEXT NOT NULL,
			goal TEXT,
			task_type TEXT,
			success INTEGER NOT NULL,
			score REAL,
			final_url TEXT,
			error TEXT,
			report TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("init run store: %w", err)
		}
	}

	return &RunStore{db: db}, nil
}

// SaveRun inserts or replaces the run keyed by session id.
func (s *RunStore) SaveRun(ctx context.Context, report *entity.RunReport) error {
	if report == nil || report.SessionID == "" {
		return fmt.Errorf("save run: missing session id")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	var goal, taskType string
	if report.Goal != nil {
		goal = string(report.Goal.Goal)
	}
	if report.Plan != nil {
		taskType = string(report.Plan.TaskType)
	}
	success := 0
	if report.Success {
		success = 1
	}
	var score float64
	if report.Validation != nil {
		score = report.Validation.Score
	}

	query := `INSERT OR REPLACE INTO runs
		(session_id, instruction, goal, task_type, success, score, final_url, error, report, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		report.SessionID, report.Instruction, goal, taskType, success, score,
		report.FinalURL, report.Error, string(data), report.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *RunStore) GetRun(ctx context.Context, sessionID string) (*entity.RunReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE session_id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrRunNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	var report entity.RunReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", sessionID, err)
	}
	return &report, nil
}

// ListRuns returns the newest runs first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]output.RunSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT session_id, instruction, success, score, started_at
		FROM runs ORDER BY started_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []output.RunSummary{}
	for rows.Next() {
		var r output.RunSummary
		var score sql.NullFloat64
		if err := rows.Scan(&r.SessionID, &r.Instruction, &r.Success, &score, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Score = score.Float64
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *RunStore) Close() error {
	return s.db.Close()
}
