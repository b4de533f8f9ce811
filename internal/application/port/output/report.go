package output

import (
	"context"

	"browser-commander/internal/domain/entity"
)

type ScreenshotStore interface {
	// Save stores a screenshot under the session and returns its path.
	// A negative step index marks the error screenshot.
	Save(sessionID string, stepIndex int, shot *entity.Screenshot) (string, error)
}

type ReportWriter interface {
	Write(report *entity.RunReport) (string, error)
}

type RunStore interface {
	SaveRun(ctx context.Context, report *entity.RunReport) error
	GetRun(ctx context.Context, sessionID string) (*entity.RunReport, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}

type RunSummary struct {
	SessionID   string  `json:"session_id"`
	Instruction string  `json:"instruction"`
	Success     bool    `json:"success"`
	Score       float64 `json:"score"`
	StartedAt   string  `json:"started_at"`
}
