package input

import (
	"context"

	"browser-commander/internal/domain/entity"
)

type RunOptions struct {
	DryRun    bool
	ParseOnly bool
}

// CommandRunner turns one instruction into a run report. Implementations
// never return a nil report, even when the run failed.
type CommandRunner interface {
	Run(ctx context.Context, instruction string, opts RunOptions) *entity.RunReport
}
