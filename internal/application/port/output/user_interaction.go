package output

import (
	"context"

	"browser-commander/internal/domain/entity"
)

type UserInteractionPort interface {
	ShowCommand(ctx context.Context, cmd *entity.ParsedCommand, goal *entity.GoalMatch)
	ShowPlan(ctx context.Context, plan *entity.TaskPlan)
	ShowStepStart(ctx context.Context, index int, step *entity.TaskStep)
	ShowStepResult(ctx context.Context, result entity.StepResult)
	ShowCaptchaNotice(ctx context.Context, message string)
	ShowReport(ctx context.Context, report *entity.RunReport)
}
