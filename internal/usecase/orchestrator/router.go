package orchestrator

import (
	"context"
	"fmt"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/usecase/executor"
)

// runContext is the state of one command flowing through a task handler.
type runContext struct {
	instruction string
	cmd         entity.ParsedCommand
	plan        *entity.TaskPlan
	run         *executor.Run
	session     *session
	validation  entity.ValidationContext
	captchaUsed bool
	log         output.LoggerPort
}

type taskHandler func(ctx context.Context, rc *runContext) (*entity.TaskOutcome, error)

func (uc *UseCase) routes() map[entity.TaskType]taskHandler {
	return map[entity.TaskType]taskHandler{
		entity.TaskTypeForm:       uc.orchestrateForm,
		entity.TaskTypeEcommerce:  uc.orchestrateEcommerce,
		entity.TaskTypeAuth:       uc.orchestrateAuth,
		entity.TaskTypeExtraction: uc.orchestrateExtraction,
		entity.TaskTypeNavigation: uc.orchestrateNavigation,
	}
}

// orchestrateForm is the only handler with the CAPTCHA sub-flow, entered at
// most once per command.
func (uc *UseCase) orchestrateForm(ctx context.Context, rc *runContext) (*entity.TaskOutcome, error) {
	results, err := uc.executePlan(ctx, rc)
	if err != nil {
		return nil, err
	}

	if uc.needsCaptchaFlow(rc) {
		results = mergeResults(results, uc.captchaFlow(ctx, rc))
	}

	rc.validation.RequireSubmission = len(rc.cmd.FormData.Fields()) > 0
	return uc.outcome(rc, results), nil
}

func (uc *UseCase) needsCaptchaFlow(rc *runContext) bool {
	v := rc.run.Verification
	return v != nil &&
		v.Reason == executor.ReasonSecurityBlock &&
		!rc.captchaUsed &&
		uc.opts.AutoCaptchaVisible &&
		rc.session.Headless()
}

func (uc *UseCase) orchestrateEcommerce(ctx context.Context, rc *runContext) (*entity.TaskOutcome, error) {
	results, err := uc.executePlan(ctx, rc)
	if err != nil {
		return nil, err
	}
	rc.validation.Constraints = rc.cmd.Constraints
	rc.validation.RequireData = rc.cmd.Constraints.MinItems > 0
	return uc.outcome(rc, results), nil
}

// orchestrateAuth stops at the pre-filled login form; it never submits.
func (uc *UseCase) orchestrateAuth(ctx context.Context, rc *runContext) (*entity.TaskOutcome, error) {
	results, err := uc.executePlan(ctx, rc)
	if err != nil {
		return nil, err
	}
	out := uc.outcome(rc, results)
	if a := rc.run.Analysis; a != nil {
		if out.ExtractedData == nil {
			out.ExtractedData = map[string]any{}
		}
		out.ExtractedData["has_password_field"] = a.HasPassword
	}
	return out, nil
}

func (uc *UseCase) orchestrateExtraction(ctx context.Context, rc *runContext) (*entity.TaskOutcome, error) {
	results, err := uc.executePlan(ctx, rc)
	if err != nil {
		return nil, err
	}
	rc.validation.Constraints = rc.cmd.Constraints
	rc.validation.RequireData = true
	return uc.outcome(rc, results), nil
}

func (uc *UseCase) orchestrateNavigation(ctx context.Context, rc *runContext) (*entity.TaskOutcome, error) {
	results, err := uc.executePlan(ctx, rc)
	if err != nil {
		return nil, err
	}
	return uc.outcome(rc, results), nil
}

func (uc *UseCase) executePlan(ctx context.Context, rc *runContext) ([]entity.StepResult, error) {
	page, err := rc.session.Page(ctx)
	if err != nil {
		return nil, err
	}
	rc.run.Page = page
	return uc.executor.Execute(ctx, rc.plan, rc.run), nil
}

// outcome succeeds when every required step completed.
func (uc *UseCase) outcome(rc *runContext, results []entity.StepResult) *entity.TaskOutcome {
	out := &entity.TaskOutcome{
		TaskType:      rc.plan.TaskType,
		Success:       true,
		Submitted:     rc.run.Submitted,
		ExtractedData: rc.run.Extracted,
		StepResults:   results,
		CaptchaFlow:   rc.captchaUsed,
	}
	if rc.run.Page != nil {
		out.FinalURL = rc.run.Page.CurrentURL()
	}
	if rc.run.Verification != nil {
		out.Verification = rc.run.Verification.Data()
	}
	for _, r := range results {
		if r.Success || rc.plan.Steps[r.Index].Optional {
			continue
		}
		out.Success = false
		if out.Error == "" {
			out.Error = fmt.Sprintf("step %d (%s) failed: %s", r.Index, r.Type, r.Error)
		}
	}
	return out
}
