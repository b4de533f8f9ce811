package orchestrator

import (
	"context"
	"time"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/usecase/executor"
)

// captchaFlow reopens the browser visibly, re-runs the steps that reach the
// form and waits for a person to clear the challenge. The fill and submit
// steps then run again, followed by one more verification.
func (uc *UseCase) captchaFlow(ctx context.Context, rc *runContext) []entity.StepResult {
	rc.captchaUsed = true
	rc.log.Warn("Security challenge detected, switching to visible browser",
		"wait", uc.opts.CaptchaWait,
		"poll", uc.opts.CaptchaPoll,
	)
	if uc.ui != nil {
		uc.ui.ShowCaptchaNotice(ctx, "The site shows a security check. Solve it in the browser window that is opening.")
	}

	visible := rc.session.opts
	visible.Headless = false
	page, err := rc.session.Relaunch(ctx, visible)
	if err != nil {
		rc.log.Error("Visible relaunch failed", "error", err)
		return nil
	}

	rc.run.Page = page
	rc.run.Analysis = nil
	rc.run.Resolution = nil
	rc.run.Verification = nil
	rc.run.Submitted = false

	results := uc.executor.Rerun(ctx, rc.plan, rc.run, entity.StepNavigate, entity.StepResolve, entity.StepAnalyze)
	if failedRequired(rc.plan, results) {
		rc.log.Warn("Could not reach the form again after relaunch")
		return results
	}

	if cleared := uc.awaitChallenge(ctx, page, rc.log); !cleared {
		rc.log.Warn("Challenge still present after wait, continuing", "wait", uc.opts.CaptchaWait)
	}

	results = append(results, uc.executor.Rerun(ctx, rc.plan, rc.run,
		entity.StepFillField, entity.StepFillForm, entity.StepClick, entity.StepSubmit)...)
	results = append(results, uc.executor.Rerun(ctx, rc.plan, rc.run, entity.StepVerify)...)
	return results
}

// awaitChallenge polls the page text until no challenge phrase is left or
// the wait runs out.
func (uc *UseCase) awaitChallenge(ctx context.Context, page output.PagePort, log output.LoggerPort) bool {
	poll := uc.opts.CaptchaPoll
	if poll <= 0 {
		poll = DefaultCaptchaPoll
	}

	var waited time.Duration
	for {
		text, err := page.Evaluate(ctx, output.ScriptPageText)
		if err == nil && !executor.HasChallenge(text) {
			log.Info("Challenge cleared", "waited", waited)
			return true
		}
		if waited >= uc.opts.CaptchaWait {
			return false
		}
		if err := uc.sleep(ctx, poll); err != nil {
			return false
		}
		waited += poll
	}
}

func failedRequired(plan *entity.TaskPlan, results []entity.StepResult) bool {
	for _, r := range results {
		if !r.Success && !plan.Steps[r.Index].Optional {
			return true
		}
	}
	return false
}

// mergeResults replaces earlier results of re-run steps by their latest run.
func mergeResults(base, rerun []entity.StepResult) []entity.StepResult {
	out := make([]entity.StepResult, len(base))
	copy(out, base)
	pos := make(map[int]int, len(out))
	for i, r := range out {
		pos[r.Index] = i
	}
	for _, r := range rerun {
		if i, ok := pos[r.Index]; ok {
			out[i] = r
			continue
		}
		pos[r.Index] = len(out)
		out = append(out, r)
	}
	return out
}
