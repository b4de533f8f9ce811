package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/usecase/resolver"
	"browser-commander/internal/usecase/retry"
)

// Run is the mutable state of one command shared by its steps.
type Run struct {
	SessionID string
	Page      output.PagePort
	Command   entity.ParsedCommand

	Analysis     *entity.FormAnalysis
	Resolution   *entity.Resolution
	Extracted    map[string]any
	Verification *Verification
	Submitted    bool

	current int
}

type UseCase struct {
	registry    *Registry
	resolver    *resolver.Resolver
	retryer     *retry.Retryer
	screenshots output.ScreenshotStore
	ui          output.UserInteractionPort
	logger      output.LoggerPort
	sleep       retry.SleepFunc
}

func New(
	res *resolver.Resolver,
	retryer *retry.Retryer,
	screenshots output.ScreenshotStore,
	ui output.UserInteractionPort,
	logger output.LoggerPort,
) *UseCase {
	uc := &UseCase{
		registry:    NewRegistry(),
		resolver:    res,
		retryer:     retryer,
		screenshots: screenshots,
		ui:          ui,
		logger:      logger,
		sleep:       retry.ContextSleep,
	}
	uc.registerDefaults()
	return uc
}

// WithSleep replaces the timer used by wait steps.
func (uc *UseCase) WithSleep(sleep retry.SleepFunc) *UseCase {
	uc.sleep = sleep
	return uc
}

func (uc *UseCase) Registry() *Registry {
	return uc.registry
}

// Execute runs every pending step in plan order. A failed required step
// halts the plan when StopOnFailure is set; the remaining steps are marked
// skipped. Optional steps never halt the plan.
func (uc *UseCase) Execute(ctx context.Context, plan *entity.TaskPlan, run *Run) []entity.StepResult {
	results := make([]entity.StepResult, 0, len(plan.Steps))
	halted := false

	for i, step := range plan.Steps {
		if halted {
			step.Status = entity.TaskStatusSkipped
			results = append(results, entity.StepResult{
				Index: i,
				Type:  step.Type,
				Error: "skipped after earlier failure",
			})
			continue
		}

		result := uc.runStep(ctx, plan, i, run)
		results = append(results, result)

		if !result.Success && !step.Optional && plan.StopOnFailure {
			uc.logger.Warn("Required step failed, halting plan", "index", i, "type", step.Type, "error", result.Error)
			halted = true
		}
	}
	return results
}

// Rerun resets and re-executes only the steps of the given types, in plan
// order. A failed required step stops the rerun.
func (uc *UseCase) Rerun(ctx context.Context, plan *entity.TaskPlan, run *Run, types ...entity.StepType) []entity.StepResult {
	want := make(map[entity.StepType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var results []entity.StepResult
	for i, step := range plan.Steps {
		if !want[step.Type] {
			continue
		}
		step.Status = entity.TaskStatusPending
		result := uc.runStep(ctx, plan, i, run)
		results = append(results, result)
		if !result.Success && !step.Optional {
			break
		}
	}
	return results
}

func (uc *UseCase) runStep(ctx context.Context, plan *entity.TaskPlan, index int, run *Run) (result entity.StepResult) {
	step := plan.Steps[index]
	log := uc.logger.WithFields(map[string]any{"index": index, "step": step.Label()})
	start := time.Now()

	result = entity.StepResult{Index: index, Type: step.Type}
	defer func() {
		result.Duration = time.Since(start)
		if result.Success {
			step.Status = entity.TaskStatusCompleted
		} else {
			step.Status = entity.TaskStatusFailed
		}
		if uc.ui != nil {
			uc.ui.ShowStepResult(ctx, result)
		}
	}()

	step.Status = entity.TaskStatusRunning
	run.current = index
	if uc.ui != nil {
		uc.ui.ShowStepStart(ctx, index, step)
	}

	if err := checkDependencies(plan, index); err != nil {
		log.Warn("Dependency not satisfied", "error", err)
		result.Error = err.Error()
		return result
	}

	data, err := uc.invoke(ctx, step, run, log)
	if err == nil {
		result.Success = true
		uc.fill(&result, data)
		log.Info("Step completed", "duration", time.Since(start))
		return result
	}

	log.Warn("Step failed", "error", err)
	result.Error = err.Error()
	uc.fill(&result, data)

	if step.Fallback == nil {
		return result
	}

	log.Info("Running fallback", "fallback", step.Fallback.Label())
	fbData, fbErr := uc.invoke(ctx, step.Fallback, run, log)
	if fbErr != nil {
		log.Warn("Fallback failed", "error", fbErr)
		result.Error = fmt.Sprintf("%s; fallback: %s", result.Error, fbErr)
		return result
	}

	if step.Type == entity.StepSubmit {
		run.Submitted = true
	}
	result.Success = true
	result.UsedFallback = true
	result.Error = ""
	uc.fill(&result, fbData)
	log.Info("Step completed by fallback")
	return result
}

func (uc *UseCase) fill(result *entity.StepResult, data map[string]any) {
	if data == nil {
		return
	}
	result.Data = data
	if n, ok := data["attempts"].(int); ok {
		result.Attempts = n
	}
	if p, ok := data["path"].(string); ok && result.Type == entity.StepScreenshot {
		result.ScreenshotPath = p
	}
}

// invoke runs the step's handler under its timeout and converts panics into
// errors.
func (uc *UseCase) invoke(ctx context.Context, step *entity.TaskStep, run *Run, log output.LoggerPort) (data map[string]any, err error) {
	handler, ok := uc.registry.Get(step.Type)
	if !ok {
		return nil, fmt.Errorf("%w: no handler for %s", entity.ErrStepExecution, step.Type)
	}

	stepCtx, cancel := context.WithTimeout(ctx, uc.budget(step))
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Step handler panicked", "panic", r)
			data, err = nil, fmt.Errorf("%w: panic: %v", entity.ErrStepExecution, r)
		}
	}()

	data, err = handler(stepCtx, step, run)
	if err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%w: %s timed out after %s: %w", entity.ErrStepExecution, step.Type, uc.budget(step), err)
	}
	return data, err
}

// budget is the step's total time: one timeout per attempt plus backoff.
func (uc *UseCase) budget(step *entity.TaskStep) time.Duration {
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if step.Type != entity.StepNavigate || step.Retries <= 1 {
		return timeout
	}
	total := timeout * time.Duration(step.Retries)
	for i := 1; i < step.Retries; i++ {
		total += uc.retryer.Delay(i)
	}
	return total
}

func checkDependencies(plan *entity.TaskPlan, index int) error {
	for _, d := range plan.Steps[index].DependsOn {
		dep := plan.Steps[d]
		if dep.Status == entity.TaskStatusCompleted || dep.Optional {
			continue
		}
		return fmt.Errorf("%w: step %d (%s) is %s", entity.ErrDependencyFailed, d, dep.Type, dep.Status)
	}
	return nil
}
