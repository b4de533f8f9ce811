package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"browser-commander/internal/application/port/input"
	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/usecase/classifier"
	"browser-commander/internal/usecase/evaluator"
	"browser-commander/internal/usecase/executor"
	"browser-commander/internal/usecase/parser"
	"browser-commander/internal/usecase/planner"
	"browser-commander/internal/usecase/retry"
)

const (
	DefaultCommandTimeout = 5 * time.Minute
	DefaultCaptchaWait    = 60 * time.Second
	DefaultCaptchaPoll    = 2 * time.Second

	cleanupTimeout = 10 * time.Second
)

var _ input.CommandRunner = (*UseCase)(nil)

type Options struct {
	Headless           bool
	Stealth            bool
	CommandTimeout     time.Duration
	AutoCaptchaVisible bool
	CaptchaWait        time.Duration
	CaptchaPoll        time.Duration
	// LogPath is copied into every report.
	LogPath string
}

type Deps struct {
	Parser      *parser.Parser
	Classifier  *classifier.Classifier
	Planner     *planner.Compiler
	Executor    *executor.UseCase
	Evaluator   *evaluator.Evaluator
	Launcher    output.BrowserLauncher
	Screenshots output.ScreenshotStore
	Reports     output.ReportWriter
	Runs        output.RunStore
	UI          output.UserInteractionPort
	Logger      output.LoggerPort
}

// UseCase drives one instruction from text to a validated report. It owns
// the browser of the command it runs and is not safe for concurrent use.
type UseCase struct {
	parser      *parser.Parser
	classifier  *classifier.Classifier
	planner     *planner.Compiler
	executor    *executor.UseCase
	evaluator   *evaluator.Evaluator
	launcher    output.BrowserLauncher
	screenshots output.ScreenshotStore
	reports     output.ReportWriter
	runs        output.RunStore
	ui          output.UserInteractionPort
	logger      output.LoggerPort

	opts     Options
	handlers map[entity.TaskType]taskHandler
	sleep    retry.SleepFunc
}

func New(deps Deps, opts Options) *UseCase {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.CaptchaWait <= 0 {
		opts.CaptchaWait = DefaultCaptchaWait
	}
	if opts.CaptchaPoll <= 0 {
		opts.CaptchaPoll = DefaultCaptchaPoll
	}

	uc := &UseCase{
		parser:      deps.Parser,
		classifier:  deps.Classifier,
		planner:     deps.Planner,
		executor:    deps.Executor,
		evaluator:   deps.Evaluator,
		launcher:    deps.Launcher,
		screenshots: deps.Screenshots,
		reports:     deps.Reports,
		runs:        deps.Runs,
		ui:          deps.UI,
		logger:      deps.Logger,
		opts:        opts,
		sleep:       retry.ContextSleep,
	}
	uc.handlers = uc.routes()
	return uc
}

// WithSleep replaces the timer of the challenge poll loop.
func (uc *UseCase) WithSleep(sleep retry.SleepFunc) *UseCase {
	uc.sleep = sleep
	return uc
}

// Run never panics and never returns a nil report. The browser, when one
// was launched, is closed before Run returns.
func (uc *UseCase) Run(ctx context.Context, instruction string, opts input.RunOptions) (report *entity.RunReport) {
	report = &entity.RunReport{
		SessionID:   uuid.NewString(),
		Instruction: instruction,
		StartedAt:   time.Now(),
		LogPath:     uc.opts.LogPath,
	}
	log := uc.logger.WithField("session_id", report.SessionID)
	log.Info("Running instruction", "instruction", instruction, "dry_run", opts.DryRun, "parse_only", opts.ParseOnly)

	ctx, cancel := context.WithTimeout(ctx, uc.opts.CommandTimeout)
	defer cancel()

	sess := newSession(uc.launcher, output.BrowserOptions{
		Headless: uc.opts.Headless,
		Stealth:  uc.opts.Stealth,
	}, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Run panicked", "panic", r)
			report.Success = false
			report.Error = fmt.Sprintf("internal error: %v", r)
		}
		if !report.Success && sess.Active() != nil {
			uc.errorScreenshot(ctx, sess.Active(), report, log)
		}
		sess.Close()
		uc.finish(ctx, report, log)
	}()

	if err := uc.run(ctx, instruction, opts, sess, report, log); err != nil {
		report.Success = false
		report.Error = err.Error()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			report.Error = uc.timeoutMessage(err.Error())
		}
	}
	return report
}

func (uc *UseCase) run(ctx context.Context, instruction string, opts input.RunOptions, sess *session, report *entity.RunReport, log output.LoggerPort) error {
	cmd := uc.parser.Parse(instruction)
	match := uc.detectGoal(ctx, instruction, cmd, log)
	cmd = cmd.WithGoal(match)
	report.Command = &cmd
	report.Goal = &match
	if uc.ui != nil {
		uc.ui.ShowCommand(ctx, &cmd, &match)
	}

	if cmd.URL() == "" {
		log.Warn("No target domain in instruction", "confidence", cmd.Confidence)
		return fmt.Errorf("%w (parse confidence %.2f)", entity.ErrParseFailure, cmd.Confidence)
	}
	if opts.ParseOnly {
		report.Success = true
		return nil
	}

	plan := uc.planner.Compile(cmd)
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	report.Plan = plan
	if uc.ui != nil {
		uc.ui.ShowPlan(ctx, plan)
	}
	if opts.DryRun {
		report.Success = true
		return nil
	}

	handler, ok := uc.handlers[plan.TaskType]
	if !ok {
		return fmt.Errorf("no handler for task type %q", plan.TaskType)
	}

	rc := &runContext{
		instruction: instruction,
		cmd:         cmd,
		plan:        plan,
		run:         &executor.Run{SessionID: report.SessionID, Command: cmd},
		session:     sess,
		validation:  entity.ValidationContext{TaskType: plan.TaskType},
		log:         log,
	}

	outcome, err := handler(ctx, rc)
	if err != nil {
		return err
	}

	report.StepResults = outcome.StepResults
	report.FinalURL = outcome.FinalURL
	report.ExtractedData = outcome.ExtractedData
	report.CaptchaFlow = outcome.CaptchaFlow
	report.ScreenshotPath = lastScreenshot(outcome.StepResults)

	// Handlers report expired deadlines as step failures, not errors.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn("Command timed out", "timeout", uc.opts.CommandTimeout)
		report.Success = false
		report.Error = uc.timeoutMessage(outcome.Error)
		return nil
	}

	rc.validation.PageText = uc.pageText(ctx, rc.run.Page)
	if shot := uc.finalScreenshot(ctx, rc.run.Page); shot != nil {
		rc.validation.Screenshot = shot.Data
	}
	report.Validation = uc.evaluator.Validate(ctx, instruction, outcome, rc.validation)

	report.Success = outcome.Success && report.Validation.Passed
	if !report.Success {
		switch {
		case outcome.Error != "":
			report.Error = outcome.Error
		default:
			report.Error = fmt.Sprintf("%s: status %s, score %.2f", entity.ErrValidationFailure, report.Validation.Status, report.Validation.Score)
		}
	}
	return nil
}

func (uc *UseCase) timeoutMessage(cause string) string {
	if cause == "" {
		return fmt.Sprintf("command timed out after %s", uc.opts.CommandTimeout)
	}
	return fmt.Sprintf("command timed out after %s: %s", uc.opts.CommandTimeout, cause)
}

// detectGoal keeps the parser's keyword goal unless the ensemble is more
// confident.
func (uc *UseCase) detectGoal(ctx context.Context, instruction string, cmd entity.ParsedCommand, log output.LoggerPort) entity.GoalMatch {
	parsed := entity.GoalMatch{
		Goal:       cmd.PrimaryGoal,
		Confidence: cmd.GoalConfidence,
		Method:     entity.MethodKeyword,
	}
	if uc.classifier == nil {
		return parsed
	}
	detected := uc.classifier.Detect(ctx, instruction)
	if detected.Confidence > parsed.Confidence {
		log.Debug("Classifier overrides keyword goal", "keyword", parsed.Goal, "detected", detected.Goal, "method", detected.Method)
		return detected
	}
	return parsed
}

func (uc *UseCase) pageText(ctx context.Context, page output.PagePort) string {
	if page == nil {
		return ""
	}
	text, err := page.Evaluate(ctx, output.ScriptPageText)
	if err != nil {
		uc.logger.Debug("Could not read final page text", "error", err)
		return ""
	}
	return text
}

func (uc *UseCase) finalScreenshot(ctx context.Context, page output.PagePort) *entity.Screenshot {
	if page == nil {
		return nil
	}
	shot, err := page.Screenshot(ctx)
	if err != nil {
		uc.logger.Debug("Could not capture final screenshot", "error", err)
		return nil
	}
	return shot
}

func (uc *UseCase) errorScreenshot(ctx context.Context, page output.PagePort, report *entity.RunReport, log output.LoggerPort) {
	if uc.screenshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Warn("Error screenshot panicked", "panic", r)
		}
	}()

	shot, err := page.Screenshot(ctx)
	if err != nil {
		log.Warn("Error screenshot failed", "error", err)
		return
	}
	path, err := uc.screenshots.Save(report.SessionID, -1, shot)
	if err != nil {
		log.Warn("Error screenshot not saved", "error", err)
		return
	}
	report.ScreenshotPath = path
}

// finish stamps the duration and persists the report. Persistence failures
// are logged, not returned.
func (uc *UseCase) finish(ctx context.Context, report *entity.RunReport, log output.LoggerPort) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	report.Duration = time.Since(report.StartedAt)

	if uc.reports != nil {
		path, err := uc.reports.Write(report)
		if err != nil {
			log.Warn("Report not written", "error", err)
		} else {
			report.ReportPath = path
		}
	}
	if uc.runs != nil {
		if err := uc.runs.SaveRun(ctx, report); err != nil {
			log.Warn("Run not stored", "error", err)
		}
	}

	log.Info("Run finished",
		"success", report.Success,
		"duration", report.Duration,
		"error", report.Error,
		"report", report.ReportPath,
	)
	if uc.ui != nil {
		uc.ui.ShowReport(ctx, report)
	}
}

func lastScreenshot(results []entity.StepResult) string {
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].ScreenshotPath != "" {
			return results[i].ScreenshotPath
		}
	}
	return ""
}
