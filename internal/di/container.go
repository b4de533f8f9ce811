package di

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap/zapcore"

	"browser-commander/internal/application/port/input"
	"browser-commander/internal/application/port/output"
	"browser-commander/internal/infrastructure/browser/rod"
	"browser-commander/internal/infrastructure/config"
	"browser-commander/internal/infrastructure/llm/langchain"
	"browser-commander/internal/infrastructure/llm/openrouter"
	"browser-commander/internal/infrastructure/logger"
	"browser-commander/internal/infrastructure/report"
	"browser-commander/internal/infrastructure/reportserver"
	"browser-commander/internal/infrastructure/store/sqlite"
	"browser-commander/internal/infrastructure/userinteraction"
	"browser-commander/internal/usecase/classifier"
	"browser-commander/internal/usecase/evaluator"
	"browser-commander/internal/usecase/executor"
	"browser-commander/internal/usecase/orchestrator"
	"browser-commander/internal/usecase/parser"
	"browser-commander/internal/usecase/planner"
	"browser-commander/internal/usecase/resolver"
	"browser-commander/internal/usecase/retry"
)

type Container struct {
	Config   config.Config
	Logger   output.LoggerPort
	LogPath  string
	LLM      output.LLMPort
	Launcher output.BrowserLauncher
	Reports  *report.Writer
	Runs     output.RunStore
	UI       output.UserInteractionPort
	Runner   input.CommandRunner
}

// NewContainer wires one command run. task names the session log file.
func NewContainer(cfg config.Config, task string) (*Container, error) {
	log, err := logger.NewLoggerAdapter(logger.Config{
		Dir:     cfg.LogDir,
		Task:    task,
		Console: true,
		Level:   zapcore.DebugLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{Config: cfg, Logger: log, LogPath: log.Path()}

	if err := c.build(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) build() error {
	cfg := c.Config
	log := c.Logger

	llm, err := newLLM(cfg.LLM, log)
	if err != nil {
		return err
	}
	c.LLM = llm

	reports, err := report.NewWriter(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to create report writer: %w", err)
	}
	c.Reports = reports

	runs, err := sqlite.NewRunStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	c.Runs = runs

	c.Launcher = rod.NewLauncher(rod.DefaultConfig(), log)
	c.UI = userinteraction.NewConsoleUserInteraction()

	classifierOpts := []classifier.Option{classifier.WithThreshold(cfg.Classifier.LLMThreshold)}
	evaluatorOpts := []evaluator.Option{evaluator.WithThreshold(cfg.Validator.Threshold)}
	if len(cfg.Validator.Weights) > 0 {
		evaluatorOpts = append(evaluatorOpts, evaluator.WithWeights(cfg.Validator.Weights))
	}
	if llm != nil {
		classifierOpts = append(classifierOpts, classifier.WithLLM(llm, cfg.LLM.Timeout))
		evaluatorOpts = append(evaluatorOpts, evaluator.WithLLM(llm, cfg.LLM.Timeout))
	}

	retryer := retry.New(retry.Policy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.Initial,
		MaxDelay:     cfg.Retry.Max,
		Multiplier:   cfg.Retry.Factor,
	}, log)

	screenshots := report.NewScreenshotFiles(filepath.Join(cfg.LogDir, "screenshots"))
	exec := executor.New(resolver.New(log, 0), retryer, screenshots, c.UI, log)

	c.Runner = orchestrator.New(orchestrator.Deps{
		Parser:      parser.New(log),
		Classifier:  classifier.New(log, classifierOpts...),
		Planner:     planner.New(log),
		Executor:    exec,
		Evaluator:   evaluator.New(log, evaluatorOpts...),
		Launcher:    c.Launcher,
		Screenshots: screenshots,
		Reports:     reports,
		Runs:        runs,
		UI:          c.UI,
		Logger:      log,
	}, orchestrator.Options{
		Headless:           cfg.Headless,
		Stealth:            cfg.Stealth,
		CommandTimeout:     cfg.CommandTimeout,
		AutoCaptchaVisible: cfg.AutoCaptchaVisible,
		CaptchaWait:        cfg.CaptchaWait,
		CaptchaPoll:        cfg.CaptchaPoll,
		LogPath:            c.LogPath,
	})

	return nil
}

// ReportServer serves the run history of this container's store.
func (c *Container) ReportServer() *reportserver.Server {
	return reportserver.New(c.Runs, c.Reports, c.Logger)
}

// newLLM returns nil when no provider is configured; classification and
// validation then run without the LLM tier.
func newLLM(cfg config.LLMConfig, log output.LoggerPort) (output.LLMPort, error) {
	if !cfg.Enabled() {
		log.Info("LLM disabled", "provider", cfg.Provider)
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenRouter:
		llmCfg := openrouter.DefaultConfig(cfg.APIKey, cfg.Model)
		if cfg.BaseURL != "" {
			llmCfg.BaseURL = cfg.BaseURL
		}
		llmCfg.Logger = log
		return openrouter.NewOpenRouterAdapter(llmCfg), nil
	case config.ProviderLangChain:
		adapter, err := langchain.New(langchain.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create langchain client: %w", err)
		}
		return adapter, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func (c *Container) Close() {
	if c.Runs != nil {
		c.Runs.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
