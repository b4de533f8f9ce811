package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"browser-commander/internal/application/port/input"
	"browser-commander/internal/di"
	"browser-commander/internal/infrastructure/config"
	"browser-commander/internal/infrastructure/env"
)

var errRunFailed = errors.New("run failed")

type runFlags struct {
	configPath string
	dryRun     bool
	parseOnly  bool
	visible    bool
	noStealth  bool
	timeout    time.Duration
	logDir     string
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	flags := &runFlags{}

	root := &cobra.Command{
		Use:   "agent [instruction]",
		Short: "Drive a browser from a natural-language instruction",
		Long: `Parses an instruction such as "Wejdź na example.com i wyślij formularz kontaktowy",
plans the browser steps, executes them in Chromium and validates the result.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runInstruction(cmd, flags, args)
		},
	}
	bindRunFlags(root, flags)

	run := &cobra.Command{
		Use:   "run <instruction>",
		Short: "Execute one instruction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstruction(cmd, flags, args)
		},
	}
	bindRunFlags(run, flags)

	root.AddCommand(run, newServeReportsCmd())
	return root
}

func bindRunFlags(cmd *cobra.Command, f *runFlags) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "YAML config file (default $AGENT_CONFIG)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "parse and plan without launching a browser")
	fs.BoolVar(&f.parseOnly, "parse-only", false, "only parse and classify the instruction")
	fs.BoolVar(&f.visible, "visible", false, "run the browser with a window")
	fs.BoolVar(&f.noStealth, "no-stealth", false, "disable automation-hiding browser flags")
	fs.DurationVar(&f.timeout, "timeout", 0, "overall command timeout (default 5m)")
	fs.StringVar(&f.logDir, "log-dir", "", "directory for logs, reports and screenshots")
}

func loadConfig(f *runFlags) (config.Config, error) {
	cfg, err := config.Load(f.configPath, env.NewEnvService())
	if err != nil {
		return cfg, err
	}

	if f.visible {
		cfg.Headless = false
	}
	if f.noStealth {
		cfg.Stealth = false
	}
	if f.timeout > 0 {
		cfg.CommandTimeout = f.timeout
	}
	if f.logDir != "" {
		cfg.SetLogDir(f.logDir)
	}
	return cfg, nil
}

func runInstruction(cmd *cobra.Command, f *runFlags, args []string) error {
	instruction := strings.TrimSpace(strings.Join(args, " "))
	if instruction == "" {
		return fmt.Errorf("empty instruction")
	}

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	container, err := di.NewContainer(cfg, instruction)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer container.Close()

	container.Logger.Info("Command started", "instruction", instruction, "headless", cfg.Headless)

	report := container.Runner.Run(cmd.Context(), instruction, input.RunOptions{
		DryRun:    f.dryRun,
		ParseOnly: f.parseOnly,
	})

	container.Logger.Info("Command finished", "success", report.Success, "duration", report.Duration)
	if !report.Success {
		return errRunFailed
	}
	return nil
}

func newServeReportsCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		logDir     string
	)

	cmd := &cobra.Command{
		Use:   "serve-reports",
		Short: "Serve stored run reports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(&runFlags{configPath: configPath, logDir: logDir})
			if err != nil {
				return err
			}

			container, err := di.NewContainer(cfg, "serve-reports")
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			defer container.Close()

			fmt.Printf("Serving reports from %s on %s\n", cfg.Store.Path, addr)
			return container.ReportServer().ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8088", "listen address")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (default $AGENT_CONFIG)")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "directory holding runs.db")
	return cmd
}
