package orchestrator

import (
	"context"
	"fmt"

	"browser-commander/internal/application/port/output"
)

// session owns the browser of one command. The browser is launched on
// first use and closed exactly once.
type session struct {
	launcher output.BrowserLauncher
	opts     output.BrowserOptions
	page     output.PagePort
	launches int
	logger   output.LoggerPort
}

func newSession(launcher output.BrowserLauncher, opts output.BrowserOptions, logger output.LoggerPort) *session {
	return &session{launcher: launcher, opts: opts, logger: logger}
}

func (s *session) Page(ctx context.Context) (output.PagePort, error) {
	if s.page != nil {
		return s.page, nil
	}
	page, err := s.launcher.Launch(ctx, s.opts)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	s.launches++
	s.page = page
	s.logger.Info("Browser launched", "headless", s.opts.Headless, "stealth", s.opts.Stealth)
	return page, nil
}

// Relaunch closes the current browser and opens a new one with opts.
func (s *session) Relaunch(ctx context.Context, opts output.BrowserOptions) (output.PagePort, error) {
	s.Close()
	s.opts = opts
	return s.Page(ctx)
}

func (s *session) Headless() bool {
	return s.opts.Headless
}

func (s *session) Active() output.PagePort {
	return s.page
}

func (s *session) Close() {
	if s.page == nil {
		return
	}
	s.page.Close()
	s.page = nil
	s.logger.Debug("Browser closed")
}
