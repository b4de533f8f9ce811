package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const (
	defaultSlowMotion    = 0
	defaultActionTimeout = 10 * time.Second
	maxScreenshotWidth   = 1024
	statusWait           = 2 * time.Second

	stealthUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	stealthScript = `() => {
		Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
		Object.defineProperty(navigator, 'languages', { get: () => ['pl-PL', 'pl', 'en-US', 'en'] });
		window.chrome = window.chrome || { runtime: {} };
	}`
)

var (
	_ output.BrowserLauncher = (*Launcher)(nil)
	_ output.PagePort        = (*PageAdapter)(nil)
)

type Config struct {
	SlowMotion     time.Duration
	ActionTimeout  time.Duration
	NoSandbox      bool
	ViewportWidth  int
	ViewportHeight int
	// Bin overrides the browser binary; empty means auto-detect.
	Bin string
}

func DefaultConfig() Config {
	return Config{
		SlowMotion:     defaultSlowMotion,
		ActionTimeout:  defaultActionTimeout,
		NoSandbox:      false,
		ViewportWidth:  1366,
		ViewportHeight: 900,
	}
}

// Launcher starts one Chromium per Launch call.
type Launcher struct {
	cfg    Config
	logger output.LoggerPort
}

func NewLauncher(cfg Config, logger output.LoggerPort) *Launcher {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}
	return &Launcher{cfg: cfg, logger: logger}
}

func (l *Launcher) Launch(ctx context.Context, opts output.BrowserOptions) (output.PagePort, error) {
	ln := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(l.cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-setuid-sandbox")
	if opts.Stealth {
		ln = ln.Delete("enable-automation").
			Set("disable-blink-features", "AutomationControlled")
	}
	if l.cfg.Bin != "" {
		ln = ln.Bin(l.cfg.Bin)
	} else if path, ok := launcher.LookPath(); ok {
		ln = ln.Bin(path)
	}

	controlURL, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).SlowMotion(l.cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		ln.Kill()
		ln.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		ln.Kill()
		ln.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	adapter := &PageAdapter{
		browser:  browser,
		launcher: ln,
		page:     page,
		timeout:  l.cfg.ActionTimeout,
		logger:   l.logger,
	}
	if err := adapter.prepare(l.cfg, opts); err != nil {
		adapter.Close()
		return nil, err
	}

	l.logger.Debug("Browser started", "headless", opts.Headless, "stealth", opts.Stealth)
	return adapter, nil
}

// PageAdapter is the single tab of a launched browser.
type PageAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	logger   output.LoggerPort

	mu      sync.Mutex
	lastURL string
	closed  bool
}

func (p *PageAdapter) prepare(cfg Config, opts output.BrowserOptions) error {
	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		if err := p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.ViewportWidth,
			Height:            cfg.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
	}
	if !opts.Stealth {
		return nil
	}
	if err := p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      stealthUserAgent,
		AcceptLanguage: "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7",
	}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}
	if _, err := p.page.EvalOnNewDocument(stealthScript); err != nil {
		return fmt.Errorf("install stealth script: %w", err)
	}
	return nil
}

// Navigate loads url and reports the status of the main document. Transport
// failures and statuses >= 400 come back as *entity.NetworkError.
func (p *PageAdapter) Navigate(ctx context.Context, url string, timeout time.Duration) (*entity.NavigationResult, error) {
	if timeout <= 0 {
		timeout = p.timeout
	}
	page := p.page.Context(ctx).Timeout(timeout)

	statusCh := make(chan int, 1)
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		select {
		case statusCh <- e.Response.Status:
		default:
		}
		return true
	})
	go wait()

	if err := page.Navigate(url); err != nil {
		return nil, &entity.NetworkError{Op: "navigate", URL: url, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return nil, &entity.NetworkError{Op: "wait load", URL: url, Err: err}
	}
	_ = p.page.WaitIdle(statusWait)

	status := 0
	select {
	case status = <-statusCh:
	case <-time.After(statusWait):
		p.logger.Debug("No document response observed", "url", url)
	}

	final := p.CurrentURL()
	if status >= 400 {
		return nil, &entity.NetworkError{Op: "navigate", URL: url, StatusCode: status}
	}
	return &entity.NavigationResult{URL: final, StatusCode: status}, nil
}

func (p *PageAdapter) Evaluate(ctx context.Context, script string) (string, error) {
	res, err := p.page.Context(ctx).Timeout(p.timeout).Eval(script)
	if err != nil {
		return "", fmt.Errorf("evaluate failed: %w", err)
	}
	if res.Value.Nil() {
		return "", nil
	}
	if res.Type == proto.RuntimeRemoteObjectTypeString {
		return res.Value.Str(), nil
	}
	return res.Value.JSON("", ""), nil
}

func (p *PageAdapter) Click(ctx context.Context, selector string) error {
	page := p.page.Context(ctx).Timeout(p.timeout)

	var el *rod.Element
	var err error
	if strings.HasPrefix(selector, "/") {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", entity.ErrSelectorNotFound, selector, err)
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	_ = p.page.WaitIdle(statusWait)
	return nil
}

func (p *PageAdapter) Fill(ctx context.Context, selector, value string) error {
	el, err := p.page.Context(ctx).Timeout(p.timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", entity.ErrSelectorNotFound, selector, err)
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}

	if err := el.Input(value); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}

	return nil
}

// Screenshot captures the viewport as JPEG, scaled down to at most 1024px wide.
func (p *PageAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := p.page.Context(ctx).Timeout(p.timeout).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (p *PageAdapter) CurrentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return p.lastURL
	}
	info, err := p.page.Info()
	if err != nil {
		return p.lastURL
	}
	p.lastURL = info.URL
	return info.URL
}

func (p *PageAdapter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	if p.browser != nil {
		if err := p.browser.Close(); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Debug("Browser close failed", "error", err)
		}
	}
	if p.launcher != nil {
		p.launcher.Kill()
		p.launcher.Cleanup()
	}
}

func (p *PageAdapter) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
