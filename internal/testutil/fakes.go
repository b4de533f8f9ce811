// Package testutil holds in-memory fakes of the output ports.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/infrastructure/logger"
)

// FakeSite is one scripted URL.
type FakeSite struct {
	Status int
	HTML   string
	// Texts are returned by successive text evaluations; the last one sticks.
	// When empty, Text is used.
	Texts []string
	Text  string

	textCalls int
}

func (s *FakeSite) text() string {
	if len(s.Texts) == 0 {
		return s.Text
	}
	i := s.textCalls
	if i >= len(s.Texts) {
		i = len(s.Texts) - 1
	}
	s.textCalls++
	return s.Texts[i]
}

// FakePage implements output.PagePort over a map of scripted sites.
type FakePage struct {
	mu sync.Mutex

	Sites map[string]*FakeSite
	// NavigateErrors are returned, in order, by calls to the keyed URL
	// before the site itself is served.
	NavigateErrors map[string][]error
	FillErrors     map[string]error
	ClickErrors    map[string]error
	// OnClick may change the current URL, e.g. to a thank-you page.
	OnClick map[string]string

	NavigateCalls []string
	Fills         []entity.FormField
	Clicks        []string
	Evaluations   int
	Screenshots   int
	Closed        bool

	current string
}

func NewFakePage(sites map[string]*FakeSite) *FakePage {
	return &FakePage{
		Sites:          sites,
		NavigateErrors: map[string][]error{},
		FillErrors:     map[string]error{},
		ClickErrors:    map[string]error{},
		OnClick:        map[string]string{},
	}
}

func (p *FakePage) Navigate(ctx context.Context, u string, timeout time.Duration) (*entity.NavigationResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.NavigateCalls = append(p.NavigateCalls, u)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errs := p.NavigateErrors[u]; len(errs) > 0 {
		p.NavigateErrors[u] = errs[1:]
		return nil, errs[0]
	}

	site, ok := p.lookup(u)
	if !ok {
		return nil, &entity.NetworkError{Op: "navigate", URL: u, StatusCode: 404}
	}
	status := site.Status
	if status == 0 {
		status = 200
	}
	if status >= 400 {
		return nil, &entity.NetworkError{Op: "navigate", URL: u, StatusCode: status}
	}
	p.current = u
	return &entity.NavigationResult{URL: u, StatusCode: status}, nil
}

func (p *FakePage) Evaluate(ctx context.Context, script string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Evaluations++
	site, ok := p.lookup(p.current)
	if !ok {
		return "", fmt.Errorf("evaluate: no page loaded")
	}
	switch script {
	case output.ScriptPageHTML:
		return site.HTML, nil
	case output.ScriptPageText:
		return site.text(), nil
	}
	return "", fmt.Errorf("evaluate: unsupported script")
}

func (p *FakePage) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.FillErrors[selector]; err != nil {
		return err
	}
	p.Fills = append(p.Fills, entity.FormField{Name: selector, Value: value})
	return nil
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ClickErrors[selector]; err != nil {
		return err
	}
	p.Clicks = append(p.Clicks, selector)
	if next, ok := p.OnClick[selector]; ok {
		p.current = next
	}
	return nil
}

func (p *FakePage) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Screenshots++
	return &entity.Screenshot{Data: []byte("jpeg"), Format: "jpeg", Width: 1, Height: 1}, nil
}

func (p *FakePage) CurrentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *FakePage) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
}

// SetCurrent places the page on u without recording a navigation.
func (p *FakePage) SetCurrent(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = u
}

// lookup tolerates a trailing slash difference.
func (p *FakePage) lookup(u string) (*FakeSite, bool) {
	if s, ok := p.Sites[u]; ok {
		return s, true
	}
	if parsed, err := url.Parse(u); err == nil {
		alt := strings.TrimSuffix(u, "/")
		if parsed.Path == "" {
			alt = u + "/"
		}
		s, ok := p.Sites[alt]
		return s, ok
	}
	return nil, false
}

// FakeLauncher hands out Pages in order and records launch options.
type FakeLauncher struct {
	Pages    []*FakePage
	Launches []output.BrowserOptions
	Err      error
}

func (l *FakeLauncher) Launch(ctx context.Context, opts output.BrowserOptions) (output.PagePort, error) {
	l.Launches = append(l.Launches, opts)
	if l.Err != nil {
		return nil, l.Err
	}
	if len(l.Launches) > len(l.Pages) {
		return nil, fmt.Errorf("launch %d: no page scripted", len(l.Launches))
	}
	return l.Pages[len(l.Launches)-1], nil
}

// FakeLLM returns Responses in order; the last one repeats.
type FakeLLM struct {
	Responses []string
	Err       error
	Delay     time.Duration
	Prompts   []string
}

func (f *FakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.Prompts = append(f.Prompts, prompt)
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", nil
	}
	i := len(f.Prompts) - 1
	if i >= len(f.Responses) {
		i = len(f.Responses) - 1
	}
	return f.Responses[i], nil
}

func NopLogger() output.LoggerPort {
	return logger.NewNop()
}
