package output

import (
	"context"
	"time"

	"browser-commander/internal/domain/entity"
)

// PagePort is the single page a command works on.
type PagePort interface {
	// Navigate fails with *entity.NetworkError on transport errors and on
	// HTTP statuses >= 400.
	Navigate(ctx context.Context, url string, timeout time.Duration) (*entity.NavigationResult, error)
	// Evaluate runs a read-only script and returns its result as a string;
	// non-string results are JSON encoded.
	Evaluate(ctx context.Context, script string) (string, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}

type BrowserOptions struct {
	Headless bool
	Stealth  bool
}

type BrowserLauncher interface {
	Launch(ctx context.Context, opts BrowserOptions) (PagePort, error)
}

// Scripts every PagePort must support through Evaluate.
const (
	ScriptPageHTML = "() => document.documentElement.outerHTML"
	ScriptPageText = "() => document.body ? document.body.innerText : ''"
)
