package rod

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/testutil"
)

func requireBrowser(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no Chromium found")
	}
}

func testServer() *httptest.Server {
	mux := http.NewServeMux()
	serve := func(body string, status int) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(status)
			fmt.Fprint(w, body)
		}
	}
	mux.HandleFunc("/", serve(BasicHTML, http.StatusOK))
	mux.HandleFunc("/form", serve(FormHTML, http.StatusOK))
	mux.HandleFunc("/sent", serve(SentHTML, http.StatusOK))
	mux.HandleFunc("/interactive", serve(InteractiveHTML, http.StatusOK))
	mux.HandleFunc("/wide", serve(WideHTML, http.StatusOK))
	mux.HandleFunc("/missing", serve("<h1>gone</h1>", http.StatusNotFound))
	mux.HandleFunc("/broken", serve("<h1>oops</h1>", http.StatusServiceUnavailable))
	return httptest.NewServer(mux)
}

func launchPage(t *testing.T, stealth bool) *PageAdapter {
	t.Helper()
	requireBrowser(t)

	cfg := DefaultConfig()
	cfg.NoSandbox = true
	l := NewLauncher(cfg, testutil.NopLogger())

	page, err := l.Launch(context.Background(), output.BrowserOptions{Headless: true, Stealth: stealth})
	require.NoError(t, err)
	adapter, ok := page.(*PageAdapter)
	require.True(t, ok)
	t.Cleanup(adapter.Close)
	return adapter
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Duration(defaultSlowMotion), cfg.SlowMotion)
	assert.Equal(t, defaultActionTimeout, cfg.ActionTimeout)
	assert.False(t, cfg.NoSandbox, "Should be secure by default")
	assert.Empty(t, cfg.Bin)
}

func TestNewLauncher_WithZeroTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActionTimeout = 0

	l := NewLauncher(cfg, testutil.NopLogger())

	assert.Equal(t, defaultActionTimeout, l.cfg.ActionTimeout)
}

func TestPageAdapter_NavigateReportsStatus(t *testing.T) {
	server := testServer()
	defer server.Close()
	page := launchPage(t, false)

	res, err := page.Navigate(context.Background(), server.URL+"/form", 10*time.Second)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, server.URL+"/form", res.URL)
	assert.Equal(t, server.URL+"/form", page.CurrentURL())
}

func TestPageAdapter_NavigateErrorStatus(t *testing.T) {
	server := testServer()
	defer server.Close()
	page := launchPage(t, false)

	for path, status := range map[string]int{"/missing": 404, "/broken": 503} {
		_, err := page.Navigate(context.Background(), server.URL+path, 10*time.Second)

		var netErr *entity.NetworkError
		require.True(t, errors.As(err, &netErr), path)
		assert.Equal(t, status, netErr.StatusCode)
		assert.ErrorIs(t, err, entity.ErrNetwork)
	}
}

func TestPageAdapter_NavigateInvalidHost(t *testing.T) {
	page := launchPage(t, false)

	_, err := page.Navigate(context.Background(), "http://does-not-exist.invalid/", 10*time.Second)

	var netErr *entity.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.StatusCode)
}

func TestPageAdapter_EvaluateScripts(t *testing.T) {
	server := testServer()
	defer server.Close()
	page := launchPage(t, false)
	ctx := context.Background()

	_, err := page.Navigate(ctx, server.URL+"/", 10*time.Second)
	require.NoError(t, err)

	html, err := page.Evaluate(ctx, output.ScriptPageHTML)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Hello World</h1>")

	text, err := page.Evaluate(ctx, output.ScriptPageText)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)

	n, err := page.Evaluate(ctx, "() => 1 + 2")
	require.NoError(t, err)
	assert.Equal(t, "3", n)
}

func TestPageAdapter_FillAndSubmit(t *testing.T) {
	server := testServer()
	defer server.Close()
	page := launchPage(t, false)
	ctx := context.Background()

	_, err := page.Navigate(ctx, server.URL+"/form", 10*time.Second)
	require.NoError(t, err)

	require.NoError(t, page.Fill(ctx, "#name", "Jan Kowalski"))
	require.NoError(t, page.Fill(ctx, "#email", "jan@example.com"))

	value, err := page.Evaluate(ctx, "() => document.querySelector('#email').value")
	require.NoError(t, err)
	assert.Equal(t, "jan@example.com", value)

	require.NoError(t, page.Click(ctx, "#send"))
	require.Eventually(t, func() bool {
		text, err := page.Evaluate(ctx, output.ScriptPageText)
		return err == nil && text == "Thank you for your message"
	}, 5*time.Second, 100*time.Millisecond)
}

func TestPageAdapter_Click(t *testing.T) {
	server := testServer()
	defer server.Close()
	page := launchPage(t, false)
	ctx := context.Background()

	_, err := page.Navigate(ctx, server.URL+"/interactive", 10*time.Second)
	require.NoError(t, err)

	require.NoError(t, page.Click(ctx, "#btn"))
	text, err := page.Evaluate(ctx, "() => document.getElementById('result').textContent")
	require.NoError(t, err)
	assert.Equal(t, "Clicked!", text)

	require.NoError(t, page.Click(ctx, "//button[@id='btn']"))
}

func TestPageAdapter_SelectorNotFound(t *testing.T) {
	server := testServer()
	defer server.Close()
	page := launchPage(t, false)
	page.timeout = 500 * time.Millisecond
	ctx := context.Background()

	_, err := page.Navigate(ctx, server.URL+"/", 10*time.Second)
	require.NoError(t, err)

	assert.ErrorIs(t, page.Click(ctx, "#nope"), entity.ErrSelectorNotFound)
	assert.ErrorIs(t, page.Fill(ctx, "#nope", "x"), entity.ErrSelectorNotFound)
}

func TestPageAdapter_ScreenshotResize(t *testing.T) {
	server := testServer()
	defer server.Close()
	page := launchPage(t, false)
	ctx := context.Background()

	_, err := page.Navigate(ctx, server.URL+"/wide", 10*time.Second)
	require.NoError(t, err)

	shot, err := page.Screenshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", shot.Format)
	assert.LessOrEqual(t, shot.Width, maxScreenshotWidth)
	assert.NotEmpty(t, shot.Data)
}

func TestPageAdapter_StealthHidesWebdriver(t *testing.T) {
	server := testServer()
	defer server.Close()
	page := launchPage(t, true)
	ctx := context.Background()

	_, err := page.Navigate(ctx, server.URL+"/", 10*time.Second)
	require.NoError(t, err)

	webdriver, err := page.Evaluate(ctx, "() => String(navigator.webdriver)")
	require.NoError(t, err)
	assert.Equal(t, "undefined", webdriver)

	ua, err := page.Evaluate(ctx, "() => navigator.userAgent")
	require.NoError(t, err)
	assert.NotContains(t, ua, "Headless")
}

func TestPageAdapter_CloseIsIdempotent(t *testing.T) {
	server := testServer()
	defer server.Close()
	page := launchPage(t, false)

	_, err := page.Navigate(context.Background(), server.URL+"/", 10*time.Second)
	require.NoError(t, err)

	page.Close()
	page.Close()

	assert.True(t, page.IsClosed())
	assert.Equal(t, server.URL+"/", page.CurrentURL())
}
