package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browser-commander/internal/application/port/input"
	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/testutil"
	"browser-commander/internal/usecase/classifier"
	"browser-commander/internal/usecase/evaluator"
	"browser-commander/internal/usecase/executor"
	"browser-commander/internal/usecase/parser"
	"browser-commander/internal/usecase/planner"
	"browser-commander/internal/usecase/resolver"
	"browser-commander/internal/usecase/retry"
)

const (
	instruction = "Wejdź na example.com i wyślij formularz kontaktowy z adresem email jan@test.com i nazwiskiem Kowalski"

	homeHTML = `<html><body>
		<main><h1>Witamy</h1></main>
		<footer><a href="/kontakt">Kontakt</a></footer>
	</body></html>`
	contactHTML = `<html><body><form id="contact">
		<label for="name">Imię i nazwisko</label><input id="name" name="name">
		<input id="email" type="email" name="email">
		<textarea id="message" name="message"></textarea>
		<label><input id="consent" type="checkbox"> Wyrażam zgodę</label>
		<button type="submit" id="send">Wyślij</button>
	</form></body></html>`
	sentURL = "https://example.com/wyslano"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

type memoryReports struct {
	written []*entity.RunReport
}

func (m *memoryReports) Write(report *entity.RunReport) (string, error) {
	m.written = append(m.written, report)
	return "/tmp/" + report.SessionID + ".md", nil
}

type memoryShots struct {
	saved []int
}

func (m *memoryShots) Save(sessionID string, stepIndex int, shot *entity.Screenshot) (string, error) {
	m.saved = append(m.saved, stepIndex)
	return "/tmp/shot.jpg", nil
}

type panickingLauncher struct{}

func (panickingLauncher) Launch(ctx context.Context, opts output.BrowserOptions) (output.PagePort, error) {
	panic("chromium exploded")
}

// stalledPage never finishes loading; navigation returns only when the
// context expires.
type stalledPage struct {
	*testutil.FakePage
}

func (p stalledPage) Navigate(ctx context.Context, u string, timeout time.Duration) (*entity.NavigationResult, error) {
	<-ctx.Done()
	return nil, &entity.NetworkError{Op: "navigate", URL: u, Err: ctx.Err()}
}

type stalledLauncher struct {
	page stalledPage
}

func (l stalledLauncher) Launch(ctx context.Context, opts output.BrowserOptions) (output.PagePort, error) {
	return l.page, nil
}

type fixture struct {
	uc      *UseCase
	sleeper *sleepRecorder
	reports *memoryReports
	shots   *memoryShots
}

func newFixture(launcher output.BrowserLauncher, opts Options) *fixture {
	log := testutil.NopLogger()
	f := &fixture{sleeper: &sleepRecorder{}, reports: &memoryReports{}, shots: &memoryShots{}}
	retryer := retry.New(retry.DefaultPolicy(), log).WithSleep(f.sleeper.sleep)
	exec := executor.New(resolver.New(log, time.Second), retryer, f.shots, nil, log).WithSleep(f.sleeper.sleep)

	f.uc = New(Deps{
		Parser:      parser.New(log),
		Classifier:  classifier.New(log),
		Planner:     planner.New(log),
		Executor:    exec,
		Evaluator:   evaluator.New(log),
		Launcher:    launcher,
		Screenshots: f.shots,
		Reports:     f.reports,
		Logger:      log,
	}, opts).WithSleep(f.sleeper.sleep)
	return f
}

func site(html string, texts ...string) *testutil.FakeSite {
	return &testutil.FakeSite{HTML: html, Texts: texts}
}

func contactPage(sentTexts ...string) *testutil.FakePage {
	p := testutil.NewFakePage(map[string]*testutil.FakeSite{
		"https://example.com":         site(homeHTML, "Witamy"),
		"https://example.com/kontakt": site(contactHTML, "Formularz kontaktowy"),
		sentURL:                       site("<html><body></body></html>", sentTexts...),
	})
	p.OnClick["#send"] = sentURL
	return p
}

func captchaOptions() Options {
	return Options{
		Headless:           true,
		Stealth:            true,
		AutoCaptchaVisible: true,
		CaptchaWait:        4 * time.Second,
		CaptchaPoll:        2 * time.Second,
	}
}

func TestRun_ContactFormSucceeds(t *testing.T) {
	page := contactPage("Dziękujemy za wiadomość")
	launcher := &testutil.FakeLauncher{Pages: []*testutil.FakePage{page}}
	f := newFixture(launcher, captchaOptions())

	report := f.uc.Run(context.Background(), instruction, input.RunOptions{})

	require.NotNil(t, report)
	assert.True(t, report.Success, report.Error)
	assert.Equal(t, entity.GoalFindContactForm, report.Command.PrimaryGoal)
	assert.Equal(t, sentURL, report.FinalURL)
	assert.False(t, report.CaptchaFlow)
	require.NotNil(t, report.Validation)
	assert.True(t, report.Validation.Passed)
	assert.Equal(t, "/tmp/shot.jpg", report.ScreenshotPath)
	assert.Equal(t, "/tmp/"+report.SessionID+".md", report.ReportPath)

	assert.Len(t, launcher.Launches, 1)
	assert.True(t, page.Closed)
	assert.Len(t, f.reports.written, 1)
}

func TestRun_CaptchaFlowRunsOnceInVisibleBrowser(t *testing.T) {
	headless := contactPage("Potwierdź, że nie jestem robotem (CAPTCHA)")
	visible := testutil.NewFakePage(map[string]*testutil.FakeSite{
		"https://example.com":         site(homeHTML, "Witamy"),
		"https://example.com/kontakt": site(contactHTML, "Przepisz kod z obrazka", "Formularz kontaktowy"),
		sentURL:                       site("<html><body></body></html>", "Dziękujemy za wiadomość"),
	})
	visible.OnClick["#send"] = sentURL
	launcher := &testutil.FakeLauncher{Pages: []*testutil.FakePage{headless, visible}}
	f := newFixture(launcher, captchaOptions())

	report := f.uc.Run(context.Background(), instruction, input.RunOptions{})

	assert.True(t, report.Success, report.Error)
	assert.True(t, report.CaptchaFlow)
	require.Len(t, launcher.Launches, 2)
	assert.True(t, launcher.Launches[0].Headless)
	assert.False(t, launcher.Launches[1].Headless)
	assert.True(t, launcher.Launches[1].Stealth)
	assert.True(t, headless.Closed)
	assert.True(t, visible.Closed)

	assert.Equal(t, []string{"https://example.com", "https://example.com/kontakt"}, visible.NavigateCalls)
	assert.Equal(t, []string{"#consent", "#send"}, visible.Clicks)
	assert.Equal(t, []time.Duration{2 * time.Second}, f.sleeper.delays)

	verify := report.StepResults[report.Plan.IndexOf(entity.StepVerify)]
	assert.True(t, verify.Success)
	assert.Equal(t, executor.ReasonSuccess, verify.Data["reason"])
}

func TestRun_CaptchaFlowGivesUpAfterWait(t *testing.T) {
	challenge := "Access denied - verify you are human"
	headless := contactPage(challenge)
	visible := testutil.NewFakePage(map[string]*testutil.FakeSite{
		"https://example.com":         site(homeHTML, "Witamy"),
		"https://example.com/kontakt": site(contactHTML, challenge),
		sentURL:                       site("<html><body></body></html>", challenge),
	})
	visible.OnClick["#send"] = sentURL
	launcher := &testutil.FakeLauncher{Pages: []*testutil.FakePage{headless, visible}}
	f := newFixture(launcher, captchaOptions())

	report := f.uc.Run(context.Background(), instruction, input.RunOptions{})

	assert.False(t, report.Success)
	assert.True(t, report.CaptchaFlow)
	assert.Len(t, launcher.Launches, 2, "the sub-flow must run once per command")
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, f.sleeper.delays)
	assert.Equal(t, entity.ValidationFailure, report.Validation.Status)
	assert.Contains(t, f.shots.saved, -1)
	assert.True(t, visible.Closed)
}

func TestRun_NoCaptchaFlowWhenVisible(t *testing.T) {
	page := contactPage("CAPTCHA")
	launcher := &testutil.FakeLauncher{Pages: []*testutil.FakePage{page}}
	opts := captchaOptions()
	opts.Headless = false
	f := newFixture(launcher, opts)

	report := f.uc.Run(context.Background(), instruction, input.RunOptions{})

	assert.False(t, report.Success)
	assert.False(t, report.CaptchaFlow)
	assert.Len(t, launcher.Launches, 1)
}

func TestRun_DryRunCompilesWithoutBrowser(t *testing.T) {
	launcher := &testutil.FakeLauncher{}
	f := newFixture(launcher, captchaOptions())

	report := f.uc.Run(context.Background(), instruction, input.RunOptions{DryRun: true})

	assert.True(t, report.Success)
	require.NotNil(t, report.Plan)
	assert.Equal(t, []entity.StepType{
		entity.StepNavigate, entity.StepResolve, entity.StepAnalyze,
		entity.StepFillField, entity.StepFillField, entity.StepSubmit,
		entity.StepVerify, entity.StepScreenshot,
	}, report.Plan.Types())
	assert.Empty(t, launcher.Launches)
}

func TestRun_ParseOnlyStopsBeforePlanning(t *testing.T) {
	f := newFixture(&testutil.FakeLauncher{}, captchaOptions())

	report := f.uc.Run(context.Background(), instruction, input.RunOptions{ParseOnly: true})

	assert.True(t, report.Success)
	assert.Nil(t, report.Plan)
	assert.Equal(t, "example.com", report.Command.TargetDomain)
}

func TestRun_ParseFailure(t *testing.T) {
	launcher := &testutil.FakeLauncher{}
	f := newFixture(launcher, captchaOptions())

	report := f.uc.Run(context.Background(), "wyślij formularz kontaktowy", input.RunOptions{})

	assert.False(t, report.Success)
	assert.Contains(t, report.Error, entity.ErrParseFailure.Error())
	assert.Nil(t, report.Plan)
	assert.Empty(t, launcher.Launches)
	assert.Len(t, f.reports.written, 1)
}

func TestRun_LaunchFailure(t *testing.T) {
	launcher := &testutil.FakeLauncher{Err: assert.AnError}
	f := newFixture(launcher, captchaOptions())

	report := f.uc.Run(context.Background(), instruction, input.RunOptions{})

	assert.False(t, report.Success)
	assert.Contains(t, report.Error, "launch browser")
}

func TestRun_PanicBecomesReport(t *testing.T) {
	f := newFixture(panickingLauncher{}, captchaOptions())

	var report *entity.RunReport
	require.NotPanics(t, func() {
		report = f.uc.Run(context.Background(), instruction, input.RunOptions{})
	})

	require.NotNil(t, report)
	assert.False(t, report.Success)
	assert.Contains(t, report.Error, "internal error: chromium exploded")
	assert.Len(t, f.reports.written, 1)
}

func TestRun_CommandTimeoutIsReported(t *testing.T) {
	page := stalledPage{contactPage("Dziękujemy za wiadomość")}
	opts := captchaOptions()
	opts.CommandTimeout = 50 * time.Millisecond
	f := newFixture(stalledLauncher{page: page}, opts)

	report := f.uc.Run(context.Background(), instruction, input.RunOptions{})

	assert.False(t, report.Success)
	assert.Contains(t, report.Error, "command timed out after 50ms")
	assert.Nil(t, report.Validation)
	require.NotEmpty(t, report.StepResults)
	assert.False(t, report.StepResults[0].Success)
	assert.Contains(t, f.shots.saved, -1)
	assert.True(t, page.Closed)
	assert.Len(t, f.reports.written, 1)
}

func TestMergeResults(t *testing.T) {
	base := []entity.StepResult{{Index: 0, Success: true}, {Index: 1}, {Index: 2}}
	rerun := []entity.StepResult{{Index: 1, Success: true}, {Index: 3, Success: true}}

	got := mergeResults(base, rerun)

	require.Len(t, got, 4)
	assert.True(t, got[1].Success)
	assert.Equal(t, 3, got[3].Index)
	assert.False(t, base[1].Success)
}
