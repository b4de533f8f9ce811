package executor

import (
	"context"
	"fmt"
	"time"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/infrastructure/dom"
)

func (uc *UseCase) registerDefaults() {
	uc.registry.Register(entity.StepNavigate, uc.navigate)
	uc.registry.Register(entity.StepResolve, uc.resolve)
	uc.registry.Register(entity.StepAnalyze, uc.analyze)
	uc.registry.Register(entity.StepWait, uc.wait)
	uc.registry.Register(entity.StepSearch, uc.search)
	uc.registry.Register(entity.StepFillField, uc.fillField)
	uc.registry.Register(entity.StepFillForm, uc.fillForm)
	uc.registry.Register(entity.StepClick, uc.click)
	uc.registry.Register(entity.StepSubmit, uc.submit)
	uc.registry.Register(entity.StepExtract, uc.extract)
	uc.registry.Register(entity.StepVerify, uc.verify)
	uc.registry.Register(entity.StepScreenshot, uc.screenshot)
}

func (uc *UseCase) navigate(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	target := step.Param("url")
	if target == "" {
		return nil, fmt.Errorf("%w: navigate without url", entity.ErrStepExecution)
	}

	retries := step.Retries
	if retries < 1 {
		retries = 1
	}

	var nav *entity.NavigationResult
	attempts, err := uc.retryer.WithMaxAttempts(retries).Do(ctx, func(ctx context.Context) error {
		var navErr error
		nav, navErr = run.Page.Navigate(ctx, target, step.Timeout)
		return navErr
	})
	data := map[string]any{"url": target, "attempts": attempts}
	if err != nil {
		return data, err
	}
	data["final_url"] = nav.URL
	data["status_code"] = nav.StatusCode
	return data, nil
}

// resolve never fails the step: an unresolved goal leaves the page where it
// was and the plan continues there.
func (uc *UseCase) resolve(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	goal, ok := entity.ParseGoal(step.Param("goal"))
	if !ok {
		goal = run.Command.PrimaryGoal
	}

	res := uc.resolver.Resolve(ctx, run.Page, goal)
	run.Resolution = res
	if res == nil {
		return map[string]any{"resolved": false, "url": run.Page.CurrentURL()}, nil
	}

	return map[string]any{
		"resolved": true,
		"url":      res.URL,
		"method":   string(res.Method),
	}, nil
}

func (uc *UseCase) analyze(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	analysis, err := uc.analyzePage(ctx, run)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"forms":       analysis.FormCount,
		"fields":      len(analysis.Fields),
		"has_submit":  analysis.SubmitSelector != "",
		"has_consent": len(analysis.ConsentSelectors) > 0,
	}, nil
}

func (uc *UseCase) analyzePage(ctx context.Context, run *Run) (*entity.FormAnalysis, error) {
	raw, err := run.Page.Evaluate(ctx, output.ScriptPageHTML)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	analysis, err := dom.AnalyzeForms(raw)
	if err != nil {
		return nil, fmt.Errorf("analyze forms: %w", err)
	}
	run.Analysis = &analysis
	return &analysis, nil
}

func (uc *UseCase) wait(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	d, err := time.ParseDuration(step.Param("duration"))
	if err != nil || d <= 0 {
		d = time.Second
	}
	if err := uc.sleep(ctx, d); err != nil {
		return nil, err
	}
	return map[string]any{"waited": d.String()}, nil
}

func (uc *UseCase) search(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	query := step.Param("query")
	analysis, err := uc.analyzePage(ctx, run)
	if err != nil {
		return nil, err
	}

	input, ok := analysis.Fields[entity.FieldSearch]
	if !ok || analysis.SearchSubmit == "" {
		return nil, fmt.Errorf("%w: search form", entity.ErrSelectorNotFound)
	}
	if err := run.Page.Fill(ctx, input, query); err != nil {
		return nil, fmt.Errorf("fill search: %w", err)
	}
	if err := run.Page.Click(ctx, analysis.SearchSubmit); err != nil {
		return nil, fmt.Errorf("submit search: %w", err)
	}
	return map[string]any{"query": query, "url": run.Page.CurrentURL()}, nil
}

func (uc *UseCase) fillField(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	field := step.Param("field")
	selector := step.Param("selector")
	if selector == "" && run.Analysis != nil {
		selector = run.Analysis.Fields[field]
	}
	if selector == "" {
		return nil, fmt.Errorf("%w: field %q", entity.ErrSelectorNotFound, field)
	}
	if err := run.Page.Fill(ctx, selector, step.Param("value")); err != nil {
		return nil, fmt.Errorf("fill %s: %w", field, err)
	}
	return map[string]any{"field": field, "selector": selector}, nil
}

// fillForm fills every known field of the command's form data and reports
// the fields that had no matching input.
func (uc *UseCase) fillForm(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	if run.Analysis == nil {
		if _, err := uc.analyzePage(ctx, run); err != nil {
			return nil, err
		}
	}

	var filled, missing []string
	for _, f := range run.Command.FormData.Fields() {
		selector, ok := run.Analysis.Fields[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		if err := run.Page.Fill(ctx, selector, f.Value); err != nil {
			return nil, fmt.Errorf("fill %s: %w", f.Name, err)
		}
		filled = append(filled, f.Name)
	}
	data := map[string]any{"filled": filled, "missing": missing}
	if len(filled) == 0 {
		return data, fmt.Errorf("%w: no form field matched", entity.ErrSelectorNotFound)
	}
	return data, nil
}

func (uc *UseCase) click(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	selector := step.Param("selector")
	if selector == "" {
		return nil, fmt.Errorf("%w: click without selector", entity.ErrStepExecution)
	}
	if err := run.Page.Click(ctx, selector); err != nil {
		return nil, fmt.Errorf("click %s: %w", selector, err)
	}
	return map[string]any{"selector": selector, "url": run.Page.CurrentURL()}, nil
}

func (uc *UseCase) submit(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	if run.Analysis == nil {
		return nil, fmt.Errorf("%w: page not analyzed", entity.ErrSelectorNotFound)
	}

	consents := 0
	if step.BoolParam("accept_consent") {
		for _, sel := range run.Analysis.ConsentSelectors {
			if err := run.Page.Click(ctx, sel); err != nil {
				uc.logger.Debug("Consent click failed", "selector", sel, "error", err)
				continue
			}
			consents++
		}
	}

	selector := run.Analysis.SubmitSelector
	if selector == "" {
		return map[string]any{"consents": consents}, fmt.Errorf("%w: submit button", entity.ErrSelectorNotFound)
	}
	if err := run.Page.Click(ctx, selector); err != nil {
		return map[string]any{"consents": consents}, fmt.Errorf("click submit: %w", err)
	}
	run.Submitted = true
	return map[string]any{"selector": selector, "consents": consents, "url": run.Page.CurrentURL()}, nil
}

func (uc *UseCase) extract(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	raw, err := run.Page.Evaluate(ctx, output.ScriptPageHTML)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}

	kind := step.Param("kind")
	data := map[string]any{"kind": kind, "url": run.Page.CurrentURL()}

	switch kind {
	case "cart", "products":
		items, err := dom.ExtractItems(raw, kind)
		if err != nil {
			return nil, err
		}
		data["items"] = items
		data["count"] = len(items)
		var total float64
		for _, it := range items {
			total += it.Price
		}
		data["total"] = total
	default:
		content, err := dom.ReadableText(raw, run.Page.CurrentURL())
		if err != nil {
			return nil, err
		}
		data["title"] = content.Title
		data["excerpt"] = content.Excerpt
		data["text"] = content.Text
	}

	if run.Extracted == nil {
		run.Extracted = map[string]any{}
	}
	for k, v := range data {
		run.Extracted[k] = v
	}
	return data, nil
}

// verify fails only when the page shows a block or an error; no indicator
// is not a failure.
func (uc *UseCase) verify(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	text, err := run.Page.Evaluate(ctx, output.ScriptPageText)
	if err != nil {
		return nil, fmt.Errorf("read page text: %w", err)
	}
	v := Verify(text)
	run.Verification = &v

	data := v.Data()
	data["url"] = run.Page.CurrentURL()
	switch v.Reason {
	case ReasonSecurityBlock, ReasonError:
		return data, fmt.Errorf("%w: page shows %s (%q)", entity.ErrStepExecution, v.Reason, v.Matched)
	}
	return data, nil
}

func (uc *UseCase) screenshot(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error) {
	shot, err := run.Page.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	data := map[string]any{"bytes": len(shot.Data), "width": shot.Width, "height": shot.Height}
	if uc.screenshots == nil {
		return data, nil
	}
	path, err := uc.screenshots.Save(run.SessionID, run.current, shot)
	if err != nil {
		return data, fmt.Errorf("save screenshot: %w", err)
	}
	data["path"] = path
	return data, nil
}
