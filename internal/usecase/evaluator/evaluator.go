package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/infrastructure/prompts"
	"browser-commander/internal/usecase/executor"
)

const (
	CheckStructural = "structural"
	CheckRules      = "rules"
	CheckIndicators = "page_indicators"
	CheckSemantic   = "semantic"
	CheckVisual     = "visual"

	DefaultThreshold  = 0.6
	partialThreshold  = 0.4
	defaultLLMTimeout = 20 * time.Second
	maxPromptText     = 2000
	blankVariance     = 4.0
)

// DefaultWeights are used for checks without a configured weight.
var DefaultWeights = map[string]float64{
	CheckStructural: 0.30,
	CheckRules:      0.25,
	CheckIndicators: 0.30,
	CheckSemantic:   0.10,
	CheckVisual:     0.05,
}

type Option func(*Evaluator)

// WithLLM enables the semantic check.
func WithLLM(llm output.LLMPort, timeout time.Duration) Option {
	return func(e *Evaluator) {
		e.llm = llm
		if timeout > 0 {
			e.llmTimeout = timeout
		}
	}
}

func WithThreshold(threshold float64) Option {
	return func(e *Evaluator) {
		if threshold > 0 && threshold <= 1 {
			e.threshold = threshold
		}
	}
}

// WithWeights overrides the weights of the named checks.
func WithWeights(weights map[string]float64) Option {
	return func(e *Evaluator) {
		for name, w := range weights {
			if w >= 0 {
				e.weights[name] = w
			}
		}
	}
}

type Evaluator struct {
	llm        output.LLMPort
	llmTimeout time.Duration
	threshold  float64
	weights    map[string]float64
	logger     output.LoggerPort
}

func New(logger output.LoggerPort, opts ...Option) *Evaluator {
	e := &Evaluator{
		llmTimeout: defaultLLMTimeout,
		threshold:  DefaultThreshold,
		weights:    make(map[string]float64, len(DefaultWeights)),
		logger:     logger,
	}
	for name, w := range DefaultWeights {
		e.weights[name] = w
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate scores outcome with every check that applies to it. The result
// passes when the weighted score reaches the threshold and no critical
// check failed.
func (e *Evaluator) Validate(ctx context.Context, instruction string, outcome *entity.TaskOutcome, vctx entity.ValidationContext) *entity.ValidationResult {
	if outcome == nil {
		return &entity.ValidationResult{
			Status:          entity.ValidationError,
			Recommendations: []string{"No outcome was produced; check the log for the failing step."},
		}
	}
	if vctx.TaskType == "" {
		vctx.TaskType = outcome.TaskType
	}

	var checks []entity.ValidationCheck
	checks = append(checks, structuralCheck(outcome, vctx))
	if c, ok := rulesCheck(outcome, vctx); ok {
		checks = append(checks, c)
	}
	if c, ok := indicatorCheck(outcome, vctx); ok {
		checks = append(checks, c)
	}
	if c, ok := e.semanticCheck(ctx, instruction, outcome, vctx); ok {
		checks = append(checks, c)
	}
	if c, ok := visualCheck(vctx.Screenshot); ok {
		checks = append(checks, c)
	}

	result := e.aggregate(checks)

	e.logger.Info("Validation completed",
		"status", result.Status,
		"score", result.Score,
		"passed", result.Passed,
		"checks", len(result.Checks),
	)
	return result
}

func (e *Evaluator) aggregate(checks []entity.ValidationCheck) *entity.ValidationResult {
	result := &entity.ValidationResult{Checks: checks}

	var sum, total float64
	criticalFailed := false
	for _, c := range checks {
		w := e.weights[c.Name]
		sum += w * c.Score
		total += w
		if c.Critical && !c.Passed {
			criticalFailed = true
		}
		if !c.Passed {
			result.Recommendations = append(result.Recommendations, recommendation(c))
		}
	}
	if total > 0 {
		result.Score = math.Round(sum/total*1000) / 1000
	}

	result.Passed = result.Score >= e.threshold && !criticalFailed
	switch {
	case result.Passed:
		result.Status = entity.ValidationSuccess
	case !criticalFailed && result.Score >= partialThreshold:
		result.Status = entity.ValidationPartial
	default:
		result.Status = entity.ValidationFailure
	}
	return result
}

// structuralCheck looks for the fields each task type is expected to produce.
func structuralCheck(outcome *entity.TaskOutcome, vctx entity.ValidationContext) entity.ValidationCheck {
	var expected, missing []string
	expect := func(name string, present bool) {
		expected = append(expected, name)
		if !present {
			missing = append(missing, name)
		}
	}

	expect("final_url", outcome.FinalURL != "")
	switch vctx.TaskType {
	case entity.TaskTypeForm:
		expect("submitted", outcome.Submitted)
		expect("verification", len(outcome.Verification) > 0)
	case entity.TaskTypeEcommerce:
		_, hasItems := outcome.ExtractedData["items"]
		expect("items", hasItems)
	case entity.TaskTypeExtraction:
		expect("extracted_data", hasData(outcome.ExtractedData))
	}

	score := float64(len(expected)-len(missing)) / float64(len(expected))
	c := entity.ValidationCheck{Name: CheckStructural, Score: score, Passed: len(missing) == 0}
	if c.Passed {
		c.Message = fmt.Sprintf("all %d expected fields present", len(expected))
	} else {
		c.Message = "missing: " + strings.Join(missing, ", ")
	}
	return c
}

// rulesCheck applies the business constraints; it does not apply when the
// command carries none.
func rulesCheck(outcome *entity.TaskOutcome, vctx entity.ValidationContext) (entity.ValidationCheck, bool) {
	var rules, failed []string
	rule := func(name string, ok bool) {
		rules = append(rules, name)
		if !ok {
			failed = append(failed, name)
		}
	}

	items := itemPrices(outcome.ExtractedData)
	if maxPrice := vctx.Constraints.MaxPrice; maxPrice > 0 {
		within := true
		for _, p := range items {
			if p > maxPrice {
				within = false
				break
			}
		}
		rule(fmt.Sprintf("price <= %.2f", maxPrice), within)
	}
	if minItems := vctx.Constraints.MinItems; minItems > 0 {
		rule(fmt.Sprintf("items >= %d", minItems), itemCount(outcome.ExtractedData) >= minItems)
	}
	if vctx.RequireSubmission {
		rule("form submitted", outcome.Submitted)
	}
	if vctx.RequireData {
		rule("data extracted", hasData(outcome.ExtractedData))
	}

	if len(rules) == 0 {
		return entity.ValidationCheck{}, false
	}
	c := entity.ValidationCheck{
		Name:   CheckRules,
		Score:  float64(len(rules)-len(failed)) / float64(len(rules)),
		Passed: len(failed) == 0,
	}
	if c.Passed {
		c.Message = fmt.Sprintf("%d rules satisfied", len(rules))
	} else {
		c.Message = "violated: " + strings.Join(failed, ", ")
	}
	return c, true
}

// indicatorCheck reads the verify step's verdict, or classifies the page
// text itself when no verify step ran. Security blocks and error messages
// are critical.
func indicatorCheck(outcome *entity.TaskOutcome, vctx entity.ValidationContext) (entity.ValidationCheck, bool) {
	var reason, matched string
	if v := outcome.Verification; len(v) > 0 {
		reason, _ = v["reason"].(string)
		matched, _ = v["matched"].(string)
	} else if vctx.PageText != "" {
		v := executor.Verify(vctx.PageText)
		reason, matched = v.Reason, v.Matched
	}
	if reason == "" {
		return entity.ValidationCheck{}, false
	}

	c := entity.ValidationCheck{Name: CheckIndicators}
	switch reason {
	case executor.ReasonSuccess:
		c.Passed, c.Score = true, 1.0
		c.Message = fmt.Sprintf("success indicator %q", matched)
	case executor.ReasonSecurityBlock:
		c.Critical = true
		c.Message = fmt.Sprintf("security challenge %q on page", matched)
	case executor.ReasonError:
		c.Critical = true
		c.Message = fmt.Sprintf("error indicator %q on page", matched)
	default:
		// Pages that only need to be reached have nothing to confirm.
		if vctx.TaskType == entity.TaskTypeForm {
			c.Score = 0.5
			c.Message = "no success or error indicator after submission"
		} else {
			c.Passed, c.Score = true, 0.8
			c.Message = "no error indicator"
		}
	}
	return c, true
}

func (e *Evaluator) semanticCheck(ctx context.Context, instruction string, outcome *entity.TaskOutcome, vctx entity.ValidationContext) (entity.ValidationCheck, bool) {
	if e.llm == nil {
		return entity.ValidationCheck{}, false
	}

	prompt, err := prompts.GenerateValidationPrompt(prompts.ValidationPrompt, prompts.ValidationData{
		Instruction:   instruction,
		TaskType:      vctx.TaskType,
		FinalURL:      outcome.FinalURL,
		Verification:  compactJSON(outcome.Verification),
		ExtractedData: truncate(compactJSON(outcome.ExtractedData), maxPromptText),
		PageText:      truncate(vctx.PageText, maxPromptText),
	})
	if err != nil {
		e.logger.Warn("Failed to build validation prompt", "error", err)
		return entity.ValidationCheck{}, false
	}

	llmCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
	defer cancel()

	resp, err := e.llm.Generate(llmCtx, prompt)
	if err != nil {
		e.logger.Warn("Semantic validation skipped", "error", err)
		return entity.ValidationCheck{}, false
	}

	verdict, err := parseVerdict(resp)
	if err != nil {
		e.logger.Warn("Failed to parse validation response", "error", err)
		return entity.ValidationCheck{}, false
	}

	c := entity.ValidationCheck{Name: CheckSemantic, Passed: verdict.Success}
	if verdict.Success {
		c.Score = verdict.Confidence
	} else {
		c.Score = 1 - verdict.Confidence
	}
	c.Message = verdict.Feedback
	if len(verdict.Issues) > 0 {
		c.Message = strings.TrimSpace(c.Message + " issues: " + strings.Join(verdict.Issues, "; "))
	}
	return c, true
}

// parseVerdict takes the outermost JSON object in the response; without
// one it falls back to keywords.
func parseVerdict(response string) (*entity.SemanticVerdict, error) {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end > start {
		var v entity.SemanticVerdict
		if err := json.Unmarshal([]byte(response[start:end+1]), &v); err == nil {
			v.Confidence = clamp(v.Confidence)
			return &v, nil
		}
	}

	lower := strings.ToLower(response)
	switch {
	case lower == "":
		return nil, fmt.Errorf("empty response")
	case strings.Contains(lower, "not successful"), strings.Contains(lower, "failed"), strings.Contains(lower, "failure"):
		return &entity.SemanticVerdict{Success: false, Confidence: 0.5, Feedback: truncate(response, 200)}, nil
	case strings.Contains(lower, "success"), strings.Contains(lower, "achieved"):
		return &entity.SemanticVerdict{Success: true, Confidence: 0.5, Feedback: truncate(response, 200)}, nil
	}
	return nil, fmt.Errorf("no verdict in response")
}

// visualCheck fails on a screenshot that is a single flat color.
func visualCheck(shot []byte) (entity.ValidationCheck, bool) {
	if len(shot) == 0 {
		return entity.ValidationCheck{}, false
	}
	img, err := imaging.Decode(bytes.NewReader(shot))
	if err != nil {
		return entity.ValidationCheck{}, false
	}

	small := imaging.Grayscale(imaging.Resize(img, 32, 32, imaging.Box))
	var sum, sumSq float64
	n := 0
	for y := 0; y < small.Bounds().Dy(); y++ {
		for x := 0; x < small.Bounds().Dx(); x++ {
			v := float64(small.Pix[y*small.Stride+x*4])
			sum += v
			sumSq += v * v
			n++
		}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean

	if variance < blankVariance {
		return entity.ValidationCheck{Name: CheckVisual, Message: "screenshot is blank"}, true
	}
	return entity.ValidationCheck{Name: CheckVisual, Passed: true, Score: 1, Message: "page rendered"}, true
}

func recommendation(c entity.ValidationCheck) string {
	switch c.Name {
	case CheckStructural:
		return "Expected result fields are missing (" + c.Message + "); check that the target page was reached."
	case CheckRules:
		return "Constraints not met (" + c.Message + ")."
	case CheckIndicators:
		if c.Critical {
			return "The page reports a problem (" + c.Message + "); retry visibly or review the submitted data."
		}
		return "No confirmation was shown; verify the submission manually."
	case CheckSemantic:
		return "The language model doubts the outcome: " + c.Message
	case CheckVisual:
		return "The final screenshot looks empty; the page may not have rendered."
	}
	return c.Name + ": " + c.Message
}

func hasData(data map[string]any) bool {
	if n := itemCount(data); n > 0 {
		return true
	}
	if s, ok := data["text"].(string); ok && strings.TrimSpace(s) != "" {
		return true
	}
	return false
}

func itemCount(data map[string]any) int {
	if n, ok := data["count"].(int); ok {
		return n
	}
	if n, ok := data["count"].(float64); ok {
		return int(n)
	}
	return 0
}

// itemPrices reads prices from extracted items, either typed or decoded JSON.
func itemPrices(data map[string]any) []float64 {
	raw, ok := data["items"]
	if !ok {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var items []struct {
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	var prices []float64
	for _, it := range items {
		if it.Price > 0 {
			prices = append(prices, it.Price)
		}
	}
	sort.Float64s(prices)
	return prices
}

func compactJSON(v map[string]any) string {
	if len(v) == 0 {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
