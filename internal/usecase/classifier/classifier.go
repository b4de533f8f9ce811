package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/domain/textnorm"
	"browser-commander/internal/infrastructure/prompts"
)

const (
	// DefaultLLMThreshold is the statistical confidence below which the LLM
	// tier is consulted.
	DefaultLLMThreshold = 0.6
	DefaultLLMTimeout   = 20 * time.Second

	patternAcceptRatio = 0.5
	maxTierConfidence  = 0.9
	fallbackConfidence = 0.3
	textualLLMConf     = 0.4
)

type Classifier struct {
	llm        output.LLMPort
	logger     output.LoggerPort
	threshold  float64
	llmTimeout time.Duration
	model      *tfidfModel
}

type Option func(*Classifier)

func WithLLM(llm output.LLMPort, timeout time.Duration) Option {
	return func(c *Classifier) {
		c.llm = llm
		if timeout > 0 {
			c.llmTimeout = timeout
		}
	}
}

func WithThreshold(threshold float64) Option {
	return func(c *Classifier) {
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

func New(logger output.LoggerPort, opts ...Option) *Classifier {
	c := &Classifier{
		logger:     logger,
		threshold:  DefaultLLMThreshold,
		llmTimeout: DefaultLLMTimeout,
		model:      newTFIDFModel(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Detect runs the pattern, statistical and LLM tiers in order and returns the
// most confident match. Without an LLM the result depends only on text.
func (c *Classifier) Detect(ctx context.Context, text string) entity.GoalMatch {
	folded := textnorm.Fold(text)

	var candidates []entity.GoalMatch

	goal, ratio, hits := matchPatterns(folded)
	if ratio > 0 {
		pattern := entity.GoalMatch{
			Goal:       goal,
			Confidence: math.Min(maxTierConfidence, ratio+0.3),
			Method:     entity.MethodPattern,
			Reasoning:  fmt.Sprintf("%d pattern groups matched (ratio %.2f)", hits, ratio),
		}
		if ratio >= patternAcceptRatio {
			c.log("Goal detected by patterns", pattern)
			return pattern
		}
		candidates = append(candidates, pattern)
	}

	goal, cos := c.model.best(text)
	statistical := entity.GoalMatch{
		Goal:       goal,
		Confidence: math.Min(maxTierConfidence, cos*2),
		Method:     entity.MethodStatistical,
		Reasoning:  fmt.Sprintf("tf-idf cosine %.3f", cos),
	}
	if cos > 0 {
		candidates = append(candidates, statistical)
	}

	if statistical.Confidence < c.threshold && c.llm != nil {
		if m, ok := c.detectWithLLM(ctx, text); ok {
			candidates = append(candidates, m)
		}
	}

	if len(candidates) == 0 {
		return entity.GoalMatch{
			Goal:       entity.GoalGeneric,
			Confidence: fallbackConfidence,
			Method:     entity.MethodStatistical,
			Reasoning:  "no tier matched",
		}
	}

	best := candidates[0]
	for _, m := range candidates[1:] {
		if m.Confidence > best.Confidence {
			best = m
		}
	}
	c.log("Goal detected", best)
	return best
}

func (c *Classifier) detectWithLLM(ctx context.Context, text string) (entity.GoalMatch, bool) {
	prompt, err := prompts.GenerateGoalDetectionPrompt(prompts.GoalDetectionPrompt, text)
	if err != nil {
		c.warn("Failed to build goal detection prompt", err)
		return entity.GoalMatch{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.llmTimeout)
	defer cancel()

	resp, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		c.warn("LLM goal detection failed", err)
		return entity.GoalMatch{}, false
	}

	m, err := parseLLMResponse(resp)
	if err != nil {
		c.warn("Discarding LLM goal detection response", err)
		return entity.GoalMatch{}, false
	}
	return m, true
}

type llmAnswer struct {
	Goal       string  `json:"goal"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// parseLLMResponse extracts the first JSON object from resp. When there is no
// usable JSON it falls back to a single goal name mentioned in the text.
func parseLLMResponse(resp string) (entity.GoalMatch, error) {
	resp = strings.TrimSpace(resp)

	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start != -1 && end > start {
		var a llmAnswer
		if err := json.Unmarshal([]byte(resp[start:end+1]), &a); err == nil {
			if g, ok := entity.ParseGoal(strings.ToLower(strings.TrimSpace(a.Goal))); ok {
				return entity.GoalMatch{
					Goal:       g,
					Confidence: math.Max(0, math.Min(1, a.Confidence)),
					Method:     entity.MethodLLM,
					Reasoning:  a.Reasoning,
				}, nil
			}
		}
	}

	lower := strings.ToLower(resp)
	var found []entity.Goal
	for _, g := range entity.Goals {
		if strings.Contains(lower, g.String()) {
			found = append(found, g)
		}
	}
	if len(found) != 1 {
		return entity.GoalMatch{}, fmt.Errorf("no goal in llm response")
	}
	return entity.GoalMatch{
		Goal:       found[0],
		Confidence: textualLLMConf,
		Method:     entity.MethodLLM,
		Reasoning:  "goal named in free text",
	}, nil
}

func (c *Classifier) log(msg string, m entity.GoalMatch) {
	if c.logger == nil {
		return
	}
	c.logger.Info(msg, "goal", m.Goal, "confidence", m.Confidence, "method", m.Method)
}

func (c *Classifier) warn(msg string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(msg, "error", err)
}
