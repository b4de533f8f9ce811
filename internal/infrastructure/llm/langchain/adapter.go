// Package langchain serves LLMPort through any langchaingo model. It is the
// alternate provider to openrouter.
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"browser-commander/internal/application/port/output"
)

var _ output.LLMPort = (*Adapter)(nil)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Adapter struct {
	model  llms.Model
	logger output.LoggerPort
}

// New builds an OpenAI-compatible langchaingo model from cfg.
func New(cfg Config, logger output.LoggerPort) (*Adapter, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain model: %w", err)
	}
	return NewWithModel(model, logger), nil
}

func NewWithModel(model llms.Model, logger output.LoggerPort) *Adapter {
	return &Adapter{model: model, logger: logger}
}

func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("langchain generate failed: %w", err)
	}
	out = strings.TrimSpace(out)
	a.logger.Debug("Completion received", "provider", "langchain", "length", len(out))
	return out, nil
}
