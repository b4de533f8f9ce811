package output

import "context"

// LLMPort is a plain text completion. Callers must not assume structured output.
type LLMPort interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
