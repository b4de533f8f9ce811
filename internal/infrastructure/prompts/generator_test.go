package prompts

import (
	"strings"
	"testing"

	"browser-commander/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGoalDetectionPrompt(t *testing.T) {
	prompt, err := GenerateGoalDetectionPrompt(GoalDetectionPrompt, "wejdź na example.com i znajdź koszyk")
	require.NoError(t, err)

	assert.Contains(t, prompt, `"wejdź na example.com i znajdź koszyk"`)
	for _, g := range entity.Goals {
		assert.Contains(t, prompt, "- "+g.String()+": ")
	}

	contact := strings.Index(prompt, "- find_contact_form")
	generic := strings.Index(prompt, "- generic")
	assert.Less(t, contact, generic, "goals should follow catalogue order")
}

func TestGenerateValidationPrompt(t *testing.T) {
	prompt, err := GenerateValidationPrompt(ValidationPrompt, ValidationData{
		Instruction: "send the form",
		TaskType:    entity.TaskTypeForm,
		FinalURL:    "https://example.com/contact",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Task type: form")
	assert.Contains(t, prompt, "Final URL: https://example.com/contact")
	assert.NotContains(t, prompt, "Extracted data")
	assert.NotContains(t, prompt, "Page verification")
}

func TestGenerateGoalDetectionPrompt_InvalidTemplate(t *testing.T) {
	_, err := GenerateGoalDetectionPrompt("{{ .Missing", "x")
	assert.Error(t, err)
}
