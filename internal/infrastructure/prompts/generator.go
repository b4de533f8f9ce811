package prompts

import (
	"bytes"
	"text/template"

	"browser-commander/internal/domain/entity"
)

type GoalInfo struct {
	Name        string
	Description string
}

type GoalDetectionData struct {
	Instruction string
	Goals       []GoalInfo
}

type ValidationData struct {
	Instruction   string
	TaskType      entity.TaskType
	FinalURL      string
	Verification  string
	ExtractedData string
	PageText      string
}

// GenerateGoalDetectionPrompt lists every goal in catalogue order.
func GenerateGoalDetectionPrompt(baseTemplate, instruction string) (string, error) {
	goals := make([]GoalInfo, 0, len(entity.Goals))
	for _, g := range entity.Goals {
		goals = append(goals, GoalInfo{
			Name:        g.String(),
			Description: g.Description(),
		})
	}

	return render("goal_detection", baseTemplate, GoalDetectionData{
		Instruction: instruction,
		Goals:       goals,
	})
}

func GenerateValidationPrompt(baseTemplate string, data ValidationData) (string, error) {
	return render("validation", baseTemplate, data)
}

func render(name, baseTemplate string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
