package prompts

import (
	_ "embed"
)

//go:embed goal_detection.txt
var GoalDetectionPrompt string

//go:embed validation.txt
var ValidationPrompt string
