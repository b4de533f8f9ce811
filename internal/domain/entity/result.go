package entity

import "time"

type StepResult struct {
	Index          int            `json:"index"`
	Type           StepType       `json:"type"`
	Success        bool           `json:"success"`
	Data           map[string]any `json:"data,omitempty"`
	Error          string         `json:"error,omitempty"`
	Duration       time.Duration  `json:"duration"`
	ScreenshotPath string         `json:"screenshot_path,omitempty"`
	UsedFallback   bool           `json:"used_fallback,omitempty"`
	Attempts       int            `json:"attempts,omitempty"`
}

// TaskOutcome is what a task handler hands to the validator.
type TaskOutcome struct {
	TaskType      TaskType       `json:"task_type"`
	Success       bool           `json:"success"`
	FinalURL      string         `json:"final_url"`
	Submitted     bool           `json:"submitted"`
	Verification  map[string]any `json:"verification,omitempty"`
	ExtractedData map[string]any `json:"extracted_data,omitempty"`
	StepResults   []StepResult   `json:"step_results"`
	CaptchaFlow   bool           `json:"captcha_flow"`
	Error         string         `json:"error,omitempty"`
}

type RunReport struct {
	SessionID      string            `json:"session_id"`
	Instruction    string            `json:"instruction"`
	Command        *ParsedCommand    `json:"command,omitempty"`
	Goal           *GoalMatch        `json:"goal,omitempty"`
	Plan           *TaskPlan         `json:"plan,omitempty"`
	StepResults    []StepResult      `json:"step_results,omitempty"`
	FinalURL       string            `json:"final_url,omitempty"`
	ExtractedData  map[string]any    `json:"extracted_data,omitempty"`
	Validation     *ValidationResult `json:"validation,omitempty"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	Duration       time.Duration     `json:"duration"`
	LogPath        string            `json:"log_path,omitempty"`
	ReportPath     string            `json:"report_path,omitempty"`
	ScreenshotPath string            `json:"screenshot_path,omitempty"`
	CaptchaFlow    bool              `json:"captcha_flow,omitempty"`
}
