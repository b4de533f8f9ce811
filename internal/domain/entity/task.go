package entity

import (
	"fmt"
	"time"
)

type StepType string

const (
	StepNavigate   StepType = "navigate"
	StepResolve    StepType = "resolve"
	StepAnalyze    StepType = "analyze"
	StepWait       StepType = "wait"
	StepSearch     StepType = "search"
	StepFillField  StepType = "fill_field"
	StepFillForm   StepType = "fill_form"
	StepClick      StepType = "click"
	StepSubmit     StepType = "submit"
	StepExtract    StepType = "extract"
	StepVerify     StepType = "verify"
	StepScreenshot StepType = "screenshot"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusSkipped
}

type TaskStep struct {
	Type      StepType       `json:"type"`
	Params    map[string]any `json:"params,omitempty"`
	Timeout   time.Duration  `json:"timeout"`
	Retries   int            `json:"retries"`
	Optional  bool           `json:"optional"`
	DependsOn []int          `json:"depends_on,omitempty"`
	Fallback  *TaskStep      `json:"fallback,omitempty"`
	Status    TaskStatus     `json:"status"`
}

func (s *TaskStep) Param(key string) string {
	if s.Params == nil {
		return ""
	}
	v, ok := s.Params[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

func (s *TaskStep) BoolParam(key string) bool {
	if s.Params == nil {
		return false
	}
	b, _ := s.Params[key].(bool)
	return b
}

func (s *TaskStep) Label() string {
	if f := s.Param("field"); f != "" {
		return fmt.Sprintf("%s(%s)", s.Type, f)
	}
	return string(s.Type)
}

type ExpectedOutcome string

const (
	OutcomeFormSubmitted ExpectedOutcome = "form_submitted"
	OutcomeAuthPrefilled ExpectedOutcome = "auth_form_prefilled"
	OutcomeCartExtracted ExpectedOutcome = "cart_extracted"
	OutcomeDataExtracted ExpectedOutcome = "data_extracted"
	OutcomePageReached   ExpectedOutcome = "page_reached"
)

type TaskPlan struct {
	Steps           []*TaskStep     `json:"steps"`
	ExpectedOutcome ExpectedOutcome `json:"expected_outcome"`
	StopOnFailure   bool            `json:"stop_on_failure"`
	Goal            Goal            `json:"goal"`
	TaskType        TaskType        `json:"task_type"`
}

// Validate checks the DAG invariant: every dependency points to an earlier step.
func (p *TaskPlan) Validate() error {
	for i, step := range p.Steps {
		for _, dep := range step.DependsOn {
			if dep < 0 || dep >= i {
				return fmt.Errorf("step %d (%s): dependency %d is not an earlier step", i, step.Type, dep)
			}
		}
	}
	return nil
}

func (p *TaskPlan) IndexOf(t StepType) int {
	for i, s := range p.Steps {
		if s.Type == t {
			return i
		}
	}
	return -1
}

func (p *TaskPlan) Types() []StepType {
	out := make([]StepType, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Type
	}
	return out
}
