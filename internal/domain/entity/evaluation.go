package entity

type ValidationStatus string

const (
	ValidationSuccess ValidationStatus = "success"
	ValidationPartial ValidationStatus = "partial"
	ValidationFailure ValidationStatus = "failure"
	ValidationError   ValidationStatus = "error"
)

type ValidationCheck struct {
	Name     string  `json:"name"`
	Passed   bool    `json:"passed"`
	Score    float64 `json:"score"`
	Message  string  `json:"message"`
	Critical bool    `json:"critical,omitempty"`
}

type ValidationResult struct {
	Status          ValidationStatus  `json:"status"`
	Score           float64           `json:"score"`
	Passed          bool              `json:"passed"`
	Checks          []ValidationCheck `json:"checks"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// ValidationContext carries the optional inputs of a validation run.
type ValidationContext struct {
	TaskType          TaskType
	Constraints       Constraints
	RequireSubmission bool
	RequireData       bool
	Screenshot        []byte
	PageText          string
}

// SemanticVerdict is the JSON an LLM returns when judging an outcome.
type SemanticVerdict struct {
	Success    bool     `json:"success"`
	Confidence float64  `json:"confidence"`
	Issues     []string `json:"issues"`
	Feedback   string   `json:"feedback"`
}
