package planner

import (
	"net/url"
	"time"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/infrastructure/dom"
)

var stepTimeouts = map[entity.StepType]time.Duration{
	entity.StepNavigate:   30 * time.Second,
	entity.StepResolve:    60 * time.Second,
	entity.StepAnalyze:    15 * time.Second,
	entity.StepWait:       5 * time.Second,
	entity.StepSearch:     15 * time.Second,
	entity.StepFillField:  10 * time.Second,
	entity.StepClick:      10 * time.Second,
	entity.StepSubmit:     15 * time.Second,
	entity.StepExtract:    20 * time.Second,
	entity.StepVerify:     10 * time.Second,
	entity.StepScreenshot: 10 * time.Second,
}

const (
	navigateRetries = 3
	searchSettle    = 2 * time.Second
)

// goalTemplate describes the goal-specific part of a plan.
type goalTemplate struct {
	resolve bool
	outcome entity.ExpectedOutcome
	body    func(b *builder, cmd entity.ParsedCommand)
}

var templates = map[entity.TaskType]goalTemplate{
	entity.TaskTypeForm: {
		resolve: true,
		outcome: entity.OutcomeFormSubmitted,
		body:    contactBody,
	},
	entity.TaskTypeAuth: {
		resolve: true,
		outcome: entity.OutcomeAuthPrefilled,
		body:    authBody,
	},
	entity.TaskTypeEcommerce: {
		resolve: true,
		outcome: entity.OutcomeCartExtracted,
		body:    ecommerceBody,
	},
	entity.TaskTypeExtraction: {
		resolve: false,
		outcome: entity.OutcomeDataExtracted,
		body:    extractionBody,
	},
	entity.TaskTypeNavigation: {
		resolve: true,
		outcome: entity.OutcomePageReached,
		body:    navigationBody,
	},
}

type Compiler struct {
	logger output.LoggerPort
}

func New(logger output.LoggerPort) *Compiler {
	return &Compiler{logger: logger}
}

// Compile expands cmd into a dependency-ordered plan. Every dependency
// points to an earlier step.
func (c *Compiler) Compile(cmd entity.ParsedCommand) *entity.TaskPlan {
	taskType := cmd.PrimaryGoal.TaskType()
	tmpl := templates[taskType]

	b := &builder{plan: &entity.TaskPlan{
		Goal:            cmd.PrimaryGoal,
		TaskType:        taskType,
		ExpectedOutcome: tmpl.outcome,
		StopOnFailure:   taskType != entity.TaskTypeExtraction,
	}, last: -1, root: -1}

	if u := cmd.URL(); u != "" {
		b.root = b.chain(&entity.TaskStep{
			Type:    entity.StepNavigate,
			Params:  map[string]any{"url": u},
			Retries: navigateRetries,
		})
	}
	if tmpl.resolve && cmd.PrimaryGoal != entity.GoalGeneric {
		b.chain(&entity.TaskStep{
			Type:   entity.StepResolve,
			Params: map[string]any{"goal": string(cmd.PrimaryGoal)},
		})
	}
	b.chain(&entity.TaskStep{Type: entity.StepAnalyze})

	tmpl.body(b, cmd)

	b.chain(&entity.TaskStep{Type: entity.StepVerify, Optional: true})
	b.chain(&entity.TaskStep{Type: entity.StepScreenshot, Optional: true})

	if c.logger != nil {
		c.logger.Info("Plan compiled",
			"goal", cmd.PrimaryGoal,
			"task_type", taskType,
			"steps", len(b.plan.Steps),
			"outcome", b.plan.ExpectedOutcome,
		)
	}
	return b.plan
}

func contactBody(b *builder, cmd entity.ParsedCommand) {
	fields := cmd.FormData.Fields()
	if len(fields) == 0 {
		b.plan.ExpectedOutcome = entity.OutcomePageReached
		return
	}
	for _, f := range fields {
		b.chain(&entity.TaskStep{
			Type:   entity.StepFillField,
			Params: map[string]any{"field": f.Name, "value": f.Value},
		})
	}
	b.chain(&entity.TaskStep{
		Type:   entity.StepSubmit,
		Params: map[string]any{"accept_consent": true},
		Fallback: &entity.TaskStep{
			Type:    entity.StepClick,
			Params:  map[string]any{"selector": dom.GenericSubmitSelector},
			Timeout: stepTimeouts[entity.StepClick],
		},
	})
}

// authBody pre-fills the login e-mail only; credentials are never planned.
func authBody(b *builder, cmd entity.ParsedCommand) {
	if cmd.FormData.Email == "" {
		b.plan.ExpectedOutcome = entity.OutcomePageReached
		return
	}
	b.chain(&entity.TaskStep{
		Type:   entity.StepFillField,
		Params: map[string]any{"field": entity.FieldEmail, "value": cmd.FormData.Email},
	})
}

func ecommerceBody(b *builder, cmd entity.ParsedCommand) {
	kind := "cart"
	if cmd.PrimaryGoal == entity.GoalFindProducts {
		kind = "products"
		b.plan.ExpectedOutcome = entity.OutcomeDataExtracted
	}
	b.searchBranch(cmd)
	b.chain(&entity.TaskStep{
		Type:   entity.StepExtract,
		Params: map[string]any{"kind": kind},
	})
}

func extractionBody(b *builder, cmd entity.ParsedCommand) {
	kind := "content"
	if cmd.SearchQuery != "" {
		kind = "products"
	}
	b.searchBranch(cmd)
	b.chain(&entity.TaskStep{
		Type:   entity.StepExtract,
		Params: map[string]any{"kind": kind},
	})
}

func navigationBody(b *builder, cmd entity.ParsedCommand) {
	b.chain(&entity.TaskStep{
		Type:     entity.StepExtract,
		Params:   map[string]any{"kind": "content"},
		Optional: true,
	})
}

type builder struct {
	plan *entity.TaskPlan
	// last is the tail of the main chain, root the navigate step.
	last int
	root int
}

func (b *builder) add(step *entity.TaskStep, deps ...int) int {
	if step.Timeout == 0 {
		step.Timeout = stepTimeouts[step.Type]
	}
	step.Status = entity.TaskStatusPending
	for _, d := range deps {
		if d >= 0 {
			step.DependsOn = append(step.DependsOn, d)
		}
	}
	b.plan.Steps = append(b.plan.Steps, step)
	return len(b.plan.Steps) - 1
}

// chain appends step to the main chain.
func (b *builder) chain(step *entity.TaskStep) int {
	b.last = b.add(step, b.last)
	return b.last
}

// searchBranch adds an optional search+wait chain hanging off navigate. The
// main chain continues from its previous tail.
func (b *builder) searchBranch(cmd entity.ParsedCommand) {
	if cmd.SearchQuery == "" {
		return
	}
	search := b.add(&entity.TaskStep{
		Type:     entity.StepSearch,
		Params:   map[string]any{"query": cmd.SearchQuery},
		Optional: true,
		Fallback: searchFallback(cmd),
	}, b.root)
	b.add(&entity.TaskStep{
		Type:     entity.StepWait,
		Params:   map[string]any{"duration": searchSettle.String()},
		Optional: true,
	}, search)
}

func searchFallback(cmd entity.ParsedCommand) *entity.TaskStep {
	u, err := url.Parse(cmd.URL())
	if err != nil || u.Host == "" {
		return nil
	}
	return &entity.TaskStep{
		Type:    entity.StepNavigate,
		Params:  map[string]any{"url": u.Scheme + "://" + u.Host + "/search?q=" + url.QueryEscape(cmd.SearchQuery)},
		Timeout: stepTimeouts[entity.StepNavigate],
	}
}
