package executor

import (
	"context"
	"sort"

	"browser-commander/internal/domain/entity"
)

// StepHandler performs one step against the run's page and returns the
// step's result data.
type StepHandler func(ctx context.Context, step *entity.TaskStep, run *Run) (map[string]any, error)

type Registry struct {
	handlers map[entity.StepType]StepHandler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[entity.StepType]StepHandler),
	}
}

func (r *Registry) Register(t entity.StepType, h StepHandler) {
	r.handlers[t] = h
}

func (r *Registry) Get(t entity.StepType) (StepHandler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}

func (r *Registry) Types() []entity.StepType {
	result := make([]entity.StepType, 0, len(r.handlers))
	for t := range r.handlers {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
