package planner

import (
	"testing"

	"browser-commander/internal/domain/entity"
	"browser-commander/internal/usecase/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompile_ContactForm(t *testing.T) {
	cmd := parser.New(nil).Parse("Wejdź na example.com i wyślij formularz z adresem email info@test.com i nazwiskiem Kowalski")

	plan := New(nil).Compile(cmd)

	assert.Equal(t, []entity.StepType{
		entity.StepNavigate,
		entity.StepResolve,
		entity.StepAnalyze,
		entity.StepFillField,
		entity.StepFillField,
		entity.StepSubmit,
		entity.StepVerify,
		entity.StepScreenshot,
	}, plan.Types())
	assert.Equal(t, "name", plan.Steps[3].Param("field"))
	assert.Equal(t, "Kowalski", plan.Steps[3].Param("value"))
	assert.Equal(t, "email", plan.Steps[4].Param("field"))
	assert.Equal(t, "info@test.com", plan.Steps[4].Param("value"))
	assert.Equal(t, "https://example.com", plan.Steps[0].Param("url"))
	assert.Equal(t, 3, plan.Steps[0].Retries)

	for i, step := range plan.Steps {
		if i > 0 {
			assert.Equal(t, []int{i - 1}, step.DependsOn, "step %d", i)
		}
		assert.Equal(t, entity.TaskStatusPending, step.Status)
		assert.NotZero(t, step.Timeout)
	}
	assert.True(t, plan.Steps[6].Optional)
	assert.True(t, plan.Steps[7].Optional)
	assert.False(t, plan.Steps[5].Optional)
	require.NotNil(t, plan.Steps[5].Fallback)
	assert.Equal(t, entity.StepClick, plan.Steps[5].Fallback.Type)
	assert.True(t, plan.Steps[5].BoolParam("accept_consent"))
	assert.True(t, plan.StopOnFailure)
	assert.Equal(t, entity.OutcomeFormSubmitted, plan.ExpectedOutcome)
	assert.NoError(t, plan.Validate())
}

func TestCompile_AuthFillsEmailOnly(t *testing.T) {
	cmd := entity.ParsedCommand{
		TargetDomain: "bank.pl",
		PrimaryGoal:  entity.GoalFindLogin,
		FormData:     entity.FormData{Email: "jan@bank.pl", Name: "Jan"},
	}

	plan := New(nil).Compile(cmd)

	assert.Equal(t, []entity.StepType{
		entity.StepNavigate, entity.StepResolve, entity.StepAnalyze,
		entity.StepFillField, entity.StepVerify, entity.StepScreenshot,
	}, plan.Types())
	assert.Equal(t, entity.FieldEmail, plan.Steps[3].Param("field"))
	assert.Equal(t, entity.OutcomeAuthPrefilled, plan.ExpectedOutcome)
	for _, s := range plan.Steps {
		assert.NotContains(t, s.Params, "password")
	}
}

func TestCompile_ExtractionWithSearchBranches(t *testing.T) {
	cmd := entity.ParsedCommand{
		TargetDomain: "sklep.pl",
		PrimaryGoal:  entity.GoalExtractData,
		SearchQuery:  "buty do biegania",
	}

	plan := New(nil).Compile(cmd)

	assert.Equal(t, []entity.StepType{
		entity.StepNavigate, entity.StepAnalyze, entity.StepSearch, entity.StepWait,
		entity.StepExtract, entity.StepVerify, entity.StepScreenshot,
	}, plan.Types())

	search := plan.Steps[2]
	assert.Equal(t, []int{0}, search.DependsOn)
	assert.True(t, search.Optional)
	require.NotNil(t, search.Fallback)
	assert.Equal(t, "https://sklep.pl/search?q=buty+do+biegania", search.Fallback.Param("url"))
	assert.Equal(t, []int{2}, plan.Steps[3].DependsOn)
	assert.Equal(t, []int{1}, plan.Steps[4].DependsOn)
	assert.Equal(t, "products", plan.Steps[4].Param("kind"))
	assert.False(t, plan.StopOnFailure)
	assert.Equal(t, entity.OutcomeDataExtracted, plan.ExpectedOutcome)
}

func TestCompile_Cart(t *testing.T) {
	plan := New(nil).Compile(entity.ParsedCommand{TargetDomain: "shop.com", PrimaryGoal: entity.GoalFindCart})

	assert.Equal(t, []entity.StepType{
		entity.StepNavigate, entity.StepResolve, entity.StepAnalyze,
		entity.StepExtract, entity.StepVerify, entity.StepScreenshot,
	}, plan.Types())
	assert.Equal(t, "cart", plan.Steps[3].Param("kind"))
	assert.Equal(t, entity.OutcomeCartExtracted, plan.ExpectedOutcome)
}

func TestCompile_GenericSkipsResolve(t *testing.T) {
	plan := New(nil).Compile(entity.ParsedCommand{TargetDomain: "example.com", PrimaryGoal: entity.GoalGeneric})

	assert.Equal(t, -1, plan.IndexOf(entity.StepResolve))
	assert.Equal(t, entity.OutcomePageReached, plan.ExpectedOutcome)
	assert.True(t, plan.Steps[plan.IndexOf(entity.StepExtract)].Optional)
}

func TestCompile_ContactWithoutData(t *testing.T) {
	plan := New(nil).Compile(entity.ParsedCommand{TargetDomain: "example.com", PrimaryGoal: entity.GoalFindContactForm})

	assert.Equal(t, -1, plan.IndexOf(entity.StepSubmit))
	assert.Equal(t, entity.OutcomePageReached, plan.ExpectedOutcome)
}

func TestCompile_DependenciesPointBackwards(t *testing.T) {
	c := New(nil)
	rapid.Check(t, func(rt *rapid.T) {
		cmd := entity.ParsedCommand{
			TargetDomain: rapid.SampledFrom([]string{"", "example.com", "sklep.pl"}).Draw(rt, "domain"),
			PrimaryGoal:  rapid.SampledFrom(entity.Goals).Draw(rt, "goal"),
			SearchQuery:  rapid.SampledFrom([]string{"", "laptop", "buty"}).Draw(rt, "query"),
			FormData: entity.FormData{
				Email:       rapid.SampledFrom([]string{"", "a@b.pl"}).Draw(rt, "email"),
				Name:        rapid.SampledFrom([]string{"", "Jan"}).Draw(rt, "name"),
				Phone:       rapid.SampledFrom([]string{"", "600 700 800"}).Draw(rt, "phone"),
				Message:     rapid.SampledFrom([]string{"", "hej"}).Draw(rt, "message"),
				OrderNumber: rapid.SampledFrom([]string{"", "A-123"}).Draw(rt, "order"),
			},
		}

		plan := c.Compile(cmd)

		require.NoError(rt, plan.Validate())
		for i, step := range plan.Steps {
			for _, dep := range step.DependsOn {
				require.Less(rt, dep, i)
				require.GreaterOrEqual(rt, dep, 0)
			}
			if step.Type == entity.StepVerify || step.Type == entity.StepScreenshot {
				require.True(rt, step.Optional)
			}
		}
		require.Equal(rt, entity.StepScreenshot, plan.Steps[len(plan.Steps)-1].Type)
	})
}
