package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"browser-commander/internal/domain/entity"
	"browser-commander/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDetect_PatternTier(t *testing.T) {
	c := New(testutil.NopLogger())

	m := c.Detect(context.Background(), "pokaż zawartość koszyka")

	assert.Equal(t, entity.GoalFindCart, m.Goal)
	assert.Equal(t, entity.MethodPattern, m.Method)
	assert.InDelta(t, 0.9, m.Confidence, 1e-9)
}

func TestDetect_PatternTierHalfRatio(t *testing.T) {
	c := New(testutil.NopLogger())

	m := c.Detect(context.Background(), "Wejdź na example.com i wyślij formularz z adresem email info@test.com i nazwiskiem Kowalski")

	assert.Equal(t, entity.GoalFindContactForm, m.Goal)
	assert.Equal(t, entity.MethodPattern, m.Method)
	assert.InDelta(t, 0.8, m.Confidence, 1e-9)
}

func TestDetect_StatisticalTier(t *testing.T) {
	llm := &testutil.FakeLLM{}
	c := New(testutil.NopLogger(), WithLLM(llm, time.Second))

	m := c.Detect(context.Background(), "shopping bag")

	assert.Equal(t, entity.GoalFindCart, m.Goal)
	assert.Equal(t, entity.MethodStatistical, m.Method)
	assert.GreaterOrEqual(t, m.Confidence, DefaultLLMThreshold)
	assert.Empty(t, llm.Prompts, "confident statistical result should not reach the llm")
}

func TestDetect_LLMTier(t *testing.T) {
	llm := &testutil.FakeLLM{Responses: []string{
		`Sure! {"goal": "find_help", "confidence": 0.7, "reasoning": "asks for assistance"}`,
	}}
	c := New(testutil.NopLogger(), WithLLM(llm, time.Second))

	m := c.Detect(context.Background(), "zrób coś z tą stroną")

	assert.Equal(t, entity.GoalFindHelp, m.Goal)
	assert.Equal(t, entity.MethodLLM, m.Method)
	assert.Equal(t, 0.7, m.Confidence)
	require.Len(t, llm.Prompts, 1)
	assert.Contains(t, llm.Prompts[0], "zrób coś z tą stroną")
}

func TestDetect_LLMLowerThanStatisticalIsIgnored(t *testing.T) {
	llm := &testutil.FakeLLM{Responses: []string{`{"goal": "find_about", "confidence": 0.01}`}}
	c := New(testutil.NopLogger(), WithLLM(llm, time.Second), WithThreshold(0.95))

	m := c.Detect(context.Background(), "shopping bag")

	require.Len(t, llm.Prompts, 1)
	assert.Equal(t, entity.GoalFindCart, m.Goal)
	assert.Equal(t, entity.MethodStatistical, m.Method)
}

func TestDetect_LLMFailuresFallBack(t *testing.T) {
	tests := []struct {
		name string
		llm  *testutil.FakeLLM
	}{
		{"error", &testutil.FakeLLM{Err: errors.New("boom")}},
		{"garbage", &testutil.FakeLLM{Responses: []string{"I cannot help with that"}}},
		{"timeout", &testutil.FakeLLM{Responses: []string{`{"goal":"find_help","confidence":1}`}, Delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(testutil.NopLogger(), WithLLM(tt.llm, 20*time.Millisecond))

			m := c.Detect(context.Background(), "zrób coś z tą stroną")

			assert.Equal(t, entity.GoalGeneric, m.Goal)
			assert.Equal(t, fallbackConfidence, m.Confidence)
		})
	}
}

func TestParseLLMResponse(t *testing.T) {
	m, err := parseLLMResponse("```json\n{\"goal\": \"FIND_LOGIN\", \"confidence\": 1.4}\n```")
	require.NoError(t, err)
	assert.Equal(t, entity.GoalFindLogin, m.Goal)
	assert.Equal(t, 1.0, m.Confidence)

	m, err = parseLLMResponse("The best fit is find_pricing.")
	require.NoError(t, err)
	assert.Equal(t, entity.GoalFindPricing, m.Goal)
	assert.Equal(t, textualLLMConf, m.Confidence)

	_, err = parseLLMResponse("either find_cart or find_checkout")
	assert.Error(t, err)

	_, err = parseLLMResponse(`{"goal": "contact"}`)
	assert.Error(t, err)
}

func TestTFIDF_IDFIsFixed(t *testing.T) {
	m := newTFIDFModel()
	before := len(m.idf)

	m.best("zupełnie nowe słowa których nie ma w korpusie")

	assert.Equal(t, before, len(m.idf))
	assert.Greater(t, m.idf["koszyk"], m.idf["konto"])
}

func TestCosine(t *testing.T) {
	a := vector{"x": 1, "y": 1}

	assert.InDelta(t, 1.0, cosine(a, a), 1e-12)
	assert.Equal(t, 0.0, cosine(a, vector{"z": 1}))
	assert.Equal(t, 0.0, cosine(vector{}, a))
}

func TestDetect_DeterministicWithoutLLM(t *testing.T) {
	c := New(testutil.NopLogger())
	words := []string{
		"wejdź", "na", "example.com", "koszyk", "kontakt", "formularz", "login", "zaloguj",
		"search", "produkty", "cennik", "pomoc", "about", "o", "nas", "pobierz", "dane",
		"career", "rejestracja", "checkout", "shopping", "bag", "zrób", "coś",
	}

	rapid.Check(t, func(rt *rapid.T) {
		picked := rapid.SliceOfN(rapid.SampledFrom(words), 1, 8).Draw(rt, "words")
		text := strings.Join(picked, " ")

		first := c.Detect(context.Background(), text)
		second := c.Detect(context.Background(), text)

		require.Equal(rt, first.Goal, second.Goal)
		require.Equal(rt, first.Confidence, second.Confidence)
		require.GreaterOrEqual(rt, first.Confidence, 0.0)
		require.LessOrEqual(rt, first.Confidence, maxTierConfidence)
	})
}
