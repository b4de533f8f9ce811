package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browser-commander/internal/domain/entity"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := NewRunStore(filepath.Join(t.TempDir(), "db", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	report := &entity.RunReport{
		SessionID:   "s-1",
		Instruction: "otwórz example.com",
		Goal:        &entity.GoalMatch{Goal: entity.GoalGeneric, Confidence: 0.5},
		Success:     true,
		FinalURL:    "https://example.com/",
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:    2 * time.Second,
		Validation:  &entity.ValidationResult{Status: entity.ValidationSuccess, Score: 0.8, Passed: true},
		StepResults: []entity.StepResult{{Index: 0, Type: entity.StepNavigate, Success: true}},
	}
	require.NoError(t, store.SaveRun(ctx, report))

	got, err := store.GetRun(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, report.Instruction, got.Instruction)
	assert.Equal(t, report.FinalURL, got.FinalURL)
	assert.True(t, got.StartedAt.Equal(report.StartedAt))
	assert.Equal(t, 0.8, got.Validation.Score)
	require.Len(t, got.StepResults, 1)
	assert.Equal(t, entity.StepNavigate, got.StepResults[0].Type)
}

func TestRunStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	report := &entity.RunReport{SessionID: "s-1", Instruction: "a", StartedAt: time.Now()}
	require.NoError(t, store.SaveRun(ctx, report))

	report.Success = true
	report.Error = ""
	require.NoError(t, store.SaveRun(ctx, report))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Success)
}

func TestRunStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, entity.ErrRunNotFound)
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveRun(ctx, &entity.RunReport{
			SessionID:   fmt.Sprintf("s-%d", i),
			Instruction: fmt.Sprintf("run %d", i),
			Success:     i%2 == 0,
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "s-4", runs[0].SessionID)
	assert.Equal(t, "s-3", runs[1].SessionID)
	assert.Equal(t, "s-2", runs[2].SessionID)
	assert.True(t, runs[0].Success)
	assert.False(t, runs[1].Success)
}

func TestRunStore_RejectsEmptySession(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.SaveRun(context.Background(), &entity.RunReport{}))
}
