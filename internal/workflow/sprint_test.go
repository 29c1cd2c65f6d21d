package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sprinthub/internal/model"
)

func TestCompletionFired(t *testing.T) {
	assert.True(t, CompletionFired(model.SprintOpen, model.SprintCompleted))
	assert.True(t, CompletionFired(model.SprintInProgress, model.SprintCompleted))
	assert.False(t, CompletionFired(model.SprintCompleted, model.SprintCompleted))
	assert.False(t, CompletionFired(model.SprintOpen, model.SprintInProgress))
	assert.False(t, CompletionFired(model.SprintCompleted, model.SprintOpen))
}

func TestNextSprint(t *testing.T) {
	completed := model.Sprint{
		ID:           10,
		ProjectID:    3,
		Name:         "Sprint 1",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationDays: 7,
		Status:       model.SprintCompleted,
	}

	next := NextSprint(completed, 1)

	assert.Equal(t, 3, next.ProjectID)
	assert.Equal(t, "Sprint 2", next.Name)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), next.StartDate)
	assert.Equal(t, DefaultSprintDays, next.DurationDays)
	assert.Equal(t, model.SprintOpen, next.Status)
	assert.Zero(t, next.ID)
}

func TestNextSprintNamesAfterProjectCount(t *testing.T) {
	completed := model.Sprint{
		ProjectID:    1,
		StartDate:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		DurationDays: 14,
	}

	next := NextSprint(completed, 4)

	assert.Equal(t, "Sprint 5", next.Name)
	assert.Equal(t, time.Date(2024, 6, 25, 0, 0, 0, 0, time.UTC), next.StartDate)
	// Auto-created sprints always get the default duration, whatever the
	// completed one had.
	assert.Equal(t, DefaultSprintDays, next.DurationDays)
}
