package workflow

import (
	"fmt"

	"sprinthub/internal/model"
)

// DefaultSprintDays is the duration given to auto-created sprints.
const DefaultSprintDays = 7

// CompletionFired reports whether a sprint update is the completion
// transition: the persisted status was not COMPLETED and the new one is.
// Re-saving an already completed sprint must not re-fire the cascade.
func CompletionFired(old, new model.SprintStatus) bool {
	return old != model.SprintCompleted && new == model.SprintCompleted
}

// NextSprint computes the sprint auto-created when completed finishes.
// existing is the number of sprints the project has at that moment; the
// new sprint starts one day after the completed one ends.
func NextSprint(completed model.Sprint, existing int) model.Sprint {
	return model.Sprint{
		ProjectID:    completed.ProjectID,
		Name:         fmt.Sprintf("Sprint %d", existing+1),
		StartDate:    completed.StartDate.AddDate(0, 0, completed.DurationDays+1),
		DurationDays: DefaultSprintDays,
		Status:       model.SprintOpen,
	}
}
