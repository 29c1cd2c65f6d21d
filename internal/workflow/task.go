// Package workflow holds the pure domain rules: the per-role task
// status state machine and the sprint completion cascade. Nothing here
// touches storage; callers run these inside their own transactions.
package workflow

import (
	"fmt"

	"sprinthub/internal/apperr"
	"sprinthub/internal/model"
)

// devTargets is the full set of statuses a developer may ever request.
var devTargets = map[model.TaskStatus]bool{
	model.TaskToDo:       true,
	model.TaskInProgress: true,
	model.TaskQATesting:  true,
	model.TaskPMReview:   true,
}

// devNext maps the current status to the single next status a developer
// may request. PM_REVIEW has no entry: a developer cannot leave it.
var devNext = map[model.TaskStatus]model.TaskStatus{
	model.TaskToDo:       model.TaskInProgress,
	model.TaskInProgress: model.TaskQATesting,
	model.TaskQATesting:  model.TaskPMReview,
}

// ValidateTransition decides whether an actor with the given role may
// move a task from current to requested. assigned reports whether the
// actor is one of the task's assignees (only consulted for DEV).
//
// PM and OWNER may set any valid status. Developers walk a fixed chain
// with no skipping. Viewers never reach a valid transition.
func ValidateTransition(role model.Role, assigned bool, current, requested model.TaskStatus) error {
	if !requested.Valid() {
		return apperr.Validation("Invalid status value.")
	}

	switch role {
	case model.RolePM, model.RoleOwner:
		return nil
	case model.RoleDev:
		return validateDevTransition(assigned, current, requested)
	}
	return apperr.Authorization("You are not allowed to change task status.")
}

func validateDevTransition(assigned bool, current, requested model.TaskStatus) error {
	if !assigned {
		return apperr.Authorization("You can only change status of your own tasks.")
	}
	if !devTargets[requested] {
		return apperr.Validation("Developer cannot set this status.")
	}
	if current == model.TaskPMReview {
		return apperr.Validation("Developer cannot change status from PM_REVIEW.")
	}
	next, ok := devNext[current]
	if !ok {
		// COMPLETED and ON_HOLD are terminal for developer-initiated flows.
		return apperr.Validation(fmt.Sprintf("Developer cannot change status from %s.", current))
	}
	if requested != next {
		return apperr.Validation(fmt.Sprintf("From %s only %s is allowed.", current, next))
	}
	return nil
}
