// Package authz is the single decision point for role-based access
// control. Every entry point consults Decide before validating or
// persisting anything; the policy itself is a pure function with no
// side effects.
package authz

import (
	"fmt"

	"sprinthub/internal/apperr"
	"sprinthub/internal/model"
)

type Action string

const (
	ActionCreate       Action = "create"
	ActionRead         Action = "read"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionHardDelete   Action = "hard_delete"
	ActionChangeStatus Action = "change_status"
	ActionListAudit    Action = "list_audit"
)

type ResourceType string

const (
	ResourceProject ResourceType = "project"
	ResourceSprint  ResourceType = "sprint"
	ResourceTask    ResourceType = "task"
	ResourceUser    ResourceType = "user"
	ResourceAudit   ResourceType = "audit"
)

// Resource describes the target of a request with just enough context
// for the decision table: who owns it (the project's PM for project,
// sprint and task resources; the user itself for user resources), the
// assignee set for tasks, and the requested role for user creation.
type Resource struct {
	Type      ResourceType
	OwnerID   int
	OwnerRole model.Role
	Assignees []int
	// TargetRole is the role being granted on user creation, or the
	// target user's own role on user update/delete.
	TargetRole model.Role
}

// Decide returns nil when actor may perform action on res, or an
// authorization error with a role-specific reason.
func Decide(actor model.Actor, action Action, res Resource) error {
	switch actor.Role {
	case model.RoleOwner:
		return nil
	case model.RolePM:
		return decidePM(actor, action, res)
	case model.RoleDev:
		return decideDev(actor, action, res)
	case model.RoleViewer:
		if action == ActionRead {
			return nil
		}
		if action == ActionChangeStatus {
			return apperr.Authorization("You are not allowed to change task status.")
		}
		if action == ActionListAudit {
			return apperr.Authorization("Only the Owner may read the audit log.")
		}
		return apperr.Authorization("Viewer has read-only access.")
	}
	return apperr.Authorization(fmt.Sprintf("Unknown role %q.", actor.Role))
}

func decidePM(actor model.Actor, action Action, res Resource) error {
	switch action {
	case ActionRead:
		return nil
	case ActionListAudit:
		return apperr.Authorization("Only the Owner may read the audit log.")
	case ActionCreate:
		if res.Type == ResourceUser && res.TargetRole != model.RoleDev && res.TargetRole != model.RoleViewer {
			return apperr.Authorization("PM may only create DEV or VIEWER users.")
		}
		return nil
	case ActionUpdate, ActionDelete, ActionHardDelete, ActionChangeStatus:
		if res.Type == ResourceUser {
			if res.TargetRole == model.RoleOwner || res.TargetRole == model.RolePM {
				return apperr.Authorization("PM may not modify an OWNER or another PM.")
			}
			return nil
		}
		// Project-owned resources: a PM may touch its own projects and
		// anything owned by a DEV or VIEWER, but not the Owner's or
		// another PM's resources.
		if res.OwnerID != actor.ID && (res.OwnerRole == model.RoleOwner || res.OwnerRole == model.RolePM) {
			return apperr.Authorization("PM may not modify resources owned by the Owner or another PM.")
		}
		return nil
	}
	return apperr.Authorization(fmt.Sprintf("PM may not perform %q.", action))
}

func decideDev(actor model.Actor, action Action, res Resource) error {
	switch action {
	case ActionRead:
		if res.Type == ResourceTask && !memberOf(actor.ID, res.Assignees) {
			return apperr.Authorization("You cannot access tasks not assigned to you.")
		}
		if res.Type == ResourceAudit {
			return apperr.Authorization("Only the Owner may read the audit log.")
		}
		return nil
	case ActionChangeStatus:
		if res.Type != ResourceTask {
			return apperr.Authorization("Developer may only change task status.")
		}
		if !memberOf(actor.ID, res.Assignees) {
			return apperr.Authorization("You can only change status of your own tasks.")
		}
		return nil
	case ActionListAudit:
		return apperr.Authorization("Only the Owner may read the audit log.")
	}
	return apperr.Authorization(fmt.Sprintf("Developer has read-only access to %ss.", res.Type))
}

func memberOf(id int, ids []int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
