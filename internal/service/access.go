package service

import (
	"context"

	"sprinthub/internal/authz"
	"sprinthub/internal/model"
	"sprinthub/pkg/metrics"
)

// Access resolves the ownership context of a target entity and runs the
// authorization policy against it. All services share one instance so
// every entry point consults the same decision table.
type Access struct {
	users    UserStore
	projects ProjectStore
	sprints  SprintStore
	tasks    TaskStore
}

func NewAccess(users UserStore, projects ProjectStore, sprints SprintStore, tasks TaskStore) *Access {
	return &Access{users: users, projects: projects, sprints: sprints, tasks: tasks}
}

// Authorize resolves the resource identified by (resourceType, id) and
// asks the policy whether actor may perform action on it. An id of 0
// skips resolution (creation, listing).
func (a *Access) Authorize(ctx context.Context, actor model.Actor, action authz.Action, resourceType authz.ResourceType, id int) error {
	// The Owner is unrestricted; skip the ownership lookups.
	if actor.Role == model.RoleOwner {
		return nil
	}

	res := authz.Resource{Type: resourceType}
	if id != 0 {
		var err error
		// Hard deletion targets soft-deleted rows too, so it resolves
		// through the administrative view.
		res, err = a.resolve(ctx, resourceType, id, action == authz.ActionHardDelete)
		if err != nil {
			return err
		}
	}
	return a.decide(actor, action, res)
}

// AuthorizeResource runs the policy against an already resolved resource.
func (a *Access) AuthorizeResource(actor model.Actor, action authz.Action, res authz.Resource) error {
	return a.decide(actor, action, res)
}

func (a *Access) decide(actor model.Actor, action authz.Action, res authz.Resource) error {
	if err := authz.Decide(actor, action, res); err != nil {
		metrics.IncrementAuthzDenial(string(actor.Role), string(action))
		return err
	}
	return nil
}

// resolve loads just enough of the target to feed the decision table:
// the owning PM for project-rooted resources, the assignee set for
// tasks, the target's own role for users.
func (a *Access) resolve(ctx context.Context, resourceType authz.ResourceType, id int, includeDeleted bool) (authz.Resource, error) {
	res := authz.Resource{Type: resourceType}

	switch resourceType {
	case authz.ResourceUser:
		u, err := a.users.GetByID(ctx, id, includeDeleted)
		if err != nil {
			return res, err
		}
		res.OwnerID = u.ID
		res.OwnerRole = u.Role
		res.TargetRole = u.Role
		return res, nil

	case authz.ResourceProject:
		return a.resolveProject(ctx, id, includeDeleted, res)

	case authz.ResourceSprint:
		s, err := a.sprints.GetByID(ctx, id, includeDeleted)
		if err != nil {
			return res, err
		}
		return a.resolveProject(ctx, s.ProjectID, includeDeleted, res)

	case authz.ResourceTask:
		t, err := a.tasks.GetByID(ctx, id, includeDeleted)
		if err != nil {
			return res, err
		}
		res.Assignees = t.Assignees
		s, err := a.sprints.GetByID(ctx, t.SprintID, true)
		if err != nil {
			return res, err
		}
		return a.resolveProject(ctx, s.ProjectID, true, res)
	}

	return res, nil
}

func (a *Access) resolveProject(ctx context.Context, projectID int, includeDeleted bool, res authz.Resource) (authz.Resource, error) {
	p, err := a.projects.GetByID(ctx, projectID, includeDeleted)
	if err != nil {
		return res, err
	}
	pm, err := a.users.GetByID(ctx, p.PMID, true)
	if err != nil {
		return res, err
	}
	res.OwnerID = pm.ID
	res.OwnerRole = pm.Role
	return res, nil
}
