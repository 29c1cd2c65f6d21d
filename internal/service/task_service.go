package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"sprinthub/internal/apperr"
	"sprinthub/internal/authz"
	"sprinthub/internal/model"
	"sprinthub/internal/repository"
	"sprinthub/internal/workflow"
	"sprinthub/pkg/metrics"
)

type TaskService struct {
	tasks   TaskStore
	sprints SprintStore
	users   UserStore
	access  *Access
	log     *zap.Logger
}

func NewTaskService(tasks TaskStore, sprints SprintStore, users UserStore, access *Access, log *zap.Logger) *TaskService {
	return &TaskService{tasks: tasks, sprints: sprints, users: users, access: access, log: log}
}

type CreateTaskInput struct {
	SprintID    int        `json:"sprint_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Assignees   []int      `json:"assignees"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

// Create adds a task in TO_DO, the initial workflow state.
func (s *TaskService) Create(ctx context.Context, actor model.Actor, in CreateTaskInput, meta repository.RequestMeta) (*model.Task, error) {
	if err := s.access.AuthorizeResource(actor, authz.ActionCreate, authz.Resource{Type: authz.ResourceTask}); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("Title is required.")
	}
	if _, err := s.sprints.GetByID(ctx, in.SprintID, false); err != nil {
		return nil, err
	}
	for _, userID := range in.Assignees {
		if _, err := s.users.GetByID(ctx, userID, false); err != nil {
			return nil, err
		}
	}

	t := &model.Task{
		SprintID:    in.SprintID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Assignees:   in.Assignees,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		Status:      model.TaskToDo,
	}
	if err := s.tasks.Create(ctx, t, meta); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, actor model.Actor, id int) (*model.Task, error) {
	if err := s.access.Authorize(ctx, actor, authz.ActionRead, authz.ResourceTask, id); err != nil {
		return nil, err
	}
	return s.tasks.GetByID(ctx, id, false)
}

// List returns all tasks for OWNER/PM and only assigned tasks for
// DEV/VIEWER. includeDeleted is the Owner-only admin view.
func (s *TaskService) List(ctx context.Context, actor model.Actor, includeDeleted bool) ([]model.Task, error) {
	if includeDeleted && actor.Role != model.RoleOwner {
		return nil, apperr.Authorization("Only the Owner may view deleted tasks.")
	}
	if actor.Role == model.RoleOwner || actor.Role == model.RolePM {
		return s.tasks.List(ctx, includeDeleted)
	}
	return s.tasks.ListByAssignee(ctx, actor.ID)
}

// ListMine returns the actor's assigned tasks regardless of role.
func (s *TaskService) ListMine(ctx context.Context, actor model.Actor) ([]model.Task, error) {
	return s.tasks.ListByAssignee(ctx, actor.ID)
}

func (s *TaskService) Update(ctx context.Context, actor model.Actor, id int, patch repository.TaskPatch, meta repository.RequestMeta) (*model.Task, error) {
	if err := s.access.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceTask, id); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.Validation("Invalid status value.")
	}
	for _, userID := range patch.Assignees {
		if _, err := s.users.GetByID(ctx, userID, false); err != nil {
			return nil, err
		}
	}
	return s.tasks.Update(ctx, id, patch, meta)
}

// TransitionStatus moves a task through the workflow. The policy
// rejects viewers before anything else runs; the transition itself is
// validated against the locked row inside the repository's transaction
// so concurrent requests against the same task serialize cleanly.
func (s *TaskService) TransitionStatus(ctx context.Context, actor model.Actor, id int, requested model.TaskStatus, meta repository.RequestMeta) (*model.Task, error) {
	if requested == "" {
		return nil, apperr.Validation("status is required.")
	}

	// Role-level gate first: viewers and unknown roles never reach
	// the state machine, whatever the task looks like.
	if actor.Role == model.RoleViewer || !actor.Role.Valid() {
		if err := s.access.AuthorizeResource(actor, authz.ActionChangeStatus, authz.Resource{Type: authz.ResourceTask}); err != nil {
			return nil, err
		}
	}

	var from model.TaskStatus
	updated, err := s.tasks.TransitionStatus(ctx, id, requested, func(current *model.Task) error {
		from = current.Status
		if err := s.access.AuthorizeResource(actor, authz.ActionChangeStatus, authz.Resource{
			Type:      authz.ResourceTask,
			Assignees: current.Assignees,
		}); err != nil {
			return err
		}
		return workflow.ValidateTransition(actor.Role, current.AssignedTo(actor.ID), current.Status, requested)
	}, meta)
	if err != nil {
		return nil, err
	}

	if from != updated.Status {
		metrics.IncrementTaskTransition(string(from), string(updated.Status), string(actor.Role))
		s.log.Info("Task status changed",
			zap.Int("task_id", id),
			zap.String("from", string(from)),
			zap.String("to", string(updated.Status)),
			zap.Int("actor_id", actor.ID),
		)
	}
	return updated, nil
}

func (s *TaskService) SoftDelete(ctx context.Context, actor model.Actor, id int, meta repository.RequestMeta) error {
	if err := s.access.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceTask, id); err != nil {
		return err
	}
	return s.tasks.SoftDelete(ctx, id, meta)
}

func (s *TaskService) HardDelete(ctx context.Context, actor model.Actor, id int, meta repository.RequestMeta) error {
	if err := s.access.Authorize(ctx, actor, authz.ActionHardDelete, authz.ResourceTask, id); err != nil {
		return err
	}
	s.log.Warn("Hard-deleting task", zap.Int("task_id", id), zap.Int("actor_id", actor.ID))
	return s.tasks.HardDelete(ctx, id, meta)
}
