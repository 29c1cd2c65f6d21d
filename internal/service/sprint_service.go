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
)

type SprintService struct {
	sprints  SprintStore
	projects ProjectStore
	access   *Access
	log      *zap.Logger
}

func NewSprintService(sprints SprintStore, projects ProjectStore, access *Access, log *zap.Logger) *SprintService {
	return &SprintService{sprints: sprints, projects: projects, access: access, log: log}
}

type CreateSprintInput struct {
	ProjectID    int       `json:"project_id"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"start_date"`
	DurationDays int       `json:"duration_days"`
	Status       string    `json:"status"`
}

func (s *SprintService) Create(ctx context.Context, actor model.Actor, in CreateSprintInput, meta repository.RequestMeta) (*model.Sprint, error) {
	if err := s.access.AuthorizeResource(actor, authz.ActionCreate, authz.Resource{Type: authz.ResourceSprint}); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("Name is required.")
	}
	if in.StartDate.IsZero() {
		return nil, apperr.Validation("start_date is required.")
	}
	if in.DurationDays == 0 {
		in.DurationDays = workflow.DefaultSprintDays
	}
	if in.DurationDays <= 0 {
		return nil, apperr.Validation("duration_days must be positive.")
	}

	status := model.SprintOpen
	if in.Status != "" {
		status = model.SprintStatus(in.Status)
		if !status.Valid() {
			return nil, apperr.Validation("Invalid status value.")
		}
	}

	if _, err := s.projects.GetByID(ctx, in.ProjectID, false); err != nil {
		return nil, err
	}

	sp := &model.Sprint{
		ProjectID:    in.ProjectID,
		Name:         strings.TrimSpace(in.Name),
		StartDate:    in.StartDate,
		DurationDays: in.DurationDays,
		Status:       status,
	}
	if err := s.sprints.Create(ctx, sp, meta); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *SprintService) Get(ctx context.Context, actor model.Actor, id int) (*model.Sprint, error) {
	if err := s.access.Authorize(ctx, actor, authz.ActionRead, authz.ResourceSprint, id); err != nil {
		return nil, err
	}
	return s.sprints.GetByID(ctx, id, false)
}

func (s *SprintService) List(ctx context.Context, actor model.Actor, includeDeleted bool) ([]model.Sprint, error) {
	if includeDeleted && actor.Role != model.RoleOwner {
		return nil, apperr.Authorization("Only the Owner may view deleted sprints.")
	}
	return s.sprints.List(ctx, includeDeleted)
}

// Update patches a sprint. Changing status to COMPLETED fires the
// completion cascade: the next sprint is created in the same atomic
// unit, named after the project's sprint count at that moment. The
// second return value is the created sprint, nil when nothing fired.
func (s *SprintService) Update(ctx context.Context, actor model.Actor, id int, patch repository.SprintPatch, meta repository.RequestMeta) (*model.Sprint, *model.Sprint, error) {
	if err := s.access.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceSprint, id); err != nil {
		return nil, nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, nil, apperr.Validation("Invalid status value.")
	}
	if patch.DurationDays != nil && *patch.DurationDays <= 0 {
		return nil, nil, apperr.Validation("duration_days must be positive.")
	}
	return s.sprints.Update(ctx, id, patch, workflow.NextSprint, meta)
}

// Complete is the dedicated completion entry point: a plain status
// update to COMPLETED through the same cascade-aware path.
func (s *SprintService) Complete(ctx context.Context, actor model.Actor, id int, meta repository.RequestMeta) (*model.Sprint, *model.Sprint, error) {
	completed := model.SprintCompleted
	return s.Update(ctx, actor, id, repository.SprintPatch{Status: &completed}, meta)
}

func (s *SprintService) SoftDelete(ctx context.Context, actor model.Actor, id int, meta repository.RequestMeta) error {
	if err := s.access.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceSprint, id); err != nil {
		return err
	}
	return s.sprints.SoftDelete(ctx, id, meta)
}

func (s *SprintService) HardDelete(ctx context.Context, actor model.Actor, id int, meta repository.RequestMeta) error {
	if err := s.access.Authorize(ctx, actor, authz.ActionHardDelete, authz.ResourceSprint, id); err != nil {
		return err
	}
	s.log.Warn("Hard-deleting sprint", zap.Int("sprint_id", id), zap.Int("actor_id", actor.ID))
	return s.sprints.HardDelete(ctx, id, meta)
}
