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
)

type ProjectService struct {
	projects ProjectStore
	users    UserStore
	access   *Access
	log      *zap.Logger
}

func NewProjectService(projects ProjectStore, users UserStore, access *Access, log *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, users: users, access: access, log: log}
}

type CreateProjectInput struct {
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	PMID      int        `json:"pm_id"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// Create adds a project. When a PM creates one without naming a pm, the
// actor becomes the pm.
func (s *ProjectService) Create(ctx context.Context, actor model.Actor, in CreateProjectInput, meta repository.RequestMeta) (*model.Project, error) {
	if err := s.access.AuthorizeResource(actor, authz.ActionCreate, authz.Resource{Type: authz.ResourceProject}); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("Title is required.")
	}

	status := model.ProjectStarted
	if in.Status != "" {
		status = model.ProjectStatus(in.Status)
		if !status.Valid() {
			return nil, apperr.Validation("Invalid status value.")
		}
	}

	pmID := in.PMID
	if pmID == 0 {
		if actor.Role != model.RolePM && actor.Role != model.RoleOwner {
			return nil, apperr.Validation("pm_id is required.")
		}
		pmID = actor.ID
	}
	if _, err := s.users.GetByID(ctx, pmID, false); err != nil {
		return nil, err
	}

	p := &model.Project{
		Title:     strings.TrimSpace(in.Title),
		Status:    status,
		PMID:      pmID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	}
	if err := s.projects.Create(ctx, p, meta); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, actor model.Actor, id int) (*model.Project, error) {
	if err := s.access.Authorize(ctx, actor, authz.ActionRead, authz.ResourceProject, id); err != nil {
		return nil, err
	}
	return s.projects.GetByID(ctx, id, false)
}

// List returns projects; includeDeleted is the Owner-only admin view.
func (s *ProjectService) List(ctx context.Context, actor model.Actor, includeDeleted bool) ([]model.Project, error) {
	if includeDeleted && actor.Role != model.RoleOwner {
		return nil, apperr.Authorization("Only the Owner may view deleted projects.")
	}
	return s.projects.List(ctx, includeDeleted)
}

func (s *ProjectService) Update(ctx context.Context, actor model.Actor, id int, patch repository.ProjectPatch, meta repository.RequestMeta) (*model.Project, error) {
	if err := s.access.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceProject, id); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.Validation("Invalid status value.")
	}
	if patch.PMID != nil {
		if _, err := s.users.GetByID(ctx, *patch.PMID, false); err != nil {
			return nil, err
		}
	}
	return s.projects.Update(ctx, id, patch, meta)
}

func (s *ProjectService) SoftDelete(ctx context.Context, actor model.Actor, id int, meta repository.RequestMeta) error {
	if err := s.access.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceProject, id); err != nil {
		return err
	}
	return s.projects.SoftDelete(ctx, id, meta)
}

func (s *ProjectService) HardDelete(ctx context.Context, actor model.Actor, id int, meta repository.RequestMeta) error {
	if err := s.access.Authorize(ctx, actor, authz.ActionHardDelete, authz.ResourceProject, id); err != nil {
		return err
	}
	s.log.Warn("Hard-deleting project", zap.Int("project_id", id), zap.Int("actor_id", actor.ID))
	return s.projects.HardDelete(ctx, id, meta)
}
