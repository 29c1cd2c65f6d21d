// Package service orchestrates the core flow for every mutation:
// authorize the actor, validate the request, then hand the repository
// one atomic unit of work. Services accept store interfaces so the
// orchestration is testable without a database.
package service

import (
	"context"

	"sprinthub/internal/model"
	"sprinthub/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User, meta repository.RequestMeta) error
	GetByID(ctx context.Context, id int, includeDeleted bool) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, includeDeleted bool) ([]model.User, error)
	UpdateName(ctx context.Context, id int, name string, meta repository.RequestMeta) (*model.User, error)
	SoftDelete(ctx context.Context, id int, meta repository.RequestMeta) error
	HardDelete(ctx context.Context, id int, meta repository.RequestMeta) error
}

type ProjectStore interface {
	Create(ctx context.Context, p *model.Project, meta repository.RequestMeta) error
	GetByID(ctx context.Context, id int, includeDeleted bool) (*model.Project, error)
	List(ctx context.Context, includeDeleted bool) ([]model.Project, error)
	Update(ctx context.Context, id int, patch repository.ProjectPatch, meta repository.RequestMeta) (*model.Project, error)
	SoftDelete(ctx context.Context, id int, meta repository.RequestMeta) error
	HardDelete(ctx context.Context, id int, meta repository.RequestMeta) error
}

type SprintStore interface {
	Create(ctx context.Context, s *model.Sprint, meta repository.RequestMeta) error
	GetByID(ctx context.Context, id int, includeDeleted bool) (*model.Sprint, error)
	List(ctx context.Context, includeDeleted bool) ([]model.Sprint, error)
	Update(ctx context.Context, id int, patch repository.SprintPatch, nextSprint func(model.Sprint, int) model.Sprint, meta repository.RequestMeta) (*model.Sprint, *model.Sprint, error)
	SoftDelete(ctx context.Context, id int, meta repository.RequestMeta) error
	HardDelete(ctx context.Context, id int, meta repository.RequestMeta) error
}

type TaskStore interface {
	Create(ctx context.Context, t *model.Task, meta repository.RequestMeta) error
	GetByID(ctx context.Context, id int, includeDeleted bool) (*model.Task, error)
	List(ctx context.Context, includeDeleted bool) ([]model.Task, error)
	ListByAssignee(ctx context.Context, userID int) ([]model.Task, error)
	Update(ctx context.Context, id int, patch repository.TaskPatch, meta repository.RequestMeta) (*model.Task, error)
	TransitionStatus(ctx context.Context, id int, requested model.TaskStatus, validate func(current *model.Task) error, meta repository.RequestMeta) (*model.Task, error)
	SoftDelete(ctx context.Context, id int, meta repository.RequestMeta) error
	HardDelete(ctx context.Context, id int, meta repository.RequestMeta) error
}

type AuditStore interface {
	List(ctx context.Context, f repository.AuditFilter) ([]model.AuditLogEntry, error)
}
