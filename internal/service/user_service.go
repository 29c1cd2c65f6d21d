package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"sprinthub/internal/apperr"
	"sprinthub/internal/authz"
	"sprinthub/internal/model"
	"sprinthub/internal/repository"
	"sprinthub/internal/util"
)

type UserService struct {
	users  UserStore
	access *Access
	log    *zap.Logger
}

func NewUserService(users UserStore, access *Access, log *zap.Logger) *UserService {
	return &UserService{users: users, access: access, log: log}
}

// CreateUserInput is the admin user-creation payload.
type CreateUserInput struct {
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
	Password string     `json:"password"`
}

// Create adds a user. The Owner may grant any role; a PM only DEV or
// VIEWER. The policy rejects everyone else before validation runs.
func (s *UserService) Create(ctx context.Context, actor model.Actor, in CreateUserInput, meta repository.RequestMeta) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleDev
	}
	if err := s.access.AuthorizeResource(actor, authz.ActionCreate, authz.Resource{
		Type:       authz.ResourceUser,
		TargetRole: in.Role,
	}); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Email) == "" {
		return nil, apperr.Validation("Email is required.")
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("Invalid role value.")
	}
	if in.Password == "" {
		return nil, apperr.Validation("Password is required.")
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Persistence("failed to hash password", err)
	}

	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         in.Name,
		Role:         in.Role,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u, meta); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns a user. DEV and VIEWER actors may only read their own
// profile; user administration is an OWNER/PM surface.
func (s *UserService) Get(ctx context.Context, actor model.Actor, id int) (*model.User, error) {
	if actor.ID != id && actor.Role != model.RoleOwner && actor.Role != model.RolePM {
		return nil, apperr.Authorization("Only OWNER or PM may view other users.")
	}
	if err := s.access.Authorize(ctx, actor, authz.ActionRead, authz.ResourceUser, id); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id, false)
}

// List returns users. Only OWNER sees the administrative view that
// includes soft-deleted rows.
func (s *UserService) List(ctx context.Context, actor model.Actor, includeDeleted bool) ([]model.User, error) {
	if actor.Role != model.RoleOwner && actor.Role != model.RolePM {
		return nil, apperr.Authorization("Only OWNER or PM may list users.")
	}
	if includeDeleted && actor.Role != model.RoleOwner {
		return nil, apperr.Authorization("Only the Owner may view deleted users.")
	}
	return s.users.List(ctx, includeDeleted)
}

// UpdateName renames a user. Role and email stay immutable.
func (s *UserService) UpdateName(ctx context.Context, actor model.Actor, id int, name string, meta repository.RequestMeta) (*model.User, error) {
	if err := s.access.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceUser, id); err != nil {
		return nil, err
	}
	return s.users.UpdateName(ctx, id, name, meta)
}

// UpdateOwnName is the /me path: every actor may rename itself.
func (s *UserService) UpdateOwnName(ctx context.Context, actor model.Actor, name string, meta repository.RequestMeta) (*model.User, error) {
	return s.users.UpdateName(ctx, actor.ID, name, meta)
}

func (s *UserService) SoftDelete(ctx context.Context, actor model.Actor, id int, meta repository.RequestMeta) error {
	if err := s.access.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceUser, id); err != nil {
		return err
	}
	return s.users.SoftDelete(ctx, id, meta)
}

func (s *UserService) HardDelete(ctx context.Context, actor model.Actor, id int, meta repository.RequestMeta) error {
	if err := s.access.Authorize(ctx, actor, authz.ActionHardDelete, authz.ResourceUser, id); err != nil {
		return err
	}
	s.log.Warn("Hard-deleting user", zap.Int("user_id", id), zap.Int("actor_id", actor.ID))
	return s.users.HardDelete(ctx, id, meta)
}
