package service

import (
	"context"

	"sprinthub/internal/authz"
	"sprinthub/internal/model"
	"sprinthub/internal/repository"
)

// AuditService exposes the read-only audit query surface. The log
// itself is written by the repositories, inside each mutation's
// transaction; nothing here can alter it.
type AuditService struct {
	audit  AuditStore
	access *Access
}

func NewAuditService(audit AuditStore, access *Access) *AuditService {
	return &AuditService{audit: audit, access: access}
}

// List returns audit entries newest first. Owner only.
func (s *AuditService) List(ctx context.Context, actor model.Actor, f repository.AuditFilter) ([]model.AuditLogEntry, error) {
	if err := s.access.AuthorizeResource(actor, authz.ActionListAudit, authz.Resource{Type: authz.ResourceAudit}); err != nil {
		return nil, err
	}
	if f.Limit == 0 {
		f.Limit = 200
	}
	return s.audit.List(ctx, f)
}
