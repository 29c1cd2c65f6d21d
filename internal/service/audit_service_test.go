package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprinthub/internal/apperr"
	"sprinthub/internal/model"
	"sprinthub/internal/repository"
)

// fakeAuditStore records the filter it was queried with.
type fakeAuditStore struct {
	lastFilter repository.AuditFilter
	entries    []model.AuditLogEntry
}

func (s *fakeAuditStore) List(_ context.Context, f repository.AuditFilter) ([]model.AuditLogEntry, error) {
	s.lastFilter = f
	return s.entries, nil
}

func TestAuditListOwnerOnly(t *testing.T) {
	e := newEnv()
	store := &fakeAuditStore{}
	svc := NewAuditService(store, e.access)
	ctx := context.Background()

	for _, role := range []model.Role{model.RolePM, model.RoleDev, model.RoleViewer} {
		_, err := svc.List(ctx, model.Actor{ID: 2, Role: role}, repository.AuditFilter{})
		require.Error(t, err, string(role))
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		assert.Equal(t, "Only the Owner may read the audit log.", err.(*apperr.Error).Message)
	}

	_, err := svc.List(ctx, model.Actor{ID: 1, Role: model.RoleOwner}, repository.AuditFilter{})
	assert.NoError(t, err)
}

func TestAuditListDefaultsLimit(t *testing.T) {
	e := newEnv()
	store := &fakeAuditStore{}
	svc := NewAuditService(store, e.access)

	_, err := svc.List(context.Background(), model.Actor{ID: 1, Role: model.RoleOwner}, repository.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, 200, store.lastFilter.Limit)

	_, err = svc.List(context.Background(), model.Actor{ID: 1, Role: model.RoleOwner}, repository.AuditFilter{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, store.lastFilter.Limit)
}

func TestAuditListPassesFilters(t *testing.T) {
	e := newEnv()
	store := &fakeAuditStore{}
	svc := NewAuditService(store, e.access)

	_, err := svc.List(context.Background(), model.Actor{ID: 1, Role: model.RoleOwner}, repository.AuditFilter{
		Action:     model.AuditSoftDelete,
		EntityType: "task",
		ActorID:    7,
	})
	require.NoError(t, err)

	assert.Equal(t, model.AuditSoftDelete, store.lastFilter.Action)
	assert.Equal(t, "task", store.lastFilter.EntityType)
	assert.Equal(t, 7, store.lastFilter.ActorID)
}
