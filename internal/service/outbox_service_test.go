package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sprinthub/internal/apperr"
	"sprinthub/internal/model"
)

type fakeOutboxStore struct {
	replayed []int64
}

func (s *fakeOutboxStore) ReplayEvent(_ context.Context, eventID int64) error {
	s.replayed = append(s.replayed, eventID)
	return nil
}

func TestReplayOutboxEventOwnerOnly(t *testing.T) {
	store := &fakeOutboxStore{}
	svc := NewOutboxService(store, zap.NewNop())

	err := svc.Replay(context.Background(), model.Actor{ID: 1, Role: model.RoleOwner}, 42)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, store.replayed)

	for _, role := range []model.Role{model.RolePM, model.RoleDev, model.RoleViewer} {
		err := svc.Replay(context.Background(), model.Actor{ID: 2, Role: role}, 43)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		assert.Contains(t, err.Error(), "Only the Owner may replay events.")
	}
	assert.Equal(t, []int64{42}, store.replayed)
}
