package service

import (
	"context"

	"go.uber.org/zap"

	"sprinthub/internal/apperr"
	"sprinthub/internal/model"
)

// OutboxStore is the slice of the outbox repository the admin surface
// needs.
type OutboxStore interface {
	ReplayEvent(ctx context.Context, eventID int64) error
}

// OutboxService exposes the replay path for events parked as failed
// after the dispatcher exhausted its retries.
type OutboxService struct {
	events OutboxStore
	log    *zap.Logger
}

func NewOutboxService(events OutboxStore, log *zap.Logger) *OutboxService {
	return &OutboxService{events: events, log: log}
}

// Replay resets a failed event back to pending so the dispatcher picks
// it up on its next poll. Owner only.
func (s *OutboxService) Replay(ctx context.Context, actor model.Actor, eventID int64) error {
	if actor.Role != model.RoleOwner {
		return apperr.Authorization("Only the Owner may replay events.")
	}
	if err := s.events.ReplayEvent(ctx, eventID); err != nil {
		return err
	}
	s.log.Info("Outbox event replayed", zap.Int64("event_id", eventID), zap.Int("actor_id", actor.ID))
	return nil
}
