package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"sprinthub/pkg/mq"
	"sprinthub/pkg/outbox"
)

// EntityDeletedEvent is published for every soft and hard delete so
// downstream consumers can evict caches and projections.
type EntityDeletedEvent struct {
	EntityType string `json:"entity_type"`
	EntityID   int    `json:"entity_id"`
	Hard       bool   `json:"hard"`
}

// insertDeletedEvent queues an entity.deleted event in the deletion's
// transaction.
func insertDeletedEvent(ctx context.Context, tx pgx.Tx, ob *outbox.Repository, entityType string, id int, hard bool) error {
	event, err := outbox.NewEvent(entityType, int64(id), mq.KeyEntityDeleted, EntityDeletedEvent{
		EntityType: entityType,
		EntityID:   id,
		Hard:       hard,
	})
	if err != nil {
		return err
	}
	return ob.InsertEvent(ctx, tx, event)
}
