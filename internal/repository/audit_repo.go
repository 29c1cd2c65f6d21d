package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sprinthub/internal/model"
	"sprinthub/pkg/metrics"
)

// AuditRepository is append-only: entries are inserted inside the
// mutation's transaction and only ever read back, never changed.
type AuditRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditRepository(db *pgxpool.Pool, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

// insertTx writes one audit entry in the caller's transaction. Sibling
// repositories call this so the entry commits with the mutation.
func (r *AuditRepository) insertTx(ctx context.Context, tx pgx.Tx, e *model.AuditLogEntry) error {
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal audit changes: %w", err)
	}

	query := `
		INSERT INTO audit_log (user_id, action, entity_type, entity_id, entity_repr, changes, path, method, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, query,
		e.ActorID,
		e.Action,
		e.EntityType,
		e.EntityID,
		e.EntityRepr,
		changes,
		e.Path,
		e.Method,
		nullable(e.SourceIP),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	metrics.IncrementAuditEntry(string(e.Action), e.EntityType)
	return nil
}

// auditEntry assembles the entry recorded alongside a mutation.
func auditEntry(action model.AuditAction, entityType string, entityID int, repr string, changes model.Changes, meta RequestMeta) *model.AuditLogEntry {
	return &model.AuditLogEntry{
		ActorID:    meta.ActorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   fmt.Sprintf("%d", entityID),
		EntityRepr: repr,
		Changes:    changes,
		Path:       meta.Path,
		Method:     meta.Method,
		SourceIP:   meta.IP,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// AuditFilter narrows List; zero values mean no filtering.
type AuditFilter struct {
	Action     model.AuditAction
	EntityType string
	ActorID    int
	Limit      int
}

// List returns audit entries newest first.
func (r *AuditRepository) List(ctx context.Context, f AuditFilter) ([]model.AuditLogEntry, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, entity_repr, changes, path, method, COALESCE(ip_address::text, ''), created_at
		FROM audit_log
		WHERE 1=1
	`
	args := []any{}
	n := 0

	if f.Action != "" {
		n++
		query += fmt.Sprintf(" AND action = $%d", n)
		args = append(args, f.Action)
	}
	if f.EntityType != "" {
		n++
		query += fmt.Sprintf(" AND entity_type = $%d", n)
		args = append(args, f.EntityType)
	}
	if f.ActorID != 0 {
		n++
		query += fmt.Sprintf(" AND user_id = $%d", n)
		args = append(args, f.ActorID)
	}

	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, f.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "audit log")
	}
	defer rows.Close()

	entries := []model.AuditLogEntry{}
	for rows.Next() {
		var e model.AuditLogEntry
		var changes []byte
		if err := rows.Scan(
			&e.ID,
			&e.ActorID,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&e.EntityRepr,
			&changes,
			&e.Path,
			&e.Method,
			&e.SourceIP,
			&e.CreatedAt,
		); err != nil {
			return nil, mapPgError(err, "audit log")
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				r.logger.Warn("Unreadable audit changes payload",
					zap.Int("entry_id", e.ID),
					zap.Error(err),
				)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
