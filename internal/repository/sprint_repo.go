package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sprinthub/internal/model"
	"sprinthub/pkg/mq"
	"sprinthub/pkg/outbox"
)

const sprintColumns = `id, project_id, name, start_date, duration_days, status, is_deleted, deleted_at, created_at, updated_at`

type SprintRepository struct {
	db     *pgxpool.Pool
	audit  *AuditRepository
	outbox *outbox.Repository
	log    *zap.Logger
}

func NewSprintRepository(db *pgxpool.Pool, audit *AuditRepository, ob *outbox.Repository, log *zap.Logger) *SprintRepository {
	return &SprintRepository{db: db, audit: audit, outbox: ob, log: log}
}

func scanSprint(row pgx.Row) (*model.Sprint, error) {
	var s model.Sprint
	err := row.Scan(
		&s.ID, &s.ProjectID, &s.Name, &s.StartDate, &s.DurationDays, &s.Status,
		&s.IsDeleted, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SprintRepository) Create(ctx context.Context, s *model.Sprint, meta RequestMeta) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := r.createTx(ctx, tx, s, meta); err != nil {
			return err
		}
		return nil
	})
}

func (r *SprintRepository) createTx(ctx context.Context, tx pgx.Tx, s *model.Sprint, meta RequestMeta) error {
	query := `
		INSERT INTO sprints (project_id, name, start_date, duration_days, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		s.ProjectID, s.Name, s.StartDate, s.DurationDays, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapPgError(err, "sprint")
	}

	entry := auditEntry(model.AuditCreate, "sprint", s.ID, s.Name, model.Changes{
		"project_id":    s.ProjectID,
		"name":          s.Name,
		"start_date":    s.StartDate,
		"duration_days": s.DurationDays,
		"status":        s.Status,
	}, meta)
	return mapPgError(r.audit.insertTx(ctx, tx, entry), "sprint")
}

func (r *SprintRepository) GetByID(ctx context.Context, id int, includeDeleted bool) (*model.Sprint, error) {
	query := `SELECT ` + sprintColumns + ` FROM sprints WHERE id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	s, err := scanSprint(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err, "sprint")
	}
	return s, nil
}

// List returns sprints with their live task counts.
func (r *SprintRepository) List(ctx context.Context, includeDeleted bool) ([]model.Sprint, error) {
	query := `
		SELECT s.id, s.project_id, s.name, s.start_date, s.duration_days, s.status,
		       s.is_deleted, s.deleted_at, s.created_at, s.updated_at,
		       COUNT(t.id) FILTER (WHERE t.is_deleted = FALSE) AS task_count
		FROM sprints s
		LEFT JOIN tasks t ON t.sprint_id = s.id
	`
	if !includeDeleted {
		query += ` WHERE s.is_deleted = FALSE`
	}
	query += ` GROUP BY s.id ORDER BY s.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapPgError(err, "sprint")
	}
	defer rows.Close()

	sprints := []model.Sprint{}
	for rows.Next() {
		var s model.Sprint
		if err := rows.Scan(
			&s.ID, &s.ProjectID, &s.Name, &s.StartDate, &s.DurationDays, &s.Status,
			&s.IsDeleted, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt, &s.TaskCount,
		); err != nil {
			return nil, mapPgError(err, "sprint")
		}
		sprints = append(sprints, s)
	}
	return sprints, rows.Err()
}

// SprintPatch carries the fields a sprint update may change.
type SprintPatch struct {
	Name         *string
	StartDate    *time.Time
	DurationDays *int
	Status       *model.SprintStatus
}

// SprintCompletedEvent is the payload published when a sprint finishes.
type SprintCompletedEvent struct {
	SprintID     int    `json:"sprint_id"`
	ProjectID    int    `json:"project_id"`
	NextSprintID int    `json:"next_sprint_id"`
	NextName     string `json:"next_name"`
}

// Update applies the patch under a row lock. When the update is the
// completion transition (persisted status not COMPLETED, new status
// COMPLETED) the next sprint returned by nextSprint is created in the
// same transaction, using the sprint count read at that moment, and a
// sprint.completed event rides the commit. Returns the updated sprint
// and the created one (nil when the cascade did not fire).
func (r *SprintRepository) Update(
	ctx context.Context,
	id int,
	patch SprintPatch,
	nextSprint func(completed model.Sprint, existing int) model.Sprint,
	meta RequestMeta,
) (*model.Sprint, *model.Sprint, error) {
	var updated, created *model.Sprint
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanSprint(tx.QueryRow(ctx,
			`SELECT `+sprintColumns+` FROM sprints WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`, id))
		if err != nil {
			return mapPgError(err, "sprint")
		}

		next := *current
		changes := model.Changes{}
		if patch.Name != nil && *patch.Name != current.Name {
			changes["name"] = model.FieldChange(current.Name, *patch.Name)
			next.Name = *patch.Name
		}
		if patch.StartDate != nil && !patch.StartDate.Equal(current.StartDate) {
			changes["start_date"] = model.FieldChange(current.StartDate, *patch.StartDate)
			next.StartDate = *patch.StartDate
		}
		if patch.DurationDays != nil && *patch.DurationDays != current.DurationDays {
			changes["duration_days"] = model.FieldChange(current.DurationDays, *patch.DurationDays)
			next.DurationDays = *patch.DurationDays
		}
		if patch.Status != nil && *patch.Status != current.Status {
			changes["status"] = model.FieldChange(current.Status, *patch.Status)
			next.Status = *patch.Status
		}

		if len(changes) == 0 {
			updated = current
			return nil
		}

		updated, err = scanSprint(tx.QueryRow(ctx, `
			UPDATE sprints
			SET name = $1, start_date = $2, duration_days = $3, status = $4, updated_at = NOW()
			WHERE id = $5
			RETURNING `+sprintColumns,
			next.Name, next.StartDate, next.DurationDays, next.Status, id))
		if err != nil {
			return mapPgError(err, "sprint")
		}

		entry := auditEntry(model.AuditUpdate, "sprint", id, updated.Name, changes, meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "sprint")
		}

		// Completion cascade. Locking the sprint row alone would let
		// two completions in the same project proceed in parallel and
		// read the same count, so the parent project row is locked
		// before the count query.
		if current.Status != model.SprintCompleted && updated.Status == model.SprintCompleted {
			var projectID int
			err := tx.QueryRow(ctx,
				`SELECT id FROM projects WHERE id = $1 FOR UPDATE`,
				updated.ProjectID,
			).Scan(&projectID)
			if err != nil {
				return mapPgError(err, "sprint")
			}

			var count int
			err = tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM sprints WHERE project_id = $1 AND is_deleted = FALSE`,
				updated.ProjectID,
			).Scan(&count)
			if err != nil {
				return mapPgError(err, "sprint")
			}

			ns := nextSprint(*updated, count)
			if err := r.createTx(ctx, tx, &ns, meta); err != nil {
				return err
			}
			created = &ns

			event, err := outbox.NewEvent("sprint", int64(updated.ID), mq.KeySprintCompleted, SprintCompletedEvent{
				SprintID:     updated.ID,
				ProjectID:    updated.ProjectID,
				NextSprintID: ns.ID,
				NextName:     ns.Name,
			})
			if err != nil {
				return mapPgError(err, "sprint")
			}
			if err := r.outbox.InsertEvent(ctx, tx, event); err != nil {
				return mapPgError(err, "sprint")
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if created != nil {
		r.log.Info("Sprint completed, next sprint created",
			zap.Int("sprint_id", updated.ID),
			zap.Int("next_sprint_id", created.ID),
			zap.String("next_name", created.Name),
		)
	}
	return updated, created, nil
}

func (r *SprintRepository) SoftDelete(ctx context.Context, id int, meta RequestMeta) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		s, err := scanSprint(tx.QueryRow(ctx,
			`UPDATE sprints SET is_deleted = TRUE, deleted_at = NOW() WHERE id = $1 AND is_deleted = FALSE RETURNING `+sprintColumns, id))
		if err != nil {
			return mapPgError(err, "sprint")
		}
		entry := auditEntry(model.AuditSoftDelete, "sprint", s.ID, s.Name, model.DeletedChange(), meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "sprint")
		}
		return mapPgError(insertDeletedEvent(ctx, tx, r.outbox, "sprint", s.ID, false), "sprint")
	})
}

func (r *SprintRepository) HardDelete(ctx context.Context, id int, meta RequestMeta) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		s, err := scanSprint(tx.QueryRow(ctx,
			`DELETE FROM sprints WHERE id = $1 RETURNING `+sprintColumns, id))
		if err != nil {
			return mapPgError(err, "sprint")
		}
		entry := auditEntry(model.AuditHardDelete, "sprint", s.ID, s.Name, model.DeletedChange(), meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "sprint")
		}
		return mapPgError(insertDeletedEvent(ctx, tx, r.outbox, "sprint", s.ID, true), "sprint")
	})
}
