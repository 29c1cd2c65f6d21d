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

const taskColumns = `id, sprint_id, title, description, start_date, due_date, status, is_deleted, deleted_at, created_at, updated_at`

type TaskRepository struct {
	db     *pgxpool.Pool
	audit  *AuditRepository
	outbox *outbox.Repository
	log    *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, audit *AuditRepository, ob *outbox.Repository, log *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, audit: audit, outbox: ob, log: log}
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.SprintID, &t.Title, &t.Description, &t.StartDate, &t.DueDate,
		&t.Status, &t.IsDeleted, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) loadAssignees(ctx context.Context, q querier, taskID int) ([]int, error) {
	rows, err := q.Query(ctx, `SELECT user_id FROM task_assignees WHERE task_id = $1 ORDER BY user_id`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *TaskRepository) Create(ctx context.Context, t *model.Task, meta RequestMeta) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO tasks (sprint_id, title, description, start_date, due_date, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			t.SprintID, t.Title, t.Description, t.StartDate, t.DueDate, t.Status,
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return mapPgError(err, "task")
		}

		for _, userID := range t.Assignees {
			if _, err := tx.Exec(ctx,
				`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)`, t.ID, userID); err != nil {
				return mapPgError(err, "task")
			}
		}

		entry := auditEntry(model.AuditCreate, "task", t.ID, t.Title, model.Changes{
			"sprint_id": t.SprintID,
			"title":     t.Title,
			"status":    t.Status,
			"assignees": t.Assignees,
		}, meta)
		return mapPgError(r.audit.insertTx(ctx, tx, entry), "task")
	})
	if err != nil {
		return err
	}

	r.log.Info("Task created", zap.Int("task_id", t.ID), zap.Int("sprint_id", t.SprintID))
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int, includeDeleted bool) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err, "task")
	}
	if t.Assignees, err = r.loadAssignees(ctx, r.db, t.ID); err != nil {
		return nil, mapPgError(err, "task")
	}
	return t, nil
}

func (r *TaskRepository) list(ctx context.Context, where string, args ...any) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks `+where, args...)
	if err != nil {
		return nil, mapPgError(err, "task")
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, mapPgError(err, "task")
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "task")
	}

	for i := range tasks {
		if tasks[i].Assignees, err = r.loadAssignees(ctx, r.db, tasks[i].ID); err != nil {
			return nil, mapPgError(err, "task")
		}
	}
	return tasks, nil
}

func (r *TaskRepository) List(ctx context.Context, includeDeleted bool) ([]model.Task, error) {
	where := `ORDER BY id`
	if !includeDeleted {
		where = `WHERE is_deleted = FALSE ORDER BY id`
	}
	return r.list(ctx, where)
}

// ListByAssignee returns the non-deleted tasks assigned to a user.
func (r *TaskRepository) ListByAssignee(ctx context.Context, userID int) ([]model.Task, error) {
	return r.list(ctx, `
		WHERE is_deleted = FALSE
		AND id IN (SELECT task_id FROM task_assignees WHERE user_id = $1)
		ORDER BY id`, userID)
}

// TaskPatch carries the fields a task update may change. A nil
// Assignees leaves the assignee set untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	DueDate     *time.Time
	Status      *model.TaskStatus
	Assignees   []int
}

func (r *TaskRepository) Update(ctx context.Context, id int, patch TaskPatch, meta RequestMeta) (*model.Task, error) {
	var updated *model.Task
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanTask(tx.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`, id))
		if err != nil {
			return mapPgError(err, "task")
		}
		if current.Assignees, err = r.loadAssignees(ctx, tx, id); err != nil {
			return mapPgError(err, "task")
		}

		next := *current
		changes := model.Changes{}
		if patch.Title != nil && *patch.Title != current.Title {
			changes["title"] = model.FieldChange(current.Title, *patch.Title)
			next.Title = *patch.Title
		}
		if patch.Description != nil && *patch.Description != current.Description {
			changes["description"] = model.FieldChange(current.Description, *patch.Description)
			next.Description = *patch.Description
		}
		if patch.StartDate != nil {
			changes["start_date"] = model.FieldChange(current.StartDate, *patch.StartDate)
			next.StartDate = patch.StartDate
		}
		if patch.DueDate != nil {
			changes["due_date"] = model.FieldChange(current.DueDate, *patch.DueDate)
			next.DueDate = patch.DueDate
		}
		if patch.Status != nil && *patch.Status != current.Status {
			changes["status"] = model.FieldChange(current.Status, *patch.Status)
			next.Status = *patch.Status
		}
		if patch.Assignees != nil {
			changes["assignees"] = model.FieldChange(current.Assignees, patch.Assignees)
			next.Assignees = patch.Assignees
		}

		if len(changes) == 0 {
			updated = current
			return nil
		}

		updated, err = scanTask(tx.QueryRow(ctx, `
			UPDATE tasks
			SET title = $1, description = $2, start_date = $3, due_date = $4, status = $5, updated_at = NOW()
			WHERE id = $6
			RETURNING `+taskColumns,
			next.Title, next.Description, next.StartDate, next.DueDate, next.Status, id))
		if err != nil {
			return mapPgError(err, "task")
		}

		if patch.Assignees != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, id); err != nil {
				return mapPgError(err, "task")
			}
			for _, userID := range patch.Assignees {
				if _, err := tx.Exec(ctx,
					`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)`, id, userID); err != nil {
					return mapPgError(err, "task")
				}
			}
		}
		updated.Assignees = next.Assignees

		entry := auditEntry(model.AuditUpdate, "task", id, updated.Title, changes, meta)
		return mapPgError(r.audit.insertTx(ctx, tx, entry), "task")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TaskStatusChangedEvent is the payload published on every transition.
type TaskStatusChangedEvent struct {
	TaskID    int              `json:"task_id"`
	SprintID  int              `json:"sprint_id"`
	OldStatus model.TaskStatus `json:"old_status"`
	NewStatus model.TaskStatus `json:"new_status"`
}

// TransitionStatus performs the read-validate-write sequence under a
// row lock: the current row is locked, validate is run against it, and
// only then is the new status written. The audit entry and the
// task.status_changed event commit with the update.
func (r *TaskRepository) TransitionStatus(
	ctx context.Context,
	id int,
	requested model.TaskStatus,
	validate func(current *model.Task) error,
	meta RequestMeta,
) (*model.Task, error) {
	var updated *model.Task
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanTask(tx.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`, id))
		if err != nil {
			return mapPgError(err, "task")
		}
		if current.Assignees, err = r.loadAssignees(ctx, tx, id); err != nil {
			return mapPgError(err, "task")
		}

		if err := validate(current); err != nil {
			return err
		}

		if current.Status == requested {
			updated = current
			return nil
		}

		updated, err = scanTask(tx.QueryRow(ctx,
			`UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+taskColumns,
			requested, id))
		if err != nil {
			return mapPgError(err, "task")
		}
		updated.Assignees = current.Assignees

		entry := auditEntry(model.AuditUpdate, "task", id, updated.Title, model.Changes{
			"status": model.FieldChange(current.Status, requested),
		}, meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "task")
		}

		event, err := outbox.NewEvent("task", int64(id), mq.KeyTaskStatusChanged, TaskStatusChangedEvent{
			TaskID:    id,
			SprintID:  updated.SprintID,
			OldStatus: current.Status,
			NewStatus: requested,
		})
		if err != nil {
			return mapPgError(err, "task")
		}
		return mapPgError(r.outbox.InsertEvent(ctx, tx, event), "task")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TaskRepository) SoftDelete(ctx context.Context, id int, meta RequestMeta) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		t, err := scanTask(tx.QueryRow(ctx,
			`UPDATE tasks SET is_deleted = TRUE, deleted_at = NOW() WHERE id = $1 AND is_deleted = FALSE RETURNING `+taskColumns, id))
		if err != nil {
			return mapPgError(err, "task")
		}
		entry := auditEntry(model.AuditSoftDelete, "task", t.ID, t.Title, model.DeletedChange(), meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "task")
		}
		return mapPgError(insertDeletedEvent(ctx, tx, r.outbox, "task", t.ID, false), "task")
	})
}

func (r *TaskRepository) HardDelete(ctx context.Context, id int, meta RequestMeta) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		t, err := scanTask(tx.QueryRow(ctx,
			`DELETE FROM tasks WHERE id = $1 RETURNING `+taskColumns, id))
		if err != nil {
			return mapPgError(err, "task")
		}
		entry := auditEntry(model.AuditHardDelete, "task", t.ID, t.Title, model.DeletedChange(), meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "task")
		}
		return mapPgError(insertDeletedEvent(ctx, tx, r.outbox, "task", t.ID, true), "task")
	})
}
