package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sprinthub/internal/model"
	"sprinthub/pkg/outbox"
)

const projectColumns = `id, title, status, pm_id, start_date, end_date, is_deleted, deleted_at, created_at, updated_at`

type ProjectRepository struct {
	db     *pgxpool.Pool
	audit  *AuditRepository
	outbox *outbox.Repository
	log    *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, audit *AuditRepository, ob *outbox.Repository, log *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, audit: audit, outbox: ob, log: log}
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID, &p.Title, &p.Status, &p.PMID, &p.StartDate, &p.EndDate,
		&p.IsDeleted, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *model.Project, meta RequestMeta) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO projects (title, status, pm_id, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			p.Title, p.Status, p.PMID, p.StartDate, p.EndDate,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return mapPgError(err, "project")
		}

		entry := auditEntry(model.AuditCreate, "project", p.ID, p.Title, model.Changes{
			"title":  p.Title,
			"status": p.Status,
			"pm_id":  p.PMID,
		}, meta)
		return mapPgError(r.audit.insertTx(ctx, tx, entry), "project")
	})
	if err != nil {
		return err
	}

	r.log.Info("Project created", zap.Int("project_id", p.ID), zap.Int("pm_id", p.PMID))
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int, includeDeleted bool) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err, "project")
	}
	return p, nil
}

func (r *ProjectRepository) List(ctx context.Context, includeDeleted bool) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeDeleted {
		query += ` WHERE is_deleted = FALSE`
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapPgError(err, "project")
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, mapPgError(err, "project")
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// ProjectPatch carries the fields a project update may change; nil
// means "leave as is".
type ProjectPatch struct {
	Title     *string
	Status    *model.ProjectStatus
	PMID      *int
	StartDate *time.Time
	EndDate   *time.Time
}

// Update applies the patch under a row lock and records an old/new pair
// per changed field.
func (r *ProjectRepository) Update(ctx context.Context, id int, patch ProjectPatch, meta RequestMeta) (*model.Project, error) {
	var updated *model.Project
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanProject(tx.QueryRow(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`, id))
		if err != nil {
			return mapPgError(err, "project")
		}

		next := *current
		changes := model.Changes{}
		if patch.Title != nil && *patch.Title != current.Title {
			changes["title"] = model.FieldChange(current.Title, *patch.Title)
			next.Title = *patch.Title
		}
		if patch.Status != nil && *patch.Status != current.Status {
			changes["status"] = model.FieldChange(current.Status, *patch.Status)
			next.Status = *patch.Status
		}
		if patch.PMID != nil && *patch.PMID != current.PMID {
			changes["pm_id"] = model.FieldChange(current.PMID, *patch.PMID)
			next.PMID = *patch.PMID
		}
		if patch.StartDate != nil {
			changes["start_date"] = model.FieldChange(current.StartDate, *patch.StartDate)
			next.StartDate = patch.StartDate
		}
		if patch.EndDate != nil {
			changes["end_date"] = model.FieldChange(current.EndDate, *patch.EndDate)
			next.EndDate = patch.EndDate
		}

		if len(changes) == 0 {
			updated = current
			return nil
		}

		updated, err = scanProject(tx.QueryRow(ctx, `
			UPDATE projects
			SET title = $1, status = $2, pm_id = $3, start_date = $4, end_date = $5, updated_at = NOW()
			WHERE id = $6
			RETURNING `+projectColumns,
			next.Title, next.Status, next.PMID, next.StartDate, next.EndDate, id))
		if err != nil {
			return mapPgError(err, "project")
		}

		entry := auditEntry(model.AuditUpdate, "project", id, updated.Title, changes, meta)
		return mapPgError(r.audit.insertTx(ctx, tx, entry), "project")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ProjectRepository) SoftDelete(ctx context.Context, id int, meta RequestMeta) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		p, err := scanProject(tx.QueryRow(ctx,
			`UPDATE projects SET is_deleted = TRUE, deleted_at = NOW() WHERE id = $1 AND is_deleted = FALSE RETURNING `+projectColumns, id))
		if err != nil {
			return mapPgError(err, "project")
		}
		entry := auditEntry(model.AuditSoftDelete, "project", p.ID, p.Title, model.DeletedChange(), meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "project")
		}
		return mapPgError(insertDeletedEvent(ctx, tx, r.outbox, "project", p.ID, false), "project")
	})
}

func (r *ProjectRepository) HardDelete(ctx context.Context, id int, meta RequestMeta) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		p, err := scanProject(tx.QueryRow(ctx,
			`DELETE FROM projects WHERE id = $1 RETURNING `+projectColumns, id))
		if err != nil {
			return mapPgError(err, "project")
		}
		entry := auditEntry(model.AuditHardDelete, "project", p.ID, p.Title, model.DeletedChange(), meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "project")
		}
		return mapPgError(insertDeletedEvent(ctx, tx, r.outbox, "project", p.ID, true), "project")
	})
}
