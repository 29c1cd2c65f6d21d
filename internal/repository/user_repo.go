package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sprinthub/internal/model"
	"sprinthub/pkg/outbox"
)

const userColumns = `id, email, name, role, is_active, is_staff, is_deleted, deleted_at, created_at, updated_at, password_hash`

type UserRepository struct {
	db     *pgxpool.Pool
	audit  *AuditRepository
	outbox *outbox.Repository
	log    *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, audit *AuditRepository, ob *outbox.Repository, log *zap.Logger) *UserRepository {
	return &UserRepository{db: db, audit: audit, outbox: ob, log: log}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.IsActive, &u.IsStaff,
		&u.IsDeleted, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt, &u.PasswordHash,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and its audit entry as one unit.
func (r *UserRepository) Create(ctx context.Context, u *model.User, meta RequestMeta) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO users (email, name, role, is_active, is_staff, password_hash)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			u.Email, u.Name, u.Role, u.IsActive, u.IsStaff, u.PasswordHash,
		).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return mapPgError(err, "user")
		}

		entry := auditEntry(model.AuditCreate, "user", u.ID, userRepr(u), model.Changes{
			"email": u.Email,
			"name":  u.Name,
			"role":  u.Role,
		}, meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("User created", zap.Int("user_id", u.ID), zap.String("role", string(u.Role)))
	return nil
}

// GetByID returns a user. The default read path hides soft-deleted rows;
// includeDeleted is the administrative view.
func (r *UserRepository) GetByID(ctx context.Context, id int, includeDeleted bool) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err, "user")
	}
	return u, nil
}

// FindByEmail returns an active, non-deleted user for login.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_deleted = FALSE AND is_active = TRUE`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, mapPgError(err, "user")
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context, includeDeleted bool) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if !includeDeleted {
		query += ` WHERE is_deleted = FALSE`
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapPgError(err, "user")
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapPgError(err, "user")
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateName changes the only mutable profile field. Role and email are
// immutable after creation.
func (r *UserRepository) UpdateName(ctx context.Context, id int, name string, meta RequestMeta) (*model.User, error) {
	var updated *model.User
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanUser(tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`, id))
		if err != nil {
			return mapPgError(err, "user")
		}

		u, err := scanUser(tx.QueryRow(ctx,
			`UPDATE users SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING `+userColumns, name, id))
		if err != nil {
			return mapPgError(err, "user")
		}

		if current.Name != name {
			entry := auditEntry(model.AuditUpdate, "user", u.ID, userRepr(u), model.Changes{
				"name": model.FieldChange(current.Name, name),
			}, meta)
			if err := r.audit.insertTx(ctx, tx, entry); err != nil {
				return mapPgError(err, "user")
			}
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDelete hides the user from default reads; the row stays intact.
func (r *UserRepository) SoftDelete(ctx context.Context, id int, meta RequestMeta) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx,
			`UPDATE users SET is_deleted = TRUE, deleted_at = NOW() WHERE id = $1 AND is_deleted = FALSE RETURNING `+userColumns, id))
		if err != nil {
			return mapPgError(err, "user")
		}
		entry := auditEntry(model.AuditSoftDelete, "user", u.ID, userRepr(u), model.DeletedChange(), meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "user")
		}
		return mapPgError(insertDeletedEvent(ctx, tx, r.outbox, "user", u.ID, false), "user")
	})
}

// HardDelete removes the row permanently. Administrative action only;
// the audit entry commits with the removal.
func (r *UserRepository) HardDelete(ctx context.Context, id int, meta RequestMeta) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx,
			`DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id))
		if err != nil {
			return mapPgError(err, "user")
		}
		entry := auditEntry(model.AuditHardDelete, "user", u.ID, userRepr(u), model.DeletedChange(), meta)
		if err := r.audit.insertTx(ctx, tx, entry); err != nil {
			return mapPgError(err, "user")
		}
		return mapPgError(insertDeletedEvent(ctx, tx, r.outbox, "user", u.ID, true), "user")
	})
}

func userRepr(u *model.User) string {
	return fmt.Sprintf("%s (%s)", u.Email, u.Role)
}
