package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sprinthub/internal/apperr"
)

// RequestMeta carries the request context every mutation records in its
// audit entry. ActorID is nil for system-initiated mutations.
type RequestMeta struct {
	ActorID *int
	Path    string
	Method  string
	IP      string
}

// Meta builds a RequestMeta for an actor-initiated mutation.
func Meta(actorID int, path, method, ip string) RequestMeta {
	return RequestMeta{ActorID: &actorID, Path: path, Method: method, IP: ip}
}

// withTx runs fn inside a transaction. The business mutation, its audit
// entry and any outbox event are committed or rolled back as one unit.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return apperr.Persistence("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Persistence("failed to commit transaction", err)
	}
	return nil
}

// mapPgError translates storage failures into the core error taxonomy.
func mapPgError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(fmt.Sprintf("%s not found", entity))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return apperr.Conflict(fmt.Sprintf("%s already exists", entity))
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return apperr.Conflict(fmt.Sprintf("concurrent modification of %s", entity))
		}
	}
	return apperr.Persistence(fmt.Sprintf("storage failure on %s", entity), err)
}
