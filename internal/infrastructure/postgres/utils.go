package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/perecederos-api/internal/domain"
)

// SQLSTATE de conflictos que se resuelven reintentando la transacción.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Querier abstrae pgxpool.Pool y pgx.Tx para que los repositorios funcionen dentro o fuera de una tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conflictClass devuelve la clase de conflicto si err trae uno de los SQLSTATE reintentables.
func conflictClass(err error) (domain.ConflictClass, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, false
	}
	switch pgErr.Code {
	case codeSerializationFailure:
		return domain.ConflictSerialization, true
	case codeDeadlockDetected:
		return domain.ConflictDeadlock, true
	}
	return 0, false
}

// wrapErr agrega contexto al error y lo etiqueta como *domain.ConflictError cuando es reintentable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", op, err)
	if class, ok := conflictClass(err); ok {
		return &domain.ConflictError{Class: class, Err: wrapped}
	}
	return wrapped
}
