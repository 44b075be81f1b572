package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/perecederos-api/internal/application/inventory"
	"github.com/jhoicas/perecederos-api/internal/domain/repository"
	"github.com/jhoicas/perecederos-api/pkg/config"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con el aislamiento configurado.
type TxRunner struct {
	pool *pgxpool.Pool
	iso  pgx.TxIsoLevel
}

// NewTxRunner construye el runner. isolation acepta config.IsolationRepeatableRead o
// config.IsolationSerializable; cualquier otro valor usa REPEATABLE READ.
func NewTxRunner(pool *pgxpool.Pool, isolation string) *TxRunner {
	iso := pgx.RepeatableRead
	if isolation == config.IsolationSerializable {
		iso = pgx.Serializable
	}
	return &TxRunner{pool: pool, iso: iso}
}

// Run inicia una transacción, ejecuta fn con un repositorio de lotes atado a la tx y hace Commit o Rollback.
// Los errores de fn se devuelven sin modificar para que el llamador pueda clasificarlos.
func (r *TxRunner) Run(ctx context.Context, fn func(lots repository.LotRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: r.iso})
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	// Rollback tras Commit es no-op. Sin cancelación para que un ctx vencido igual descarte la tx.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(NewLotRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

// String describe el aislamiento (para logs).
func (r *TxRunner) String() string {
	return fmt.Sprintf("postgres tx (%s)", r.iso)
}
