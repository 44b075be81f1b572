package inventory

import (
	"context"

	"github.com/jhoicas/perecederos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del almacén, pasando un repositorio
// de lotes atado a esa tx. Commit si fn devuelve nil; Rollback en cualquier otro caso.
// El nivel de aislamiento debe impedir que dos ventas concurrentes consuman las mismas unidades
// (REPEATABLE READ o superior).
type TxRunner interface {
	Run(ctx context.Context, fn func(lots repository.LotRepository) error) error
}
