package repository

import (
	"context"

	"github.com/jhoicas/perecederos-api/internal/domain/entity"
)

// LotRepository define el puerto de persistencia de lotes.
// Las implementaciones deben poder usarse tanto fuera como dentro de una transacción.
type LotRepository interface {
	// Summary devuelve la cantidad vigente total y el vencimiento vigente más próximo del ítem.
	Summary(ctx context.Context, item string) (*entity.ItemLot, error)
	// AvailableQuantity devuelve la suma de cantidades de los lotes vigentes del ítem.
	AvailableQuantity(ctx context.Context, item string) (int, error)
	Create(ctx context.Context, lot *entity.Lot) error
	// FirstLive devuelve el lote vigente con cantidad > 0 que vence primero (empate: id ascendente).
	// Devuelve nil, nil si no existe.
	FirstLive(ctx context.Context, item string) (*entity.Lot, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	Delete(ctx context.Context, id int64) error
	// DeleteExpired elimina los lotes vencidos y devuelve cuántos eliminó.
	DeleteExpired(ctx context.Context) (int64, error)
	// ListByItem devuelve todos los lotes del ítem (vigentes o no) ordenados por expiry, id.
	ListByItem(ctx context.Context, item string) ([]entity.Lot, error)
}
