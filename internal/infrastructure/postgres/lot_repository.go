package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/perecederos-api/internal/domain/entity"
	"github.com/jhoicas/perecederos-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
// "Vigente" se evalúa con now(), que dentro de una transacción es el instante de inicio de la tx.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// Summary devuelve la cantidad vigente total y el vencimiento vigente más próximo en una sola lectura.
func (r *LotRepo) Summary(ctx context.Context, item string) (*entity.ItemLot, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0) AS total_quantity, MIN(expiry) AS valid_until
		FROM lots
		WHERE item = $1 AND expiry >= now()`
	var (
		total      int64
		validUntil *time.Time
	)
	if err := r.q.QueryRow(ctx, query, item).Scan(&total, &validUntil); err != nil {
		return nil, wrapErr("summary lots", err)
	}
	return &entity.ItemLot{Item: item, Quantity: int(total), Expiry: validUntil}, nil
}

// AvailableQuantity suma las cantidades de los lotes vigentes del ítem.
func (r *LotRepo) AvailableQuantity(ctx context.Context, item string) (int, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0) AS total_quantity
		FROM lots
		WHERE item = $1 AND expiry >= now()`
	var total int64
	if err := r.q.QueryRow(ctx, query, item).Scan(&total); err != nil {
		return 0, wrapErr("available quantity", err)
	}
	return int(total), nil
}

// Create inserta un lote y asigna el ID generado por la base.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	query := `
		INSERT INTO lots (item, quantity, expiry)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.q.QueryRow(ctx, query, lot.Item, lot.Quantity, lot.Expiry).Scan(&lot.ID); err != nil {
		return wrapErr("create lot", err)
	}
	return nil
}

// FirstLive devuelve el lote vigente con cantidad > 0 que vence primero; empate por id ascendente.
func (r *LotRepo) FirstLive(ctx context.Context, item string) (*entity.Lot, error) {
	query := `
		SELECT id, item, quantity, expiry
		FROM lots
		WHERE item = $1 AND expiry >= now() AND quantity > 0
		ORDER BY expiry, id
		LIMIT 1`
	var l entity.Lot
	err := r.q.QueryRow(ctx, query, item).Scan(&l.ID, &l.Item, &l.Quantity, &l.Expiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("first live lot", err)
	}
	return &l, nil
}

// UpdateQuantity fija la cantidad de un lote.
func (r *LotRepo) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	_, err := r.q.Exec(ctx, `UPDATE lots SET quantity = $2 WHERE id = $1`, id, quantity)
	return wrapErr("update lot quantity", err)
}

// Delete elimina un lote.
func (r *LotRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	return wrapErr("delete lot", err)
}

// DeleteExpired elimina los lotes con expiry < now().
func (r *LotRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM lots WHERE expiry < now()`)
	if err != nil {
		return 0, wrapErr("delete expired lots", err)
	}
	return tag.RowsAffected(), nil
}

// ListByItem devuelve todos los lotes del ítem ordenados por expiry, id.
func (r *LotRepo) ListByItem(ctx context.Context, item string) ([]entity.Lot, error) {
	query := `
		SELECT id, item, quantity, expiry
		FROM lots
		WHERE item = $1
		ORDER BY expiry, id`
	rows, err := r.q.Query(ctx, query, item)
	if err != nil {
		return nil, wrapErr("list lots", err)
	}
	defer rows.Close()
	list := make([]entity.Lot, 0)
	for rows.Next() {
		var l entity.Lot
		if err := rows.Scan(&l.ID, &l.Item, &l.Quantity, &l.Expiry); err != nil {
			return nil, wrapErr("scan lot", err)
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list lots", err)
	}
	return list, nil
}
