package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/perecederos-api/internal/domain"
	"github.com/jhoicas/perecederos-api/internal/domain/entity"
	"github.com/jhoicas/perecederos-api/internal/domain/repository"
	"github.com/jhoicas/perecederos-api/pkg/logger"
)

// errLotsExhausted indica que la verificación previa de disponibilidad pasó pero los lotes
// se agotaron antes de completar la venta. Es una violación de invariante, no un conflicto.
var errLotsExhausted = errors.New("lotes agotados antes de completar la venta")

// Engine es el motor de inventario de perecederos: consulta, alta de lotes y venta FIFO por vencimiento.
// No guarda estado mutable propio; la exclusión mutua la resuelve el aislamiento del almacén.
type Engine struct {
	lots   repository.LotRepository
	tx     TxRunner
	policy RetryPolicy
	wait   WaitFunc
	log    *logger.Logger
}

// Option ajusta la construcción del Engine.
type Option func(*Engine)

// WithWaitFunc reemplaza la espera entre reintentos (por defecto un timer que respeta ctx).
func WithWaitFunc(fn WaitFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.wait = fn
		}
	}
}

// NewEngine construye el motor. lots se usa para lecturas y altas fuera de transacción;
// tx abre las transacciones de venta.
func NewEngine(lots repository.LotRepository, tx TxRunner, policy RetryPolicy, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	e := &Engine{
		lots:   lots,
		tx:     tx,
		policy: policy.withDefaults(),
		wait:   sleepContext,
		log:    log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy devuelve la política de reintentos efectiva.
func (e *Engine) Policy() RetryPolicy { return e.policy }

// GetAvailable devuelve la cantidad vigente del ítem y su vencimiento más próximo.
// Una lectura simple no tiene conflicto que resolver: no se reintenta.
func (e *Engine) GetAvailable(ctx context.Context, item string) (*entity.ItemLot, error) {
	item, err := NormalizeItem(item)
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("item", item).Msg("consultando cantidad disponible")
	summary, err := e.lots.Summary(ctx, item)
	if err != nil {
		e.log.Error().Err(err).Str("item", item).Msg("error de base de datos al consultar cantidad")
		return nil, domain.ErrQueryFailure
	}
	return summary, nil
}

// AddLot inserta un lote nuevo con exactamente los valores dados (sin fusionar con lotes existentes).
func (e *Engine) AddLot(ctx context.Context, item string, quantity int, expiry time.Time) error {
	item, err := NormalizeItem(item)
	if err != nil {
		return err
	}
	if quantity <= 0 || expiry.IsZero() {
		return domain.ErrInvalidInput
	}
	e.log.Info().
		Str("item", item).
		Int("quantity", quantity).
		Time("expiry", expiry).
		Msg("agregando lote")
	lot := &entity.Lot{Item: item, Quantity: quantity, Expiry: expiry}
	if err := e.lots.Create(ctx, lot); err != nil {
		e.log.Error().Err(err).Str("item", item).Msg("error de base de datos al agregar lote")
		return domain.ErrQueryFailure
	}
	return nil
}

// Sell retira quantity unidades del ítem consumiendo primero los lotes que vencen antes.
// O se retira la cantidad completa de forma atómica, o no se modifica nada.
//
// Resultados: nil, domain.ErrInsufficientQuantity o domain.ErrQueryFailure.
// Los conflictos de serialización/deadlock se reintentan hasta MaxAttempts intentos con
// backoff exponencial; cada intento relee el estado desde cero en una transacción nueva.
func (e *Engine) Sell(ctx context.Context, item string, quantity int) error {
	item, err := NormalizeItem(item)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return domain.ErrInvalidInput
	}

	log := e.log.With().
		Str("op_id", uuid.NewString()).
		Str("item", item).
		Int("quantity", quantity).
		Logger()
	log.Info().Msg("vendiendo unidades")

	b := e.policy.newBackOff()
	for attempt := 1; ; attempt++ {
		err := e.tx.Run(ctx, func(lots repository.LotRepository) error {
			return depleteFIFO(ctx, lots, item, quantity)
		})
		if err == nil {
			log.Info().Int("attempt", attempt).Msg("venta confirmada")
			return nil
		}
		if errors.Is(err, domain.ErrInsufficientQuantity) {
			log.Warn().Int("attempt", attempt).Msg("cantidad insuficiente para ejecutar la venta")
			return domain.ErrInsufficientQuantity
		}

		class, retryable := classify(err)
		if !retryable {
			if errors.Is(err, errLotsExhausted) {
				log.Error().Err(err).Int("attempt", attempt).Msg("violación de invariante en la venta")
			} else {
				log.Error().Err(err).Int("attempt", attempt).Msg("error de base de datos en la venta")
			}
			return domain.ErrQueryFailure
		}
		if attempt >= e.policy.MaxAttempts {
			log.Error().Err(err).Int("attempts", attempt).Msg("reintentos agotados por conflictos de concurrencia")
			return domain.ErrQueryFailure
		}

		delay := b.NextBackOff()
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("remaining", e.policy.MaxAttempts-attempt).
			Str("conflict", class.String()).
			Dur("backoff", delay).
			Msg("intento fallido, se reintentará la transacción")
		if err := e.wait(ctx, delay); err != nil {
			log.Error().Err(err).Int("attempt", attempt).Msg("venta cancelada durante la espera")
			return domain.ErrQueryFailure
		}
	}
}

// depleteFIFO es un intento completo de venta dentro de una transacción:
// verifica disponibilidad y descuenta lote por lote en orden de vencimiento.
func depleteFIFO(ctx context.Context, lots repository.LotRepository, item string, quantity int) error {
	available, err := lots.AvailableQuantity(ctx, item)
	if err != nil {
		return err
	}
	if available < quantity {
		return domain.ErrInsufficientQuantity
	}

	remaining := quantity
	for remaining > 0 {
		lot, err := lots.FirstLive(ctx, item)
		if err != nil {
			return err
		}
		if lot == nil {
			return fmt.Errorf("%w: item %q, pendiente %d de %d", errLotsExhausted, item, remaining, quantity)
		}
		if lot.Quantity <= remaining {
			if err := lots.Delete(ctx, lot.ID); err != nil {
				return err
			}
			remaining -= lot.Quantity
			continue
		}
		if err := lots.UpdateQuantity(ctx, lot.ID, lot.Quantity-remaining); err != nil {
			return err
		}
		remaining = 0
	}
	return nil
}

// PurgeExpired elimina los lotes vencidos. Pensado para ser invocado por un programador externo.
func (e *Engine) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := e.lots.DeleteExpired(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("error al eliminar lotes vencidos")
		return 0, domain.ErrQueryFailure
	}
	e.log.Info().Int64("deleted", n).Msg("lotes vencidos eliminados")
	return n, nil
}

// ListLots devuelve todos los lotes del ítem, vigentes o no, ordenados por vencimiento.
func (e *Engine) ListLots(ctx context.Context, item string) ([]entity.Lot, error) {
	item, err := NormalizeItem(item)
	if err != nil {
		return nil, err
	}
	lots, err := e.lots.ListByItem(ctx, item)
	if err != nil {
		e.log.Error().Err(err).Str("item", item).Msg("error de base de datos al listar lotes")
		return nil, domain.ErrQueryFailure
	}
	return lots, nil
}
