//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/perecederos-api/internal/application/inventory"
	"github.com/jhoicas/perecederos-api/internal/domain"
	"github.com/jhoicas/perecederos-api/internal/domain/entity"
	"github.com/jhoicas/perecederos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/perecederos-api/pkg/config"
	"github.com/jhoicas/perecederos-api/pkg/logger"
)

// setupPostgres levanta PostgreSQL en un contenedor, aplica las migraciones y devuelve el pool.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("perecederos"),
		tcpostgres.WithUsername("perecederos"),
		tcpostgres.WithPassword("perecederos"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, postgres.Migrate(ctx, dsn, logger.NewNop()), "las migraciones deben aplicarse")

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 30})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE lots RESTART IDENTITY`)
	require.NoError(t, err)
}

func newEngine(pool *pgxpool.Pool, policy inventory.RetryPolicy) *inventory.Engine {
	return inventory.NewEngine(
		postgres.NewLotRepository(pool),
		postgres.NewTxRunner(pool, config.IsolationRepeatableRead),
		policy,
		logger.NewNop(),
	)
}

func TestLotStore_Integration(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("FIFO por vencimiento", func(t *testing.T) {
		truncate(t, pool)
		engine := newEngine(pool, inventory.DefaultRetryPolicy())
		require.NoError(t, engine.AddLot(ctx, "X", 5, now.Add(20*time.Hour)))
		require.NoError(t, engine.AddLot(ctx, "X", 5, now.Add(10*time.Hour)))

		require.NoError(t, engine.Sell(ctx, "X", 7))

		lots, err := engine.ListLots(ctx, "X")
		require.NoError(t, err)
		require.Len(t, lots, 1, "el lote que vence primero debe eliminarse")
		assert.Equal(t, 3, lots[0].Quantity)
		assert.WithinDuration(t, now.Add(20*time.Hour), lots[0].Expiry, time.Millisecond)
	})

	t.Run("Empate de vencimiento por id ascendente", func(t *testing.T) {
		truncate(t, pool)
		engine := newEngine(pool, inventory.DefaultRetryPolicy())
		expiry := now.Add(time.Hour).Truncate(time.Microsecond)
		require.NoError(t, engine.AddLot(ctx, "T", 4, expiry))
		require.NoError(t, engine.AddLot(ctx, "T", 4, expiry))

		require.NoError(t, engine.Sell(ctx, "T", 5))

		lots, err := engine.ListLots(ctx, "T")
		require.NoError(t, err)
		require.Len(t, lots, 1)
		assert.Equal(t, int64(2), lots[0].ID, "debe consumirse primero el lote insertado antes")
		assert.Equal(t, 3, lots[0].Quantity)
	})

	t.Run("Cantidad insuficiente no modifica filas", func(t *testing.T) {
		truncate(t, pool)
		engine := newEngine(pool, inventory.DefaultRetryPolicy())
		require.NoError(t, engine.AddLot(ctx, "Y", 4, now.Add(time.Hour)))
		require.NoError(t, engine.AddLot(ctx, "Y", 6, now.Add(2*time.Hour)))
		before, err := engine.ListLots(ctx, "Y")
		require.NoError(t, err)

		err = engine.Sell(ctx, "Y", 11)
		assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)

		after, err := engine.ListLots(ctx, "Y")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Lotes vencidos excluidos y purgados", func(t *testing.T) {
		truncate(t, pool)
		engine := newEngine(pool, inventory.DefaultRetryPolicy())
		require.NoError(t, engine.AddLot(ctx, "Z", 50, now.Add(-time.Hour)))
		require.NoError(t, engine.AddLot(ctx, "Z", 3, now.Add(time.Hour)))

		got, err := engine.GetAvailable(ctx, "Z")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Quantity)
		require.NotNil(t, got.Expiry)
		assert.WithinDuration(t, now.Add(time.Hour), *got.Expiry, time.Millisecond)

		assert.ErrorIs(t, engine.Sell(ctx, "Z", 4), domain.ErrInsufficientQuantity)

		n, err := engine.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("Sin lotes vigentes devuelve cero y expiry nulo", func(t *testing.T) {
		truncate(t, pool)
		engine := newEngine(pool, inventory.DefaultRetryPolicy())
		got, err := engine.GetAvailable(ctx, "vacío")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Quantity)
		assert.Nil(t, got.Expiry)
	})

	t.Run("Conflicto de serialización se clasifica", func(t *testing.T) {
		truncate(t, pool)
		repo := postgres.NewLotRepository(pool)
		lot := &entity.Lot{Item: "C", Quantity: 10, Expiry: now.Add(time.Hour)}
		require.NoError(t, repo.Create(ctx, lot))

		tx1, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
		require.NoError(t, err)
		defer func() { _ = tx1.Rollback(ctx) }()
		_, err = postgres.NewLotRepository(tx1).AvailableQuantity(ctx, "C")
		require.NoError(t, err, "tx1 toma su snapshot")

		require.NoError(t, repo.UpdateQuantity(ctx, lot.ID, 7), "escritura concurrente confirmada")

		err = postgres.NewLotRepository(tx1).UpdateQuantity(ctx, lot.ID, 1)
		var conflict *domain.ConflictError
		require.True(t, errors.As(err, &conflict), "se esperaba ConflictError, llegó: %v", err)
		assert.Equal(t, domain.ConflictSerialization, conflict.Class)
	})

	t.Run("Ventas concurrentes nunca sobrevenden", func(t *testing.T) {
		truncate(t, pool)
		engine := newEngine(pool, inventory.RetryPolicy{MaxAttempts: 50, BaseDelay: time.Millisecond, Multiplier: 1.2})
		require.NoError(t, engine.AddLot(ctx, "K", 4, now.Add(time.Hour)))
		require.NoError(t, engine.AddLot(ctx, "K", 3, now.Add(2*time.Hour)))
		require.NoError(t, engine.AddLot(ctx, "K", 3, now.Add(3*time.Hour)))

		var sold, insufficient, failed int64
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				switch err := engine.Sell(ctx, "K", 1); {
				case err == nil:
					atomic.AddInt64(&sold, 1)
				case errors.Is(err, domain.ErrInsufficientQuantity):
					atomic.AddInt64(&insufficient, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}()
		}
		wg.Wait()

		got, err := engine.GetAvailable(ctx, "K")
		require.NoError(t, err)
		assert.LessOrEqual(t, sold, int64(10), "no se puede vender más de lo agregado")
		assert.Equal(t, int64(10), sold+int64(got.Quantity), "vendido + disponible debe igualar lo agregado")
		assert.Equal(t, int64(20), sold+insufficient+failed)
	})
}
