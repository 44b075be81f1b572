// Package bootstrap arma el motor de inventario a partir de la configuración.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/perecederos-api/internal/application/inventory"
	"github.com/jhoicas/perecederos-api/internal/infrastructure/memory"
	"github.com/jhoicas/perecederos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/perecederos-api/pkg/config"
	"github.com/jhoicas/perecederos-api/pkg/logger"
)

// RetryPolicy traduce la configuración de venta a la política del motor.
func RetryPolicy(cfg config.SellConfig) inventory.RetryPolicy {
	return inventory.RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BackoffBase,
		Multiplier:  cfg.BackoffMultiplier,
	}
}

// Engine construye el motor sobre el almacén configurado (STORE_DRIVER).
// Con postgres aplica las migraciones pendientes antes de abrir el pool.
// El cleanup devuelto libera los recursos del almacén y es seguro llamarlo siempre.
func Engine(ctx context.Context, cfg *config.Config, log *logger.Logger) (*inventory.Engine, func(), error) {
	policy := RetryPolicy(cfg.Sell)

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("usando almacén en memoria: los lotes se pierden al reiniciar")
		store := memory.NewStore()
		return inventory.NewEngine(store, store, policy, log), func() {}, nil

	case config.StoreDriverPostgres:
		dsn := cfg.DB.ConnectionString()
		if err := postgres.Migrate(ctx, dsn, log); err != nil {
			return nil, func() {}, fmt.Errorf("migraciones: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, func() {}, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		runner := postgres.NewTxRunner(pool, cfg.DB.Isolation)
		log.Info().
			Str("isolation", runner.String()).
			Int("max_attempts", policy.MaxAttempts).
			Msg("almacén PostgreSQL listo")
		return inventory.NewEngine(postgres.NewLotRepository(pool), runner, policy, log), pool.Close, nil

	default:
		return nil, func() {}, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.Store.Driver)
	}
}
