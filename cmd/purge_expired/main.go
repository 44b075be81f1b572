// purge_expired elimina de una vez todos los lotes vencidos.
// Pensado para ejecutarse desde un programador externo (cron, Kubernetes CronJob).
//
// Uso: go run ./cmd/purge_expired
// Toma la misma configuración que la API (DATABASE_URL, STORE_DRIVER, ...).
package main

import (
	"context"
	"os"
	"time"

	"github.com/jhoicas/perecederos-api/internal/bootstrap"
	"github.com/jhoicas/perecederos-api/pkg/config"
	"github.com/jhoicas/perecederos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	engine, cleanup, err := bootstrap.Engine(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("inicializar almacén de lotes")
		os.Exit(1)
	}
	defer cleanup()

	n, err := engine.PurgeExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("purga de lotes vencidos")
		cleanup()
		os.Exit(1)
	}
	log.Info().Int64("deleted", n).Msg("purga completada")
}
