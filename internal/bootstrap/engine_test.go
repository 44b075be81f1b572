package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/perecederos-api/internal/bootstrap"
	"github.com/jhoicas/perecederos-api/pkg/config"
	"github.com/jhoicas/perecederos-api/pkg/logger"
)

func TestEngine_DriverMemoria(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{Driver: config.StoreDriverMemory},
		Sell:  config.SellConfig{MaxAttempts: 3, BackoffBase: 20 * time.Millisecond, BackoffMultiplier: 1.5},
	}
	engine, cleanup, err := bootstrap.Engine(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer cleanup()

	policy := engine.Policy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, policy.BaseDelay)
	assert.Equal(t, 1.5, policy.Multiplier)

	ctx := context.Background()
	require.NoError(t, engine.AddLot(ctx, "leche", 2, time.Now().Add(time.Hour)))
	got, err := engine.GetAvailable(ctx, "leche")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
}

func TestEngine_DriverDesconocido(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "mongo"}}
	engine, cleanup, err := bootstrap.Engine(context.Background(), cfg, logger.NewNop())
	require.Error(t, err)
	assert.Nil(t, engine)
	assert.NotPanics(t, cleanup)
}
