package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/perecederos-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "perecederos-api", cfg.App.Name)
	assert.Equal(t, config.StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, config.IsolationRepeatableRead, cfg.DB.Isolation)
	assert.Equal(t, 5, cfg.Sell.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Sell.BackoffBase)
	assert.Equal(t, 2.0, cfg.Sell.BackoffMultiplier)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DB_ISOLATION", "SERIALIZABLE")
	t.Setenv("SELL_MAX_ATTEMPTS", "3")
	t.Setenv("SELL_BACKOFF_BASE_MS", "25")
	t.Setenv("SELL_BACKOFF_MULTIPLIER", "1.5")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, config.IsolationSerializable, cfg.DB.Isolation)
	assert.Equal(t, 3, cfg.Sell.MaxAttempts)
	assert.Equal(t, 25*time.Millisecond, cfg.Sell.BackoffBase)
	assert.Equal(t, 1.5, cfg.Sell.BackoffMultiplier)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_RechazaValoresInvalidos(t *testing.T) {
	cases := map[string][2]string{
		"driver desconocido":    {"STORE_DRIVER", "mongo"},
		"aislamiento débil":     {"DB_ISOLATION", "read_committed"},
		"multiplicador <= 1":    {"SELL_BACKOFF_MULTIPLIER", "1"},
		"intentos no positivos": {"SELL_MAX_ATTEMPTS", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "perecederos", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/perecederos?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
