package inventory

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jhoicas/perecederos-api/internal/domain"
)

// Valores por defecto del ciclo de reintentos de la venta.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 100 * time.Millisecond
	DefaultMultiplier  = 2.0
)

// RetryPolicy configura los reintentos de Sell ante conflictos de serialización o deadlock.
// La primera espera es BaseDelay y cada espera siguiente se multiplica por Multiplier.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy devuelve la política por defecto (5 intentos, 100ms, x2).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
	}
}

// withDefaults reemplaza valores no válidos por los de DefaultRetryPolicy.
func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Multiplier <= 1 {
		p.Multiplier = DefaultMultiplier
	}
	return p
}

// newBackOff construye un backoff exponencial determinista (sin jitter ni tope de tiempo total).
func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// WaitFunc espera d o hasta que ctx termine.
type WaitFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// classify indica si err es un conflicto reintentable y de qué clase.
func classify(err error) (domain.ConflictClass, bool) {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Class, true
	}
	return 0, false
}
