package inventory

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/perecederos-api/internal/domain"
)

func TestRetryPolicy_WithDefaults(t *testing.T) {
	got := RetryPolicy{MaxAttempts: 0, BaseDelay: -time.Second, Multiplier: 1}.withDefaults()
	assert.Equal(t, DefaultRetryPolicy(), got)

	custom := RetryPolicy{MaxAttempts: 2, BaseDelay: 10 * time.Millisecond, Multiplier: 1.5}
	assert.Equal(t, custom, custom.withDefaults(), "una política válida no se modifica")
}

func TestRetryPolicy_BackOffSinJitter(t *testing.T) {
	b := DefaultRetryPolicy().newBackOff()
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}
	for i, w := range want {
		assert.Equal(t, w, b.NextBackOff(), "espera %d", i+1)
	}
}

func TestClassify(t *testing.T) {
	deadlock := fmt.Errorf("commit: %w", &domain.ConflictError{Class: domain.ConflictDeadlock, Err: errors.New("40P01")})
	class, ok := classify(deadlock)
	assert.True(t, ok)
	assert.Equal(t, domain.ConflictDeadlock, class)

	_, ok = classify(errors.New("conexión perdida"))
	assert.False(t, ok)
}
