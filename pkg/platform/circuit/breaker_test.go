package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_InitialState(t *testing.T) {
	b := New("registry")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "registry", b.Name())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("registry", WithFailureThreshold(3))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
}

func TestBreaker_ClosesAfterSuccessThreshold(t *testing.T) {
	b := New("registry", WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen())

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("registry", WithFailureThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordSuccess()

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_FailureResetsSuccessCount(t *testing.T) {
	b := New("registry", WithFailureThreshold(1), WithSuccessThreshold(3))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.RecordSuccess()
	b.RecordSuccess()

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.RecordSuccess()
	b.RecordSuccess()
	assert.True(t, b.IsOpen())
	b.RecordSuccess()
	assert.False(t, b.IsOpen())
}

func TestBreaker_OpenCircuitReturnsFallbackWithoutTransition(t *testing.T) {
	b := New("registry", WithFailureThreshold(1))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestBreaker_HalfOpenProbeRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	b := New("registry",
		WithFailureThreshold(1),
		WithCooldown(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(30 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(30 * time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	// Only one probe may be in flight.
	assert.False(t, b.Allow())

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.True(t, b.Allow())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_FailedProbeReopensForFreshCooldown(t *testing.T) {
	now := time.Unix(0, 0)
	b := New("registry",
		WithFailureThreshold(1),
		WithCooldown(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	b.RecordFailure()
	now = now.Add(time.Minute)
	assert.True(t, b.Allow())

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.False(t, b.Allow())

	now = now.Add(30 * time.Second)
	assert.False(t, b.Allow())
	now = now.Add(30 * time.Second)
	assert.True(t, b.Allow())
}

func TestBreaker_HalfOpenAdmitsNextProbeAfterPartialRecovery(t *testing.T) {
	now := time.Unix(0, 0)
	b := New("registry",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithCooldown(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	b.RecordFailure()
	now = now.Add(time.Minute)
	assert.True(t, b.Allow())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.Equal(t, StateHalfOpen, b.State())

	assert.True(t, b.Allow())
	_, change = b.RecordSuccess()
	assert.True(t, change.Closed)
}

func TestBreaker_Reset(t *testing.T) {
	b := New("registry", WithFailureThreshold(1))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}
