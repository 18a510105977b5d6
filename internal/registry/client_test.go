package registry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/pkg/platform/circuit"
	"vouch/pkg/platform/sentinel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/companies/GB/12345678", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"legal_name":"ACME LTD","registration_number":"12345678","jurisdiction":"GB","status":"active"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, discardLogger())
		record, err := client.Lookup(ctx, "GB", "12345678")
		require.NoError(t, err)
		assert.Equal(t, "ACME LTD", record.LegalName)
		assert.Equal(t, "active", record.Status)
	})

	t.Run("missing record is not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, discardLogger())
		_, err := client.Lookup(ctx, "GB", "00000000")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, discardLogger())
		_, err := client.Lookup(ctx, "GB", "12345678")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("breaker opens after repeated failures and fails fast", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, discardLogger())
		for i := 0; i < 5; i++ {
			_, err := client.Lookup(ctx, "GB", "12345678")
			require.Error(t, err)
		}
		seen := calls.Load()

		// Breaker is open now: the upstream must not be called again.
		_, err := client.Lookup(ctx, "GB", "12345678")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, seen, calls.Load())
	})

	t.Run("breaker probes the upstream again after the cooldown", func(t *testing.T) {
		var healthy atomic.Bool
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if !healthy.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"legal_name":"ACME LTD","registration_number":"12345678","jurisdiction":"GB","status":"active"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, discardLogger())
		now := time.Unix(0, 0)
		client.breaker = circuit.New("registry",
			circuit.WithFailureThreshold(5),
			circuit.WithSuccessThreshold(1),
			circuit.WithCooldown(time.Minute),
			circuit.WithClock(func() time.Time { return now }),
		)

		for i := 0; i < 5; i++ {
			_, err := client.Lookup(ctx, "GB", "12345678")
			require.Error(t, err)
		}
		require.Equal(t, circuit.StateOpen, client.breaker.State())

		// The upstream recovers, but the breaker still blocks until the
		// cooldown elapses.
		healthy.Store(true)
		seen := calls.Load()
		_, err := client.Lookup(ctx, "GB", "12345678")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, seen, calls.Load())

		now = now.Add(time.Minute)
		record, err := client.Lookup(ctx, "GB", "12345678")
		require.NoError(t, err)
		assert.Equal(t, "ACME LTD", record.LegalName)
		assert.Equal(t, seen+1, calls.Load())
		assert.Equal(t, circuit.StateClosed, client.breaker.State())

		// Subsequent lookups hit the upstream normally.
		_, err = client.Lookup(ctx, "GB", "12345678")
		require.NoError(t, err)
		assert.Equal(t, seen+2, calls.Load())
	})
}
