package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/company"
)

func TestAddressAdapter_Evaluate(t *testing.T) {
	ctx := context.Background()
	adapter := NewAddressAdapter()

	full := company.Address{
		Street:     "1 Market St",
		City:       "San Francisco",
		State:      "CA",
		Country:    "US",
		PostalCode: "94105",
	}

	t.Run("complete valid address is verified", func(t *testing.T) {
		result, err := adapter.Evaluate(ctx, company.Company{Address: full})
		require.NoError(t, err)
		assert.True(t, result.Verified)
		assert.InDelta(t, 1.0, result.Confidence, 0.001)
	})

	t.Run("three of five fields meets the verified threshold", func(t *testing.T) {
		result, err := adapter.Evaluate(ctx, company.Company{Address: company.Address{
			Street:  "1 Market St",
			City:    "San Francisco",
			Country: "US",
		}})
		require.NoError(t, err)
		assert.True(t, result.Verified)
		assert.InDelta(t, 0.6, result.Confidence, 0.001)
	})

	t.Run("two of five fields is not verified", func(t *testing.T) {
		result, err := adapter.Evaluate(ctx, company.Company{Address: company.Address{
			City:    "San Francisco",
			Country: "US",
		}})
		require.NoError(t, err)
		assert.False(t, result.Verified)
		assert.InDelta(t, 0.4, result.Confidence, 0.001)
	})

	t.Run("implausible postal code reduces confidence and blocks verified", func(t *testing.T) {
		addr := full
		addr.PostalCode = "!"
		result, err := adapter.Evaluate(ctx, company.Company{Address: addr})
		require.NoError(t, err)
		assert.False(t, result.Verified)
		assert.InDelta(t, 0.7, result.Confidence, 0.001)
		assert.Contains(t, result.Note, "postal code is implausible")
	})

	t.Run("non ISO country flagged", func(t *testing.T) {
		addr := full
		addr.Country = "USA"
		result, err := adapter.Evaluate(ctx, company.Company{Address: addr})
		require.NoError(t, err)
		assert.False(t, result.Verified)
		assert.Contains(t, result.Note, "ISO 3166-1")
	})

	t.Run("not applicable without any address field", func(t *testing.T) {
		assert.False(t, adapter.Applicable(company.Company{}))
		assert.True(t, adapter.Applicable(company.Company{Address: company.Address{City: "SF"}}))
	})
}
