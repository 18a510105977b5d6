package company

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

func TestApplyOverride(t *testing.T) {
	c := Company{LegalName: "Acme Inc", Domain: "acme.example"}

	t.Run("replaces known top-level field", func(t *testing.T) {
		ok := c.ApplyOverride("legal_name", "Acme Corporation")
		assert.True(t, ok)
		assert.Equal(t, "Acme Corporation", c.LegalName)
	})

	t.Run("replaces address field", func(t *testing.T) {
		ok := c.ApplyOverride("postal_code", "94105")
		assert.True(t, ok)
		assert.Equal(t, "94105", c.Address.PostalCode)
	})

	t.Run("is case insensitive on field name", func(t *testing.T) {
		ok := c.ApplyOverride("Domain", "acme.test")
		assert.True(t, ok)
		assert.Equal(t, "acme.test", c.Domain)
	})

	t.Run("ignores unknown field", func(t *testing.T) {
		before := c
		ok := c.ApplyOverride("favourite_colour", "blue")
		assert.False(t, ok)
		assert.Equal(t, before, c)
	})
}

func TestMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()
	companyID := id.NewCompanyID()

	t.Run("missing company returns not found", func(t *testing.T) {
		_, err := dir.Get(ctx, companyID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		dir.Put(ctx, Company{ID: companyID, LegalName: "Acme Inc"})

		got, err := dir.Get(ctx, companyID)
		require.NoError(t, err)
		got.LegalName = "mutated"

		again, err := dir.Get(ctx, companyID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Inc", again.LegalName)
	})
}
