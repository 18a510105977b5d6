package adapters

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/company"
	"vouch/internal/verification/models"
)

type fakeResolver struct {
	hosts   map[string][]string
	mx      map[string][]*net.MX
	hostErr error
	mxErr   error
}

func (f *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if f.hostErr != nil {
		return nil, f.hostErr
	}
	addrs, ok := f.hosts[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return addrs, nil
}

func (f *fakeResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	if f.mxErr != nil {
		return nil, f.mxErr
	}
	return f.mx[name], nil
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain domain", "acme.example.com", "example.com", false},
		{"uppercase", "ACME.COM", "acme.com", false},
		{"scheme and path stripped", "https://www.acme.co.uk/about", "acme.co.uk", false},
		{"trailing dot", "acme.com.", "acme.com", false},
		{"not a domain", "not a domain", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDomain(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDNSAdapter_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("resolving domain with mail is high confidence", func(t *testing.T) {
		adapter := NewDNSAdapter(&fakeResolver{
			hosts: map[string][]string{"acme.com": {"93.184.216.34"}},
			mx:    map[string][]*net.MX{"acme.com": {{Host: "mail.acme.com.", Pref: 10}}},
		})

		result, err := adapter.Evaluate(ctx, company.Company{Domain: "acme.com"})
		require.NoError(t, err)
		assert.True(t, result.Evaluated)
		assert.True(t, result.Verified)
		assert.InDelta(t, 0.95, result.Confidence, 0.001)
		assert.Equal(t, "93.184.216.34", result.Fields[FieldARecords])
		assert.Equal(t, "mail.acme.com", result.Fields[FieldMXRecords])
	})

	t.Run("resolving domain without mail is medium confidence", func(t *testing.T) {
		adapter := NewDNSAdapter(&fakeResolver{
			hosts: map[string][]string{"acme.com": {"93.184.216.34"}},
		})

		result, err := adapter.Evaluate(ctx, company.Company{Domain: "acme.com"})
		require.NoError(t, err)
		assert.True(t, result.Verified)
		assert.InDelta(t, 0.6, result.Confidence, 0.001)
		assert.NotContains(t, result.Fields, FieldMXRecords)
	})

	t.Run("non-resolving domain is zero confidence evidence", func(t *testing.T) {
		adapter := NewDNSAdapter(&fakeResolver{hosts: map[string][]string{}})

		result, err := adapter.Evaluate(ctx, company.Company{Domain: "ghost.example"})
		require.NoError(t, err)
		assert.True(t, result.Evaluated)
		assert.False(t, result.Verified)
		assert.Zero(t, result.Confidence)
	})

	t.Run("malformed domain is zero confidence without lookup", func(t *testing.T) {
		adapter := NewDNSAdapter(&fakeResolver{hostErr: &net.DNSError{Err: "should not be called"}})

		result, err := adapter.Evaluate(ctx, company.Company{Domain: "!!not-a-domain!!"})
		require.NoError(t, err)
		assert.True(t, result.Evaluated)
		assert.Zero(t, result.Confidence)
	})

	t.Run("timeout surfaces as retryable source error", func(t *testing.T) {
		adapter := NewDNSAdapter(&fakeResolver{
			hostErr: &net.DNSError{Err: "i/o timeout", IsTimeout: true},
		})

		_, err := adapter.Evaluate(ctx, company.Company{Domain: "acme.com"})
		require.Error(t, err)
		assert.True(t, IsRetryable(err))
		assert.Equal(t, FailureTimeout, KindOf(err))
	})

	t.Run("not applicable without a domain", func(t *testing.T) {
		adapter := NewDNSAdapter(nil)
		assert.False(t, adapter.Applicable(company.Company{}))
		assert.True(t, adapter.Applicable(company.Company{Domain: "acme.com"}))
	})

	t.Run("category", func(t *testing.T) {
		assert.Equal(t, models.SourceDNS, NewDNSAdapter(nil).Category())
	})
}
