package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/company"
	"vouch/internal/correction"
	"vouch/internal/verification/adapters"
	"vouch/internal/verification/events"
	"vouch/internal/verification/models"
	"vouch/internal/verification/store"
	id "vouch/pkg/domain"
)

// scriptedResolver answers DNS lookups from fixed tables; everything else
// is NXDOMAIN.
type scriptedResolver struct {
	hosts map[string][]string
	mx    map[string][]*net.MX
}

func (r *scriptedResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if addrs, ok := r.hosts[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func (r *scriptedResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	if mxs, ok := r.mx[name]; ok {
		return mxs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

// runScenario drives a full verification of the given company through the
// production adapters and returns the terminal record.
func runScenario(t *testing.T, c company.Company, resolver *scriptedResolver) *models.VerificationRecord {
	t.Helper()

	directory := company.NewMemoryDirectory()
	directory.Put(context.Background(), c)

	service := New(
		store.NewMemoryStore(),
		directory,
		correction.NewMemorySource(),
		[]adapters.Adapter{
			adapters.NewDNSAdapter(resolver),
			adapters.NewRegistrationAdapter(nil),
			adapters.NewContactAdapter(resolver),
			adapters.NewAddressAdapter(),
		},
		events.NewMemoryPublisher(),
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		testConfig(),
	)

	pending, err := service.Trigger(context.Background(), c.ID, "manual", nil)
	require.NoError(t, err)
	service.Drain()

	record, err := service.Get(context.Background(), pending.ID)
	require.NoError(t, err)
	return record
}

func TestScenario_PartialRegistryEvidenceLandsMedium(t *testing.T) {
	// Resolvable mail-capable domain, valid-format registration number with
	// no registry to cross-reference, plausible contact details. The missing
	// registry confirmation alone keeps the company out of the LOW band.
	resolver := &scriptedResolver{
		hosts: map[string][]string{"acme.com": {"93.184.216.34"}},
		mx:    map[string][]*net.MX{"acme.com": {{Host: "mail.acme.com.", Pref: 10}}},
	}
	c := company.Company{
		ID:                 id.NewCompanyID(),
		LegalName:          "Acme Holdings Ltd",
		RegistrationNumber: "12345678",
		Jurisdiction:       "GB",
		Domain:             "acme.com",
		Email:              "ops@acme.com",
		Phone:              "+44 20 7946 0958",
	}

	record := runScenario(t, c, resolver)

	assert.Equal(t, models.StatusCompleted, record.Status)
	require.NotNil(t, record.RiskCategory)
	assert.Equal(t, models.RiskMedium, *record.RiskCategory)

	byCategory := map[models.SourceCategory]models.SourceResult{}
	for _, r := range record.Sources {
		byCategory[r.Category] = r
	}
	assert.True(t, byCategory[models.SourceDNS].Verified)
	assert.False(t, byCategory[models.SourceRegistration].Verified)
	assert.True(t, byCategory[models.SourceContact].Verified)
	assert.False(t, byCategory[models.SourceAddress].Evaluated)
}

func TestScenario_NearZeroEvidenceLandsHighNotFailed(t *testing.T) {
	// Unresolvable domain, no registration number, broken email. The format
	// checks still ran, so this is a completed high-risk verification rather
	// than a failed one.
	c := company.Company{
		ID:        id.NewCompanyID(),
		LegalName: "Shady Ventures",
		Domain:    "definitely-missing.example",
		Email:     "not-an-email",
	}

	record := runScenario(t, c, &scriptedResolver{})

	assert.Equal(t, models.StatusCompleted, record.Status)
	require.NotNil(t, record.RiskCategory)
	assert.Equal(t, models.RiskHigh, *record.RiskCategory)
	assert.Empty(t, record.FailureReason)

	for _, r := range record.Sources {
		switch r.Category {
		case models.SourceDNS, models.SourceContact:
			assert.True(t, r.Evaluated)
			assert.Zero(t, r.Confidence)
		case models.SourceRegistration, models.SourceAddress:
			assert.False(t, r.Evaluated)
		}
	}
}
