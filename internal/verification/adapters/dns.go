package adapters

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"vouch/internal/company"
	"vouch/internal/verification/models"
	"vouch/pkg/requestcontext"
)

// Confidence levels for DNS evidence. A domain that both resolves and
// receives mail is strong evidence of an operating business; resolution
// alone is weaker.
const (
	dnsConfidenceResolvesWithMX = 0.95
	dnsConfidenceResolvesOnly   = 0.6
)

var domainPattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// Resolver is the subset of net.Resolver the DNS adapter needs.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// DNSAdapter verifies that a company's claimed domain exists in the DNS and
// records A and MX evidence for downstream scoring.
type DNSAdapter struct {
	resolver Resolver
}

// NewDNSAdapter builds a DNS adapter. A nil resolver uses net.DefaultResolver.
func NewDNSAdapter(resolver Resolver) *DNSAdapter {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DNSAdapter{resolver: resolver}
}

func (a *DNSAdapter) Category() models.SourceCategory { return models.SourceDNS }

func (a *DNSAdapter) Applicable(c company.Company) bool { return c.Domain != "" }

// NormalizeDomain lowercases, strips any scheme or path, and reduces the
// host to its registrable domain (eTLD+1) so subdomain claims compare equal
// to their apex.
func NormalizeDomain(raw string) (string, error) {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "https://")
	if i := strings.IndexByte(domain, '/'); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.TrimSuffix(domain, ".")

	if !domainPattern.MatchString(domain) {
		return "", errors.New("invalid domain format")
	}
	return publicsuffix.EffectiveTLDPlusOne(domain)
}

func (a *DNSAdapter) Evaluate(ctx context.Context, c company.Company) (models.SourceResult, error) {
	now := requestcontext.Now(ctx)

	registrable, err := NormalizeDomain(c.Domain)
	if err != nil {
		return models.SourceResult{
			Category:   models.SourceDNS,
			Evaluated:  true,
			Verified:   false,
			Confidence: 0,
			Note:       "claimed domain is not a valid domain name",
			CheckedAt:  now,
		}, nil
	}

	addrs, err := a.resolver.LookupHost(ctx, registrable)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			if dnsErr.IsNotFound {
				return models.SourceResult{
					Category:   models.SourceDNS,
					Evaluated:  true,
					Verified:   false,
					Confidence: 0,
					Fields:     map[string]string{FieldRegistrableDomain: registrable},
					Note:       "domain does not resolve",
					CheckedAt:  now,
				}, nil
			}
			if dnsErr.IsTimeout {
				return models.SourceResult{}, NewSourceError(FailureTimeout, models.SourceDNS, "dns lookup timed out", err)
			}
		}
		return models.SourceResult{}, NewSourceError(FailureOutage, models.SourceDNS, "dns lookup failed", err)
	}

	fields := map[string]string{
		FieldRegistrableDomain: registrable,
		FieldARecords:          strings.Join(addrs, ","),
	}

	confidence := dnsConfidenceResolvesOnly
	note := "domain resolves; no mail exchangers"

	// MX presence is optional evidence. Lookup failures here degrade the
	// note, not the whole result.
	if mxs, mxErr := a.lookupMX(ctx, registrable); mxErr == nil && len(mxs) > 0 {
		fields[FieldMXRecords] = strings.Join(mxs, ",")
		confidence = dnsConfidenceResolvesWithMX
		note = "domain resolves and accepts mail"
	}

	return models.SourceResult{
		Category:   models.SourceDNS,
		Evaluated:  true,
		Verified:   true,
		Confidence: confidence,
		Fields:     fields,
		Note:       note,
		CheckedAt:  now,
	}, nil
}

func (a *DNSAdapter) lookupMX(ctx context.Context, domain string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	mxs, err := a.resolver.LookupMX(ctx, domain)
	if err != nil {
		return nil, err
	}
	hosts := make([]string, 0, len(mxs))
	for _, mx := range mxs {
		hosts = append(hosts, strings.TrimSuffix(mx.Host, "."))
	}
	return hosts, nil
}
