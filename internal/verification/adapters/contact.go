package adapters

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"

	"vouch/internal/company"
	"vouch/internal/verification/models"
	"vouch/pkg/requestcontext"
)

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneStripPattern = regexp.MustCompile(`[\s\-()+.]`)
)

// ValidEmail checks the basic shape of an email address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone checks a phone number after stripping formatting characters.
// Beyond length, it rejects sequences no carrier assigns: all-same-digit
// numbers and digit palindromes.
func ValidPhone(phone string) bool {
	digits := phoneStripPattern.ReplaceAllString(phone, "")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	if allSameDigit(digits) || isPalindrome(digits) {
		return false
	}
	return true
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func isPalindrome(s string) bool {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		if s[i] != s[j] {
			return false
		}
	}
	return true
}

// ContactAdapter validates the claimed contact channels: email and phone
// shape, plus DNS existence of the email host. It never asserts
// deliverability, so top confidence stays below the network-backed sources.
type ContactAdapter struct {
	resolver Resolver
}

// NewContactAdapter builds a contact adapter. A nil resolver uses
// net.DefaultResolver.
func NewContactAdapter(resolver Resolver) *ContactAdapter {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &ContactAdapter{resolver: resolver}
}

func (a *ContactAdapter) Category() models.SourceCategory { return models.SourceContact }

func (a *ContactAdapter) Applicable(c company.Company) bool {
	return c.Email != "" || c.Phone != ""
}

func (a *ContactAdapter) Evaluate(ctx context.Context, c company.Company) (models.SourceResult, error) {
	now := requestcontext.Now(ctx)

	provided, valid := 0, 0
	fields := map[string]string{}
	var notes []string

	if c.Email != "" {
		provided++
		if !ValidEmail(c.Email) {
			notes = append(notes, "email format is invalid")
		} else {
			host := strings.ToLower(c.Email[strings.LastIndexByte(c.Email, '@')+1:])
			fields[FieldEmailDomain] = host

			exists, err := a.emailHostExists(ctx, host)
			if err != nil {
				var dnsErr *net.DNSError
				if errors.As(err, &dnsErr) && dnsErr.IsTimeout {
					return models.SourceResult{}, NewSourceError(FailureTimeout, models.SourceContact, "email host lookup timed out", err)
				}
				return models.SourceResult{}, NewSourceError(FailureOutage, models.SourceContact, "email host lookup failed", err)
			}
			if exists {
				valid++
			} else {
				notes = append(notes, "email host does not exist in DNS")
			}
		}
	}

	if c.Phone != "" {
		provided++
		if ValidPhone(c.Phone) {
			valid++
		} else {
			notes = append(notes, "phone number is implausible")
		}
	}

	// Capped below 1: passing format checks is weaker evidence than a
	// resolved domain or a registry match.
	confidence := 0.85 * float64(valid) / float64(provided)

	note := "contact details are plausible"
	if len(notes) > 0 {
		note = strings.Join(notes, "; ")
	}

	return models.SourceResult{
		Category:   models.SourceContact,
		Evaluated:  true,
		Verified:   valid == provided,
		Confidence: confidence,
		Fields:     fields,
		Note:       note,
		CheckedAt:  now,
	}, nil
}

// emailHostExists reports whether the email's host has MX or A records.
// A mail exchanger is sufficient on its own; hosts without one still pass
// when they resolve directly.
func (a *ContactAdapter) emailHostExists(ctx context.Context, host string) (bool, error) {
	if mxs, err := a.resolver.LookupMX(ctx, host); err == nil && len(mxs) > 0 {
		return true, nil
	}

	addrs, err := a.resolver.LookupHost(ctx, host)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, err
	}
	return len(addrs) > 0, nil
}
