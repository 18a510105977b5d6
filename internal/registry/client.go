package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"vouch/pkg/platform/circuit"
	"vouch/pkg/platform/sentinel"
)

// Client is an HTTP registry client guarded by a circuit breaker.
// While the breaker is open, lookups fail fast with sentinel.ErrUnavailable
// so verification runs degrade to format-only evidence instead of stalling.
// After the breaker's cooldown a single lookup probes the upstream again.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// NewClient builds a registry client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: circuit.New("registry", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		logger:  logger,
	}
}

// Lookup fetches the registry record for a jurisdiction and registration number.
func (c *Client) Lookup(ctx context.Context, jurisdiction, registrationNumber string) (*CompanyRecord, error) {
	if !c.breaker.Allow() {
		return nil, fmt.Errorf("registry circuit open: %w", sentinel.ErrUnavailable)
	}

	endpoint := fmt.Sprintf("%s/companies/%s/%s",
		c.baseURL, url.PathEscape(jurisdiction), url.PathEscape(registrationNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(ctx, err)
		return nil, fmt.Errorf("registry request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var record CompanyRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			c.recordFailure(ctx, err)
			return nil, fmt.Errorf("decode registry response: %w", err)
		}
		c.recordSuccess()
		return &record, nil
	case resp.StatusCode == http.StatusNotFound:
		// A definitive answer from the upstream, so it counts as success.
		c.recordSuccess()
		return nil, sentinel.ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		err := fmt.Errorf("registry returned status %d", resp.StatusCode)
		c.recordFailure(ctx, err)
		return nil, fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	default:
		// The upstream answered, just not with anything usable.
		c.recordSuccess()
		return nil, fmt.Errorf("registry returned unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) recordFailure(ctx context.Context, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "registry circuit opened", "error", err)
	}
}

func (c *Client) recordSuccess() {
	_, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.Info("registry circuit closed")
	}
}
