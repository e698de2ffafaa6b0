package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Transport is the shared HTTP plumbing for provider clients: per-provider
// rate limiting, circuit breaking and JSON decoding.
type Transport struct {
	client   *http.Client
	limiter  *RateLimiter
	breakers *BreakerManager
}

// NewTransport wires a transport for the named providers with a shared rate
// and breaker policy.
func NewTransport(timeout time.Duration, rps float64, burst int, providerNames ...string) *Transport {
	limiter := NewRateLimiter()
	breakers := NewBreakerManager()
	for _, name := range providerNames {
		limiter.InitializeProvider(name, rps, burst)
		breakers.InitializeProvider(name, DefaultBreakerConfig())
	}

	return &Transport{
		client:   &http.Client{Timeout: timeout},
		limiter:  limiter,
		breakers: breakers,
	}
}

// GetJSON fetches rawURL with the provider's rate/breaker policy and decodes
// the body into out.
func (t *Transport) GetJSON(ctx context.Context, provider, rawURL string, out interface{}) error {
	if err := t.limiter.Wait(ctx, provider); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", provider, err)
	}

	body, err := t.breakers.Execute(provider, func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s returned HTTP %d", provider, resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", provider, err)
	}

	return nil
}

// buildURL joins a base URL, path and query values.
func buildURL(base, path string, query url.Values) string {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
