package provider

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxAssertionBytes caps the provider response body; a valid assertion is
// a few hundred bytes.
const maxAssertionBytes = 1 << 20

var (
	// ErrProviderUnreachable means the assertion endpoint could not be
	// reached. Transient; the next request retries fresh.
	ErrProviderUnreachable = errors.New("provider unreachable")

	// ErrProviderTimeout means the fetch exceeded the configured timeout.
	ErrProviderTimeout = errors.New("provider timed out")
)

// HTTPStatusError reports a non-200 response from the assertion endpoint.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
}

// Fetcher issues assertion requests against the provider endpoint. The
// underlying client has no cookie jar: the session cookie is attached
// explicitly per request, so no cookie state can leak between requests.
type Fetcher struct {
	client     *http.Client
	url        string
	cookieName string
}

// NewFetcher builds a fetcher for the given provider settings.
func NewFetcher(cfg Config) *Fetcher {
	cfg = cfg.withDefaults()

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipTLSVerify,
		},
	}

	return &Fetcher{
		client: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   cfg.FetchTimeout,
		},
		url:        cfg.AssertionURL,
		cookieName: cfg.ProviderCookieName,
	}
}

// Fetch POSTs to the assertion endpoint with the shared cookie value and
// returns the raw response body. Errors are typed so callers can label
// the failure, but every one of them means "treat as not authenticated".
func (f *Fetcher) Fetch(ctx context.Context, cookieValue string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}
	req.AddCookie(&http.Cookie{Name: f.cookieName, Value: cookieValue})

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxAssertionBytes))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssertionBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrProviderUnreachable, err)
	}

	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
