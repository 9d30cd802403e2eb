package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

const (
	DefaultProbeURL      = "https://www.reddit.com/r/test/new.json"
	DefaultProbeAttempts = 2
	DefaultProbeTimeout  = 5 * time.Second
)

// HTTPProber issues a GET against a low-risk target through the proxy.
type HTTPProber struct {
	TargetURL string
	Attempts  int
	Timeout   time.Duration
	UserAgent string
}

func NewHTTPProber(targetURL, userAgent string) *HTTPProber {
	if targetURL == "" {
		targetURL = DefaultProbeURL
	}
	return &HTTPProber{
		TargetURL: targetURL,
		Attempts:  DefaultProbeAttempts,
		Timeout:   DefaultProbeTimeout,
		UserAgent: userAgent,
	}
}

// Probe succeeds on the first 2xx response.
func (hp *HTTPProber) Probe(ctx context.Context, p domain.ProxyEndpoint) error {
	client, err := NewHTTPClient(&p, hp.Timeout)
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()

	attempts := max(hp.Attempts, 1)
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = hp.probeOnce(ctx, client); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

func (hp *HTTPProber) probeOnce(ctx context.Context, client *http.Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hp.TargetURL, nil)
	if err != nil {
		return err
	}
	if hp.UserAgent != "" {
		req.Header.Set("User-Agent", hp.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe status: %d", resp.StatusCode)
	}
	return nil
}

// NewHTTPClient returns a client routed through p, or a direct client when p is nil.
func NewHTTPClient(p *domain.ProxyEndpoint, timeout time.Duration) (*http.Client, error) {
	if p == nil {
		return &http.Client{Timeout: timeout}, nil
	}
	u, err := url.Parse(p.URL())
	if err != nil {
		return nil, &domain.ConfigError{Field: "proxy", Message: fmt.Sprintf("invalid proxy address %q: %v", p.Address, err)}
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(u)
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}
