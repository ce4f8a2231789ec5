// Package providers implements model backend handlers. Each handler
// registers itself into the default registry from init() when its
// credentials are present; a provider that is enabled in configuration but
// missing credentials stays unregistered, which the registry reports as a
// configuration problem naming the expected environment variable.
package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/c360studio/chainflow/metrics"
)

// maxResponseSize limits backend response bodies to prevent memory
// exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// defaultTimeout allows time for slow model responses. The engine itself
// has no timeouts; this per-call bound is the handler's responsibility.
const defaultTimeout = 180 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// postJSON sends a JSON POST and returns the response body. Non-2xx
// statuses become errors carrying the status and a body excerpt.
func postJSON(ctx context.Context, client *http.Client, providerName, url string, headers map[string]string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("%s request: %w", providerName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("read %s response: %w", providerName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		excerpt := data
		if len(excerpt) > 512 {
			excerpt = excerpt[:512]
		}
		return nil, fmt.Errorf("%s returned status %d: %s", providerName, resp.StatusCode, excerpt)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(providerName, "success").Inc()
	return data, nil
}
