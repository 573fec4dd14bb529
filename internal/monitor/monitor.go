// Package monitor classifies the reachability of known App URLs.
//
// The classification policy is deliberate and affects status semantics
// system-wide: any HTTP response, including 4xx and 5xx, means the app
// is reachable and therefore online. Only refused connections, timeouts
// and unambiguous transport errors mean offline. Ambiguous transport
// errors against ports known to carry non-HTTP services classify as
// unknown to avoid false negatives.
package monitor

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/TWeb79/appscout/internal/classify"
	"github.com/TWeb79/appscout/internal/domain"
	"github.com/TWeb79/appscout/internal/logger"
	"github.com/TWeb79/appscout/internal/pagemeta"
)

const maxBodyScan = 64 << 10

// Monitor performs health checks. Each check is independently
// idempotent; the Monitor holds no per-URL state.
type Monitor struct {
	table   *classify.Table
	timeout time.Duration
	log     logger.Logger
	client  *http.Client
}

// New creates a Monitor with the given classification table and
// per-request timeout.
func New(table *classify.Table, timeout time.Duration, log logger.Logger) *Monitor {
	return &Monitor{
		table:   table,
		timeout: timeout,
		log:     log,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 0,
				}).DialContext,
				TLSHandshakeTimeout: timeout,
				TLSClientConfig: &tls.Config{
					// Local dev servers routinely run self-signed certs.
					InsecureSkipVerify: true,
				},
				DisableKeepAlives: true,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Don't follow redirects; the Location header is reported instead.
				return http.ErrUseLastResponse
			},
		},
	}
}

// Check probes a single URL and returns its classification. Offline and
// unknown are results, never errors; Check has no error return.
func (m *Monitor) Check(ctx context.Context, url string) domain.HealthResult {
	result := domain.HealthResult{URL: url, Status: domain.StatusOffline}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		result.ResponseTimeMs = time.Since(start).Milliseconds()
		return result
	}

	resp, err := m.client.Do(req)
	result.ResponseTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Status = m.classifyError(url, err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	// Any HTTP response is an app-is-reachable signal.
	result.Status = domain.StatusOnline
	result.StatusCode = resp.StatusCode

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		result.RedirectURL = resp.Header.Get("Location")
	}

	if isHTML(resp.Header.Get("Content-Type")) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyScan))
		html := string(body)
		result.Title = pagemeta.Title(html)
		result.Meta = pagemeta.Meta(html)
	}

	return result
}

// CheckAll probes all URLs concurrently. The returned slice preserves
// input order; completion order among the checks is unspecified.
func (m *Monitor) CheckAll(ctx context.Context, urls []string) []domain.HealthResult {
	results := make([]domain.HealthResult, len(urls))

	var wg sync.WaitGroup
	wg.Add(len(urls))
	for i, url := range urls {
		go func(i int, url string) {
			defer wg.Done()
			results[i] = m.Check(ctx, url)
		}(i, url)
	}
	wg.Wait()

	return results
}

// classifyError maps a transport error to a status.
func (m *Monitor) classifyError(url string, err error) domain.Status {
	// Refused and timed out are unambiguous: nothing is serving HTTP there.
	if errors.Is(err, syscall.ECONNREFUSED) || isTimeout(err) {
		return domain.StatusOffline
	}

	// Anything else (handshake garbage, protocol violations, resets) on a
	// port known to carry non-HTTP services is ambiguous: something is
	// listening, it just does not speak our protocol.
	if _, port, urlErr := domain.CanonicalURL(url); urlErr == nil && m.table.IsNonHTTPPort(port) {
		m.log.Debug("ambiguous transport error on non-http port, classifying unknown",
			logger.String("url", url),
			logger.Error(err))
		return domain.StatusUnknown
	}

	return domain.StatusOffline
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "html")
}
