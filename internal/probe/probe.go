// Package probe implements the stateless port sweep: bounded-timeout TCP
// connects in concurrent batches, followed by HTTP-then-HTTPS
// classification of every open port. Ports that are open but answer
// neither protocol are assumed to be non-HTTP services and dropped.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/TWeb79/appscout/internal/domain"
	"github.com/TWeb79/appscout/internal/logger"
	"github.com/TWeb79/appscout/internal/pagemeta"
)

// maxBodyScan bounds how much of a response body is read for the
// best-effort title scan.
const maxBodyScan = 64 << 10

// Prober sweeps ports on a single host. It keeps no state between
// invocations; every call is a full sweep.
type Prober struct {
	host string
	log  logger.Logger

	// dial is swappable for tests; defaults to a net.Dialer.
	dial func(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error)
}

// New creates a Prober for the given target host.
func New(host string, log logger.Logger) *Prober {
	return &Prober{
		host: host,
		log:  log,
		dial: func(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			return d.DialContext(ctx, "tcp", addr)
		},
	}
}

// Scan sweeps the inclusive port range [startPort, endPort].
func (p *Prober) Scan(ctx context.Context, startPort, endPort, concurrency int, timeout time.Duration) ([]domain.DiscoveredServer, error) {
	if startPort < 1 || endPort > 65535 || startPort > endPort {
		return nil, fmt.Errorf("invalid port range %d-%d", startPort, endPort)
	}
	ports := make([]int, 0, endPort-startPort+1)
	for port := startPort; port <= endPort; port++ {
		ports = append(ports, port)
	}
	return p.ScanPorts(ctx, ports, concurrency, timeout)
}

// ScanPorts sweeps an explicit port list. The list is partitioned into
// batches of size concurrency; batches run in sequence, connections
// inside one batch run concurrently. Results are ordered like the input.
func (p *Prober) ScanPorts(ctx context.Context, ports []int, concurrency int, timeout time.Duration) ([]domain.DiscoveredServer, error) {
	if len(ports) == 0 {
		return nil, fmt.Errorf("no ports to scan")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	start := time.Now()
	var servers []domain.DiscoveredServer

	for batchStart := 0; batchStart < len(ports); batchStart += concurrency {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan aborted: %w", err)
		}

		batch := ports[batchStart:min(batchStart+concurrency, len(ports))]
		results := make([]*domain.DiscoveredServer, len(batch))

		var wg sync.WaitGroup
		wg.Add(len(batch))
		for i, port := range batch {
			go func(i, port int) {
				defer wg.Done()
				results[i] = p.probePort(ctx, port, timeout)
			}(i, port)
		}
		wg.Wait()

		for _, r := range results {
			if r != nil {
				servers = append(servers, *r)
			}
		}
	}

	p.log.Info("port sweep finished",
		logger.String("host", p.host),
		logger.Int("ports", len(ports)),
		logger.Int("found", len(servers)),
		logger.Duration("took", time.Since(start)))

	return servers, nil
}

// probePort attempts a TCP connect and, if the port is open, an HTTP
// then HTTPS classification. Returns nil for closed, timed-out and
// open-but-not-HTTP ports.
func (p *Prober) probePort(ctx context.Context, port int, timeout time.Duration) *domain.DiscoveredServer {
	addr := net.JoinHostPort(p.host, strconv.Itoa(port))

	conn, err := p.dial(ctx, addr, timeout)
	if err != nil {
		// closed or timed out; no retries
		return nil
	}
	_ = conn.Close()

	// The first protocol that returns any HTTP response wins.
	for _, protocol := range []string{"http", "https"} {
		if server := p.classify(ctx, protocol, port, timeout); server != nil {
			return server
		}
	}

	p.log.Debug("open port without http response, dropped",
		logger.String("host", p.host),
		logger.Int("port", port))
	return nil
}

func (p *Prober) classify(ctx context.Context, protocol string, port int, timeout time.Duration) *domain.DiscoveredServer {
	url := domain.BuildURL(protocol, p.host, port)

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			// Local dev servers routinely run self-signed certs.
			TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
			DisableKeepAlives: true,
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	// Best-effort scan; any read failure just leaves Title empty.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyScan))

	// TLS ports answer plaintext requests with a courtesy 400
	// ("client sent an HTTP request to an HTTPS server"); let the
	// https attempt claim those instead.
	if protocol == "http" && resp.StatusCode == http.StatusBadRequest && plaintextToTLS(body) {
		return nil
	}

	server := &domain.DiscoveredServer{
		Port:       port,
		Protocol:   protocol,
		URL:        url,
		StatusCode: resp.StatusCode,
	}
	if looksLikeHTML(resp.Header.Get("Content-Type"), body) {
		server.Title = pagemeta.Title(string(body))
	}

	return server
}

// plaintextToTLS recognizes the rejection bodies Go and nginx send when a
// plaintext request hits a TLS listener.
func plaintextToTLS(body []byte) bool {
	s := strings.ToLower(string(body))
	return strings.Contains(s, "request to an https server") ||
		strings.Contains(s, "sent to https port")
}

// looksLikeHTML accepts either an HTML content type or an HTML-looking
// body, since dev servers frequently omit or mislabel the header.
func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<title")
}
