// Package discovery drives the scan, health-sweep and screenshot-sweep
// pipelines: it composes the port probe, the identification collaborator
// (with the deterministic fallback table), the registry and the event hub.
package discovery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TWeb79/appscout/internal/classify"
	"github.com/TWeb79/appscout/internal/collab"
	"github.com/TWeb79/appscout/internal/config"
	"github.com/TWeb79/appscout/internal/domain"
	"github.com/TWeb79/appscout/internal/events"
	"github.com/TWeb79/appscout/internal/logger"
	"github.com/TWeb79/appscout/internal/metrics"
	"github.com/TWeb79/appscout/internal/pagemeta"
	"github.com/TWeb79/appscout/internal/store"
)

// SettingTargetHost is the registry key holding the runtime override of
// the probed host. When unset, the configured default applies.
const SettingTargetHost = "target_host"

// Scan modes.
const (
	ModeQuick = "quick"
	ModeFull  = "full"
)

const maxPageContent = 64 << 10 // page bytes handed to identification

// Prober sweeps TCP ports on a host and reports the ones answering HTTP.
type Prober interface {
	ScanPorts(ctx context.Context, ports []int, concurrency int, timeout time.Duration) ([]domain.DiscoveredServer, error)
	Scan(ctx context.Context, startPort, endPort, concurrency int, timeout time.Duration) ([]domain.DiscoveredServer, error)
}

// Checker classifies the reachability of a single URL.
type Checker interface {
	Check(ctx context.Context, url string) domain.HealthResult
}

// ProberFactory builds a Prober bound to one host. The orchestrator
// resolves the target host per scan, so the probe cannot be constructed
// once up front.
type ProberFactory func(host string) Prober

// Orchestrator runs the discovery pipelines. One instance is shared by
// the HTTP handlers and the periodic scheduler; every public method is
// safe for concurrent use, though scans are expected to run one at a
// time (the handlers enforce that).
type Orchestrator struct {
	cfg        *config.Config
	store      store.Store
	hub        *events.Hub
	checker    Checker
	identifier collab.Identifier
	shooter    collab.Screenshotter
	table      *classify.Table
	newProber  ProberFactory
	log        logger.Logger

	// fetch retrieves page content for identification. Swapped in tests.
	fetch func(ctx context.Context, url string) (title, content string)
}

func New(
	cfg *config.Config,
	st store.Store,
	hub *events.Hub,
	checker Checker,
	identifier collab.Identifier,
	shooter collab.Screenshotter,
	table *classify.Table,
	newProber ProberFactory,
	log logger.Logger,
) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		store:      st,
		hub:        hub,
		checker:    checker,
		identifier: identifier,
		shooter:    shooter,
		table:      table,
		newProber:  newProber,
		log:        log,
	}
	o.fetch = o.fetchPage
	return o
}

// TargetHost resolves the host to probe: the registry override when one
// is stored, otherwise the configured default.
func (o *Orchestrator) TargetHost(ctx context.Context) string {
	host, err := o.store.GetSetting(ctx, SettingTargetHost)
	if err == nil && strings.TrimSpace(host) != "" {
		return strings.TrimSpace(host)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		o.log.Warn("target host lookup failed, using default",
			logger.Error(err),
			logger.String("default", o.cfg.TargetHost))
	}
	return o.cfg.TargetHost
}

// ScanOptions selects the sweep mode and optionally overrides the
// configured probe parameters for this one scan. Zero values mean
// "use the configured default".
type ScanOptions struct {
	Mode        string
	StartPort   int // full mode only
	EndPort     int // full mode only
	Concurrency int
	Timeout     time.Duration
}

// RunScan performs one discovery sweep in the given mode ("quick" or
// "full"). The probe phase runs concurrently; discovered servers are then
// processed strictly one at a time (identify, register, first health
// check) with a pause between servers so target services are not hammered.
//
// A probe failure aborts the scan and emits scan_error. A failure while
// processing one server only skips that server.
func (o *Orchestrator) RunScan(ctx context.Context, opts ScanOptions) (int, error) {
	start := time.Now()
	mode := opts.Mode
	host := o.TargetHost(ctx)

	o.hub.Emit(events.New(events.TypeScanStart, map[string]any{
		"mode": mode,
		"host": host,
	}))
	o.log.Info("scan started",
		logger.String("mode", mode),
		logger.String("host", host))

	servers, err := o.probe(ctx, host, opts)
	if err != nil {
		metrics.ScansTotal.WithLabelValues(mode, "error").Inc()
		o.hub.Emit(events.New(events.TypeScanError, map[string]any{
			"mode":  mode,
			"error": err.Error(),
		}))
		o.log.Error("scan failed", logger.String("mode", mode), logger.Error(err))
		return 0, fmt.Errorf("scan (%s): %w", mode, err)
	}

	found := 0
	for i, srv := range servers {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			select {
			case <-time.After(o.cfg.ScanPause):
			case <-ctx.Done():
			}
		}
		app, err := o.processServer(ctx, srv)
		if err != nil {
			o.log.Warn("server skipped",
				logger.String("url", srv.URL),
				logger.Error(err))
			continue
		}
		found++
		o.hub.Emit(events.New(events.TypeAppDiscovered, map[string]any{"app": app}))
	}

	metrics.ScansTotal.WithLabelValues(mode, "ok").Inc()
	metrics.ScanDurationSeconds.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	o.hub.Emit(events.New(events.TypeScanComplete, map[string]any{
		"mode":  mode,
		"found": found,
	}))
	o.log.Info("scan complete",
		logger.String("mode", mode),
		logger.Int("found", found),
		logger.Duration("took", time.Since(start)))
	return found, nil
}

func (o *Orchestrator) probe(ctx context.Context, host string, opts ScanOptions) ([]domain.DiscoveredServer, error) {
	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = o.cfg.ScanConcurrency
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = o.cfg.ScanTimeout
	}

	p := o.newProber(host)
	switch opts.Mode {
	case ModeQuick:
		return p.ScanPorts(ctx, o.cfg.QuickScanPorts, concurrency, timeout)
	case ModeFull:
		startPort := opts.StartPort
		if startPort == 0 {
			startPort = o.cfg.ScanStartPort
		}
		endPort := opts.EndPort
		if endPort == 0 {
			endPort = o.cfg.ScanEndPort
		}
		return p.Scan(ctx, startPort, endPort, concurrency, timeout)
	default:
		return nil, fmt.Errorf("unknown scan mode %q", opts.Mode)
	}
}

// processServer runs the sequential per-server pipeline: identify the
// service, register it, then record a first health check.
func (o *Orchestrator) processServer(ctx context.Context, srv domain.DiscoveredServer) (*domain.App, error) {
	ident := o.identify(ctx, srv)

	app, err := o.store.AddApp(ctx, srv.URL, srv.Port, ident.Name, ident.Category, ident.Description)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	result := o.checker.Check(ctx, app.URL)
	metrics.HealthChecksTotal.WithLabelValues(string(result.Status)).Inc()
	if err := o.store.RecordScan(ctx, app.URL, result.Status, result.ResponseTimeMs); err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}

	// Reflect what RecordScan persisted.
	app, err = o.store.GetApp(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}
	return app, nil
}

// identify names a discovered server. The external collaborator is asked
// first; on any failure the deterministic fallback table answers, so a
// scan never stalls on identification.
func (o *Orchestrator) identify(ctx context.Context, srv domain.DiscoveredServer) domain.Identification {
	title := srv.Title
	if o.identifier.Available(ctx) {
		fetchedTitle, content := o.fetch(ctx, srv.URL)
		if title == "" {
			title = fetchedTitle
		}
		ident, err := o.identifier.Identify(ctx, srv.URL, title, content)
		if err == nil {
			return *ident
		}
		if !errors.Is(err, collab.ErrDisabled) {
			o.log.Debug("identification collaborator failed, using fallback",
				logger.String("url", srv.URL),
				logger.Error(err))
		}
	}
	return o.table.Identify(srv.Port, title)
}

// CheckAllApps health-checks every registered App sequentially and
// persists each result. Per-app failures are isolated. Returns counts of
// apps observed online and offline (unknown counts toward neither).
func (o *Orchestrator) CheckAllApps(ctx context.Context) (online, offline int, err error) {
	o.hub.Emit(events.New(events.TypeHealthCheckStart, nil))

	apps, err := o.store.GetAllApps(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list apps: %w", err)
	}

	for _, app := range apps {
		if ctx.Err() != nil {
			break
		}
		result := o.checker.Check(ctx, app.URL)
		metrics.HealthChecksTotal.WithLabelValues(string(result.Status)).Inc()
		switch result.Status {
		case domain.StatusOnline:
			online++
		case domain.StatusOffline:
			offline++
		}
		if err := o.store.RecordScan(ctx, app.URL, result.Status, result.ResponseTimeMs); err != nil {
			o.log.Warn("health result not persisted",
				logger.String("url", app.URL),
				logger.Error(err))
			continue
		}
		o.hub.Emit(events.New(events.TypeHealthUpdate, map[string]any{
			"url":          app.URL,
			"status":       result.Status,
			"responseTime": result.ResponseTimeMs,
		}))
	}

	o.hub.Emit(events.New(events.TypeHealthCheckComplete, map[string]any{
		"online":  online,
		"offline": offline,
	}))
	o.log.Info("health sweep complete",
		logger.Int("online", online),
		logger.Int("offline", offline))
	return online, offline, nil
}

// CaptureAll refreshes screenshots of every online App. Per-app capture
// failures are counted and skipped; the sweep always completes.
func (o *Orchestrator) CaptureAll(ctx context.Context) (captured, failed int, err error) {
	o.hub.Emit(events.New(events.TypeScreenshotUpdateStart, nil))

	apps, err := o.store.GetOnlineApps(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list online apps: %w", err)
	}

	for _, app := range apps {
		if ctx.Err() != nil {
			break
		}
		capture, err := o.shooter.Capture(ctx, app.URL)
		if err != nil {
			if errors.Is(err, collab.ErrDisabled) {
				break
			}
			failed++
			metrics.ScreenshotCapturesTotal.WithLabelValues("error").Inc()
			o.log.Warn("capture failed",
				logger.String("url", app.URL),
				logger.Error(err))
			continue
		}
		if err := o.store.UpdateScreenshot(ctx, app.ID, capture.Image, capture.Thumbnail); err != nil {
			failed++
			metrics.ScreenshotCapturesTotal.WithLabelValues("error").Inc()
			o.log.Warn("capture not persisted",
				logger.String("id", app.ID),
				logger.Error(err))
			continue
		}
		captured++
		metrics.ScreenshotCapturesTotal.WithLabelValues("ok").Inc()
		o.hub.Emit(events.New(events.TypeScreenshotUpdated, map[string]any{
			"id":  app.ID,
			"url": app.URL,
		}))
	}

	o.hub.Emit(events.New(events.TypeScreenshotUpdateComplete, map[string]any{
		"captured": captured,
		"failed":   failed,
	}))
	return captured, failed, nil
}

// fetchPage grabs the target page so the identification collaborator has
// content to work with. Best-effort: any failure yields empty strings.
func (o *Orchestrator) fetchPage(ctx context.Context, url string) (string, string) {
	client := &http.Client{
		Timeout: o.cfg.ScanTimeout,
		Transport: &http.Transport{
			TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
			DisableKeepAlives: true,
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", ""
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", ""
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageContent))
	if err != nil {
		return "", ""
	}
	page := string(body)
	return pagemeta.Title(page), page
}
