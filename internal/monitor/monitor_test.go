package monitor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TWeb79/appscout/internal/classify"
	"github.com/TWeb79/appscout/internal/domain"
	"github.com/TWeb79/appscout/internal/logger"
)

func newTestMonitor(table *classify.Table) *Monitor {
	if table == nil {
		table = classify.Default()
	}
	return New(table, time.Second, logger.Nop())
}

// garbageServer listens and answers every connection with bytes that are
// not valid HTTP, producing a transport error that is neither a refused
// connection nor a timeout.
func garbageServer(t *testing.T) (host string, port int) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			_, _ = conn.Write([]byte("\x00\x01\x02 not http at all\r\n"))
			_ = conn.Close()
		}
	}()
	addr := l.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestCheckRefusedConnectionIsOffline(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	m := newTestMonitor(nil)
	res := m.Check(context.Background(), fmt.Sprintf("http://127.0.0.1:%d", port))
	if res.Status != domain.StatusOffline {
		t.Errorf("Status = %q, want offline", res.Status)
	}
	if res.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", res.StatusCode)
	}
}

func TestCheckErrorResponsesAreOnline(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusUnauthorized} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			m := newTestMonitor(nil)
			res := m.Check(context.Background(), ts.URL)
			if res.Status != domain.StatusOnline {
				t.Errorf("Status = %q, want online (HTTP %d is a reachability signal)", res.Status, code)
			}
			if res.StatusCode != code {
				t.Errorf("StatusCode = %d, want %d", res.StatusCode, code)
			}
			if res.ResponseTimeMs < 0 {
				t.Errorf("ResponseTimeMs = %d, want >= 0", res.ResponseTimeMs)
			}
		})
	}
}

func TestCheckAmbiguousErrorOnNonHTTPPort(t *testing.T) {
	host, port := garbageServer(t)
	url := fmt.Sprintf("http://%s:%d", host, port)

	// Port registered as commonly non-HTTP: ambiguous errors are unknown.
	m := newTestMonitor(classify.NewTable(nil, []int{port}))
	if res := m.Check(context.Background(), url); res.Status != domain.StatusUnknown {
		t.Errorf("Status = %q, want unknown for listed port", res.Status)
	}

	// Same error on an unlisted port is offline.
	m = newTestMonitor(classify.NewTable(nil, nil))
	if res := m.Check(context.Background(), url); res.Status != domain.StatusOffline {
		t.Errorf("Status = %q, want offline for unlisted port", res.Status)
	}
}

func TestCheckExtractsTitleAndMeta(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head>
			<title>Grafana - Home</title>
			<meta name="application-name" content="Grafana">
			<meta content="Observability" name="description">
		</head></html>`)
	}))
	defer ts.Close()

	m := newTestMonitor(nil)
	res := m.Check(context.Background(), ts.URL)
	if res.Title != "Grafana - Home" {
		t.Errorf("Title = %q, want Grafana - Home", res.Title)
	}
	if res.Meta == nil {
		t.Fatal("Meta = nil, want extracted metadata")
	}
	if res.Meta.AppName != "Grafana" {
		t.Errorf("Meta.AppName = %q, want Grafana", res.Meta.AppName)
	}
	if res.Meta.Description != "Observability" {
		t.Errorf("Meta.Description = %q, want Observability", res.Meta.Description)
	}
}

func TestCheckReportsRedirectWithoutFollowing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	defer ts.Close()

	m := newTestMonitor(nil)
	res := m.Check(context.Background(), ts.URL)
	if res.Status != domain.StatusOnline {
		t.Errorf("Status = %q, want online", res.Status)
	}
	if res.StatusCode != http.StatusFound {
		t.Errorf("StatusCode = %d, want 302 (redirects are not followed)", res.StatusCode)
	}
	if res.RedirectURL != "/login" {
		t.Errorf("RedirectURL = %q, want /login", res.RedirectURL)
	}
}

func TestCheckAllPreservesInputOrder(t *testing.T) {
	online := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer online.Close()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	refusedURL := fmt.Sprintf("http://127.0.0.1:%d", l.Addr().(*net.TCPAddr).Port)
	_ = l.Close()

	urls := []string{refusedURL, online.URL, refusedURL}
	m := newTestMonitor(nil)
	results := m.CheckAll(context.Background(), urls)

	if len(results) != len(urls) {
		t.Fatalf("CheckAll() returned %d results, want %d", len(results), len(urls))
	}
	wantStatus := []domain.Status{domain.StatusOffline, domain.StatusOnline, domain.StatusOffline}
	for i, res := range results {
		if res.URL != urls[i] {
			t.Errorf("results[%d].URL = %q, want %q", i, res.URL, urls[i])
		}
		if res.Status != wantStatus[i] {
			t.Errorf("results[%d].Status = %q, want %q", i, res.Status, wantStatus[i])
		}
	}
}
