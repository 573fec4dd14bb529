package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TWeb79/appscout/internal/events"
)

func TestEventsStream(t *testing.T) {
	d, _ := newTestDeps(t)
	ts := httptest.NewServer(Events(d))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// Give the hub a beat to register the observer before emitting.
	waitForObserver(t, d.Hub, 1)

	d.Hub.Emit(events.New(events.TypeScanStart, map[string]any{"mode": "quick"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var ev struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("invalid JSON frame: %v", err)
	}
	if ev.Type != events.TypeScanStart {
		t.Errorf("Type = %q, want scan_start", ev.Type)
	}
	if ev.Data["mode"] != "quick" {
		t.Errorf("mode = %v, want quick", ev.Data["mode"])
	}
}

func TestEventsObserverRemovedOnDisconnect(t *testing.T) {
	d, _ := newTestDeps(t)
	ts := httptest.NewServer(Events(d))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitForObserver(t, d.Hub, 1)

	_ = conn.Close()
	waitForObserver(t, d.Hub, 0)
}

func waitForObserver(t *testing.T, hub *events.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ObserverCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("observer count never reached %d", want)
}
