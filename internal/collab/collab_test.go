package collab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TWeb79/appscout/internal/logger"
)

func TestIdentifySuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req identifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("collaborator received unparsable request: %v", err)
		}
		if req.URL != "http://localhost:3000" {
			t.Errorf("request url = %q", req.URL)
		}
		_ = json.NewEncoder(w).Encode(identifyResponse{
			Name:     " Grafana ",
			Category: "Monitoring",
		})
	}))
	defer ts.Close()

	id := NewIdentifier(ts.URL, time.Second, logger.Nop())
	got, err := id.Identify(context.Background(), "http://localhost:3000", "Grafana", "<html>")
	if err != nil {
		t.Fatalf("Identify() returned error: %v", err)
	}
	if got.Name != "Grafana" {
		t.Errorf("Name = %q, want Grafana (trimmed)", got.Name)
	}
	if got.Category != "Monitoring" {
		t.Errorf("Category = %q, want Monitoring", got.Category)
	}
}

func TestIdentifyMalformedResponseIsError(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "not json", body: "oops", code: http.StatusOK},
		{name: "missing name", body: `{"category":"x"}`, code: http.StatusOK},
		{name: "server error", body: `{}`, code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			id := NewIdentifier(ts.URL, time.Second, logger.Nop())
			if _, err := id.Identify(context.Background(), "http://localhost:3000", "", ""); err == nil {
				t.Error("Identify() = nil error, want failure")
			}
		})
	}
}

func TestIdentifierDisabled(t *testing.T) {
	id := NewIdentifier("", time.Second, logger.Nop())
	if _, err := id.Identify(context.Background(), "http://localhost:3000", "", ""); !errors.Is(err, ErrDisabled) {
		t.Errorf("Identify() error = %v, want ErrDisabled", err)
	}
	if id.Available(context.Background()) {
		t.Error("Available() = true for disabled identifier")
	}
}

func TestIdentifierAvailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed) // any response counts
	}))
	id := NewIdentifier(ts.URL, time.Second, logger.Nop())
	if !id.Available(context.Background()) {
		t.Error("Available() = false, want true while server answers")
	}
	ts.Close()
	if id.Available(context.Background()) {
		t.Error("Available() = true after server shutdown")
	}
}

func TestCaptureSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(captureResponse{
			Success:   true,
			Image:     []byte("png-bytes"),
			Thumbnail: []byte("thumb"),
		})
	}))
	defer ts.Close()

	sc := NewScreenshotter(ts.URL, time.Second, logger.Nop())
	defer sc.Close()

	capture, err := sc.Capture(context.Background(), "http://localhost:3000")
	if err != nil {
		t.Fatalf("Capture() returned error: %v", err)
	}
	if string(capture.Image) != "png-bytes" {
		t.Errorf("Image = %q", capture.Image)
	}
	if string(capture.Thumbnail) != "thumb" {
		t.Errorf("Thumbnail = %q", capture.Thumbnail)
	}
}

func TestCaptureReportedFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(captureResponse{Success: false, ErrorMessage: "page timed out"})
	}))
	defer ts.Close()

	sc := NewScreenshotter(ts.URL, time.Second, logger.Nop())
	_, err := sc.Capture(context.Background(), "http://localhost:3000")
	if err == nil || err.Error() != "page timed out" {
		t.Errorf("Capture() error = %v, want collaborator message", err)
	}
}

func TestScreenshotterDisabled(t *testing.T) {
	sc := NewScreenshotter("", time.Second, logger.Nop())
	if _, err := sc.Capture(context.Background(), "http://localhost:3000"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Capture() error = %v, want ErrDisabled", err)
	}
}
