package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TWeb79/appscout/internal/logger"
)

// Capture is one successful screenshot result. Thumbnail may be nil.
type Capture struct {
	Image     []byte
	Thumbnail []byte
}

// Screenshotter captures a page image for a URL. Failures are per-app
// and never abort a batch of captures.
type Screenshotter interface {
	Capture(ctx context.Context, url string) (*Capture, error)

	// Close releases resources held by the collaborator client. Called
	// once on process shutdown.
	Close()
}

// NewScreenshotter returns the HTTP-backed client, or a permanently
// failing one when no endpoint is configured.
func NewScreenshotter(endpoint string, timeout time.Duration, log logger.Logger) Screenshotter {
	if endpoint == "" {
		return disabledScreenshotter{}
	}
	return &httpScreenshotter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

type captureRequest struct {
	URL string `json:"url"`
}

// captureResponse mirrors the collaborator's wire contract. Image and
// Thumbnail are base64 in JSON, decoded transparently.
type captureResponse struct {
	Success      bool   `json:"success"`
	Image        []byte `json:"image,omitempty"`
	Thumbnail    []byte `json:"thumbnail,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

type httpScreenshotter struct {
	endpoint string
	client   *http.Client
	log      logger.Logger
}

func (c *httpScreenshotter) Capture(ctx context.Context, url string) (*Capture, error) {
	payload, err := json.Marshal(captureRequest{URL: url})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal capture request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build capture request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capture request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capture request returned status %d", resp.StatusCode)
	}

	var parsed captureResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("capture response unparsable: %w", err)
	}
	if !parsed.Success {
		if parsed.ErrorMessage == "" {
			parsed.ErrorMessage = "capture failed"
		}
		return nil, errors.New(parsed.ErrorMessage)
	}
	if len(parsed.Image) == 0 {
		return nil, errors.New("capture response missing image")
	}

	return &Capture{Image: parsed.Image, Thumbnail: parsed.Thumbnail}, nil
}

func (c *httpScreenshotter) Close() {
	c.client.CloseIdleConnections()
}

type disabledScreenshotter struct{}

func (disabledScreenshotter) Capture(context.Context, string) (*Capture, error) {
	return nil, ErrDisabled
}

func (disabledScreenshotter) Close() {}
