// Package collab holds the clients for the external collaborators: the
// identification service naming discovered apps and the screenshot
// service capturing their pages. Both are treated as unreliable; every
// failure is isolated to the app being processed.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TWeb79/appscout/internal/domain"
	"github.com/TWeb79/appscout/internal/logger"
)

// ErrDisabled is returned by collaborator clients that were never
// configured. Callers treat it like any other collaborator failure.
var ErrDisabled = errors.New("collaborator not configured")

// Identifier names a discovered service from its URL and page signal.
// Implementations may be arbitrarily slow or wrong; the orchestrator
// always has a deterministic fallback.
type Identifier interface {
	// Identify returns a name/category/description for the service, or
	// an error when the collaborator is unavailable or its response is
	// unusable. Errors are never surfaced past the orchestrator.
	Identify(ctx context.Context, url, pageTitle, pageContent string) (*domain.Identification, error)

	// Available reports whether the collaborator currently answers.
	Available(ctx context.Context) bool
}

// NewIdentifier returns the HTTP-backed client, or a permanently
// unavailable one when no endpoint is configured.
func NewIdentifier(endpoint string, timeout time.Duration, log logger.Logger) Identifier {
	if endpoint == "" {
		return disabledIdentifier{}
	}
	return &httpIdentifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

type identifyRequest struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

type identifyResponse struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type httpIdentifier struct {
	endpoint string
	client   *http.Client
	log      logger.Logger
}

func (c *httpIdentifier) Identify(ctx context.Context, url, pageTitle, pageContent string) (*domain.Identification, error) {
	payload, err := json.Marshal(identifyRequest{URL: url, Title: pageTitle, Content: pageContent})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build identify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identify request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identify request returned status %d", resp.StatusCode)
	}

	var parsed identifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("identify response unparsable: %w", err)
	}
	if strings.TrimSpace(parsed.Name) == "" {
		return nil, errors.New("identify response missing name")
	}

	return &domain.Identification{
		Name:        strings.TrimSpace(parsed.Name),
		Category:    strings.TrimSpace(parsed.Category),
		Description: strings.TrimSpace(parsed.Description),
	}, nil
}

func (c *httpIdentifier) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, http.NoBody)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	// Any response counts: the collaborator process is up, even if it
	// dislikes a HEAD on its identify route.
	return true
}

type disabledIdentifier struct{}

func (disabledIdentifier) Identify(context.Context, string, string, string) (*domain.Identification, error) {
	return nil, ErrDisabled
}

func (disabledIdentifier) Available(context.Context) bool { return false }
