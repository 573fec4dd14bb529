// Package memory is an in-memory Store. It backs tests and serves as a
// degraded-mode registry when Redis is not configured; contents do not
// survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TWeb79/appscout/internal/domain"
	"github.com/TWeb79/appscout/internal/store"
)

// Store keeps everything in maps guarded by one mutex, which trivially
// provides the single-writer-per-url sequencing the contract requires.
type Store struct {
	mu       sync.RWMutex
	apps     map[string]*domain.App                // id -> App
	byURL    map[string]string                     // canonical url -> id
	history  map[string][]*domain.ScanHistoryEntry // id -> entries, newest first
	shots    map[string][]byte
	thumbs   map[string][]byte
	settings map[string]string
}

var _ store.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		apps:     make(map[string]*domain.App),
		byURL:    make(map[string]string),
		history:  make(map[string][]*domain.ScanHistoryEntry),
		shots:    make(map[string][]byte),
		thumbs:   make(map[string][]byte),
		settings: make(map[string]string),
	}
}

func (s *Store) AddApp(_ context.Context, rawURL string, port int, name, category, description string) (*domain.App, error) {
	url, urlPort, err := domain.CanonicalURL(rawURL)
	if err != nil {
		return nil, err
	}
	if port == 0 {
		port = urlPort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byURL[url]; ok {
		app := s.apps[id]
		if app.Name == "" && name != "" {
			app.Name = name
		}
		if app.Category == "" && category != "" {
			app.Category = category
		}
		if app.Description == "" && description != "" {
			app.Description = description
		}
		return copyApp(app), nil
	}

	app := &domain.App{
		ID:           uuid.NewString(),
		URL:          url,
		Port:         port,
		Name:         name,
		Category:     category,
		Description:  description,
		Status:       domain.StatusUnknown,
		DiscoveredAt: time.Now(),
	}
	s.apps[app.ID] = app
	s.byURL[url] = app.ID
	return copyApp(app), nil
}

func (s *Store) RecordScan(_ context.Context, rawURL string, status domain.Status, responseTimeMs int64) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	url, _, err := domain.CanonicalURL(rawURL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byURL[url]
	if !ok {
		return store.ErrNotFound
	}
	app := s.apps[id]

	now := time.Now()
	app.Status = status
	if now.After(app.LastCheckedAt) {
		app.LastCheckedAt = now
	}

	entry := &domain.ScanHistoryEntry{
		ID:             uuid.NewString(),
		AppID:          id,
		Status:         status,
		ResponseTimeMs: responseTimeMs,
		CheckedAt:      now,
	}
	entries := append([]*domain.ScanHistoryEntry{entry}, s.history[id]...)
	if len(entries) > domain.HistoryCap {
		entries = entries[:domain.HistoryCap]
	}
	s.history[id] = entries
	return nil
}

func (s *Store) UpdateScreenshot(_ context.Context, appID string, image, thumbnail []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return store.ErrNotFound
	}
	s.shots[appID] = image
	if thumbnail != nil {
		s.thumbs[appID] = thumbnail
	}
	app.HasScreenshot = true
	return nil
}

func (s *Store) GetScreenshot(_ context.Context, appID string) ([]byte, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	image, ok := s.shots[appID]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	return image, s.thumbs[appID], nil
}

func (s *Store) RemoveApp(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.apps, id)
	delete(s.byURL, app.URL)
	delete(s.history, id)
	delete(s.shots, id)
	delete(s.thumbs, id)
	return nil
}

func (s *Store) UpdateNotes(_ context.Context, id, notes string) (*domain.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	app.Notes = notes
	return copyApp(app), nil
}

func (s *Store) GetApp(_ context.Context, id string) (*domain.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyApp(app), nil
}

func (s *Store) GetAppByURL(_ context.Context, rawURL string) (*domain.App, error) {
	url, _, err := domain.CanonicalURL(rawURL)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byURL[url]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyApp(s.apps[id]), nil
}

func (s *Store) GetAllApps(_ context.Context) ([]*domain.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps := make([]*domain.App, 0, len(s.apps))
	for _, app := range s.apps {
		apps = append(apps, copyApp(app))
	}
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].DiscoveredAt.After(apps[j].DiscoveredAt)
	})
	return apps, nil
}

func (s *Store) GetOnlineApps(ctx context.Context) ([]*domain.App, error) {
	apps, err := s.GetAllApps(ctx)
	if err != nil {
		return nil, err
	}
	online := apps[:0]
	for _, app := range apps {
		if app.Status == domain.StatusOnline {
			online = append(online, app)
		}
	}
	return online, nil
}

func (s *Store) GetScanHistory(_ context.Context, appID string) ([]*domain.ScanHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.apps[appID]; !ok {
		return nil, store.ErrNotFound
	}
	entries := s.history[appID]
	out := make([]*domain.ScanHistoryEntry, len(entries))
	for i, e := range entries {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

func (s *Store) GetStats(ctx context.Context) (*domain.Stats, error) {
	apps, err := s.GetAllApps(ctx)
	if err != nil {
		return nil, err
	}
	stats := &domain.Stats{Total: len(apps)}
	for _, app := range apps {
		switch app.Status {
		case domain.StatusOnline:
			stats.Online++
		case domain.StatusOffline:
			stats.Offline++
		default:
			stats.Unknown++
		}
	}
	return stats, nil
}

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.settings[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return val, nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

// copyApp shields internal state from callers mutating returned Apps.
func copyApp(app *domain.App) *domain.App {
	cp := *app
	return &cp
}
