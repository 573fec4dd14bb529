// Package redis is the production Store backed by Redis: App records as
// JSON values indexed by a url key, scan history as capped lists,
// screenshots as binary values.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/TWeb79/appscout/internal/domain"
	"github.com/TWeb79/appscout/internal/store"
)

// Store handles Redis operations for Apps, history, screenshots and settings.
type Store struct {
	client *redis.Client

	// writeMu serializes all writes. The engine's consistency model
	// relies on single-writer-per-url sequencing rather than optimistic
	// transactions; one process owns this registry.
	writeMu sync.Mutex
}

var _ store.Store = (*Store)(nil)

// NewStore creates a new Redis store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// AddApp registers an App, deduplicating by canonical url.
func (s *Store) AddApp(ctx context.Context, rawURL string, port int, name, category, description string) (*domain.App, error) {
	url, urlPort, err := domain.CanonicalURL(rawURL)
	if err != nil {
		return nil, err
	}
	if port == 0 {
		port = urlPort
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.getAppByURL(ctx, url)
	switch {
	case err == nil:
		// Duplicate url: backfill only currently-empty fields.
		changed := false
		if existing.Name == "" && name != "" {
			existing.Name = name
			changed = true
		}
		if existing.Category == "" && category != "" {
			existing.Category = category
			changed = true
		}
		if existing.Description == "" && description != "" {
			existing.Description = description
			changed = true
		}
		if changed {
			if err := s.saveApp(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
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

	data, err := json.Marshal(app)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal app: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, AppKey(app.ID), data, 0)
	pipe.Set(ctx, URLKey(url), app.ID, 0)
	pipe.SAdd(ctx, AllAppsKey(), app.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to save app: %w", err)
	}

	return app, nil
}

// RecordScan appends a history entry and updates the App's status and
// LastCheckedAt in one pipeline, so no observer sees one without the other.
func (s *Store) RecordScan(ctx context.Context, rawURL string, status domain.Status, responseTimeMs int64) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	url, _, err := domain.CanonicalURL(rawURL)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	app, err := s.getAppByURL(ctx, url)
	if err != nil {
		return err
	}

	now := time.Now()
	app.Status = status
	if now.After(app.LastCheckedAt) {
		app.LastCheckedAt = now
	}

	entry := &domain.ScanHistoryEntry{
		ID:             uuid.NewString(),
		AppID:          app.ID,
		Status:         status,
		ResponseTimeMs: responseTimeMs,
		CheckedAt:      now,
	}

	appData, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal app: %w", err)
	}
	entryData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, AppKey(app.ID), appData, 0)
	pipe.LPush(ctx, HistoryKey(app.ID), entryData)
	pipe.LTrim(ctx, HistoryKey(app.ID), 0, int64(domain.HistoryCap-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}

	return nil
}

// UpdateScreenshot stores image bytes for an App. The thumbnail may be nil.
func (s *Store) UpdateScreenshot(ctx context.Context, appID string, image, thumbnail []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	app, err := s.getApp(ctx, appID)
	if err != nil {
		return err
	}
	app.HasScreenshot = true

	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal app: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, ShotKey(appID), image, 0)
	if thumbnail != nil {
		pipe.Set(ctx, ThumbKey(appID), thumbnail, 0)
	}
	pipe.Set(ctx, AppKey(appID), data, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	return nil
}

// GetScreenshot returns the stored screenshot and thumbnail bytes.
func (s *Store) GetScreenshot(ctx context.Context, appID string) ([]byte, []byte, error) {
	image, err := s.client.Get(ctx, ShotKey(appID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, store.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get screenshot: %w", err)
	}
	thumbnail, err := s.client.Get(ctx, ThumbKey(appID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, nil, fmt.Errorf("failed to get thumbnail: %w", err)
	}
	return image, thumbnail, nil
}

// RemoveApp deletes the App and everything that cascades from it.
func (s *Store) RemoveApp(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	app, err := s.getApp(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, AppKey(id))
	pipe.Del(ctx, URLKey(app.URL))
	pipe.Del(ctx, HistoryKey(id))
	pipe.Del(ctx, ShotKey(id))
	pipe.Del(ctx, ThumbKey(id))
	pipe.SRem(ctx, AllAppsKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove app: %w", err)
	}
	return nil
}

// UpdateNotes replaces the App's notes.
func (s *Store) UpdateNotes(ctx context.Context, id, notes string) (*domain.App, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	app, err := s.getApp(ctx, id)
	if err != nil {
		return nil, err
	}
	app.Notes = notes
	if err := s.saveApp(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// GetApp retrieves an App by id.
func (s *Store) GetApp(ctx context.Context, id string) (*domain.App, error) {
	return s.getApp(ctx, id)
}

// GetAppByURL retrieves an App by canonical url.
func (s *Store) GetAppByURL(ctx context.Context, rawURL string) (*domain.App, error) {
	url, _, err := domain.CanonicalURL(rawURL)
	if err != nil {
		return nil, err
	}
	return s.getAppByURL(ctx, url)
}

// GetAllApps retrieves all Apps, most recently discovered first.
func (s *Store) GetAllApps(ctx context.Context) ([]*domain.App, error) {
	ids, err := s.client.SMembers(ctx, AllAppsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get app ids: %w", err)
	}

	apps := make([]*domain.App, 0, len(ids))
	for _, id := range ids {
		app, err := s.getApp(ctx, id)
		if err != nil {
			// Skip apps that couldn't be retrieved
			continue
		}
		apps = append(apps, app)
	}

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].DiscoveredAt.After(apps[j].DiscoveredAt)
	})
	return apps, nil
}

// GetOnlineApps retrieves Apps whose current status is online.
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

// GetScanHistory returns up to domain.HistoryCap entries, newest first.
func (s *Store) GetScanHistory(ctx context.Context, appID string) ([]*domain.ScanHistoryEntry, error) {
	if _, err := s.getApp(ctx, appID); err != nil {
		return nil, err
	}

	raw, err := s.client.LRange(ctx, HistoryKey(appID), 0, int64(domain.HistoryCap-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}

	entries := make([]*domain.ScanHistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.ScanHistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// GetStats aggregates App counts by status.
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

// GetSetting returns a persisted setting value.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, SettingKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return val, nil
}

// SetSetting persists a setting value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.client.Set(ctx, SettingKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// internal helpers

func (s *Store) getApp(ctx context.Context, id string) (*domain.App, error) {
	data, err := s.client.Get(ctx, AppKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}

	var app domain.App
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("failed to unmarshal app: %w", err)
	}
	return &app, nil
}

// getAppByURL expects an already-canonical url.
func (s *Store) getAppByURL(ctx context.Context, url string) (*domain.App, error) {
	id, err := s.client.Get(ctx, URLKey(url)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve url index: %w", err)
	}
	return s.getApp(ctx, id)
}

func (s *Store) saveApp(ctx context.Context, app *domain.App) error {
	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal app: %w", err)
	}
	if err := s.client.Set(ctx, AppKey(app.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save app: %w", err)
	}
	return nil
}
