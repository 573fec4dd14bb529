package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/TWeb79/appscout/internal/domain"
	"github.com/TWeb79/appscout/internal/store"
)

func TestAddAppIsIdempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first, err := s.AddApp(ctx, "http://localhost:3000", 3000, "", "", "")
	if err != nil {
		t.Fatalf("AddApp() returned error: %v", err)
	}

	second, err := s.AddApp(ctx, "http://localhost:3000", 3000, "", "", "")
	if err != nil {
		t.Fatalf("AddApp() second call returned error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("duplicate url created a second app: %s vs %s", first.ID, second.ID)
	}
	if !first.DiscoveredAt.Equal(second.DiscoveredAt) {
		t.Error("duplicate AddApp reset DiscoveredAt")
	}

	apps, _ := s.GetAllApps(ctx)
	if len(apps) != 1 {
		t.Errorf("GetAllApps() = %d apps, want 1", len(apps))
	}
}

func TestAddAppDedupesNonCanonicalURL(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first, _ := s.AddApp(ctx, "http://localhost:3000", 3000, "", "", "")
	second, err := s.AddApp(ctx, "HTTP://Localhost:3000/", 0, "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Error("non-canonical spelling of the same url created a second app")
	}
}

func TestAddAppBackfillsButNeverOverwrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.AddApp(ctx, "http://localhost:3000", 3000, "", "", ""); err != nil {
		t.Fatal(err)
	}

	// Backfill into empty fields.
	app, err := s.AddApp(ctx, "http://localhost:3000", 3000, "Grafana", "Monitoring", "dashboards")
	if err != nil {
		t.Fatal(err)
	}
	if app.Name != "Grafana" || app.Category != "Monitoring" || app.Description != "dashboards" {
		t.Errorf("backfill failed: %+v", app)
	}

	// Populated fields must survive any later value, including empty.
	app, err = s.AddApp(ctx, "http://localhost:3000", 3000, "Imposter", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if app.Name != "Grafana" {
		t.Errorf("Name = %q, populated field was overwritten", app.Name)
	}
	if app.Category != "Monitoring" {
		t.Errorf("Category = %q, populated field was overwritten", app.Category)
	}
}

func TestRecordScanUpdatesStatusAndHistory(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	added, _ := s.AddApp(ctx, "http://localhost:3000", 3000, "", "", "")
	if added.Status != domain.StatusUnknown {
		t.Fatalf("new app Status = %q, want unknown", added.Status)
	}

	if err := s.RecordScan(ctx, "http://localhost:3000", domain.StatusOnline, 120); err != nil {
		t.Fatalf("RecordScan() returned error: %v", err)
	}

	app, err := s.GetApp(ctx, added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if app.Status != domain.StatusOnline {
		t.Errorf("Status = %q, want online", app.Status)
	}
	if app.LastCheckedAt.IsZero() {
		t.Error("LastCheckedAt not set by RecordScan")
	}

	history, err := s.GetScanHistory(ctx, added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].ResponseTimeMs != 120 {
		t.Errorf("ResponseTimeMs = %d, want 120", history[0].ResponseTimeMs)
	}
	if history[0].AppID != added.ID {
		t.Errorf("AppID = %q, want %q", history[0].AppID, added.ID)
	}
}

func TestRecordScanUnknownURL(t *testing.T) {
	s := NewStore()
	err := s.RecordScan(context.Background(), "http://localhost:4444", domain.StatusOnline, 10)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("RecordScan() error = %v, want ErrNotFound", err)
	}
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	added, _ := s.AddApp(ctx, "http://localhost:3000", 3000, "", "", "")

	for i := 0; i < domain.HistoryCap+1; i++ {
		if err := s.RecordScan(ctx, "http://localhost:3000", domain.StatusOnline, int64(i)); err != nil {
			t.Fatal(err)
		}
	}

	history, err := s.GetScanHistory(ctx, added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != domain.HistoryCap {
		t.Fatalf("history length = %d, want %d", len(history), domain.HistoryCap)
	}
	// Newest first: the 51st write (response time 50) leads, the first
	// write (response time 0) was evicted.
	if history[0].ResponseTimeMs != int64(domain.HistoryCap) {
		t.Errorf("newest entry ResponseTimeMs = %d, want %d", history[0].ResponseTimeMs, domain.HistoryCap)
	}
	if history[len(history)-1].ResponseTimeMs != 1 {
		t.Errorf("oldest entry ResponseTimeMs = %d, want 1 (entry 0 evicted)", history[len(history)-1].ResponseTimeMs)
	}
}

func TestRemoveAppCascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	added, _ := s.AddApp(ctx, "http://localhost:3000", 3000, "", "", "")
	_ = s.RecordScan(ctx, "http://localhost:3000", domain.StatusOnline, 5)
	_ = s.UpdateScreenshot(ctx, added.ID, []byte("png"), nil)

	if err := s.RemoveApp(ctx, added.ID); err != nil {
		t.Fatalf("RemoveApp() returned error: %v", err)
	}

	if _, err := s.GetApp(ctx, added.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetApp() after remove = %v, want ErrNotFound", err)
	}
	if _, err := s.GetScanHistory(ctx, added.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetScanHistory() after remove = %v, want ErrNotFound", err)
	}
	if _, _, err := s.GetScreenshot(ctx, added.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetScreenshot() after remove = %v, want ErrNotFound", err)
	}
	if _, err := s.GetAppByURL(ctx, "http://localhost:3000"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetAppByURL() after remove = %v, want ErrNotFound", err)
	}

	// The url must be reusable for a fresh registration.
	again, err := s.AddApp(ctx, "http://localhost:3000", 3000, "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID == added.ID {
		t.Error("re-registration reused the deleted app id")
	}
}

func TestGetStats(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	for i, status := range []domain.Status{domain.StatusOnline, domain.StatusOnline, domain.StatusOffline} {
		url := fmt.Sprintf("http://localhost:%d", 3000+i)
		if _, err := s.AddApp(ctx, url, 3000+i, "", "", ""); err != nil {
			t.Fatal(err)
		}
		if err := s.RecordScan(ctx, url, status, 10); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Stats{Total: 3, Online: 2, Offline: 1, Unknown: 0}
	if *stats != want {
		t.Errorf("GetStats() = %+v, want %+v", *stats, want)
	}
}

func TestGetOnlineApps(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, _ = s.AddApp(ctx, "http://localhost:3000", 3000, "", "", "")
	_, _ = s.AddApp(ctx, "http://localhost:3001", 3001, "", "", "")
	_ = s.RecordScan(ctx, "http://localhost:3001", domain.StatusOnline, 10)

	online, err := s.GetOnlineApps(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(online) != 1 {
		t.Fatalf("GetOnlineApps() = %d apps, want 1", len(online))
	}
	if online[0].Port != 3001 {
		t.Errorf("online app port = %d, want 3001", online[0].Port)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.GetSetting(ctx, "target_host"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetSetting(unset) = %v, want ErrNotFound", err)
	}
	if err := s.SetSetting(ctx, "target_host", "127.0.0.1"); err != nil {
		t.Fatal(err)
	}
	val, err := s.GetSetting(ctx, "target_host")
	if err != nil {
		t.Fatal(err)
	}
	if val != "127.0.0.1" {
		t.Errorf("GetSetting() = %q, want 127.0.0.1", val)
	}
}

func TestUpdateNotes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	added, _ := s.AddApp(ctx, "http://localhost:3000", 3000, "", "", "")
	app, err := s.UpdateNotes(ctx, added.ID, "my dev server")
	if err != nil {
		t.Fatal(err)
	}
	if app.Notes != "my dev server" {
		t.Errorf("Notes = %q, want my dev server", app.Notes)
	}
	if _, err := s.UpdateNotes(ctx, "nope", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateNotes(unknown) = %v, want ErrNotFound", err)
	}
}
