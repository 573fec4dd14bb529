package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want %q", cfg.ListenPort, ":8080")
	}
	if cfg.TargetHost != "localhost" {
		t.Errorf("TargetHost = %q, want %q", cfg.TargetHost, "localhost")
	}
	if cfg.ScanStartPort != 3000 || cfg.ScanEndPort != 9999 {
		t.Errorf("scan range = %d-%d, want 3000-9999", cfg.ScanStartPort, cfg.ScanEndPort)
	}
	if cfg.ScanPause != 500*time.Millisecond {
		t.Errorf("ScanPause = %v, want 500ms", cfg.ScanPause)
	}
	if len(cfg.QuickScanPorts) == 0 {
		t.Error("QuickScanPorts is empty")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCOUT_TARGET_HOST", "127.0.0.1")
	t.Setenv("SCOUT_SCAN_CONCURRENCY", "10")
	t.Setenv("SCOUT_HEALTH_INTERVAL", "30s")
	t.Setenv("SCOUT_QUICK_SCAN_PORTS", "3000, 8080,9000")

	cfg := Load()

	if cfg.TargetHost != "127.0.0.1" {
		t.Errorf("TargetHost = %q, want 127.0.0.1", cfg.TargetHost)
	}
	if cfg.ScanConcurrency != 10 {
		t.Errorf("ScanConcurrency = %d, want 10", cfg.ScanConcurrency)
	}
	if cfg.HealthInterval != 30*time.Second {
		t.Errorf("HealthInterval = %v, want 30s", cfg.HealthInterval)
	}
	want := []int{3000, 8080, 9000}
	if len(cfg.QuickScanPorts) != len(want) {
		t.Fatalf("QuickScanPorts = %v, want %v", cfg.QuickScanPorts, want)
	}
	for i, p := range want {
		if cfg.QuickScanPorts[i] != p {
			t.Errorf("QuickScanPorts[%d] = %d, want %d", i, cfg.QuickScanPorts[i], p)
		}
	}
}

func TestLoadPanicsOnInvalidRange(t *testing.T) {
	t.Setenv("SCOUT_SCAN_START_PORT", "9000")
	t.Setenv("SCOUT_SCAN_END_PORT", "3000")

	defer func() {
		if recover() == nil {
			t.Error("Load() did not panic on inverted port range")
		}
	}()
	Load()
}

func TestLoadPanicsOnInvalidDuration(t *testing.T) {
	t.Setenv("SCOUT_HEALTH_INTERVAL", "not-a-duration")

	defer func() {
		if recover() == nil {
			t.Error("Load() did not panic on invalid duration")
		}
	}()
	Load()
}
