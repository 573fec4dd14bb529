package domain

import "time"

// App represents the canonical runtime truth of a discovered local web service.
//
// It is NOT tied to Redis, the port probe or any other source.
// All inputs (scans, manual registration, health checks, identification)
// are merged into this structure.
//
// An App is considered uniquely identified by its URL.
type App struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier (UUID).
	ID string `json:"id"`

	// URL is the canonical URL of the service, including scheme, host and port.
	// Example: http://localhost:3000
	URL string `json:"url"`

	// Port is the TCP port the service was discovered on.
	Port int `json:"port"`

	// ─────────────────────────────
	// Functional description
	// (backfilled by identification, never overwritten once set)
	// ─────────────────────────────

	// Name is the human-readable label of the service.
	// Empty until identified.
	Name string `json:"name,omitempty"`

	// Category groups services of the same kind.
	// Example: "Development", "Database UI"
	Category string `json:"category,omitempty"`

	// Description is an optional one-line summary from identification.
	Description string `json:"description,omitempty"`

	// Notes is free text, editable by the user.
	Notes string `json:"notes,omitempty"`

	// ─────────────────────────────
	// Liveness
	// ─────────────────────────────

	// Status is the last known reachability classification.
	Status Status `json:"status"`

	// ─────────────────────────────
	// Observation timestamps
	// ─────────────────────────────

	// DiscoveredAt is set once, when the App is first registered.
	// It never changes afterwards.
	DiscoveredAt time.Time `json:"discovered_at"`

	// LastCheckedAt is updated by every health check.
	// It only moves forward in time.
	LastCheckedAt time.Time `json:"last_checked_at,omitempty"`

	// HasScreenshot reports whether a captured page image is stored
	// for this App. The image bytes themselves are owned by the Store
	// and fetched separately.
	HasScreenshot bool `json:"has_screenshot,omitempty"`
}

// ScanHistoryEntry is one past status classification of an App.
// History is append-only, newest first, capped per App.
type ScanHistoryEntry struct {
	// ID is the unique identifier of the entry (UUID).
	ID string `json:"id"`

	// AppID references the owning App. Deleting the App cascades
	// deletion of its history, never the reverse.
	AppID string `json:"app_id"`

	// Status is the classification recorded by the check.
	Status Status `json:"status"`

	// ResponseTimeMs is the observed round-trip time in milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// CheckedAt is when the check ran.
	CheckedAt time.Time `json:"checked_at"`
}

// HistoryCap is the maximum number of history entries retained per App.
// Older entries are evicted and are not individually queryable afterwards.
const HistoryCap = 50

// Stats aggregates App counts by status.
type Stats struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
	Unknown int `json:"unknown"`
}
