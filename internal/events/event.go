// Package events is the fan-out protocol tying scans to observers.
// Delivery is best-effort: no queueing, no replay, no acknowledgment.
// An observer connected only after an event fired never receives it.
package events

import (
	"encoding/json"
	"time"
)

// Event is one typed lifecycle message. The Type discriminates the
// variant; Data carries the variant's payload.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New builds an Event stamped with the current time.
func New(eventType string, data map[string]any) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now()}
}

// Marshal renders the event as JSON for the wire.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Event type constants. One constant per lifecycle variant.
const (
	TypeScanStart    = "scan_start"    // {mode}
	TypeAppDiscovered = "app_discovered" // {app}
	TypeScanComplete = "scan_complete" // {mode, found}
	TypeScanError    = "scan_error"    // {error}

	TypeHealthCheckStart    = "health_check_start"
	TypeHealthCheckComplete = "health_check_complete" // {online, offline}
	TypeHealthUpdate        = "health_update"         // {url, status, responseTime}
	TypePeriodicHealthCheck = "periodic_health_check" // {updated}

	TypeScreenshotUpdateStart    = "screenshot_update_start"
	TypeScreenshotUpdated        = "screenshot_updated"         // {app}
	TypeScreenshotUpdateComplete = "screenshot_update_complete" // {captured, failed}

	TypeAppAdded   = "app_added"   // {app}
	TypeAppUpdated = "app_updated" // {app}
	TypeAppRemoved = "app_removed" // {id}
)
