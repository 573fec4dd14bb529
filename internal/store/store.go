// Package store defines the persistence contract for Apps, their scan
// history, screenshots and settings. Implementations live in subpackages;
// consumers depend only on this interface.
package store

import (
	"context"
	"errors"

	"github.com/TWeb79/appscout/internal/domain"
)

// ErrNotFound is returned by reads for an unknown id or url. It is a
// lookup outcome, not a failure; callers branch on it with errors.Is.
var ErrNotFound = errors.New("not found")

// Store is the registry of discovered Apps.
//
// Every operation is a synchronous logical transaction from the caller's
// view. Implementations guarantee single-writer-per-url sequencing:
// concurrent writes for the same url are applied one at a time, and
// RecordScan never exposes a state where the history entry and the App's
// status diverge.
type Store interface {
	// AddApp registers an App, deduplicating by canonical url. When the
	// App already exists, only currently-empty name/category/description
	// are backfilled; populated fields are never overwritten, and
	// DiscoveredAt is never reset. Returns the stored App either way.
	AddApp(ctx context.Context, url string, port int, name, category, description string) (*domain.App, error)

	// RecordScan appends a history entry and updates the App's current
	// status and LastCheckedAt as a single logical unit. The App is
	// looked up by canonical url; ErrNotFound if it is not registered.
	RecordScan(ctx context.Context, url string, status domain.Status, responseTimeMs int64) error

	// UpdateScreenshot stores the captured page image (and optional
	// thumbnail) for an App. The bytes are opaque to the registry.
	UpdateScreenshot(ctx context.Context, appID string, image, thumbnail []byte) error

	// GetScreenshot returns the stored image and thumbnail bytes.
	GetScreenshot(ctx context.Context, appID string) (image, thumbnail []byte, err error)

	// RemoveApp deletes the App and cascades to its history entries and
	// screenshot. Removing an unknown id returns ErrNotFound.
	RemoveApp(ctx context.Context, id string) error

	// UpdateNotes replaces the App's free-text notes.
	UpdateNotes(ctx context.Context, id, notes string) (*domain.App, error)

	GetApp(ctx context.Context, id string) (*domain.App, error)
	GetAppByURL(ctx context.Context, url string) (*domain.App, error)

	// GetAllApps returns every App, most recently discovered first.
	GetAllApps(ctx context.Context) ([]*domain.App, error)

	// GetOnlineApps returns only Apps whose current status is online.
	GetOnlineApps(ctx context.Context) ([]*domain.App, error)

	// GetScanHistory returns up to domain.HistoryCap entries, newest first.
	GetScanHistory(ctx context.Context, appID string) ([]*domain.ScanHistoryEntry, error)

	// GetStats aggregates App counts by status.
	GetStats(ctx context.Context) (*domain.Stats, error)

	// GetSetting / SetSetting persist small configuration values (such
	// as the target-host override) so no process-wide mutable state is
	// needed. GetSetting returns ErrNotFound for unset keys.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}
