package deps

import (
	"sync/atomic"
	"time"

	"github.com/TWeb79/appscout/internal/collab"
	"github.com/TWeb79/appscout/internal/discovery"
	"github.com/TWeb79/appscout/internal/events"
	"github.com/TWeb79/appscout/internal/logger"
	"github.com/TWeb79/appscout/internal/store"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Store        store.Store             // App registry
	Hub          *events.Hub             // real-time event fan-out
	Orchestrator *discovery.Orchestrator // scan / sweep pipelines
	Identifier   collab.Identifier       // identification collaborator (for status reporting)

	HealthTrigger chan struct{} // channel to trigger an immediate health sweep
	ScanBusy      *atomic.Bool  // guards against overlapping scans
	DefaultHost   string        // configured probe target, shown alongside overrides
}
