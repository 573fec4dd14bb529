// Package scheduler runs the background sweeps: periodic health checks
// over every registered App and opportunistic screenshot refreshes.
package scheduler

import (
	"context"
	"time"

	"github.com/TWeb79/appscout/internal/discovery"
	"github.com/TWeb79/appscout/internal/events"
	"github.com/TWeb79/appscout/internal/logger"
)

// HealthSweeper handles periodic health checking of all registered apps
type HealthSweeper struct {
	orchestrator  *discovery.Orchestrator
	hub           *events.Hub
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewHealthSweeper creates a new health sweeper. manualTrigger lets the
// HTTP layer force a sweep outside the regular interval; pass nil when
// manual triggering is not needed.
func NewHealthSweeper(
	orchestrator *discovery.Orchestrator,
	hub *events.Hub,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *HealthSweeper {
	return &HealthSweeper{
		orchestrator:  orchestrator,
		hub:           hub,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic sweep process. The first sweep runs only
// after one full interval so startup is not slowed down by a fleet-wide
// check.
func (hs *HealthSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(hs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hs.sweep(ctx)
			case <-hs.manualTrigger:
				hs.logger.Info("manual health sweep triggered")
				hs.sweep(ctx)
			case <-hs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (hs *HealthSweeper) Stop() {
	close(hs.stopCh)
}

func (hs *HealthSweeper) sweep(ctx context.Context) {
	online, offline, err := hs.orchestrator.CheckAllApps(ctx)
	if err != nil {
		hs.logger.Error("periodic health sweep failed", logger.Error(err))
		return
	}

	hs.hub.Emit(events.New(events.TypePeriodicHealthCheck, map[string]any{
		"updated": online + offline,
	}))
	hs.logger.Debug("periodic health sweep done",
		logger.Int("online", online),
		logger.Int("offline", offline))
}
