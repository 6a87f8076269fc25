// Package sweep is the alerting engine: on a fixed interval it snapshots the
// active warning polygons once, runs the personal saved-location sweep and
// the family live-location sweep against that snapshot, and dispatches
// notifications with at-most-once personal delivery per (user, alert).
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
	"github.com/couchcryptid/storm-alert-engine/internal/observability"
)

// AlertSource supplies the active warning polygons for one sweep.
type AlertSource interface {
	ActiveWarnings(ctx context.Context) ([]domain.WarningPolygon, error)
}

// UserDirectory reads users and their delivery devices.
type UserDirectory interface {
	ListAlertableUsers(ctx context.Context) ([]domain.UserContext, error)
	ActiveDevices(ctx context.Context, userID int64) ([]domain.Device, error)
	Username(ctx context.Context, userID int64) (string, error)
}

// LocationStore reads saved monitored locations.
type LocationStore interface {
	MonitoredLocations(ctx context.Context, ownerID int64) ([]domain.MonitoredLocation, error)
}

// PingStore reads recent location pings and overwrites their warned flags.
type PingStore interface {
	LatestPings(ctx context.Context, cutoff time.Time) ([]domain.LocationPing, error)
	SetWarnedStatus(ctx context.Context, warnedIDs, clearedIDs []int64) error
}

// HouseholdStore resolves household group membership.
type HouseholdStore interface {
	HouseholdFor(ctx context.Context, userID int64) (*domain.HouseholdGroup, error)
}

// Ledger is the notification idempotency record.
type Ledger interface {
	Exists(ctx context.Context, userID int64, alertID string) (bool, error)
	Record(ctx context.Context, userID int64, alertID string, locationID *int64) error
}

// Dispatcher delivers a composed payload to a set of devices.
type Dispatcher interface {
	Send(ctx context.Context, devices []domain.Device, payload domain.Payload) error
}

// Options configures sweep scheduling and composition.
type Options struct {
	Interval      time.Duration
	RecencyWindow time.Duration
	Workers       int
	SiteBaseURL   string

	// Clock defaults to the real clock; tests inject a fake.
	Clock clockwork.Clock
}

// Engine orchestrates the periodic sweep. It keeps no state between sweeps
// beyond the readiness flag; every sweep starts from a fresh snapshot.
type Engine struct {
	source     AlertSource
	users      UserDirectory
	locations  LocationStore
	pings      PingStore
	households HouseholdStore
	ledger     Ledger
	dispatcher Dispatcher

	opts    Options
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates an Engine with the given collaborators.
func New(
	source AlertSource,
	users UserDirectory,
	locations LocationStore,
	pings PingStore,
	households HouseholdStore,
	ledger Ledger,
	dispatcher Dispatcher,
	opts Options,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{
		source:     source,
		users:      users,
		locations:  locations,
		pings:      pings,
		households: households,
		ledger:     ledger,
		dispatcher: dispatcher,
		opts:       opts,
		clock:      opts.Clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once at least one sweep has completed.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("no sweep has completed yet")
	}
	return nil
}

// Run executes one sweep immediately, then one per interval tick until the
// context is cancelled. A failed sweep is logged and retried on the next
// tick; ticks never overlap because they are consumed serially.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("sweep engine started",
		"interval", e.opts.Interval,
		"recency_window", e.opts.RecencyWindow,
		"workers", e.opts.Workers,
	)

	ticker := e.clock.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	for {
		if err := e.RunOnce(ctx); err != nil && ctx.Err() == nil {
			e.logger.Error("sweep aborted", "error", err)
		}

		select {
		case <-ctx.Done():
			e.logger.Info("sweep engine stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunOnce performs a single complete sweep. Only a failed snapshot fetch
// aborts it; matching against a stale or empty polygon set would silently
// clear warned flags and miss alerts, so there is no partial fallback.
func (e *Engine) RunOnce(ctx context.Context) error {
	start := e.clock.Now()
	e.metrics.SweepRunning.Set(1)
	defer e.metrics.SweepRunning.Set(0)

	snapshot, err := e.source.ActiveWarnings(ctx)
	if err != nil {
		e.metrics.SweepsTotal.WithLabelValues("source_unavailable").Inc()
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	e.metrics.PolygonsFetched.Observe(float64(len(snapshot)))
	e.logger.Info("sweep started", "active_polygons", len(snapshot))

	e.runPersonal(ctx, snapshot)
	e.runFamily(ctx, snapshot)

	e.metrics.SweepDuration.Observe(e.clock.Since(start).Seconds())
	e.metrics.SweepsTotal.WithLabelValues("completed").Inc()
	e.ready.Store(true)
	e.logger.Info("sweep finished", "duration", e.clock.Since(start))
	return nil
}
