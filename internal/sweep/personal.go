package sweep

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
)

// runPersonal checks every alertable user's eligible saved locations against
// the snapshot and dispatches new alerts. Users are processed by a bounded
// worker pool; a user never spans two workers, so the per-sweep event-type
// set needs no locking and is always consulted before the ledger write.
func (e *Engine) runPersonal(ctx context.Context, snapshot []domain.WarningPolygon) {
	users, err := e.users.ListAlertableUsers(ctx)
	if err != nil {
		e.logger.Error("personal sweep: list users failed", "error", err)
		e.metrics.LookupErrors.Inc()
		return
	}
	e.metrics.UsersChecked.Observe(float64(len(users)))

	jobs := make(chan domain.UserContext)
	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				e.sweepUser(ctx, snapshot, user)
			}
		}()
	}

	for _, user := range users {
		if ctx.Err() != nil {
			break
		}
		jobs <- user
	}
	close(jobs)
	wg.Wait()
}

// sweepUser processes one user. Any failure abandons just this user for this
// sweep; the next scheduled run tries again.
func (e *Engine) sweepUser(ctx context.Context, snapshot []domain.WarningPolygon, user domain.UserContext) {
	locations, err := e.locations.MonitoredLocations(ctx, user.ID)
	if err != nil {
		e.logger.Warn("personal sweep: location lookup failed", "user_id", user.ID, "error", err)
		e.metrics.LookupErrors.Inc()
		return
	}

	eligible := domain.EligibleLocations(user.Tier, locations)
	if len(eligible) == 0 {
		return
	}

	// Event types already dispatched to this user this sweep. Two locations
	// inside the same kind of warning produce one notification, not two.
	sentEvents := make(map[domain.EventType]bool)

	for _, loc := range eligible {
		for _, alert := range domain.PolygonsContaining(loc.Point, snapshot) {
			if sentEvents[alert.Event] {
				continue
			}

			already, err := e.ledger.Exists(ctx, user.ID, alert.ID)
			if err != nil {
				e.logger.Warn("personal sweep: ledger check failed", "user_id", user.ID, "alert_id", alert.ID, "error", err)
				e.metrics.LookupErrors.Inc()
				continue
			}
			if already {
				continue
			}

			payload := domain.PersonalAlertPayload(alert, loc, e.opts.SiteBaseURL)
			if err := e.dispatcher.Send(ctx, user.Devices, payload); err != nil {
				// No ledger entry, so the next sweep retries this alert.
				e.logger.Warn("personal sweep: dispatch failed", "user_id", user.ID, "alert_id", alert.ID, "error", err)
				e.metrics.DispatchErrors.WithLabelValues("personal").Inc()
				continue
			}

			locationID := loc.ID
			if err := e.ledger.Record(ctx, user.ID, alert.ID, &locationID); err != nil {
				if errors.Is(err, domain.ErrAlreadyNotified) {
					// A concurrent sweep recorded first; theirs counts.
					e.metrics.LedgerConflicts.Inc()
				} else {
					e.logger.Warn("personal sweep: ledger write failed", "user_id", user.ID, "alert_id", alert.ID, "error", err)
					e.metrics.LookupErrors.Inc()
				}
			}

			sentEvents[alert.Event] = true
			e.metrics.NotificationsSent.WithLabelValues("personal").Inc()
			e.logger.Info("personal alert dispatched",
				"user_id", user.ID,
				"alert_id", alert.ID,
				"event", alert.Event,
				"location", loc.Label,
			)
		}
	}
}
