package sweep

import (
	"context"
	"fmt"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
)

// breach is one user's latest ping caught inside a warning polygon. When a
// ping sits inside several warnings at once, event is the most severe one.
type breach struct {
	ping  domain.LocationPing
	event domain.EventType
}

// runFamily evaluates the newest recent ping per user against the
// warning-class polygons, overwrites every evaluated ping's warned flag, and
// fans out household alerts for the breached ones.
//
// Household alerts carry no ledger entry: while a person stays inside a
// warned area their household is re-alerted every sweep. Within one sweep,
// each recipient hears about a given (person, event) pair at most once.
func (e *Engine) runFamily(ctx context.Context, snapshot []domain.WarningPolygon) {
	var warnings []domain.WarningPolygon
	for _, poly := range snapshot {
		if poly.Event.IsWarningClass() {
			warnings = append(warnings, poly)
		}
	}

	cutoff := e.clock.Now().Add(-e.opts.RecencyWindow)
	pings, err := e.pings.LatestPings(ctx, cutoff)
	if err != nil {
		e.logger.Error("family sweep: ping lookup failed", "error", err)
		e.metrics.LookupErrors.Inc()
		return
	}
	e.metrics.PingsEvaluated.Observe(float64(len(pings)))
	if len(pings) == 0 {
		return
	}

	var (
		warnedIDs  []int64
		clearedIDs []int64
		breaches   []breach
	)
	for _, ping := range pings {
		matched := domain.PolygonsContaining(ping.Point, warnings)
		event, ok := domain.HighestPriority(matched)
		if !ok {
			clearedIDs = append(clearedIDs, ping.ID)
			continue
		}
		warnedIDs = append(warnedIDs, ping.ID)
		breaches = append(breaches, breach{ping: ping, event: event})
	}

	// Full overwrite for the evaluated set: pings that left a warned area
	// since the last sweep get their flag cleared here, not merged.
	if err := e.pings.SetWarnedStatus(ctx, warnedIDs, clearedIDs); err != nil {
		e.logger.Error("family sweep: warned-status update failed", "error", err)
		e.metrics.LookupErrors.Inc()
	}

	notified := make(map[string]bool)
	for _, b := range breaches {
		e.notifyHousehold(ctx, b, notified)
	}
}

// notifyHousehold alerts every other member of the warned user's household
// who holds at least one active device. Failures skip the one recipient.
func (e *Engine) notifyHousehold(ctx context.Context, b breach, notified map[string]bool) {
	group, err := e.households.HouseholdFor(ctx, b.ping.UserID)
	if err != nil {
		e.logger.Warn("family sweep: household lookup failed", "user_id", b.ping.UserID, "error", err)
		e.metrics.LookupErrors.Inc()
		return
	}
	if group == nil {
		return
	}

	username, err := e.users.Username(ctx, b.ping.UserID)
	if err != nil {
		e.logger.Warn("family sweep: username lookup failed", "user_id", b.ping.UserID, "error", err)
		e.metrics.LookupErrors.Inc()
		return
	}

	for _, memberID := range group.Others(b.ping.UserID) {
		key := fmt.Sprintf("%d:%d:%s", memberID, b.ping.UserID, b.event)
		if notified[key] {
			continue
		}

		devices, err := e.users.ActiveDevices(ctx, memberID)
		if err != nil {
			e.logger.Warn("family sweep: device lookup failed", "user_id", memberID, "error", err)
			e.metrics.LookupErrors.Inc()
			continue
		}
		if len(devices) == 0 {
			continue
		}

		payload := domain.FamilyAlertPayload(username, b.ping.UserID, b.event, e.opts.SiteBaseURL)
		if err := e.dispatcher.Send(ctx, devices, payload); err != nil {
			e.logger.Warn("family sweep: dispatch failed", "user_id", memberID, "warned_user_id", b.ping.UserID, "error", err)
			e.metrics.DispatchErrors.WithLabelValues("family").Inc()
			continue
		}

		notified[key] = true
		e.metrics.NotificationsSent.WithLabelValues("family").Inc()
		e.logger.Info("family alert dispatched",
			"user_id", memberID,
			"warned_user_id", b.ping.UserID,
			"event", b.event,
		)
	}
}
