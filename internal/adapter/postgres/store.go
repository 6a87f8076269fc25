// Package postgres implements the engine's repository interfaces on top of
// the account database.
//
// Expected schema (owned by the account-management service; this engine only
// consumes it, except for the notified_alerts ledger):
//
//	users               (id, username, tier)
//	devices             (id, user_id, token, active)
//	monitored_locations (id, owner_id, label, longitude, latitude,
//	                     is_default, notifications_enabled)
//	location_pings      (id, user_id, longitude, latitude, captured_at,
//	                     in_warned_area)
//	household_groups    (id, owner_id, capacity_limit)
//	household_members   (group_id, user_id)
//	notified_alerts     (id, user_id, alert_id, location_id NULL, sent_at)
//	    UNIQUE (user_id, alert_id)
//
// The unique index on notified_alerts is load-bearing: it is what makes
// personal notifications at-most-once across concurrent sweep executions.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
