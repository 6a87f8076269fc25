package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
)

// PingRepository reads live location pings and owns the single field the
// engine ever writes: in_warned_area on the newest ping per user.
type PingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPingRepository creates a ping repository.
func NewPingRepository(db *sql.DB, logger *slog.Logger) *PingRepository {
	return &PingRepository{db: db, logger: logger}
}

// LatestPings returns, per user, the single most recent ping captured at or
// after the cutoff. Users with no ping inside the window are absent.
func (r *PingRepository) LatestPings(ctx context.Context, cutoff time.Time) ([]domain.LocationPing, error) {
	const query = `
		SELECT DISTINCT ON (user_id)
			id, user_id, longitude, latitude, captured_at, in_warned_area
		FROM location_pings
		WHERE captured_at >= $1
		ORDER BY user_id, captured_at DESC`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list latest pings: %w", err)
	}
	defer rows.Close()

	var pings []domain.LocationPing
	for rows.Next() {
		var ping domain.LocationPing
		if err := rows.Scan(&ping.ID, &ping.UserID, &ping.Point.Lon, &ping.Point.Lat, &ping.CapturedAt, &ping.InWarnedArea); err != nil {
			return nil, fmt.Errorf("scan ping: %w", err)
		}
		pings = append(pings, ping)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pings: %w", err)
	}
	return pings, nil
}

// SetWarnedStatus overwrites the in_warned_area flag for every ping the sweep
// evaluated: true for the warned set, false for the cleared set. Both updates
// run in one transaction so a half-applied sweep never leaves a ping stuck in
// the wrong state.
func (r *PingRepository) SetWarnedStatus(ctx context.Context, warnedIDs, clearedIDs []int64) error {
	if len(warnedIDs) == 0 && len(clearedIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin warned-status update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const update = `UPDATE location_pings SET in_warned_area = $1 WHERE id = ANY($2)`

	if len(warnedIDs) > 0 {
		if _, err := tx.ExecContext(ctx, update, true, pq.Array(warnedIDs)); err != nil {
			return fmt.Errorf("mark pings warned: %w", err)
		}
	}
	if len(clearedIDs) > 0 {
		if _, err := tx.ExecContext(ctx, update, false, pq.Array(clearedIDs)); err != nil {
			return fmt.Errorf("clear ping warned flags: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit warned-status update: %w", err)
	}
	return nil
}
