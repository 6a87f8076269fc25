package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
)

// LocationRepository reads saved monitored locations. The engine never writes
// them; creation and default reassignment belong to account management.
type LocationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLocationRepository creates a location repository.
func NewLocationRepository(db *sql.DB, logger *slog.Logger) *LocationRepository {
	return &LocationRepository{db: db, logger: logger}
}

// MonitoredLocations returns a user's notification-enabled saved locations in
// primary-key order. The tier cap is applied by the caller via
// domain.EligibleLocations, so insertion order decides which locations a
// premium user gets checked.
func (r *LocationRepository) MonitoredLocations(ctx context.Context, ownerID int64) ([]domain.MonitoredLocation, error) {
	const query = `
		SELECT id, owner_id, label, longitude, latitude, is_default, notifications_enabled
		FROM monitored_locations
		WHERE owner_id = $1 AND notifications_enabled
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list monitored locations for user %d: %w", ownerID, err)
	}
	defer rows.Close()

	var locations []domain.MonitoredLocation
	for rows.Next() {
		var loc domain.MonitoredLocation
		if err := rows.Scan(&loc.ID, &loc.OwnerID, &loc.Label, &loc.Point.Lon, &loc.Point.Lat, &loc.IsDefault, &loc.NotificationsEnabled); err != nil {
			return nil, fmt.Errorf("scan monitored location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monitored locations: %w", err)
	}
	return locations, nil
}
