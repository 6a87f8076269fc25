package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
)

// UserRepository reads the users the alerting engine cares about: those with
// at least one active delivery device.
type UserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *sql.DB, logger *slog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// ListAlertableUsers returns every user holding at least one active device,
// with their devices attached. Users without active devices never enter a
// sweep, so they are filtered in SQL.
func (r *UserRepository) ListAlertableUsers(ctx context.Context) ([]domain.UserContext, error) {
	const query = `
		SELECT u.id, u.username, u.tier, d.id, d.token
		FROM users u
		JOIN devices d ON d.user_id = u.id AND d.active
		ORDER BY u.id, d.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alertable users: %w", err)
	}
	defer rows.Close()

	var users []domain.UserContext
	for rows.Next() {
		var (
			userID   int64
			username string
			tier     string
			device   domain.Device
		)
		if err := rows.Scan(&userID, &username, &tier, &device.ID, &device.Token); err != nil {
			return nil, fmt.Errorf("scan alertable user: %w", err)
		}

		if n := len(users); n > 0 && users[n-1].ID == userID {
			users[n-1].Devices = append(users[n-1].Devices, device)
			continue
		}
		users = append(users, domain.UserContext{
			ID:       userID,
			Username: username,
			Tier:     domain.Tier(tier),
			Devices:  []domain.Device{device},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alertable users: %w", err)
	}
	return users, nil
}

// Username resolves a user's display name for household alert payloads.
func (r *UserRepository) Username(ctx context.Context, userID int64) (string, error) {
	const query = `SELECT username FROM users WHERE id = $1`

	var username string
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&username); err != nil {
		return "", fmt.Errorf("resolve username for user %d: %w", userID, err)
	}
	return username, nil
}

// ActiveDevices returns a user's active delivery devices. Used for household
// fan-out, where the recipient set is resolved member by member.
func (r *UserRepository) ActiveDevices(ctx context.Context, userID int64) ([]domain.Device, error) {
	const query = `
		SELECT id, token
		FROM devices
		WHERE user_id = $1 AND active
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list active devices for user %d: %w", userID, err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.Token); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return devices, nil
}
