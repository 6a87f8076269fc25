package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// LedgerRepository is the notification idempotency record. The unique index
// on (user_id, alert_id) is the correctness mechanism: two racing sweeps can
// both pass Exists, but only one Record succeeds.
type LedgerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLedgerRepository creates a ledger repository.
func NewLedgerRepository(db *sql.DB, logger *slog.Logger) *LedgerRepository {
	return &LedgerRepository{db: db, logger: logger}
}

// Exists reports whether the user was already notified for the alert. A cheap
// pre-check that saves a dispatch; Record remains the authority.
func (r *LedgerRepository) Exists(ctx context.Context, userID int64, alertID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM notified_alerts WHERE user_id = $1 AND alert_id = $2
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, alertID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check ledger for user %d alert %s: %w", userID, alertID, err)
	}
	return exists, nil
}

// Record inserts the ledger entry, returning domain.ErrAlreadyNotified when
// the (user, alert) pair exists. Entries are never updated or deleted here;
// they remain as an audit trail.
func (r *LedgerRepository) Record(ctx context.Context, userID int64, alertID string, locationID *int64) error {
	const query = `
		INSERT INTO notified_alerts (user_id, alert_id, location_id, sent_at)
		VALUES ($1, $2, $3, NOW())`

	_, err := r.db.ExecContext(ctx, query, userID, alertID, nullableID(locationID))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAlreadyNotified
		}
		return fmt.Errorf("record ledger entry for user %d alert %s: %w", userID, alertID, err)
	}
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
