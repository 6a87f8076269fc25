package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
)

// HouseholdRepository reads household group membership. Read-only here.
type HouseholdRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewHouseholdRepository creates a household repository.
func NewHouseholdRepository(db *sql.DB, logger *slog.Logger) *HouseholdRepository {
	return &HouseholdRepository{db: db, logger: logger}
}

// HouseholdFor resolves the group a user belongs to, as owner or member.
// When a user somehow appears in several groups the lowest group id wins,
// matching the "first()" semantics the account service relies on. Returns
// (nil, nil) when the user has no household.
func (r *HouseholdRepository) HouseholdFor(ctx context.Context, userID int64) (*domain.HouseholdGroup, error) {
	const groupQuery = `
		SELECT g.id, g.owner_id, g.capacity_limit
		FROM household_groups g
		LEFT JOIN household_members m ON m.group_id = g.id
		WHERE g.owner_id = $1 OR m.user_id = $1
		ORDER BY g.id
		LIMIT 1`

	var group domain.HouseholdGroup
	err := r.db.QueryRowContext(ctx, groupQuery, userID).Scan(&group.ID, &group.OwnerID, &group.CapacityLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve household for user %d: %w", userID, err)
	}

	const memberQuery = `
		SELECT user_id
		FROM household_members
		WHERE group_id = $1
		ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, memberQuery, group.ID)
	if err != nil {
		return nil, fmt.Errorf("list household members for group %d: %w", group.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var memberID int64
		if err := rows.Scan(&memberID); err != nil {
			return nil, fmt.Errorf("scan household member: %w", err)
		}
		group.MemberIDs = append(group.MemberIDs, memberID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate household members: %w", err)
	}
	return &group, nil
}
