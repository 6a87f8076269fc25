package domain

import "time"

// Tier is the subscription level controlling how many saved locations are
// monitored per sweep.
type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// maxMonitoredPremium caps how many saved locations a premium user has
// checked in a single sweep.
const maxMonitoredPremium = 3

// Device is one active push delivery endpoint registered by a user.
type Device struct {
	ID    int64
	Token string
}

// UserContext is the alerting engine's view of a user: identity, tier, and
// active devices. Users without at least one active device never enter a
// sweep.
type UserContext struct {
	ID       int64
	Username string
	Tier     Tier
	Devices  []Device
}

// MonitoredLocation is a saved location owned by a user profile. The engine
// reads it but never writes it; creation, deletion, and default reassignment
// belong to the account-management service.
type MonitoredLocation struct {
	ID                   int64
	OwnerID              int64
	Label                string
	Point                Point
	IsDefault            bool
	NotificationsEnabled bool
}

// EligibleLocations applies the tier policy to a user's saved locations:
// premium users get up to three notification-enabled locations, standard
// users only their notification-enabled default. A user with no eligible
// location is simply skipped, not an error.
func EligibleLocations(tier Tier, locations []MonitoredLocation) []MonitoredLocation {
	var eligible []MonitoredLocation
	for _, loc := range locations {
		if !loc.NotificationsEnabled {
			continue
		}
		if tier != TierPremium && !loc.IsDefault {
			continue
		}
		eligible = append(eligible, loc)
		if tier == TierPremium && len(eligible) == maxMonitoredPremium {
			break
		}
		if tier != TierPremium {
			break
		}
	}
	return eligible
}

// LocationPing is one append-only live location report. InWarnedArea is the
// only field the engine writes, and only on the newest ping per user within
// the recency window.
type LocationPing struct {
	ID           int64
	UserID       int64
	Point        Point
	CapturedAt   time.Time
	InWarnedArea bool
}

// HouseholdGroup links users who receive each other's geofence-breach alerts.
// At most one group applies per user, whether they own it or are a member.
type HouseholdGroup struct {
	ID            int64
	OwnerID       int64
	MemberIDs     []int64
	CapacityLimit int
}

// Others returns every member of the group except the given user, owner
// included.
func (g HouseholdGroup) Others(userID int64) []int64 {
	seen := map[int64]bool{userID: true}
	var others []int64
	for _, id := range append([]int64{g.OwnerID}, g.MemberIDs...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		others = append(others, id)
	}
	return others
}
