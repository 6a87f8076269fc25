package sweep_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
	"github.com/couchcryptid/storm-alert-engine/internal/sweep"
)

func TestFamilySweep_FansOutToOtherMembers(t *testing.T) {
	deps := newEngineDeps()
	deps.source.polys = []domain.WarningPolygon{{
		ID:    "svr1",
		Event: domain.SevereThunderstormWarning,
		Ring:  tulsaRing(),
	}}
	group := &domain.HouseholdGroup{ID: 1, OwnerID: 1, MemberIDs: []int64{2, 3}}
	deps.households.byUser[1] = group
	deps.households.byUser[2] = group
	deps.households.byUser[3] = group
	deps.users.usernames[1] = "alice"
	deps.users.devices[2] = []domain.Device{{ID: 20, Token: "tok-b"}}
	deps.users.devices[3] = []domain.Device{{ID: 30, Token: "tok-c"}}
	deps.pings.pings = []domain.LocationPing{{
		ID:         100,
		UserID:     1,
		Point:      domain.Point{Lon: -95.28, Lat: 36.44},
		CapturedAt: deps.clock.Now().Add(-5 * time.Minute),
	}}
	e := deps.engine(sweep.Options{})

	require.NoError(t, e.RunOnce(context.Background()))

	sends := deps.dispatcher.sent()
	require.Len(t, sends, 2, "both other members hear about alice, alice hears nothing")
	for _, s := range sends {
		assert.Equal(t, "Family Alert: alice in a Severe Thunderstorm Warning!", s.payload.Title)
		assert.Equal(t, "family-alert-1", s.payload.Tag)
		assert.Equal(t, testSiteURL+"/accounts/family-map/", s.payload.ClickURL)
	}
	tokens := []string{sends[0].devices[0].Token, sends[1].devices[0].Token}
	assert.ElementsMatch(t, []string{"tok-b", "tok-c"}, tokens)

	assert.Equal(t, []int64{100}, deps.pings.warnedIDs)
	assert.Empty(t, deps.pings.clearedIDs)
}

func TestFamilySweep_ClearsFlagWhenOutsideAllWarnings(t *testing.T) {
	deps := newEngineDeps()
	deps.source.polys = []domain.WarningPolygon{{
		ID:    "svr1",
		Event: domain.SevereThunderstormWarning,
		Ring:  tulsaRing(),
	}}
	deps.pings.pings = []domain.LocationPing{{
		ID:           100,
		UserID:       1,
		Point:        domain.Point{Lon: -97.50, Lat: 35.00},
		CapturedAt:   deps.clock.Now().Add(-5 * time.Minute),
		InWarnedArea: true,
	}}
	e := deps.engine(sweep.Options{})

	require.NoError(t, e.RunOnce(context.Background()))

	assert.Empty(t, deps.pings.warnedIDs)
	assert.Equal(t, []int64{100}, deps.pings.clearedIDs)
	assert.Empty(t, deps.dispatcher.sent())
}

func TestFamilySweep_WatchesDoNotTriggerFanOut(t *testing.T) {
	deps := newEngineDeps()
	deps.source.polys = []domain.WarningPolygon{{
		ID:    "tow1",
		Event: domain.TornadoWatch,
		Ring:  tulsaRing(),
	}}
	group := &domain.HouseholdGroup{ID: 1, OwnerID: 1, MemberIDs: []int64{2}}
	deps.households.byUser[1] = group
	deps.users.usernames[1] = "alice"
	deps.users.devices[2] = []domain.Device{{ID: 20, Token: "tok-b"}}
	deps.pings.pings = []domain.LocationPing{{
		ID:         100,
		UserID:     1,
		Point:      domain.Point{Lon: -95.28, Lat: 36.44},
		CapturedAt: deps.clock.Now().Add(-5 * time.Minute),
	}}
	e := deps.engine(sweep.Options{})

	require.NoError(t, e.RunOnce(context.Background()))

	assert.Empty(t, deps.dispatcher.sent())
	assert.Equal(t, []int64{100}, deps.pings.clearedIDs, "a watch is not a warned area")
}

func TestFamilySweep_RecencyCutoffUsesClock(t *testing.T) {
	deps := newEngineDeps()
	e := deps.engine(sweep.Options{RecencyWindow: 30 * time.Minute})

	require.NoError(t, e.RunOnce(context.Background()))

	want := deps.clock.Now().Add(-30 * time.Minute)
	assert.True(t, deps.pings.lastCutoff.Equal(want), "cutoff %v, want %v", deps.pings.lastCutoff, want)
}

func TestFamilySweep_MemberWithoutDevicesSkipped(t *testing.T) {
	deps := newEngineDeps()
	deps.source.polys = []domain.WarningPolygon{{
		ID:    "ffw1",
		Event: domain.FlashFloodWarning,
		Ring:  tulsaRing(),
	}}
	group := &domain.HouseholdGroup{ID: 1, OwnerID: 1, MemberIDs: []int64{2, 3}}
	deps.households.byUser[1] = group
	deps.users.usernames[1] = "alice"
	deps.users.devices[3] = []domain.Device{{ID: 30, Token: "tok-c"}}
	deps.pings.pings = []domain.LocationPing{{
		ID:         100,
		UserID:     1,
		Point:      domain.Point{Lon: -95.28, Lat: 36.44},
		CapturedAt: deps.clock.Now().Add(-time.Minute),
	}}
	e := deps.engine(sweep.Options{})

	require.NoError(t, e.RunOnce(context.Background()))

	sends := deps.dispatcher.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, "tok-c", sends[0].devices[0].Token)
}

func TestFamilySweep_NoHouseholdNoFanOut(t *testing.T) {
	deps := newEngineDeps()
	deps.source.polys = []domain.WarningPolygon{{
		ID:    "tor1",
		Event: domain.TornadoWarning,
		Ring:  tulsaRing(),
	}}
	deps.pings.pings = []domain.LocationPing{{
		ID:         100,
		UserID:     9,
		Point:      domain.Point{Lon: -95.28, Lat: 36.44},
		CapturedAt: deps.clock.Now().Add(-time.Minute),
	}}
	e := deps.engine(sweep.Options{})

	require.NoError(t, e.RunOnce(context.Background()))

	assert.Empty(t, deps.dispatcher.sent())
	assert.Equal(t, []int64{100}, deps.pings.warnedIDs, "flag still set even with nobody to tell")
}

func TestFamilySweep_ReAlertsAcrossSweepsWhileBreachPersists(t *testing.T) {
	deps := newEngineDeps()
	deps.source.polys = []domain.WarningPolygon{{
		ID:    "tor1",
		Event: domain.TornadoWarning,
		Ring:  tulsaRing(),
	}}
	group := &domain.HouseholdGroup{ID: 1, OwnerID: 1, MemberIDs: []int64{2}}
	deps.households.byUser[1] = group
	deps.users.usernames[1] = "alice"
	deps.users.devices[2] = []domain.Device{{ID: 20, Token: "tok-b"}}
	deps.pings.pings = []domain.LocationPing{{
		ID:         100,
		UserID:     1,
		Point:      domain.Point{Lon: -95.28, Lat: 36.44},
		CapturedAt: deps.clock.Now().Add(-time.Minute),
	}}
	e := deps.engine(sweep.Options{})

	require.NoError(t, e.RunOnce(context.Background()))
	require.NoError(t, e.RunOnce(context.Background()))

	// Unlike personal alerts there is no ledger: the device tag replaces
	// the previous notification instead of stacking a duplicate.
	assert.Len(t, deps.dispatcher.sent(), 2)
}
