package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rectRing builds a closed rectangular ring from corner coordinates.
func rectRing(lonMin, latMin, lonMax, latMax float64) []Point {
	return []Point{
		{Lon: lonMin, Lat: latMin},
		{Lon: lonMax, Lat: latMin},
		{Lon: lonMax, Lat: latMax},
		{Lon: lonMin, Lat: latMax},
		{Lon: lonMin, Lat: latMin},
	}
}

// tulsaWarningRing covers 36.40–36.50 lat, -95.30 to -95.20 lon.
func tulsaWarningRing() []Point {
	return rectRing(-95.30, 36.40, -95.20, 36.50)
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		ring []Point
		want bool
	}{
		{"inside rectangle", Point{Lon: -95.28, Lat: 36.44}, tulsaWarningRing(), true},
		{"west of rectangle", Point{Lon: -95.35, Lat: 36.44}, tulsaWarningRing(), false},
		{"north of rectangle", Point{Lon: -95.25, Lat: 36.55}, tulsaWarningRing(), false},
		{"just inside corner", Point{Lon: -95.2999, Lat: 36.4001}, tulsaWarningRing(), true},
		{"degenerate ring", Point{Lon: 0, Lat: 0}, []Point{{0, -1}, {1, 1}, {0, -1}}, false},
		{"empty ring", Point{Lon: 0, Lat: 0}, nil, false},
		{
			"concave polygon notch excluded",
			Point{Lon: 5, Lat: 8},
			[]Point{{0, 0}, {10, 0}, {10, 10}, {6, 10}, {6, 5}, {4, 5}, {4, 10}, {0, 10}, {0, 0}},
			false,
		},
		{
			"concave polygon arm included",
			Point{Lon: 2, Lat: 8},
			[]Point{{0, 0}, {10, 0}, {10, 10}, {6, 10}, {6, 5}, {4, 5}, {4, 10}, {0, 10}, {0, 0}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(tt.p, tt.ring))
		})
	}
}

func TestContains_VertexIsDeterministic(t *testing.T) {
	// Boundary inclusion is implementation-defined; it just has to be
	// consistent call to call.
	vertex := Point{Lon: -95.30, Lat: 36.40}
	first := Contains(vertex, tulsaWarningRing())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Contains(vertex, tulsaWarningRing()))
	}
}

func TestContains_AxisOrder(t *testing.T) {
	// A ring far from the equator catches swapped lon/lat immediately.
	ring := rectRing(-100, 40, -99, 41)
	assert.True(t, Contains(Point{Lon: -99.5, Lat: 40.5}, ring))
	assert.False(t, Contains(Point{Lon: 40.5, Lat: -99.5}, ring))
}

func TestPolygonsContaining(t *testing.T) {
	inside := WarningPolygon{ID: "a", Event: TornadoWarning, Ring: tulsaWarningRing()}
	elsewhere := WarningPolygon{ID: "b", Event: FlashFloodWarning, Ring: rectRing(-90, 30, -89, 31)}

	got := PolygonsContaining(Point{Lon: -95.28, Lat: 36.44}, []WarningPolygon{inside, elsewhere})

	require.Len(t, got, 1)
	if diff := cmp.Diff(inside, got[0]); diff != "" {
		t.Errorf("matched polygon mismatch (-want +got):\n%s", diff)
	}
}

func TestHighestPriority(t *testing.T) {
	tests := []struct {
		name   string
		polys  []WarningPolygon
		want   EventType
		wantOK bool
	}{
		{"empty set", nil, "", false},
		{
			"warning beats watch",
			[]WarningPolygon{
				{ID: "w1", Event: TornadoWatch},
				{ID: "w2", Event: SevereThunderstormWarning},
			},
			SevereThunderstormWarning, true,
		},
		{
			"watch beats advisory",
			[]WarningPolygon{
				{ID: "a1", Event: EventType("Wind Advisory")},
				{ID: "w1", Event: TornadoWatch},
			},
			TornadoWatch, true,
		},
		{
			"tie keeps first encountered",
			[]WarningPolygon{
				{ID: "t1", Event: TornadoWarning},
				{ID: "t2", Event: ExtremeWindWarning},
			},
			TornadoWarning, true,
		},
		{
			"unknown product still ranks",
			[]WarningPolygon{{ID: "x", Event: EventType("Special Weather Statement")}},
			EventType("Special Weather Statement"), true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HighestPriority(tt.polys)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventType_IsWarningClass(t *testing.T) {
	assert.True(t, TornadoWarning.IsWarningClass())
	assert.True(t, SevereThunderstormWarning.IsWarningClass())
	assert.True(t, FlashFloodWarning.IsWarningClass())
	assert.True(t, ExtremeWindWarning.IsWarningClass())
	assert.False(t, TornadoWatch.IsWarningClass())
	assert.False(t, EventType("Dense Fog Advisory").IsWarningClass())
}
