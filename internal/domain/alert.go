package domain

import "errors"

// Sentinel errors shared across the engine. Adapters map driver-level
// failures onto these so the sweep logic never inspects driver types.
var (
	// ErrSourceUnavailable wraps a failed or timed-out alert fetch. It is the
	// only error that aborts a whole sweep.
	ErrSourceUnavailable = errors.New("alert source unavailable")

	// ErrAlreadyNotified reports a ledger uniqueness hit: some other writer
	// recorded (user, alert) first. Treated as success by callers.
	ErrAlreadyNotified = errors.New("user already notified for alert")
)

// EventType is the NWS product name of an alert, e.g. "Tornado Warning".
type EventType string

const (
	TornadoWarning            EventType = "Tornado Warning"
	SevereThunderstormWarning EventType = "Severe Thunderstorm Warning"
	FlashFloodWarning         EventType = "Flash Flood Warning"
	ExtremeWindWarning        EventType = "Extreme Wind Warning"
	TornadoWatch              EventType = "Tornado Watch"
	SevereThunderstormWatch   EventType = "Severe Thunderstorm Watch"
)

// Severity buckets, ordered. Higher is more urgent.
const (
	severityAdvisory = 1
	severityWatch    = 2
	severityWarning  = 3
)

// SeverityRank buckets an event by product class: warnings over watches over
// everything else. Unrecognized products land in the advisory bucket rather
// than being dropped, so new NWS product names still notify.
func (e EventType) SeverityRank() int {
	switch e {
	case TornadoWarning, SevereThunderstormWarning, FlashFloodWarning, ExtremeWindWarning:
		return severityWarning
	case TornadoWatch, SevereThunderstormWatch:
		return severityWatch
	default:
		return severityAdvisory
	}
}

// IsWarningClass reports whether the event is one of the four high-priority
// warning products that trigger household fan-out.
func (e EventType) IsWarningClass() bool {
	return e.SeverityRank() == severityWarning
}

// Point is a WGS-84 coordinate. Lon is the x axis, Lat the y axis.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// WarningPolygon is one active alert with polygon geometry, immutable for the
// duration of a sweep.
type WarningPolygon struct {
	ID       string    // NWS alert identifier, unique per issuance
	Event    EventType
	Headline string
	Ring     []Point // closed outer ring, first vertex repeated last
}
