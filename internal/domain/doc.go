// Package domain models National Weather Service (NWS) alert data and the
// monitored-location entities the alert engine sweeps against.
//
// # Data Source
//
// Active alerts come from the NWS public API at https://api.weather.gov.
// The engine fetches /alerts/active?status=actual&message_type=alert once per
// sweep and keeps the result as an immutable snapshot for that sweep; alert
// polygons are never persisted. The API requires a descriptive User-Agent
// header identifying the application and a contact address.
//
// # Alert Conventions
//
// Event names are the human-readable NWS product names ("Tornado Warning",
// "Severe Thunderstorm Warning", ...). The engine buckets them by product
// class:
//
//	Warning  — imminent threat, highest priority
//	Watch    — conditions favorable
//	Advisory — everything else (advisories, statements, outlooks)
//
// Only four warning products count as high-priority for live location checks:
// Tornado Warning, Severe Thunderstorm Warning, Flash Flood Warning, and
// Extreme Wind Warning. Watches and advisories still produce personal alerts
// for saved locations but never trigger household fan-out.
//
// Alert geometry, when present, is a GeoJSON Polygon whose outer ring lists
// (longitude, latitude) pairs with the first vertex repeated at the end.
// Rings with fewer than four vertices are discarded as malformed. Alerts
// without polygon geometry (zone-based marine or fire products) are skipped
// by the snapshot fetch and reachable only through zone or point queries.
//
// # Geofencing
//
// [Contains] implements the even-odd ray-casting rule over the outer ring.
// Longitude is the x axis and latitude the y axis; callers must never swap
// them. Points exactly on a vertex or edge follow the crossing rule, which is
// consistent across calls but not guaranteed inclusive.
//
// # Monitoring Policy
//
// A premium user has up to three notification-enabled saved locations checked
// per sweep; a standard user has only their default location checked, and only
// when it has notifications enabled. Live location pings are evaluated at most
// once per user per sweep, using the newest ping inside the recency window.
package domain
