// Package domain models street-level crime data and the lookups around it.
//
// # Data Sources
//
// Incidents come from an incident-data API that mirrors the UK police open
// data feed (https://data.police.uk/docs/). Postcodes are geocoded by
// postcodes.io (https://postcodes.io/). Predictions come from a model service
// that ranks likely crime categories for a location and month.
//
// # Incident Conventions
//
// Categories:
//
//	Slugs such as "burglary", "anti-social-behaviour", "vehicle-crime".
//	Upstream data is not consistently trimmed, so "theft " and "theft" are
//	the same category. Grouping always uses [Incident.GroupKey].
//
// Locations:
//
//	Map points are anonymised: each incident is snapped to the nearest of a
//	fixed set of points, so several incidents often share one coordinate.
//	Latitude and longitude are decimal strings, e.g. "51.501009".
//
// Months:
//
//	"YYYY-MM", e.g. "2025-05". Street-level data is published monthly and
//	lags by roughly two months.
//
// Outcomes:
//
//	outcome_status is null until a resolution is recorded.
//
// # Capping
//
// A nearby query can return hundreds of incidents. [CapPerCategory] keeps the
// first [MaxPerCategory] incidents of each category in upstream order, and
// emits categories in the order they were first seen.
//
// # Radius
//
// Radii are in miles everywhere. A missing radius means [DefaultRadiusMiles];
// values must be positive and at most [MaxRadiusMiles]. Use [MilesToMeters]
// for map overlays.
//
// # Errors
//
// Every upstream-facing operation fails with an [*Error] whose Kind is one
// of network_failure, service_rejection, no_match, malformed_response,
// invalid_input or superseded, and whose Message can be shown to users.
package domain
