package domain

import (
	"fmt"
	"math"
)

const (
	// DefaultRadiusMiles applies when a caller does not specify a radius.
	DefaultRadiusMiles = 1.0
	// MaxRadiusMiles is the largest alert radius offered to users.
	MaxRadiusMiles = 20.0

	metersPerMile = 1609.344
)

// AlertRadiusOptions are the radii, in miles, a user can pick for alerts.
var AlertRadiusOptions = []float64{1, 5, 10, 20}

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate rejects non-finite or out-of-range coordinates.
func (c Coordinate) Validate() error {
	if !isFinite(c.Latitude) || !isFinite(c.Longitude) {
		return Invalid("latitude and longitude must be finite numbers")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return Invalid(fmt.Sprintf("latitude %g out of range [-90, 90]", c.Latitude))
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return Invalid(fmt.Sprintf("longitude %g out of range [-180, 180]", c.Longitude))
	}
	return nil
}

// ValidateRadius checks a search radius in miles.
func ValidateRadius(miles float64) error {
	if !isFinite(miles) || miles <= 0 {
		return Invalid("radius must be a positive number of miles")
	}
	if miles > MaxRadiusMiles {
		return Invalid(fmt.Sprintf("radius must not exceed %g miles", MaxRadiusMiles))
	}
	return nil
}

// NormalizeRadius returns DefaultRadiusMiles for a nil radius and validates
// any explicit value.
func NormalizeRadius(miles *float64) (float64, error) {
	if miles == nil {
		return DefaultRadiusMiles, nil
	}
	if err := ValidateRadius(*miles); err != nil {
		return 0, err
	}
	return *miles, nil
}

// IsAlertRadiusOption reports whether miles is one of AlertRadiusOptions.
func IsAlertRadiusOption(miles float64) bool {
	for _, opt := range AlertRadiusOptions {
		if opt == miles {
			return true
		}
	}
	return false
}

// MilesToMeters converts a radius for map circle overlays.
func MilesToMeters(miles float64) float64 {
	return miles * metersPerMile
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
