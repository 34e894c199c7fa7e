package domain

import (
	"time"

	"github.com/google/uuid"
)

// Digest is the capped incident snapshot for a home area, published so
// alerting consumers can notify users who opted in.
type Digest struct {
	ID             string         `json:"id"`
	PostalCode     string         `json:"postal_code"`
	Center         Coordinate     `json:"center"`
	RadiusMiles    float64        `json:"radius_miles"`
	Incidents      []Incident     `json:"incidents"`
	CategoryCounts map[string]int `json:"category_counts"`
	FetchedAt      time.Time      `json:"fetched_at"`
}

// NewDigest builds a digest stamped with a fresh id and the package clock.
func NewDigest(postalCode string, center Coordinate, radiusMiles float64, incidents []Incident) Digest {
	return Digest{
		ID:             uuid.NewString(),
		PostalCode:     postalCode,
		Center:         center,
		RadiusMiles:    radiusMiles,
		Incidents:      incidents,
		CategoryCounts: CategoryCounts(incidents),
		FetchedAt:      clock.Now().UTC(),
	}
}
