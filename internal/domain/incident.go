package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Incident is a single recorded crime as returned by the incident-data API.
type Incident struct {
	ID              FlexString       `json:"id"`
	Category        string           `json:"category"`
	Context         string           `json:"context,omitempty"`
	Month           string           `json:"month"` // YYYY-MM
	Location        IncidentLocation `json:"location"`
	PersistentID    string           `json:"persistent_id,omitempty"`
	LocationType    string           `json:"location_type,omitempty"`
	LocationSubtype string           `json:"location_subtype,omitempty"`
	OutcomeStatus   *OutcomeStatus   `json:"outcome_status"` // nil when unresolved
}

// IncidentLocation is the anonymised map point an incident is snapped to.
// Latitude and longitude arrive as decimal strings.
type IncidentLocation struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Street    Street `json:"street"`
}

// Street identifies the street an incident location sits on.
type Street struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// OutcomeStatus is the latest recorded outcome for an incident.
type OutcomeStatus struct {
	Category string `json:"category"`
	Date     string `json:"date"`
}

// GroupKey returns the category used for grouping. Upstream categories carry
// inconsistent surrounding whitespace.
func (i Incident) GroupKey() string {
	return strings.TrimSpace(i.Category)
}

// Coordinate parses the incident's string location into a Coordinate.
func (i Incident) Coordinate() (Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(i.Location.Latitude), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse latitude %q: %w", i.Location.Latitude, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(i.Location.Longitude), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse longitude %q: %w", i.Location.Longitude, err)
	}
	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

// FlexString decodes from either a JSON string or a JSON number. The police
// data feed sends numeric ids; other sources send strings.
type FlexString string

// UnmarshalJSON accepts a JSON string or number. null decodes to "".
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the decoded value.
func (f FlexString) String() string { return string(f) }
