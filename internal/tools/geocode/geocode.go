// Package geocode defines the place-to-coordinates tool contract.
package geocode

import "context"

// ToolName is the wire name of the geocoding tool.
const ToolName = "geocode_location"

// Location is a resolved place. Lat and Lon are only meaningful when
// Resolved is true; an unresolved location still carries its name so the
// composer can fall back to a search link.
type Location struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`
	Resolved    bool    `json:"resolved"`
	Day         int     `json:"day,omitempty"` // itinerary day the place belongs to
}

// Geocoder resolves a free-text place name. A miss is (nil, nil): only
// transport or decoding problems are errors.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (*Location, error)
}
