// internal/models/filters.go
package models

import "time"

// PropertyFilter holds the optional search parameters. A nil/empty field
// contributes no predicate: absence means "no constraint", never "match
// nothing".
type PropertyFilter struct {
	PriceMin      *float64
	PriceMax      *float64
	SquareFeetMin *int
	SquareFeetMax *int
	PropertyType  string
	BedsMin       *int
	BathsMin      *float64
	Amenities     []string
	AvailableFrom *time.Time
	IDs           []string

	// Geospatial proximity; both must be set for the radius predicate.
	Latitude  *float64
	Longitude *float64
}
