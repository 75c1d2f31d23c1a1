// internal/models/property.go
package models

import "time"

// Coordinates is a longitude/latitude pair reconstructed from the stored
// geography point. (0,0) means "unknown location", not a valid point.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type Location struct {
	ID          int64       `json:"id"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	PostalCode  string      `json:"postalCode"`
	Coordinates Coordinates `json:"coordinates"`
}

type Property struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	PricePerMonth     float64   `json:"pricePerMonth"`
	SecurityDeposit   float64   `json:"securityDeposit"`
	ApplicationFee    float64   `json:"applicationFee"`
	Beds              int       `json:"beds"`
	Baths             float64   `json:"baths"`
	SquareFeet        int       `json:"squareFeet"`
	PropertyType      string    `json:"propertyType"`
	IsPetsAllowed     bool      `json:"isPetsAllowed"`
	IsParkingIncluded bool      `json:"isParkingIncluded"`
	Amenities         []string  `json:"amenities"`
	Highlights        []string  `json:"highlights"`
	PhotoURLs         []string  `json:"photoUrls"`
	LocationID        int64     `json:"locationId"`
	ManagerID         string    `json:"managerId"`
	PostedDate        time.Time `json:"postedDate"`

	Location *Location `json:"location,omitempty"`
	Manager  *Manager  `json:"manager,omitempty"`
}
