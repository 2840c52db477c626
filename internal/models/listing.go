package models

import (
	"slices"
	"time"
)

// Facilities offered by the filter and editor forms. Listing facilities are
// free text and are not checked against this list.
var Facilities = []string{
	"WiFi",
	"Parking",
	"Kitchen",
	"Laundry",
	"AC",
	"Heater",
	"Furnished",
	"Pet Friendly",
	"Gym",
	"Swimming Pool",
}

type OwnerContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Listing struct {
	ID         string        `json:"id"`
	OwnerID    string        `json:"owner_id"`
	Title      string        `json:"title"`
	Rent       float64       `json:"rent"`
	Location   string        `json:"location"`
	Facilities []string      `json:"facilities"`
	Images     []string      `json:"images"`
	Available  bool          `json:"available"`
	CreatedAt  time.Time     `json:"created_at"`
	Owner      *OwnerContact `json:"owner,omitempty"`
}

func (l *Listing) HasFacility(name string) bool {
	return slices.Contains(l.Facilities, name)
}

type ListingForm struct {
	Title      string   `json:"title" validate:"required"`
	Rent       float64  `json:"rent" validate:"gte=0"`
	Location   string   `json:"location" validate:"required"`
	Facilities []string `json:"facilities"`
	Available  bool     `json:"available"`
}

type ListingFilter struct {
	MinRent    float64  `json:"min_rent"`
	MaxRent    float64  `json:"max_rent"`
	Facilities []string `json:"facilities"`
	Available  bool     `json:"available"`
}

const (
	DefaultMinRent = 0
	DefaultMaxRent = 50000
)

func DefaultFilter() ListingFilter {
	return ListingFilter{
		MinRent:    DefaultMinRent,
		MaxRent:    DefaultMaxRent,
		Facilities: []string{},
		Available:  true,
	}
}

type DashboardStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

type Dashboard struct {
	Listings []*Listing     `json:"listings"`
	Stats    DashboardStats `json:"stats"`
}
