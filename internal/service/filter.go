package service

import (
	"roomrent/marketplace/internal/models"
)

// ApplyFilter keeps listings whose rent lies within [MinRent, MaxRent] and
// whose facilities include every requested facility. Available is not
// consulted; browse results are already available-only.
func ApplyFilter(listings []*models.Listing, filter models.ListingFilter) []*models.Listing {
	filtered := make([]*models.Listing, 0, len(listings))
	for _, listing := range listings {
		if matches(listing, filter) {
			filtered = append(filtered, listing)
		}
	}
	return filtered
}

func matches(listing *models.Listing, filter models.ListingFilter) bool {
	if listing.Rent < filter.MinRent || listing.Rent > filter.MaxRent {
		return false
	}
	for _, facility := range filter.Facilities {
		if !listing.HasFacility(facility) {
			return false
		}
	}
	return true
}
