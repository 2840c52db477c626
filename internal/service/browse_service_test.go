package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrent/marketplace/internal/mocks"
	"roomrent/marketplace/internal/models"
)

func TestBrowse_SearchThenFilter(t *testing.T) {
	listings := new(mocks.ListingStore)
	svc := NewBrowseService(listings, quietLogger())

	ctx := context.Background()
	listings.On("SearchAvailable", ctx, "thamel").Return([]*models.Listing{
		{ID: "a", Rent: 15000, Facilities: []string{"WiFi", "Parking"}, Available: true},
		{ID: "b", Rent: 9000, Facilities: []string{"Parking"}, Available: true},
	}, nil)

	filter := models.DefaultFilter()
	filter.Facilities = []string{"WiFi"}

	got, err := svc.Browse(ctx, "  thamel ", filter)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestBrowse_BackendError(t *testing.T) {
	listings := new(mocks.ListingStore)
	svc := NewBrowseService(listings, quietLogger())

	listings.On("SearchAvailable", context.Background(), "").Return(nil, models.ErrBackend)

	_, err := svc.Browse(context.Background(), "", models.DefaultFilter())
	assert.ErrorIs(t, err, models.ErrBackend)
}

func TestBrowse_FacilitiesIsACopy(t *testing.T) {
	svc := NewBrowseService(new(mocks.ListingStore), quietLogger())

	facilities := svc.Facilities()
	facilities[0] = "changed"

	assert.Equal(t, "WiFi", svc.Facilities()[0])
	assert.Len(t, facilities, 10)
}
