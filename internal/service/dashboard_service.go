package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/models"
)

type DashboardService interface {
	List(ctx context.Context, owner *models.User) (*models.Dashboard, error)
	Remove(ctx context.Context, owner *models.User, id string, confirmed bool) error
	ToggleAvailability(ctx context.Context, owner *models.User, id string) (*models.Dashboard, error)
}

type dashboardService struct {
	listings ListingStore
	logger   *logrus.Logger
}

func NewDashboardService(listings ListingStore, logger *logrus.Logger) DashboardService {
	return &dashboardService{
		listings: listings,
		logger:   logger,
	}
}

func Summarize(listings []*models.Listing) models.DashboardStats {
	stats := models.DashboardStats{Total: len(listings)}
	for _, listing := range listings {
		if listing.Available {
			stats.Active++
		}
	}
	stats.Inactive = stats.Total - stats.Active
	return stats
}

func (s *dashboardService) List(ctx context.Context, owner *models.User) (*models.Dashboard, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	listings, err := s.listings.ListByOwner(ctx, owner.ID)
	if err != nil {
		s.logger.WithError(err).WithField("owner_id", owner.ID).Error("Failed to list owner listings")
		return nil, err
	}

	return &models.Dashboard{
		Listings: listings,
		Stats:    Summarize(listings),
	}, nil
}

func (s *dashboardService) Remove(ctx context.Context, owner *models.User, id string, confirmed bool) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if !confirmed {
		return models.ErrConfirmationRequired
	}

	if err := s.listings.Delete(ctx, id, owner.ID); err != nil {
		s.logger.WithError(err).WithField("listing_id", id).Error("Failed to delete listing")
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"listing_id": id,
		"owner_id":   owner.ID,
	}).Info("Listing deleted")
	return nil
}

func (s *dashboardService) ToggleAvailability(ctx context.Context, owner *models.User, id string) (*models.Dashboard, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	available, err := s.listings.ToggleAvailability(ctx, id, owner.ID)
	if err != nil {
		s.logger.WithError(err).WithField("listing_id", id).Error("Failed to toggle availability")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"listing_id": id,
		"available":  available,
	}).Info("Listing availability toggled")

	return s.List(ctx, owner)
}
