package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/models"
)

type BrowseService interface {
	Search(ctx context.Context, term string) ([]*models.Listing, error)
	Browse(ctx context.Context, term string, filter models.ListingFilter) ([]*models.Listing, error)
	Facilities() []string
}

type browseService struct {
	listings ListingStore
	logger   *logrus.Logger
}

func NewBrowseService(listings ListingStore, logger *logrus.Logger) BrowseService {
	return &browseService{
		listings: listings,
		logger:   logger,
	}
}

func (s *browseService) Search(ctx context.Context, term string) ([]*models.Listing, error) {
	listings, err := s.listings.SearchAvailable(ctx, strings.TrimSpace(term))
	if err != nil {
		s.logger.WithError(err).WithField("term", term).Error("Failed to search listings")
		return nil, err
	}
	return listings, nil
}

func (s *browseService) Browse(ctx context.Context, term string, filter models.ListingFilter) ([]*models.Listing, error) {
	listings, err := s.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(listings, filter), nil
}

func (s *browseService) Facilities() []string {
	return append([]string(nil), models.Facilities...)
}
