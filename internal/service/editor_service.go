package service

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/models"
)

const (
	DashboardRoute        = "/dashboard"
	DefaultMaxUploadBytes = 10 << 20
)

type EditorService interface {
	UploadImages(ctx context.Context, files []Upload) ([]string, error)
	Create(ctx context.Context, owner *models.User, form models.ListingForm, files []Upload) (*models.Listing, string, error)
	LoadForEdit(ctx context.Context, owner *models.User, id string) (*models.Listing, error)
	Update(ctx context.Context, owner *models.User, id string, form models.ListingForm, keep []string, files []Upload) (*models.Listing, string, error)
}

type editorService struct {
	listings       ListingStore
	images         ImageStore
	validate       *validator.Validate
	maxUploadBytes int64
	now            func() time.Time
	logger         *logrus.Logger
}

func NewEditorService(listings ListingStore, images ImageStore, maxUploadBytes int64, logger *logrus.Logger) EditorService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &editorService{
		listings:       listings,
		images:         images,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
		logger:         logger,
	}
}

func requireOwner(user *models.User) error {
	if user == nil {
		return models.ErrAuthRequired
	}
	if !user.IsOwner() {
		return fmt.Errorf("%w: owner role required", models.ErrForbidden)
	}
	return nil
}

func (s *editorService) checkUpload(file Upload) error {
	if path.Base(file.Name) == "." || path.Base(file.Name) == "/" {
		return fmt.Errorf("%w: file name is required", models.ErrInvalidInput)
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return fmt.Errorf("%w: %s is not an image", models.ErrInvalidInput, file.Name)
	}
	if file.Size > s.maxUploadBytes {
		return fmt.Errorf("%w: %s exceeds %d bytes", models.ErrInvalidInput, file.Name, s.maxUploadBytes)
	}
	return nil
}

// UploadImages stores files under "<unix millis>-<file name>" and returns
// their public URLs in upload order. Names are not deduplicated.
func (s *editorService) UploadImages(ctx context.Context, files []Upload) ([]string, error) {
	for _, file := range files {
		if err := s.checkUpload(file); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), path.Base(file.Name))
		if err := s.images.Put(ctx, name, file.Body, file.Size, file.ContentType); err != nil {
			s.logger.WithError(err).WithField("object", name).Error("Failed to upload image")
			return nil, err
		}
		urls = append(urls, s.images.PublicURL(name))
	}
	return urls, nil
}

func (s *editorService) validForm(form models.ListingForm) (models.ListingForm, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Location = strings.TrimSpace(form.Location)
	if form.Facilities == nil {
		form.Facilities = []string{}
	}
	if err := s.validate.Struct(form); err != nil {
		return form, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return form, nil
}

func (s *editorService) Create(ctx context.Context, owner *models.User, form models.ListingForm, files []Upload) (*models.Listing, string, error) {
	if err := requireOwner(owner); err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", models.ErrImagesRequired
	}

	form, err := s.validForm(form)
	if err != nil {
		return nil, "", err
	}

	urls, err := s.UploadImages(ctx, files)
	if err != nil {
		return nil, "", err
	}

	listing := &models.Listing{
		ID:         uuid.New().String(),
		OwnerID:    owner.ID,
		Title:      form.Title,
		Rent:       form.Rent,
		Location:   form.Location,
		Facilities: form.Facilities,
		Images:     urls,
		Available:  form.Available,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		s.logger.WithError(err).Error("Failed to create listing")
		return nil, "", err
	}

	s.logger.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"owner_id":   owner.ID,
		"images":     len(urls),
	}).Info("Listing created")

	return listing, DashboardRoute, nil
}

func (s *editorService) LoadForEdit(ctx context.Context, owner *models.User, id string) (*models.Listing, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	listing, err := s.listings.GetOwned(ctx, id, owner.ID)
	if err != nil {
		s.logger.WithError(err).WithField("listing_id", id).Warn("Failed to load listing for edit")
		return nil, err
	}
	return listing, nil
}

// Update keeps the existing images named in keep, in their existing order,
// followed by the new uploads.
func (s *editorService) Update(ctx context.Context, owner *models.User, id string, form models.ListingForm, keep []string, files []Upload) (*models.Listing, string, error) {
	listing, err := s.LoadForEdit(ctx, owner, id)
	if err != nil {
		return nil, "", err
	}

	form, err = s.validForm(form)
	if err != nil {
		return nil, "", err
	}

	urls, err := s.UploadImages(ctx, files)
	if err != nil {
		return nil, "", err
	}

	images := make([]string, 0, len(listing.Images)+len(urls))
	for _, image := range listing.Images {
		if slices.Contains(keep, image) {
			images = append(images, image)
		}
	}
	images = append(images, urls...)

	listing.Title = form.Title
	listing.Rent = form.Rent
	listing.Location = form.Location
	listing.Facilities = form.Facilities
	listing.Available = form.Available
	listing.Images = images

	if err := s.listings.Update(ctx, listing); err != nil {
		s.logger.WithError(err).WithField("listing_id", id).Error("Failed to update listing")
		return nil, "", err
	}

	s.logger.WithField("listing_id", id).Info("Listing updated")
	return listing, DashboardRoute, nil
}
