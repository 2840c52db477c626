package web

import (
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"roomrent/marketplace/internal/models"
	"roomrent/marketplace/internal/service"
)

const multipartMemory = 8 << 20

func parseRent(value string, fallback float64) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	rent, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(rent) || math.IsInf(rent, 0) {
		return 0, fmt.Errorf("%w: rent must be a number", models.ErrInvalidInput)
	}
	return rent, nil
}

// parseFilter reads min_rent, max_rent and repeated facility parameters,
// falling back to the default filter.
func parseFilter(r *http.Request) (models.ListingFilter, error) {
	query := r.URL.Query()
	filter := models.DefaultFilter()

	var err error
	if filter.MinRent, err = parseRent(query.Get("min_rent"), filter.MinRent); err != nil {
		return filter, err
	}
	if filter.MaxRent, err = parseRent(query.Get("max_rent"), filter.MaxRent); err != nil {
		return filter, err
	}
	for _, facility := range query["facility"] {
		if facility = strings.TrimSpace(facility); facility != "" {
			filter.Facilities = append(filter.Facilities, facility)
		}
	}
	return filter, nil
}

func (s *Server) facilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"facilities": s.services.Browse.Facilities()})
}

func (s *Server) browse(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	scope := service.NewScope(r.Context())
	defer scope.Close()

	listings, err := s.services.Browse.Browse(scope.Context(), r.URL.Query().Get("q"), filter)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"listings": listings, "filter": filter})
}

func (s *Server) listingDetail(w http.ResponseWriter, r *http.Request) {
	listing, err := s.services.Detail.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"listing": listing})
}

func (s *Server) contactOwner(w http.ResponseWriter, r *http.Request) {
	next, err := s.services.Detail.ContactOwner(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"notice": "Conversation started", "next": next})
}

type listingSubmission struct {
	form    models.ListingForm
	keep    []string
	uploads []service.Upload
	files   []multipart.File
}

func (l *listingSubmission) close() {
	for _, f := range l.files {
		_ = f.Close()
	}
}

func (s *Server) parseListingForm(w http.ResponseWriter, r *http.Request) (*listingSubmission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxUploadBytes*10+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	rent, err := parseRent(r.FormValue("rent"), -1)
	if err != nil {
		return nil, err
	}
	available, _ := strconv.ParseBool(r.FormValue("available"))
	if r.FormValue("available") == "on" {
		available = true
	}

	sub := &listingSubmission{
		form: models.ListingForm{
			Title:      r.FormValue("title"),
			Rent:       rent,
			Location:   r.FormValue("location"),
			Facilities: r.MultipartForm.Value["facilities"],
			Available:  available,
		},
		keep: r.MultipartForm.Value["keep"],
	}

	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			sub.close()
			return nil, fmt.Errorf("%w: open %s: %v", models.ErrInvalidInput, header.Filename, err)
		}
		sub.files = append(sub.files, file)
		sub.uploads = append(sub.uploads, service.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
	}
	return sub, nil
}

func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	sub, err := s.parseListingForm(w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	defer sub.close()

	listing, next, err := s.services.Editor.Create(r.Context(), CurrentUser(r.Context()), sub.form, sub.uploads)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.metrics.ListingsCreated.Inc()
	writeJSON(w, http.StatusCreated, envelope{
		"notice":  "Listing created successfully!",
		"listing": listing,
		"next":    next,
	})
}

func (s *Server) editListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.services.Editor.LoadForEdit(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"listing": listing, "facilities": s.services.Browse.Facilities()})
}

func (s *Server) updateListing(w http.ResponseWriter, r *http.Request) {
	sub, err := s.parseListingForm(w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	defer sub.close()

	listing, next, err := s.services.Editor.Update(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "id"), sub.form, sub.keep, sub.uploads)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"notice":  "Listing updated successfully!",
		"listing": listing,
		"next":    next,
	})
}
