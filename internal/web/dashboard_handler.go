package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.services.Dashboard.List(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) deleteListing(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	err := s.services.Dashboard.Remove(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "id"), confirmed)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"notice": "Listing deleted successfully!"})
}

func (s *Server) toggleAvailability(w http.ResponseWriter, r *http.Request) {
	board, err := s.services.Dashboard.ToggleAvailability(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"notice":   "Availability updated",
		"listings": board.Listings,
		"stats":    board.Stats,
	})
}
