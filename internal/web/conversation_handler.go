package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type sendRequest struct {
	Message string `json:"message"`
}

func (s *Server) threads(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.services.Conversations.LoadThreads(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"threads": rooms})
}

func (s *Server) thread(w http.ResponseWriter, r *http.Request) {
	messages, err := s.services.Conversations.History(r.Context(), CurrentUser(r.Context()),
		chi.URLParam(r, "listingID"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"messages": messages})
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	msg, err := s.services.Conversations.Send(r.Context(), CurrentUser(r.Context()),
		chi.URLParam(r, "listingID"), chi.URLParam(r, "userID"), req.Message)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if msg == nil {
		writeJSON(w, http.StatusOK, envelope{"message": nil})
		return
	}

	s.metrics.MessagesSent.Inc()
	writeJSON(w, http.StatusCreated, envelope{"message": msg})
}
