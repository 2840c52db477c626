package web

import (
	"net/http"
	"time"

	"roomrent/marketplace/internal/auth"
	"roomrent/marketplace/internal/models"
)

func (s *Server) setSessionCookie(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.options.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.options.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var form models.SignUpForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	session, user, err := s.services.Sessions.SignUp(r.Context(), form)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.metrics.SignIns.Inc()
	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, envelope{
		"notice":     "Account created successfully!",
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       user,
	})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var form models.SignInForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	session, user, err := s.services.Sessions.SignIn(r.Context(), form)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.metrics.SignIns.Inc()
	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, envelope{
		"notice":     "Signed in successfully!",
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       user,
	})
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Sessions.SignOut(r.Context(), sessionToken(r.Context())); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, envelope{"notice": "Signed out successfully!"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"user": CurrentUser(r.Context())})
}
