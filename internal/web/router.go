package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/metrics"
	"roomrent/marketplace/internal/service"
)

type Services struct {
	Sessions      service.SessionProvider
	Browse        service.BrowseService
	Detail        service.DetailService
	Editor        service.EditorService
	Dashboard     service.DashboardService
	Conversations service.ConversationService
}

type Options struct {
	MaxUploadBytes int64
	SecureCookies  bool
}

type Server struct {
	services Services
	metrics  *metrics.Metrics
	options  Options
	logger   *logrus.Logger
}

func NewRouter(services Services, enforcer Enforcer, m *metrics.Metrics, options Options, logger *logrus.Logger) http.Handler {
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = service.DefaultMaxUploadBytes
	}
	s := &Server{
		services: services,
		metrics:  m,
		options:  options,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(instrument(m))

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(resolveSession(services.Sessions, logger))
		r.Use(authorize(enforcer, logger))

		r.Post("/api/auth/signup", s.signUp)
		r.Post("/api/auth/login", s.signIn)
		r.Post("/api/auth/logout", s.signOut)
		r.Get("/api/auth/me", s.me)

		r.Get("/api/facilities", s.facilities)
		r.Get("/api/listings", s.browse)
		r.Post("/api/listings", s.createListing)
		r.Get("/api/listings/{id}", s.listingDetail)
		r.Put("/api/listings/{id}", s.updateListing)
		r.Get("/api/listings/{id}/edit", s.editListing)
		r.Post("/api/listings/{id}/contact", s.contactOwner)

		r.Get("/api/dashboard", s.dashboard)
		r.Delete("/api/dashboard/listings/{id}", s.deleteListing)
		r.Patch("/api/dashboard/listings/{id}/availability", s.toggleAvailability)

		r.Get("/api/conversations", s.threads)
		r.Get("/api/conversations/{listingID}/{userID}", s.thread)
		r.Post("/api/conversations/{listingID}/{userID}/messages", s.sendMessage)
		r.Get("/api/conversations/{listingID}/{userID}/ws", s.threadStream)
	})

	return r
}
