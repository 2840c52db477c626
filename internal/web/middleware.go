package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/metrics"
	"roomrent/marketplace/internal/models"
	"roomrent/marketplace/internal/service"
)

const (
	SessionCookie = "session"
	anonymousRole = "anonymous"
)

type Enforcer interface {
	EnforceSafe(rvals ...interface{}) (bool, error)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func requestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"route":      routePattern(r),
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("HTTP request")
		})
	}
}

func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
			m.RequestLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	// browsers cannot set headers on websocket handshakes
	return r.URL.Query().Get("access_token")
}

// resolveSession attaches the signed-in user to the request context. Invalid
// or expired tokens leave the request anonymous.
func resolveSession(sessions service.SessionProvider, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, _, err := sessions.Current(r.Context(), token)
			if err != nil {
				if errors.Is(err, models.ErrAuth) {
					logger.WithError(err).Debug("Ignoring invalid session token")
					next.ServeHTTP(w, r)
					return
				}
				writeError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), user, token)))
		})
	}
}

// authorize checks the caller's role against the route pattern. It must be
// installed inside a chi group so the pattern is known.
func authorize(enforcer Enforcer, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			role := anonymousRole
			if user != nil {
				role = string(user.Role)
			}
			route := routePattern(r)

			allowed, err := enforcer.EnforceSafe(role, route, r.Method)
			if err != nil {
				logger.WithError(err).Error("Error enforcing authorization policy")
				writeError(w, r, logger, err)
				return
			}
			if !allowed {
				logger.WithFields(logrus.Fields{
					"role":   role,
					"route":  route,
					"method": r.Method,
				}).Warn("Access denied")
				if user == nil {
					writeError(w, r, logger, models.ErrAuthRequired)
					return
				}
				writeError(w, r, logger, models.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
