// Package handler provides HTTP request handling for the login server.
package handler

import (
	"net/http"

	"github.com/brizzai/miniauth/internal/auth"
	"github.com/brizzai/miniauth/internal/auth/constants"
	"github.com/brizzai/miniauth/internal/auth/middleware"
	"github.com/brizzai/miniauth/internal/logger"
	"github.com/brizzai/miniauth/internal/metrics"
	"github.com/brizzai/miniauth/internal/utils"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handler manages HTTP routing and middleware configuration.
type Handler struct {
	auth    *auth.Service
	metrics *metrics.Metrics
}

// NewHandler creates a new HTTP handler. metrics may be nil.
func NewHandler(auth *auth.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		auth:    auth,
		metrics: m,
	}
}

// CreateHTTPHandler builds the router with the middleware stack.
func (h *Handler) CreateHTTPHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteFailure(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteFailure(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	h.auth.RegisterRoutes(r)
	logger.Info("Registered login routes")

	if h.metrics != nil {
		r.Method(http.MethodGet, constants.MetricsPath, h.metrics.Handler())
		logger.Info("Exposing metrics", zap.String("path", constants.MetricsPath))
	}

	return h.auth.WrapWithCors(r)
}
