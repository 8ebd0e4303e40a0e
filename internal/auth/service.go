package auth

import (
	"net/http"

	"github.com/brizzai/miniauth/internal/auth/constants"
	"github.com/brizzai/miniauth/internal/auth/handlers"
	"github.com/brizzai/miniauth/internal/auth/middleware"
	"github.com/brizzai/miniauth/internal/auth/session"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
)

// Service exposes the login flow over HTTP
type Service struct {
	config  *config.ServerConfig
	issuer  *session.Issuer
	handler *handlers.Handler
}

// NewService creates a new login service
func NewService(cfg *config.ServerConfig, issuer *session.Issuer) *Service {
	return &Service{
		config:  cfg,
		issuer:  issuer,
		handler: handlers.NewHandler(issuer),
	}
}

// RegisterRoutes registers all login-related routes
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Post(constants.LoginPath, s.handler.HandleLogin)
}

// WrapWithCors wraps the handler with the configured CORS policy
func (s *Service) WrapWithCors(handler http.Handler) http.Handler {
	return middleware.CORSWithOrigins(s.config.AllowOrigins)(handler)
}

// Issuer returns the underlying session issuer
func (s *Service) Issuer() *session.Issuer {
	return s.issuer
}

// Module provides the login service
var Module = fx.Module("auth",
	fx.Provide(NewService),
)
