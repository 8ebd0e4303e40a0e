package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/constants"
	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/brizzai/miniauth/internal/logger"
	"github.com/brizzai/miniauth/internal/utils"
	"go.uber.org/zap"
)

// LoginService is the login flow as seen by the HTTP layer
type LoginService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
}

// Handler handles login HTTP requests
type Handler struct {
	service LoginService
}

// NewHandler creates a new Handler instance
func NewHandler(service LoginService) *Handler {
	return &Handler{service: service}
}

// HandleLogin handles POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req := extractLoginRequest(r)

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		utils.WriteFailure(w, autherr.KindOf(err).HTTPStatus(), autherr.Public(err))
		return
	}

	utils.WriteSuccess(w, result, constants.LoginSucceededMessage)
}

// extractLoginRequest reads the JSON body first; a body that does not parse or
// carries no code falls back to the code query parameter.
func extractLoginRequest(r *http.Request) models.LoginRequest {
	var req models.LoginRequest

	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, constants.MaxLoginBodyBytes))
		if err != nil {
			logger.Debug("Failed to read login body", zap.Error(err))
		} else if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				logger.Debug("Login body is not JSON, falling back to query", zap.Error(err))
				req = models.LoginRequest{}
			}
		}
	}

	if strings.TrimSpace(req.Code) == "" {
		req.Code = r.URL.Query().Get(constants.CodeQueryParam)
	}
	return req
}
