package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/gateway/internal/api/middleware"
	"github.com/expensehub/gateway/internal/core/domain"
)

// UserHandler serves the protected identity routes.
type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

type meResponse struct {
	RequestID string              `json:"requestId"`
	Claims    *domain.TokenClaims `json:"claims"`
}

// Me returns the caller's decoded token claims.
func (h *UserHandler) Me(c echo.Context) error {
	claims := middleware.ClaimsOf(c)
	if claims == nil {
		return domain.ErrMissingToken
	}
	return c.JSON(http.StatusOK, meResponse{
		RequestID: middleware.RequestIDOf(c),
		Claims:    claims,
	})
}
