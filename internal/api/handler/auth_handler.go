package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/gateway/internal/api/metrics"
	"github.com/expensehub/gateway/internal/core/domain"
	"github.com/expensehub/gateway/internal/core/ports"
)

const (
	msgLoggedIn      = "User logged in successfully"
	msgRegistered    = "User Registered in successfully"
	msgPasswordReset = "password reset!"
	msgDeleted       = "deleted"
)

var errInvalidPayload = domain.NewValidationError("invalid payload")

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login verifies credentials and returns a signed token in both the body and
// the Authorization response header.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.UserName, req.Password)
	countOutcome("login", err)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderAuthorization, res.Token)
	return c.JSON(http.StatusOK, loginResponse{Message: msgLoggedIn, Token: res.Token})
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		UserName: req.UserName,
		Password: req.Password,
		Age:      *req.Age,
		Phone:    *req.Phone,
	})
	countOutcome("register", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msgRegistered})
}

// ForgotPassword rejects bodies with fields other than userName.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return errInvalidPayload
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.authService.ForgotPassword(c.Request().Context(), req.UserName)
	countOutcome("forgot_password", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msgPasswordReset})
}

// Clean wipes the identity store. Only mounted when explicitly allowed.
func (h *AuthHandler) Clean(c echo.Context) error {
	err := h.authService.Clean(c.Request().Context())
	countOutcome("clean", err)
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, msgDeleted)
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidPayload
	}
	return c.Validate(req)
}

func countOutcome(op string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.AuthOutcomesTotal.WithLabelValues(op, result).Inc()
}
