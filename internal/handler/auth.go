package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/healthcare-backend/internal/middleware"
	"github.com/iliyamo/healthcare-backend/internal/schema"
	"github.com/iliyamo/healthcare-backend/internal/service"
)

// AuthHandler exposes registration, login and token management.
type AuthHandler struct {
	Issuer *service.CredentialIssuer
}

func NewAuthHandler(issuer *service.CredentialIssuer) *AuthHandler {
	return &AuthHandler{Issuer: issuer}
}

// Register creates a user and returns it with a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req schema.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, pair, err := h.Issuer.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, schema.RegisterResponse{
		User:    schema.NewUserResponse(u),
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req schema.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	pair, err := h.Issuer.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, schema.TokenResponse(pair))
}

// Refresh rotates a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req schema.RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	pair, err := h.Issuer.Refresh(ctx, req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, schema.TokenResponse(pair))
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req schema.RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Issuer.Logout(ctx, req.Refresh); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Issuer.Me(ctx, middleware.IdentityFrom(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, schema.MeResponse{
		UserResponse: schema.NewUserResponse(u),
		CreatedAt:    u.CreatedAt,
	})
}
