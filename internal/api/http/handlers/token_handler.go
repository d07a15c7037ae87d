package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mutooni/mutooni-api/internal/api/dto"
	"github.com/mutooni/mutooni-api/internal/service"
)

// TokenHandler issues locally signed tokens.
type TokenHandler struct {
	tokens *service.TokenService
}

// NewTokenHandler constructs handler.
func NewTokenHandler(tokenService *service.TokenService) *TokenHandler {
	return &TokenHandler{tokens: tokenService}
}

// Obtain POST /api/token/.
func (h *TokenHandler) Obtain(c *fiber.Ctx) error {
	var req dto.TokenObtainRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	pair, err := h.tokens.Obtain(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TokenPairResponse{
		Access:           pair.Access,
		Refresh:          pair.Refresh,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}})
}

// Refresh POST /api/token/refresh/.
func (h *TokenHandler) Refresh(c *fiber.Ctx) error {
	var req dto.TokenRefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	access, exp, err := h.tokens.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AccessTokenResponse{Access: access, AccessExpiresAt: exp}})
}
