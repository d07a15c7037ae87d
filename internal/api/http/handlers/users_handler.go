package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mutooni/mutooni-api/internal/api/dto"
	"github.com/mutooni/mutooni-api/internal/auth"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/service"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

// UsersHandler exposes user-account endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

// List GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filters := service.UserListFilters{Search: optionalQuery(c, "search")}
	filters.Limit, filters.Offset = pagination(c)
	if raw := optionalQuery(c, "role"); raw != nil {
		role, err := domain.ParseRole(*raw)
		if err != nil {
			return apperrors.NewValidationError("invalid role", map[string]any{"role": "must be one of: admin, standard"})
		}
		filters.Role = &role
	}
	if raw := optionalQuery(c, "is_active"); raw != nil {
		active, err := strconv.ParseBool(*raw)
		if err != nil {
			return apperrors.NewValidationError("invalid is_active", map[string]any{"is_active": "must be a boolean"})
		}
		filters.Active = &active
	}

	users, err := h.users.List(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Create POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	var req dto.UserCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input := service.CreateUserInput{
		Subject:   req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Active:    req.IsActive,
		Password:  req.Password,
	}
	if req.Role != nil {
		role := domain.Role(strings.ToLower(*req.Role))
		input.Role = &role
	}

	user, err := h.users.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	return h.update(c, false)
}

// Patch PATCH /api/users/:id.
func (h *UsersHandler) Patch(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *UsersHandler) update(c *fiber.Ctx, partial bool) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input := service.UpdateUserInput{
		Subject:   req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}
	if req.Role != nil {
		role := domain.Role(strings.ToLower(*req.Role))
		input.Role = &role
	}

	user, err := h.users.Update(c.UserContext(), actor, c.Params("id"), input, partial)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
