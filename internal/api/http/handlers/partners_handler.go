package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mutooni/mutooni-api/internal/api/dto"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/service"
)

// PartnersHandler exposes client or supplier endpoints, depending on kind.
type PartnersHandler struct {
	partners *service.PartnerService
	kind     domain.PartnerKind
}

// NewPartnersHandler constructs a handler bound to one partner kind.
func NewPartnersHandler(partners *service.PartnerService, kind domain.PartnerKind) *PartnersHandler {
	return &PartnersHandler{partners: partners, kind: kind}
}

// List GET /api/clients, /api/suppliers.
func (h *PartnersHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filters := service.ListFilters{Search: optionalQuery(c, "search")}
	filters.Limit, filters.Offset = pagination(c)

	partners, err := h.partners.List(c.UserContext(), actor, h.kind, filters)
	if err != nil {
		return err
	}
	items := make([]dto.PartnerResponse, 0, len(partners))
	for i := range partners {
		items = append(items, dto.NewPartnerResponse(&partners[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/clients/:id, /api/suppliers/:id.
func (h *PartnersHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	partner, err := h.partners.Get(c.UserContext(), actor, h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPartnerResponse(partner)})
}

// Create POST /api/clients, /api/suppliers.
func (h *PartnersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PartnerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	partner, err := h.partners.Create(c.UserContext(), actor, h.kind, partnerInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPartnerResponse(partner)})
}

// Update PUT /api/clients/:id, /api/suppliers/:id.
func (h *PartnersHandler) Update(c *fiber.Ctx) error {
	return h.update(c, false)
}

// Patch PATCH /api/clients/:id, /api/suppliers/:id.
func (h *PartnersHandler) Patch(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *PartnersHandler) update(c *fiber.Ctx, partial bool) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PartnerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	partner, err := h.partners.Update(c.UserContext(), actor, h.kind, c.Params("id"), partnerInput(req), partial)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPartnerResponse(partner)})
}

// Delete DELETE /api/clients/:id, /api/suppliers/:id.
func (h *PartnersHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.partners.Delete(c.UserContext(), actor, h.kind, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func partnerInput(req dto.PartnerRequest) service.PartnerInput {
	return service.PartnerInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}
}
