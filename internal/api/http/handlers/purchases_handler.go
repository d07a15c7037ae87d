package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mutooni/mutooni-api/internal/api/dto"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/service"
)

// PurchasesHandler exposes purchase endpoints.
type PurchasesHandler struct {
	purchases *service.PurchaseService
}

// NewPurchasesHandler constructs handler.
func NewPurchasesHandler(purchases *service.PurchaseService) *PurchasesHandler {
	return &PurchasesHandler{purchases: purchases}
}

// List GET /api/purchases?status=&supplier=.
func (h *PurchasesHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filters := service.PurchaseListFilters{SupplierID: optionalQuery(c, "supplier")}
	filters.Limit, filters.Offset = pagination(c)
	if raw := optionalQuery(c, "status"); raw != nil {
		status := domain.PurchaseStatus(*raw)
		filters.Status = &status
	}

	purchases, err := h.purchases.List(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	items := make([]dto.PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		items = append(items, dto.NewPurchaseResponse(&purchases[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/purchases/:id.
func (h *PurchasesHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	purchase, err := h.purchases.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPurchaseResponse(purchase)})
}

// Create POST /api/purchases.
func (h *PurchasesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PurchaseCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input := service.CreatePurchaseInput{
		SupplierID: req.SupplierID,
		Lines:      make([]service.PurchaseLineInput, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, service.PurchaseLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	purchase, err := h.purchases.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPurchaseResponse(purchase)})
}

// ChangeStatus POST /api/purchases/:id/status.
func (h *PurchasesHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PurchaseStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	purchase, err := h.purchases.ChangeStatus(c.UserContext(), actor, c.Params("id"), domain.PurchaseStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPurchaseResponse(purchase)})
}

// Delete DELETE /api/purchases/:id.
func (h *PurchasesHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.purchases.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
