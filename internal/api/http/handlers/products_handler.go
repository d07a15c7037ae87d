package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mutooni/mutooni-api/internal/api/dto"
	"github.com/mutooni/mutooni-api/internal/service"
)

// ProductsHandler exposes product endpoints.
type ProductsHandler struct {
	catalog *service.CatalogService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(catalog *service.CatalogService) *ProductsHandler {
	return &ProductsHandler{catalog: catalog}
}

// List GET /api/products.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filters := service.ListFilters{Search: optionalQuery(c, "search")}
	filters.Limit, filters.Offset = pagination(c)

	products, err := h.catalog.List(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, dto.NewProductResponse(&products[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/products/:id.
func (h *ProductsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	product, err := h.catalog.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Create POST /api/products.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.catalog.Create(c.UserContext(), actor, productInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Update PUT /api/products/:id.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	return h.update(c, false)
}

// Patch PATCH /api/products/:id.
func (h *ProductsHandler) Patch(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *ProductsHandler) update(c *fiber.Ctx, partial bool) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.catalog.Update(c.UserContext(), actor, c.Params("id"), productInput(req), partial)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Delete DELETE /api/products/:id.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.catalog.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func productInput(req dto.ProductRequest) service.ProductInput {
	return service.ProductInput{
		Name:          req.Name,
		SKU:           req.SKU,
		UnitPrice:     req.UnitPrice,
		StockQuantity: req.StockQuantity,
	}
}
