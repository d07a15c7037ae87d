package service

import (
	"context"
	"strings"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

// CatalogService manages products.
type CatalogService struct {
	products repository.ProductRepository
}

// ProductInput carries product fields. Nil pointers are left untouched on partial updates.
type ProductInput struct {
	Name          *string
	SKU           *string
	UnitPrice     *int64
	StockQuantity *int64
}

// ListFilters are the generic search and paging parameters of list endpoints.
type ListFilters struct {
	Search *string
	Limit  int
	Offset int
}

// NewCatalogService constructs the service.
func NewCatalogService(products repository.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) List(ctx context.Context, actor *domain.User, filters ListFilters) ([]domain.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, repository.ProductFilter{Search: filters.Search, Limit: filters.Limit, Offset: filters.Offset})
	if err != nil {
		return nil, mapRepoError(err, "product")
	}
	return products, nil
}

func (s *CatalogService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "product")
	}
	return product, nil
}

func (s *CatalogService) Create(ctx context.Context, actor *domain.User, input ProductInput) (*domain.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	product := &domain.Product{}
	if err := applyProductInput(product, input, false); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, mapRepoError(err, "product")
	}
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, actor *domain.User, id string, input ProductInput, partial bool) (*domain.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "product")
	}
	if err := applyProductInput(product, input, partial); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, mapRepoError(err, "product")
	}
	return product, nil
}

// Delete removes a product. Admin only.
func (s *CatalogService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return mapRepoError(s.products.Delete(ctx, id), "product")
}

func applyProductInput(product *domain.Product, input ProductInput, partial bool) error {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.UnitPrice != nil {
		product.UnitPrice = *input.UnitPrice
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	} else if !partial {
		product.StockQuantity = 0
	}

	details := map[string]any{}
	if product.Name == "" {
		details["name"] = "required"
	}
	if product.SKU == "" {
		details["sku"] = "required"
	}
	if product.UnitPrice < 0 {
		details["unit_price"] = "must be >= 0"
	}
	if product.StockQuantity < 0 {
		details["stock_quantity"] = "must be >= 0"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid product", details)
	}
	return nil
}
