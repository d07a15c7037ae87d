package dto

import (
	"time"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// ProductRequest payload for product create and update. Prices are minor currency units.
type ProductRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	SKU           *string `json:"sku" validate:"omitempty,min=1,max=64"`
	UnitPrice     *int64  `json:"unit_price" validate:"omitempty,gte=0"`
	StockQuantity *int64  `json:"stock_quantity" validate:"omitempty,gte=0"`
}

// ProductResponse representation.
type ProductResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	UnitPrice     int64     `json:"unit_price"`
	StockQuantity int64     `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		UnitPrice:     p.UnitPrice,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// PartnerRequest payload for client and supplier create and update.
type PartnerRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Email   *string `json:"email" validate:"omitempty,email,max=254"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// PartnerResponse representation.
type PartnerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewPartnerResponse(p *domain.Partner) PartnerResponse {
	return PartnerResponse{
		ID:        p.ID,
		Name:      p.Name,
		Phone:     p.Phone,
		Email:     p.Email,
		Address:   p.Address,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// PurchaseLineRequest is one product row of a new purchase.
type PurchaseLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	UnitPrice *int64 `json:"unit_price" validate:"omitempty,gte=0"`
}

// PurchaseCreateRequest payload for POST /api/purchases.
type PurchaseCreateRequest struct {
	SupplierID string                `json:"supplier_id" validate:"required,uuid"`
	Lines      []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PurchaseStatusRequest payload for POST /api/purchases/:id/status.
type PurchaseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft ordered received cancelled"`
}

// PurchaseLineResponse representation.
type PurchaseLineResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

// PurchaseResponse representation.
type PurchaseResponse struct {
	ID         string                 `json:"id"`
	SupplierID string                 `json:"supplier_id"`
	Status     domain.PurchaseStatus  `json:"status"`
	Lines      []PurchaseLineResponse `json:"lines"`
	Total      int64                  `json:"total"`
	CreatedBy  string                 `json:"created_by"`
	ReceivedAt *time.Time             `json:"received_at,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

func NewPurchaseResponse(p *domain.Purchase) PurchaseResponse {
	lines := make([]PurchaseLineResponse, 0, len(p.Lines))
	for _, line := range p.Lines {
		lines = append(lines, PurchaseLineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Quantity * line.UnitPrice,
		})
	}
	return PurchaseResponse{
		ID:         p.ID,
		SupplierID: p.SupplierID,
		Status:     p.Status,
		Lines:      lines,
		Total:      p.Total(),
		CreatedBy:  p.CreatedBy,
		ReceivedAt: p.ReceivedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
