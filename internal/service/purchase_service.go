package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/events"
	"github.com/mutooni/mutooni-api/internal/repository"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

// PurchaseService manages purchase orders and their lifecycle.
type PurchaseService struct {
	purchases  repository.PurchaseRepository
	products   repository.ProductRepository
	partners   repository.PartnerRepository
	dispatcher events.Dispatcher
}

// PurchaseDependencies encapsulates repositories required for purchases.
type PurchaseDependencies struct {
	PurchaseRepo repository.PurchaseRepository
	ProductRepo  repository.ProductRepository
	PartnerRepo  repository.PartnerRepository
}

// PurchaseListFilters define listing parameters.
type PurchaseListFilters struct {
	Status     *domain.PurchaseStatus
	SupplierID *string
	Limit      int
	Offset     int
}

// PurchaseLineInput is one requested product row. A nil UnitPrice takes the product's
// current price.
type PurchaseLineInput struct {
	ProductID string
	Quantity  int64
	UnitPrice *int64
}

// CreatePurchaseInput carries a new purchase.
type CreatePurchaseInput struct {
	SupplierID string
	Lines      []PurchaseLineInput
}

// NewPurchaseService constructs the service.
func NewPurchaseService(deps PurchaseDependencies, dispatcher events.Dispatcher) *PurchaseService {
	return &PurchaseService{
		purchases:  deps.PurchaseRepo,
		products:   deps.ProductRepo,
		partners:   deps.PartnerRepo,
		dispatcher: dispatcher,
	}
}

func (s *PurchaseService) List(ctx context.Context, actor *domain.User, filters PurchaseListFilters) ([]domain.Purchase, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
	}
	purchases, err := s.purchases.List(ctx, repository.PurchaseFilter{
		Status:     filters.Status,
		SupplierID: filters.SupplierID,
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	})
	if err != nil {
		return nil, mapRepoError(err, "purchase")
	}
	return purchases, nil
}

func (s *PurchaseService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Purchase, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	purchase, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "purchase")
	}
	return purchase, nil
}

// Create stores a draft purchase after checking that the supplier and every product exist.
func (s *PurchaseService) Create(ctx context.Context, actor *domain.User, input CreatePurchaseInput) (*domain.Purchase, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, apperrors.NewValidationError("at least one line is required", map[string]any{"field": "lines"})
	}
	if _, err := s.partners.GetByID(ctx, domain.PartnerKindSupplier, input.SupplierID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidationError("unknown supplier", map[string]any{"field": "supplier_id"})
		}
		return nil, mapRepoError(err, "supplier")
	}

	purchase := &domain.Purchase{
		SupplierID: input.SupplierID,
		Status:     domain.PurchaseStatusDraft,
		CreatedBy:  actor.ID,
		Lines:      make([]domain.PurchaseLine, 0, len(input.Lines)),
	}
	for i, line := range input.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if line.Quantity <= 0 {
			return nil, apperrors.NewValidationError("quantity must be positive", map[string]any{"field": field + ".quantity"})
		}
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewValidationError("unknown product", map[string]any{"field": field + ".product_id"})
			}
			return nil, mapRepoError(err, "product")
		}
		price := product.UnitPrice
		if line.UnitPrice != nil {
			if *line.UnitPrice < 0 {
				return nil, apperrors.NewValidationError("unit price must be >= 0", map[string]any{"field": field + ".unit_price"})
			}
			price = *line.UnitPrice
		}
		purchase.Lines = append(purchase.Lines, domain.PurchaseLine{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, mapRepoError(err, "purchase")
	}
	s.publish(ctx, events.NewEvent(events.EventPurchaseCreated, purchase.ID, events.ActorFor(actor, ""), events.PurchaseCreatedPayload{
		SupplierID: purchase.SupplierID,
		Lines:      len(purchase.Lines),
		Total:      purchase.Total(),
	}))
	return purchase, nil
}

// ChangeStatus moves the purchase along its lifecycle. Receiving adds stock.
func (s *PurchaseService) ChangeStatus(ctx context.Context, actor *domain.User, id string, next domain.PurchaseStatus) (*domain.Purchase, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !next.IsValid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
	}
	current, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "purchase")
	}

	updated, err := s.purchases.TransitionStatus(ctx, id, next)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, apperrors.NewConflict("invalid status transition", map[string]any{
				"from": current.Status,
				"to":   next,
			})
		}
		return nil, mapRepoError(err, "purchase")
	}

	s.publish(ctx, events.NewEvent(events.EventPurchaseStatusChanged, updated.ID, events.ActorFor(actor, ""), events.PurchaseStatusChangedPayload{
		OldStatus: current.Status,
		NewStatus: updated.Status,
	}))
	return updated, nil
}

// Delete removes a draft purchase. Admins or the creator only.
func (s *PurchaseService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	purchase, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "purchase")
	}
	if !actor.IsAdmin() && purchase.CreatedBy != actor.ID {
		return apperrors.NewForbidden("only the creator or an admin can delete a purchase")
	}
	if err := s.purchases.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return apperrors.NewConflict("only draft purchases can be deleted", map[string]any{"status": purchase.Status})
		}
		return mapRepoError(err, "purchase")
	}
	return nil
}

func (s *PurchaseService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
