package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository"
)

// Products is an in-memory ProductRepository.
type Products struct {
	mu    sync.Mutex
	items map[string]domain.Product
}

var _ repository.ProductRepository = (*Products)(nil)

func NewProducts(seed ...domain.Product) *Products {
	p := &Products{items: map[string]domain.Product{}}
	for _, product := range seed {
		product := product
		_ = p.Create(context.Background(), &product)
	}
	return p
}

func (p *Products) Create(_ context.Context, product *domain.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.items {
		if product.SKU != "" && strings.EqualFold(existing.SKU, product.SKU) {
			return repository.ErrDuplicate
		}
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now
	p.items[product.ID] = *product
	return nil
}

func (p *Products) Update(_ context.Context, product *domain.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.items[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	p.items[product.ID] = *product
	return nil
}

func (p *Products) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(p.items, id)
	return nil
}

func (p *Products) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &existing, nil
}

func (p *Products) List(_ context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := []domain.Product{}
	for _, product := range p.items {
		if filter.Search != nil && !matchesAny(*filter.Search, product.Name, product.SKU) {
			continue
		}
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return page(result, filter.Limit, filter.Offset), nil
}

func (p *Products) addStock(id string, quantity int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.items[id]
	if !ok {
		return repository.ErrReferenced
	}
	existing.StockQuantity += quantity
	existing.UpdatedAt = time.Now().UTC()
	p.items[id] = existing
	return nil
}

// Partners is an in-memory PartnerRepository keyed by kind.
type Partners struct {
	mu    sync.Mutex
	items map[domain.PartnerKind]map[string]domain.Partner
}

var _ repository.PartnerRepository = (*Partners)(nil)

func NewPartners(seed ...domain.Partner) *Partners {
	p := &Partners{items: map[domain.PartnerKind]map[string]domain.Partner{
		domain.PartnerKindClient:   {},
		domain.PartnerKindSupplier: {},
	}}
	for _, partner := range seed {
		partner := partner
		_ = p.Create(context.Background(), &partner)
	}
	return p
}

func (p *Partners) Create(_ context.Context, partner *domain.Partner) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	bucket, ok := p.items[partner.Kind]
	if !ok {
		return repository.ErrNotFound
	}
	if partner.ID == "" {
		partner.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	partner.CreatedAt, partner.UpdatedAt = now, now
	bucket[partner.ID] = *partner
	return nil
}

func (p *Partners) Update(_ context.Context, partner *domain.Partner) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.items[partner.Kind][partner.ID]
	if !ok {
		return repository.ErrNotFound
	}
	partner.CreatedAt = existing.CreatedAt
	partner.UpdatedAt = time.Now().UTC()
	p.items[partner.Kind][partner.ID] = *partner
	return nil
}

func (p *Partners) Delete(_ context.Context, kind domain.PartnerKind, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.items[kind][id]; !ok {
		return repository.ErrNotFound
	}
	delete(p.items[kind], id)
	return nil
}

func (p *Partners) GetByID(_ context.Context, kind domain.PartnerKind, id string) (*domain.Partner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.items[kind][id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &existing, nil
}

func (p *Partners) List(_ context.Context, kind domain.PartnerKind, filter repository.PartnerFilter) ([]domain.Partner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := []domain.Partner{}
	for _, partner := range p.items[kind] {
		if filter.Search != nil && !matchesAny(*filter.Search, partner.Name, partner.Phone, partner.Email) {
			continue
		}
		result = append(result, partner)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return page(result, filter.Limit, filter.Offset), nil
}

// Purchases is an in-memory PurchaseRepository. Receiving a purchase adds stock to the
// linked Products store.
type Purchases struct {
	mu       sync.Mutex
	items    map[string]domain.Purchase
	products *Products
}

var _ repository.PurchaseRepository = (*Purchases)(nil)

func NewPurchases(products *Products) *Purchases {
	return &Purchases{items: map[string]domain.Purchase{}, products: products}
}

func (p *Purchases) Create(_ context.Context, purchase *domain.Purchase) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if purchase.Status == "" {
		purchase.Status = domain.PurchaseStatusDraft
	}
	purchase.ID = uuid.NewString()
	now := time.Now().UTC()
	purchase.CreatedAt, purchase.UpdatedAt = now, now
	for i := range purchase.Lines {
		purchase.Lines[i].ID = uuid.NewString()
		purchase.Lines[i].PurchaseID = purchase.ID
	}
	p.items[purchase.ID] = copyPurchase(*purchase)
	return nil
}

func (p *Purchases) GetByID(_ context.Context, id string) (*domain.Purchase, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyPurchase(existing)
	return &out, nil
}

func (p *Purchases) List(_ context.Context, filter repository.PurchaseFilter) ([]domain.Purchase, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := []domain.Purchase{}
	for _, id := range sortedKeys(p.items) {
		purchase := p.items[id]
		if filter.Status != nil && purchase.Status != *filter.Status {
			continue
		}
		if filter.SupplierID != nil && purchase.SupplierID != *filter.SupplierID {
			continue
		}
		result = append(result, copyPurchase(purchase))
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, filter.Limit, filter.Offset), nil
}

func (p *Purchases) TransitionStatus(_ context.Context, id string, next domain.PurchaseStatus) (*domain.Purchase, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !existing.Status.CanTransitionTo(next) {
		return nil, repository.ErrInvalidTransition
	}
	if next == domain.PurchaseStatusReceived && p.products != nil {
		for _, line := range existing.Lines {
			if err := p.products.addStock(line.ProductID, line.Quantity); err != nil {
				return nil, err
			}
		}
		now := time.Now().UTC()
		existing.ReceivedAt = &now
	}
	existing.Status = next
	existing.UpdatedAt = time.Now().UTC()
	p.items[id] = existing
	out := copyPurchase(existing)
	return &out, nil
}

func (p *Purchases) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != domain.PurchaseStatusDraft {
		return repository.ErrInvalidTransition
	}
	delete(p.items, id)
	return nil
}

func copyPurchase(purchase domain.Purchase) domain.Purchase {
	purchase.Lines = append([]domain.PurchaseLine(nil), purchase.Lines...)
	return purchase
}
