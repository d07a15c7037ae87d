package domain

import "time"

// PurchaseStatus enumerates lifecycle states of a purchase order.
type PurchaseStatus string

const (
	PurchaseStatusDraft     PurchaseStatus = "draft"
	PurchaseStatusOrdered   PurchaseStatus = "ordered"
	PurchaseStatusReceived  PurchaseStatus = "received"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

var purchaseTransitions = map[PurchaseStatus][]PurchaseStatus{
	PurchaseStatusDraft:   {PurchaseStatusOrdered, PurchaseStatusCancelled},
	PurchaseStatusOrdered: {PurchaseStatusReceived, PurchaseStatusCancelled},
}

// IsValid reports whether the status is known.
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchaseStatusDraft, PurchaseStatusOrdered, PurchaseStatusReceived, PurchaseStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a purchase may move from s to next.
func (s PurchaseStatus) CanTransitionTo(next PurchaseStatus) bool {
	for _, allowed := range purchaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Purchase is an order placed with a supplier.
type Purchase struct {
	ID         string
	SupplierID string
	Status     PurchaseStatus
	Lines      []PurchaseLine
	CreatedBy  string
	ReceivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PurchaseLine is a single product row of a purchase.
type PurchaseLine struct {
	ID         string
	PurchaseID string
	ProductID  string
	Quantity   int64
	UnitPrice  int64
}

// Total returns the order amount in minor currency units.
func (p *Purchase) Total() int64 {
	var total int64
	for _, line := range p.Lines {
		total += line.Quantity * line.UnitPrice
	}
	return total
}
