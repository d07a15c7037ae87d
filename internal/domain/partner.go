package domain

import "time"

// PartnerKind distinguishes the two kinds of business partner sharing the same shape.
type PartnerKind string

const (
	PartnerKindClient   PartnerKind = "client"
	PartnerKindSupplier PartnerKind = "supplier"
)

// Partner is a client or a supplier.
type Partner struct {
	ID        string
	Kind      PartnerKind
	Name      string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
