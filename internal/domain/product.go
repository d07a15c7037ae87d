package domain

import "time"

// Product is a stock-keeping item. Prices are stored in minor currency units.
type Product struct {
	ID            string
	Name          string
	SKU           string
	UnitPrice     int64
	StockQuantity int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
