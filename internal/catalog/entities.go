package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry with its live price and stock.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Filter narrows a product listing.
type Filter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Normalize clamps Limit and Offset to sane bounds.
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
