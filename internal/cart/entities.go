package cart

import (
	"github.com/shopspring/decimal"
)

// Line is one cart row joined with the product's live name, price and image.
type Line struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	ImageURL  string
	Quantity  int
}

// Subtotal is quantity times the live price.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineResponse is the wire shape of GET /cart/:userId. The "imege_url" key is
// what the browser frontend reads.
type LineResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageURL string `json:"imege_url"`
	Quantity int    `json:"quantity"`
}

func (l Line) Response() LineResponse {
	return LineResponse{
		ID:       l.ProductID,
		Name:     l.Name,
		Price:    l.Price.StringFixed(2),
		ImageURL: l.ImageURL,
		Quantity: l.Quantity,
	}
}
