package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Valid reports whether s is one of the four fulfillment states.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is a completed purchase. Only Status changes after creation.
type Order struct {
	ID                int64
	UserID            int64
	ShippingAddressID *int64
	OrderDate         time.Time
	TotalAmount       decimal.Decimal
	Status            Status
}

// NewOrder creates an order in its initial state.
func NewOrder(userID int64, shippingAddressID *int64, total decimal.Decimal) *Order {
	return &Order{
		UserID:            userID,
		ShippingAddressID: shippingAddressID,
		OrderDate:         time.Now(),
		TotalAmount:       total,
		Status:            StatusProcessing,
	}
}

// Item is an order line with the unit price frozen at sale time.
type Item struct {
	ProductID       int64
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// Summary is one row of the admin order list.
type Summary struct {
	OrderID     int64
	OrderDate   time.Time
	TotalAmount decimal.Decimal
	Status      Status
	UserName    string
	TotalItems  int
}

// DetailItem is one line of an order detail view.
type DetailItem struct {
	ProductName     string
	ImageURL        string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// SummaryResponse is the wire shape of Summary.
type SummaryResponse struct {
	OrderID     int64     `json:"order_id"`
	OrderDate   time.Time `json:"order_date"`
	TotalAmount string    `json:"total_amount"`
	Status      Status    `json:"status"`
	UserName    string    `json:"user_name"`
	TotalItems  int       `json:"total_items"`
}

func (s Summary) Response() SummaryResponse {
	return SummaryResponse{
		OrderID:     s.OrderID,
		OrderDate:   s.OrderDate,
		TotalAmount: s.TotalAmount.StringFixed(2),
		Status:      s.Status,
		UserName:    s.UserName,
		TotalItems:  s.TotalItems,
	}
}

// DetailItemResponse is the wire shape of DetailItem.
type DetailItemResponse struct {
	ProductName     string `json:"product_name"`
	ImageURL        string `json:"image_url"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
}

func (d DetailItem) Response() DetailItemResponse {
	return DetailItemResponse{
		ProductName:     d.ProductName,
		ImageURL:        d.ImageURL,
		Quantity:        d.Quantity,
		PriceAtPurchase: d.PriceAtPurchase.StringFixed(2),
	}
}
