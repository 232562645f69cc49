package inventory

import (
	"time"

	"github.com/google/uuid"
)

// MovementType is the direction of a stock change.
type MovementType string

const (
	MovementReserved MovementType = "reserved"
	MovementReleased MovementType = "released"
)

// StockLevel is the locked view of a product's stock.
type StockLevel struct {
	ProductID int64
	Stock     int
}

// Movement is one journal entry of the inventory ledger.
type Movement struct {
	ID             uuid.UUID    `json:"id"`
	ProductID      int64        `json:"product_id"`
	UserID         int64        `json:"user_id"`
	ChangeQuantity int          `json:"change_quantity"`
	MovementType   MovementType `json:"movement_type"`
	CreatedAt      time.Time    `json:"created_at"`
}

// NewMovement creates a journal entry with a fresh id.
func NewMovement(productID, userID int64, qty int, t MovementType) *Movement {
	return &Movement{
		ID:             uuid.New(),
		ProductID:      productID,
		UserID:         userID,
		ChangeQuantity: qty,
		MovementType:   t,
		CreatedAt:      time.Now(),
	}
}
