package addresses

import "time"

// Address is a saved shipping address. A user has at most one default.
type Address struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	AddressLine1  string    `json:"address_line_1"`
	AddressLine2  string    `json:"address_line_2"`
	City          string    `json:"city"`
	StateProvince string    `json:"state_province"`
	ZipPostalCode string    `json:"zip_postal_code"`
	Country       string    `json:"country"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}
