package domain

import "time"

// Product is a catalog entry. Price is in cents; Quantity is the number of
// units currently in stock and is only ever mutated through the stock ledger.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
