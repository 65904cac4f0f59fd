package domain

import "time"

// CartLine is a single product entry in a cart. Name and Price are carried as
// display enrichment on guest carts; the authoritative values always come
// from the product catalog.
type CartLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Price     int64  `json:"price,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Cart represents a shopping cart, either a signed-in user's persistent cart
// or an anonymous session cart.
type Cart struct {
	UserID    string     `json:"user_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// TotalAmount calculates the total price of all lines in the cart (in cents).
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.Price * int64(line.Quantity)
	}
	return total
}

// ItemCount returns the total number of units across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// FindLine returns the index of the line for the given product, or -1.
func (c *Cart) FindLine(productID int64) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Normalize merges duplicate product lines (summing quantities, first
// occurrence keeps its position) and drops lines with quantity <= 0.
// A line whose merged quantity ends up <= 0 is dropped too.
func (c *Cart) Normalize() {
	if len(c.Lines) == 0 {
		return
	}

	merged := make([]CartLine, 0, len(c.Lines))
	index := make(map[int64]int, len(c.Lines))

	for _, line := range c.Lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}

	out := merged[:0]
	for _, line := range merged {
		if line.Quantity > 0 {
			out = append(out, line)
		}
	}
	c.Lines = out
}
