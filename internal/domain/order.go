package domain

import "time"

// Order statuses. An order row is only ever written after payment is
// confirmed, so "paid" is the initial status.
const (
	OrderStatusPaid = "paid"
)

// Address is a shipping address. JSON tags match the wire format the
// checkout session metadata carries.
type Address struct {
	Name         string `json:"name" validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	ZipCode      string `json:"zipCode" validate:"required"`
}

// Order is the head record created when a payment is confirmed. The payment
// session ID is unique, which makes order creation idempotent under webhook
// redelivery.
type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	Status           string      `json:"status"`
	TotalAmount      int64       `json:"total_amount"`
	ShippingAddress  Address     `json:"shipping_address"`
	PaymentSessionID string      `json:"payment_session_id"`
	Items            []OrderItem `json:"items"`
	CreatedAt        time.Time   `json:"created_at"`
}

// OrderItem is a snapshot of one purchased line at the time of payment.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}
