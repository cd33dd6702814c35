package model

import (
	"strings"
	"time"
)

// PaymentMethod is the payment label recorded with an order.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBkash          PaymentMethod = "bkash"
	PaymentNagad          PaymentMethod = "nagad"
)

// PaymentMethods lists the accepted payment methods in display order.
var PaymentMethods = []PaymentMethod{PaymentCashOnDelivery, PaymentBkash, PaymentNagad}

// Valid reports whether p is one of the accepted payment methods.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCashOnDelivery, PaymentBkash, PaymentNagad:
		return true
	}
	return false
}

// OrderStatus is the lifecycle status reported by the backend.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusVerified   OrderStatus = "verified"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Normalize maps unknown or empty statuses to pending. The raw value is
// kept on the order itself.
func (s OrderStatus) Normalize() OrderStatus {
	switch s {
	case OrderStatusVerified, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return s
	}
	return OrderStatusPending
}

// BookLine is a line item as exchanged with the backend.
type BookLine struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// OrderDraft is the not-yet-confirmed order assembled from the cart.
type OrderDraft struct {
	Phone         string
	Address       string
	PaymentMethod PaymentMethod
	Items         Cart
}

// Clone returns a deep copy so later cart edits cannot reach an in-flight order.
func (d OrderDraft) Clone() OrderDraft {
	d.Items = d.Items.Clone()
	return d
}

// Validate checks the local preconditions for sending the draft.
func (d OrderDraft) Validate() error {
	if strings.TrimSpace(d.Phone) == "" {
		return NewValidationError("phone_number", "phone number is required")
	}
	if strings.TrimSpace(d.Address) == "" {
		return NewValidationError("address", "delivery address is required")
	}
	if !d.PaymentMethod.Valid() {
		return NewValidationError("payment_method", "unsupported payment method: "+string(d.PaymentMethod))
	}
	if d.Items.IsEmpty() {
		return NewValidationError("books", "cart is empty")
	}
	return nil
}

// Request converts the draft into the initiate payload.
func (d OrderDraft) Request() InitiateRequest {
	return InitiateRequest{
		PhoneNumber:   strings.TrimSpace(d.Phone),
		Address:       strings.TrimSpace(d.Address),
		PaymentMethod: d.PaymentMethod,
		Books:         d.Items.Lines(),
	}
}

// OrderSession binds a pending draft to the token issued by initiate.
type OrderSession struct {
	Token     string
	ExpiresAt time.Time
	Draft     OrderDraft
}

// ConfirmedOrder is the backend-issued record of a verified order.
type ConfirmedOrder struct {
	ID            int64         `json:"id"`
	PhoneNumber   string        `json:"phone_number"`
	Address       string        `json:"address"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus string        `json:"payment_status"`
	Books         []BookLine    `json:"books"`
	TotalAmount   int64         `json:"total_amount"`
	OrderStatus   OrderStatus   `json:"order_status"`
	CreatedAt     Timestamp     `json:"created_at"`
	Verified      bool          `json:"verified"`
}

// InitiateRequest is the body of POST /orders/initiate.
type InitiateRequest struct {
	PhoneNumber   string        `json:"phone_number"`
	Address       string        `json:"address"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Books         []BookLine    `json:"books"`
}

// InitiateResponse is returned by POST /orders/initiate.
type InitiateResponse struct {
	Message          string `json:"message"`
	SessionToken     string `json:"session_token"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
	TotalAmount      int64  `json:"total_amount"`
}

// VerifyRequest is the body of POST /orders/verify.
type VerifyRequest struct {
	SessionToken string `json:"session_token"`
	PinCode      string `json:"pin_code"`
}

// ResendRequest is the body of POST /orders/resend-code.
type ResendRequest struct {
	SessionToken string `json:"session_token"`
}

// ResendResponse is returned by POST /orders/resend-code.
type ResendResponse struct {
	Message          string `json:"message"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// PendingSession is the server-side record of an order awaiting its code.
type PendingSession struct {
	Token         string        `json:"token"`
	CodeHash      string        `json:"code_hash"`
	Attempts      int           `json:"attempts"`
	PhoneNumber   string        `json:"phone_number"`
	Address       string        `json:"address"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Books         []BookLine    `json:"books"`
	TotalAmount   int64         `json:"total_amount"`
	ExpiresAt     time.Time     `json:"expires_at"`
}
