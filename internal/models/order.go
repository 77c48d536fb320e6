package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition is permitted from this status.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID     string      `bun:"order_id,pk" json:"order_id"`
	OrderNumber string      `bun:"order_number,notnull" json:"order_number"`
	BuyerID     string      `bun:"buyer_id,notnull" json:"buyer_id"`
	BuyerName   string      `bun:"buyer_name" json:"buyer_name"`
	SellerID    string      `bun:"seller_id,notnull" json:"seller_id"`
	Status      OrderStatus `bun:"status,notnull" json:"status"`

	DeliveryOption string  `bun:"delivery_option" json:"delivery_option"`
	Subtotal       float64 `bun:"subtotal" json:"subtotal"`
	Total          float64 `bun:"total" json:"total"`

	BuyerConfirmed    bool      `bun:"buyer_confirmed" json:"buyer_confirmed"`
	SellerConfirmed   bool      `bun:"seller_confirmed" json:"seller_confirmed"`
	BuyerConfirmedAt  time.Time `bun:"buyer_confirmed_at,nullzero" json:"buyer_confirmed_at,omitempty"`
	SellerConfirmedAt time.Time `bun:"seller_confirmed_at,nullzero" json:"seller_confirmed_at,omitempty"`
	BuyerProofURL     string    `bun:"buyer_proof_url" json:"buyer_proof_url,omitempty"`
	SellerProofURL    string    `bun:"seller_proof_url" json:"seller_proof_url,omitempty"`

	PaymentSettled bool `bun:"payment_settled" json:"payment_settled"`

	CancelReason string    `bun:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledBy  string    `bun:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelledAt  time.Time `bun:"cancelled_at,nullzero" json:"cancelled_at,omitempty"`

	Rating        int       `bun:"rating" json:"rating,omitempty"`
	RatingComment string    `bun:"rating_comment" json:"rating_comment,omitempty"`
	RatedAt       time.Time `bun:"rated_at,nullzero" json:"rated_at,omitempty"`

	ConfirmedAt time.Time `bun:"confirmed_at,nullzero" json:"confirmed_at,omitempty"`
	ReadyAt     time.Time `bun:"ready_at,nullzero" json:"ready_at,omitempty"`
	CompletedAt time.Time `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

// CounterpartyOf returns the other party's user id, or "" when the given
// user is not a party to the order.
func (o *Order) CounterpartyOf(userID string) string {
	switch userID {
	case o.BuyerID:
		return o.SellerID
	case o.SellerID:
		return o.BuyerID
	}
	return ""
}

// RoleOf resolves which side of the order the given user is on.
func (o *Order) RoleOf(userID string) (Role, bool) {
	switch userID {
	case o.BuyerID:
		return RoleBuyer, true
	case o.SellerID:
		return RoleSeller, true
	}
	return "", false
}

// OrderItem is a snapshot of the product at order time. Later product edits
// never change historical orders.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ItemID      string  `bun:"item_id,pk" json:"item_id"`
	OrderID     string  `bun:"order_id,notnull" json:"order_id"`
	ProductID   string  `bun:"product_id,notnull" json:"product_id"`
	ProductName string  `bun:"product_name" json:"product_name"`
	Category    string  `bun:"category" json:"category"`
	UnitPrice   float64 `bun:"unit_price" json:"unit_price"`
	UnitType    string  `bun:"unit_type" json:"unit_type"`
	Quantity    int     `bun:"quantity,notnull" json:"quantity"`
	LineTotal   float64 `bun:"line_total" json:"line_total"`
}

type OrderWithItems struct {
	Order
	Items []OrderItem `json:"items"`
}

// ---------------- REQUEST / RESPONSE DTOs ----------------

type CreateOrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	SellerID       string                   `json:"seller_id"`
	DeliveryOption string                   `json:"delivery_option"`
	Items          []CreateOrderItemRequest `json:"items"`
}

type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

type ConfirmCompletionRequest struct {
	ProofURL string `json:"proof_url"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type RateOrderRequest struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

type VerifyPickupRequest struct {
	Code string `json:"code"`
}
