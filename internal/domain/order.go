package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the order lifecycle enum. The usual progression is
// pending → confirmed → processing → shipped → delivered; cancelled is the
// other terminal state.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are expected from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Cancellable reports whether an order in status s may still be cancelled.
// Once shipped the goods are with the courier and cancellation goes through
// the returns flow instead.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing:
		return true
	}
	return false
}

// PaymentStatus tracks the payment side of an order independently of the
// fulfilment lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Order is a placed order. Items hold a denormalized snapshot of each
// product at purchase time, so later catalog edits never change what the
// customer bought.
//
// Invariant: FinalAmount = TotalAmount - DiscountAmount + ShippingCost.
type Order struct {
	ID             uuid.UUID            `json:"id" db:"id"`
	UserID         uuid.UUID            `json:"user_id" db:"user_id"`
	OrderNumber    string               `json:"order_number" db:"order_number"`
	Status         OrderStatus          `json:"status" db:"status"`
	Items          []OrderItem          `json:"items" db:"-"`
	TotalAmount    int64                `json:"total_amount" db:"total_amount"`
	DiscountAmount int64                `json:"discount_amount" db:"discount_amount"`
	ShippingCost   int64                `json:"shipping_cost" db:"shipping_cost"`
	FinalAmount    int64                `json:"final_amount" db:"final_amount"`
	ShippingAddr   ShippingAddress      `json:"shipping_address" db:"-"`
	PaymentMethod  string               `json:"payment_method" db:"payment_method"`
	PaymentStatus  PaymentStatus        `json:"payment_status" db:"payment_status"`
	TrackingNumber string               `json:"tracking_number,omitempty" db:"tracking_number"`
	StatusHistory  []OrderStatusChange  `json:"status_history,omitempty" db:"-"`
	DeliveredAt    *time.Time           `json:"delivered_at,omitempty" db:"delivered_at"`
	CancelledAt    *time.Time           `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelReason   string               `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
}

// OrderItem is one line of an order: a snapshot of the product as it was
// when the order was placed.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	UnitPrice int64     `json:"unit_price" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Color     string    `json:"color,omitempty" db:"color"`
	Size      string    `json:"size,omitempty" db:"size"`
	Image     string    `json:"image,omitempty" db:"image"`
}

// Subtotal is the line total for this item.
func (i OrderItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// ShippingAddress is where the order is delivered. Kept separate from the
// user's profile address so profile edits never affect placed orders.
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Province      string `json:"province"`
	City          string `json:"city"`
	Street        string `json:"street"`
	PostalCode    string `json:"postal_code"`
}

// OrderStatusChange is one entry of an order's status history. A row is
// appended for every status mutation including the initial pending entry.
type OrderStatusChange struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	OrderID   uuid.UUID   `json:"order_id" db:"order_id"`
	Status    OrderStatus `json:"status" db:"status"`
	Note      string      `json:"note,omitempty" db:"note"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
