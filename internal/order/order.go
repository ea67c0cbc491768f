package order

import (
	"fmt"
	"math/rand"
	"time"
)

// Payment methods accepted at checkout.
const (
	PaymentCOD   = "cod"
	PaymentMoMo  = "momo"
	PaymentVNPay = "vnpay"
)

// Payment status values. Transitions are pending -> paid (terminal) and
// pending -> failed (re-opened only by a new payment attempt).
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order status values.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipping  = "shipping"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Order item status values.
const (
	ItemActive    = "active"
	ItemCancelled = "cancelled"
	ItemReturned  = "returned"
)

// ShippingInfo is an address snapshot taken at order time. It is never
// re-synced from the buyer's address book.
type ShippingInfo struct {
	Recipient   string `json:"recipient"`
	Phone       string `json:"phone"`
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
}

// OrderItem is one line of an order. Name, image and unit price are
// point-in-time snapshots of the catalog at order time.
type OrderItem struct {
	ItemID      int    `json:"itemId"`
	OrderID     string `json:"orderId"`
	ProductID   int    `json:"productId"`
	VariantID   int    `json:"variantId"`
	ProductName string `json:"productName"`
	ProductImg  string `json:"productImg,omitempty"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
	Status      string `json:"status"`
}

// Order represents a purchase made by a buyer. Orders are never deleted,
// only status-transitioned.
type Order struct {
	OrderID       string       `json:"orderId"`
	OrderNumber   string       `json:"orderNumber"`
	BuyerID       int          `json:"buyerId"`
	Shipping      ShippingInfo `json:"shippingInfo"`
	PaymentMethod string       `json:"paymentMethod"`
	PaymentStatus string       `json:"paymentStatus"`
	OrderStatus   string       `json:"orderStatus"`
	Subtotal      int64        `json:"subtotal"`
	ShippingFee   int64        `json:"shippingFee"`
	Discount      int64        `json:"discount"`
	Total         int64        `json:"total"`
	Note          string       `json:"note,omitempty"`
	CreatedAt     string       `json:"createdAt"`
	UpdatedAt     string       `json:"updatedAt"`
	Items         []OrderItem  `json:"orderItems"`
}

// IsCancellable reports whether the order may still be cancelled by the
// buyer. Shipping and later states are past the point of no return.
func (o Order) IsCancellable() bool {
	return o.OrderStatus == StatusPending || o.OrderStatus == StatusConfirmed
}

// FinalPrice is the unit price snapshot for a variant at order time:
// the sale price rounded half-up to whole currency units when the variant
// is on sale, the original price otherwise.
func FinalPrice(price int64, discountPercent int, onSale bool) int64 {
	if !onSale || discountPercent <= 0 {
		return price
	}
	return (price*int64(100-discountPercent) + 50) / 100
}

// NewOrderNumber builds a human-readable display code of the form
// ORD-<YYYYMMDD>-<HHMMSS><2-digit random>. The random suffix is only two
// digits, so collisions are possible under load; the unique constraint on
// the orderNumber column makes creation fail loudly in that case.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s%02d", now.Format("20060102"), now.Format("150405"), rand.Intn(100))
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
