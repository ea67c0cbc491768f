package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndmanh/techstore-backend/internal/inventory"
)

var (
	ErrEmptyOrder           = errors.New("order must contain at least one item")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
)

// LineItem is one requested line of a checkout, referencing the catalog.
type LineItem struct {
	ProductID int `json:"productId"`
	VariantID int `json:"variantId"`
	Quantity  int `json:"quantity"`
}

type CreateOrderInput struct {
	BuyerID       int
	Shipping      ShippingInfo
	PaymentMethod string
	Note          string
	Items         []LineItem
}

// Service assembles and manages orders.
type Service struct {
	repo        Repository
	inventory   inventory.Repository
	shippingFee int64
	log         *zap.Logger
}

func NewService(repo Repository, inv inventory.Repository, shippingFee int64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, inventory: inv, shippingFee: shippingFee, log: log}
}

// Create converts a checkout request into a persisted order.
//
// Stock is decremented per line item before the order is written, and the
// decrements are not rolled back if a later step fails. Likewise the order
// row and the item rows are separate writes. Both gaps are properties of
// the storage layout, surfaced here rather than papered over.
func (s *Service) Create(in CreateOrderInput) (Order, error) {
	if len(in.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	switch in.PaymentMethod {
	case PaymentCOD, PaymentMoMo, PaymentVNPay:
	default:
		return Order{}, ErrInvalidPaymentMethod
	}
	for _, li := range in.Items {
		if li.Quantity <= 0 {
			return Order{}, ErrInvalidQuantity
		}
	}

	// Resolve every variant and snapshot prices before touching stock.
	items := make([]OrderItem, 0, len(in.Items))
	var subtotal int64
	for _, li := range in.Items {
		v, err := s.inventory.FindVariant(li.ProductID, li.VariantID)
		if err != nil {
			return Order{}, err
		}
		if v.Stock < li.Quantity {
			return Order{}, fmt.Errorf("%w: variant %d has %d left", inventory.ErrInsufficientStock, li.VariantID, v.Stock)
		}
		unitPrice := FinalPrice(v.Price, v.DiscountPercent, v.IsOnSale)
		items = append(items, OrderItem{
			ProductID:   v.ProductID,
			VariantID:   v.VariantID,
			ProductName: v.ProductName,
			ProductImg:  v.ProductImg,
			UnitPrice:   unitPrice,
			Quantity:    li.Quantity,
			Subtotal:    unitPrice * int64(li.Quantity),
			Status:      ItemActive,
		})
		subtotal += unitPrice * int64(li.Quantity)
	}

	// Decrement stock for every line item. Earlier decrements are not
	// rolled back when a later one fails.
	for _, li := range in.Items {
		if err := s.inventory.DecrementStock(li.VariantID, li.Quantity); err != nil {
			s.log.Error("stock decrement failed mid-order, earlier decrements kept",
				zap.Int("variantId", li.VariantID), zap.Error(err))
			return Order{}, err
		}
	}

	now := time.Now().UTC()
	ord := Order{
		OrderID:       uuid.NewString(),
		OrderNumber:   NewOrderNumber(now),
		BuyerID:       in.BuyerID,
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: PaymentStatusPending,
		OrderStatus:   StatusPending,
		Subtotal:      subtotal,
		ShippingFee:   s.shippingFee,
		Discount:      0,
		Total:         subtotal + s.shippingFee,
		Note:          in.Note,
		CreatedAt:     now.Format(time.RFC3339),
		UpdatedAt:     now.Format(time.RFC3339),
		Items:         items,
	}

	created, err := s.repo.Create(ord)
	if err != nil {
		return Order{}, err
	}
	return created, nil
}

// GetForBuyer fetches an order and hides other buyers' orders behind
// ErrNotFound rather than revealing their existence.
func (s *Service) GetForBuyer(buyerID int, orderID string) (Order, error) {
	ord, err := s.repo.GetByID(orderID)
	if err != nil {
		return Order{}, err
	}
	if ord.BuyerID != buyerID {
		return Order{}, ErrNotFound
	}
	return ord, nil
}

func (s *Service) ListForBuyer(buyerID int) ([]Order, error) {
	return s.repo.ListByBuyer(buyerID)
}

// Cancel transitions a cancellable order to cancelled and restocks its
// active items best-effort.
func (s *Service) Cancel(buyerID int, orderID string) (Order, error) {
	ord, err := s.GetForBuyer(buyerID, orderID)
	if err != nil {
		return Order{}, err
	}
	if !ord.IsCancellable() {
		return Order{}, ErrNotCancellable
	}

	updated, err := s.repo.Cancel(orderID, nowRFC3339())
	if err != nil {
		return Order{}, err
	}
	if !updated {
		// Lost the race against a state transition since the read above.
		return Order{}, ErrNotCancellable
	}

	for _, it := range ord.Items {
		if it.Status != ItemActive {
			continue
		}
		if err := s.inventory.RestockVariant(it.VariantID, it.Quantity); err != nil {
			s.log.Warn("restock after cancel failed",
				zap.String("orderId", orderID), zap.Int("variantId", it.VariantID), zap.Error(err))
		}
	}
	return s.repo.GetByID(orderID)
}
