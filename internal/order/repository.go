package order

import (
	"errors"
	"sync"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrNumberTaken    = errors.New("order number already taken")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

// Repository defines persistence operations for orders.
//
// MarkPaid and MarkPaymentFailed are compare-and-set writes: the condition
// on the current paymentStatus lives in the same storage statement as the
// update, so duplicate or racing payment callbacks cannot double-apply a
// transition.
type Repository interface {
	// Create persists the order row, then its item rows. The two writes
	// share no transaction; a crash in between leaves an order with zero
	// items (recoverable by support intervention, by design of the
	// current storage layout).
	Create(ord Order) (Order, error)
	GetByID(id string) (Order, error)
	// ListByBuyer returns the buyer's orders, newest first, items included.
	ListByBuyer(buyerID int) ([]Order, error)
	// MarkPaid sets paymentStatus=paid and orderStatus=confirmed if the
	// order is not already paid. It reports whether the write applied.
	MarkPaid(id, updatedAt string) (bool, error)
	// MarkPaymentFailed sets paymentStatus=failed if the order is not
	// already paid. orderStatus is left untouched.
	MarkPaymentFailed(id, updatedAt string) (bool, error)
	// Cancel sets orderStatus=cancelled and flips active items to
	// cancelled, if the order is still in a cancellable state.
	Cancel(id, updatedAt string) (bool, error)
}

// InMemoryRepository is used for tests and local scenarios. Orders are
// cloned on every read and write so a returned snapshot never shares its
// Items backing array with the stored state.
type InMemoryRepository struct {
	mu      sync.Mutex
	orders  map[string]Order
	numbers map[string]string // orderNumber -> orderID
	nextID  int
}

func cloneOrder(ord Order) Order {
	items := make([]OrderItem, len(ord.Items))
	copy(items, ord.Items)
	ord.Items = items
	return ord
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		orders:  make(map[string]Order),
		numbers: make(map[string]string),
		nextID:  1,
	}
}

func (r *InMemoryRepository) Create(ord Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.numbers[ord.OrderNumber]; taken {
		return Order{}, ErrNumberTaken
	}
	ord = cloneOrder(ord)
	for i := range ord.Items {
		ord.Items[i].ItemID = r.nextID
		ord.Items[i].OrderID = ord.OrderID
		r.nextID++
	}
	r.orders[ord.OrderID] = ord
	r.numbers[ord.OrderNumber] = ord.OrderID
	return cloneOrder(ord), nil
}

func (r *InMemoryRepository) GetByID(id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return cloneOrder(ord), nil
}

func (r *InMemoryRepository) ListByBuyer(buyerID int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0)
	for _, ord := range r.orders {
		if ord.BuyerID == buyerID {
			out = append(out, cloneOrder(ord))
		}
	}
	return out, nil
}

func (r *InMemoryRepository) MarkPaid(id, updatedAt string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if ord.PaymentStatus == PaymentStatusPaid {
		return false, nil
	}
	ord.PaymentStatus = PaymentStatusPaid
	ord.OrderStatus = StatusConfirmed
	ord.UpdatedAt = updatedAt
	r.orders[id] = ord
	return true, nil
}

func (r *InMemoryRepository) MarkPaymentFailed(id, updatedAt string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if ord.PaymentStatus == PaymentStatusPaid {
		return false, nil
	}
	ord.PaymentStatus = PaymentStatusFailed
	ord.UpdatedAt = updatedAt
	r.orders[id] = ord
	return true, nil
}

func (r *InMemoryRepository) Cancel(id, updatedAt string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if !ord.IsCancellable() {
		return false, nil
	}
	ord = cloneOrder(ord)
	ord.OrderStatus = StatusCancelled
	ord.UpdatedAt = updatedAt
	for i := range ord.Items {
		if ord.Items[i].Status == ItemActive {
			ord.Items[i].Status = ItemCancelled
		}
	}
	r.orders[id] = ord
	return true, nil
}
