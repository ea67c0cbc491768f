package inventory

import (
	"errors"
	"sync"
)

var (
	ErrNotFound          = errors.New("variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository provides variant lookup and stock mutation. Stock writes are
// conditional at the storage layer so concurrent orders cannot oversell.
type Repository interface {
	FindVariant(productID, variantID int) (Variant, error)
	// DecrementStock subtracts qty from the variant's stock. It fails with
	// ErrInsufficientStock when fewer than qty units remain; it never
	// applies a partial decrement.
	DecrementStock(variantID, qty int) error
	// RestockVariant adds qty back, used when an order is cancelled.
	RestockVariant(variantID, qty int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.Mutex
	variants map[int]Variant // keyed by variantID
}

func NewInMemoryRepository(seed []Variant) *InMemoryRepository {
	r := &InMemoryRepository{variants: make(map[int]Variant, len(seed))}
	for _, v := range seed {
		r.variants[v.VariantID] = v
	}
	return r
}

func (r *InMemoryRepository) FindVariant(productID, variantID int) (Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[variantID]
	if !ok || v.ProductID != productID {
		return Variant{}, ErrNotFound
	}
	return v, nil
}

func (r *InMemoryRepository) DecrementStock(variantID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[variantID]
	if !ok {
		return ErrNotFound
	}
	if v.Stock < qty {
		return ErrInsufficientStock
	}
	v.Stock -= qty
	r.variants[variantID] = v
	return nil
}

func (r *InMemoryRepository) RestockVariant(variantID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[variantID]
	if !ok {
		return ErrNotFound
	}
	v.Stock += qty
	r.variants[variantID] = v
	return nil
}

// Stock reports the current stock level, for assertions in tests.
func (r *InMemoryRepository) Stock(variantID int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variants[variantID].Stock
}
