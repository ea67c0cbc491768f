package order

import (
	"testing"
	"time"
)

func seedOrder() Order {
	now := time.Now().UTC().Format(time.RFC3339)
	return Order{
		OrderID:       "ord-1",
		OrderNumber:   NewOrderNumber(time.Now()),
		BuyerID:       42,
		PaymentMethod: PaymentCOD,
		PaymentStatus: PaymentStatusPending,
		OrderStatus:   StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items: []OrderItem{
			{ProductID: 1, VariantID: 10, ProductName: "Phone", UnitPrice: 25000000, Quantity: 2, Subtotal: 50000000, Status: ItemActive},
		},
	}
}

func TestInMemoryCancel_LeavesEarlierSnapshotsAlone(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.Create(seedOrder()); err != nil {
		t.Fatalf("create: %v", err)
	}

	snapshot, err := repo.GetByID("ord-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	updated, err := repo.Cancel("ord-1", time.Now().UTC().Format(time.RFC3339))
	if err != nil || !updated {
		t.Fatalf("cancel = (%v, %v), want (true, nil)", updated, err)
	}

	// the snapshot read before the cancel must keep its own item state
	if snapshot.Items[0].Status != ItemActive {
		t.Errorf("cancel mutated a previously returned snapshot: item status = %q", snapshot.Items[0].Status)
	}

	after, err := repo.GetByID("ord-1")
	if err != nil {
		t.Fatalf("get after cancel: %v", err)
	}
	if after.OrderStatus != StatusCancelled || after.Items[0].Status != ItemCancelled {
		t.Errorf("stored order not cancelled: %q/%q", after.OrderStatus, after.Items[0].Status)
	}
}

func TestInMemoryCreate_CallerSliceNotShared(t *testing.T) {
	repo := NewInMemoryRepository()
	ord := seedOrder()

	created, err := repo.Create(ord)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Items[0].ItemID == 0 {
		t.Fatalf("item id not assigned")
	}
	if ord.Items[0].ItemID != 0 {
		t.Errorf("create wrote the item id back into the caller's slice")
	}

	created.Items[0].Status = ItemReturned
	stored, _ := repo.GetByID("ord-1")
	if stored.Items[0].Status != ItemActive {
		t.Errorf("mutating a returned order leaked into the store: %q", stored.Items[0].Status)
	}
}
