package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func newProduct(id, name string, price int64, stock int32) domain.Product {
	now := time.Now().UTC()
	return domain.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newOrderHeader(id, customerID string) domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:          id,
		CustomerID:  customerID,
		OrderNumber: "POS" + id,
		Price:       decimal.Zero,
		Quantity:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestOrderStore_CommitPersistsEverything(t *testing.T) {
	products := memory.NewProductRepository()
	if err := products.Create(newProduct("product-1", "Keyboard", 100, 5)); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	outbox := memory.NewOutboxRepository()
	store := memory.NewOrderStore(products, nil, outbox)

	tx, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	order := newOrderHeader("order-1", "customer-1")
	if err := tx.InsertOrder(order); err != nil {
		t.Fatalf("insert order failed: %v", err)
	}

	product, err := tx.ProductForUpdate("product-1")
	if err != nil {
		t.Fatalf("product for update failed: %v", err)
	}
	item := domain.LineItem{
		ID:           "item-1",
		OrderID:      order.ID,
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductPrice: product.Price,
		Quantity:     3,
		Discount:     decimal.NewFromInt(10),
		CreatedAt:    order.CreatedAt,
	}
	if err := tx.InsertLineItem(item); err != nil {
		t.Fatalf("insert line item failed: %v", err)
	}
	if err := tx.UpdateProductStock(product.ID, product.Stock-3); err != nil {
		t.Fatalf("update stock failed: %v", err)
	}

	order.Price = item.Subtotal()
	order.Quantity = 3
	if err := tx.UpdateOrderTotals(order); err != nil {
		t.Fatalf("update totals failed: %v", err)
	}
	if err := tx.EnqueueOutbox(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     "order.created",
		Payload:       []byte(`{}`),
	}); err != nil {
		t.Fatalf("enqueue outbox failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	stored, err := store.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.Price.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("expected price 270, got %s", stored.Price)
	}
	if len(stored.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(stored.Items))
	}

	left, err := products.Get("product-1")
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if left.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", left.Stock)
	}

	stats, err := outbox.Stats()
	if err != nil {
		t.Fatalf("outbox stats failed: %v", err)
	}
	if stats.PendingCount != 1 {
		t.Fatalf("expected 1 pending outbox message, got %d", stats.PendingCount)
	}
}

func TestOrderStore_RollbackDiscardsEverything(t *testing.T) {
	products := memory.NewProductRepository()
	if err := products.Create(newProduct("product-1", "Keyboard", 100, 5)); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	outbox := memory.NewOutboxRepository()
	store := memory.NewOrderStore(products, nil, outbox)

	tx, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	order := newOrderHeader("order-1", "customer-1")
	if err := tx.InsertOrder(order); err != nil {
		t.Fatalf("insert order failed: %v", err)
	}
	if err := tx.UpdateProductStock("product-1", 0); err != nil {
		t.Fatalf("update stock failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	if _, err := store.Get(order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound after rollback, got %v", err)
	}

	left, err := products.Get("product-1")
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if left.Stock != 5 {
		t.Fatalf("expected stock 5 after rollback, got %d", left.Stock)
	}

	stats, err := outbox.Stats()
	if err != nil {
		t.Fatalf("outbox stats failed: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected no pending outbox messages, got %d", stats.PendingCount)
	}
}

func TestOrderStore_StagedStockVisibleInsideTx(t *testing.T) {
	products := memory.NewProductRepository()
	if err := products.Create(newProduct("product-1", "Keyboard", 100, 5)); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	store := memory.NewOrderStore(products, nil, nil)

	tx, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpdateProductStock("product-1", 2); err != nil {
		t.Fatalf("update stock failed: %v", err)
	}
	product, err := tx.ProductForUpdate("product-1")
	if err != nil {
		t.Fatalf("product for update failed: %v", err)
	}
	if product.Stock != 2 {
		t.Fatalf("expected staged stock 2 inside tx, got %d", product.Stock)
	}
}

func TestOrderStore_ProductForUpdateMissing(t *testing.T) {
	store := memory.NewOrderStore(memory.NewProductRepository(), nil, nil)
	tx, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ProductForUpdate("missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
