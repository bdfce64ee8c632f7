package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

func TestLineItem_Subtotal(t *testing.T) {
	item := domain.LineItem{
		ProductPrice: decimal.NewFromInt(100),
		Quantity:     3,
		Discount:     decimal.NewFromInt(10),
	}

	// 100 * 0.9 * 3 = 270
	if got := item.Subtotal(); !got.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("expected subtotal 270, got %s", got)
	}
}

func TestLineItem_Subtotal_NoDiscount(t *testing.T) {
	item := domain.LineItem{
		ProductPrice: decimal.RequireFromString("19.99"),
		Quantity:     2,
		Discount:     decimal.Zero,
	}

	if got := item.Subtotal(); !got.Equal(decimal.RequireFromString("39.98")) {
		t.Fatalf("expected subtotal 39.98, got %s", got)
	}
}

func TestOrder_ValidateInvariants(t *testing.T) {
	now := time.Now().UTC()
	order := domain.Order{
		ID:          "order-1",
		CustomerID:  "customer-1",
		OrderNumber: "POS123",
		Price:       decimal.NewFromInt(270),
		Quantity:    3,
		Items: []domain.LineItem{
			{
				ID:           "item-1",
				OrderID:      "order-1",
				ProductID:    "product-1",
				ProductName:  "Keyboard",
				ProductPrice: decimal.NewFromInt(100),
				Quantity:     3,
				Discount:     decimal.NewFromInt(10),
				CreatedAt:    now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no invariant violations, got %v", errs)
	}

	order.Price = decimal.NewFromInt(300)
	errs := order.ValidateInvariants()
	if len(errs) != 1 || errs[0] != domain.ErrPriceMismatch {
		t.Fatalf("expected price mismatch, got %v", errs)
	}
}

func TestOrder_ValidateInvariants_EmptyOrder(t *testing.T) {
	order := domain.Order{}
	errs := order.ValidateInvariants()
	if len(errs) == 0 {
		t.Fatal("expected invariant violations for an empty order")
	}
}
