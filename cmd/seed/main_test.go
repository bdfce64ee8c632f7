package main

import (
	"testing"

	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func TestSeedCatalogIsIdempotent(t *testing.T) {
	products := memory.NewProductRepository()

	created, err := seedCatalog(products)
	if err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	if created != len(catalog) {
		t.Fatalf("expected %d products created, got %d", len(catalog), created)
	}

	created, err = seedCatalog(products)
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if created != 0 {
		t.Errorf("rerun should create nothing, got %d", created)
	}

	all, err := products.List()
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(all) != len(catalog) {
		t.Errorf("expected %d products total, got %d", len(catalog), len(all))
	}
}
