package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

// demoProduct описывает одну позицию демонстрационного каталога.
type demoProduct struct {
	name  string
	price string
	stock int32
}

var catalog = []demoProduct{
	{"Espresso", "2.50", 200},
	{"Cappuccino", "3.80", 150},
	{"Latte", "4.20", 150},
	{"Croissant", "2.90", 80},
	{"Blueberry Muffin", "3.10", 60},
	{"Club Sandwich", "7.50", 40},
	{"Caesar Salad", "8.90", 30},
	{"Orange Juice", "3.50", 100},
	{"Sparkling Water", "1.80", 250},
	{"Cheesecake Slice", "4.70", 45},
}

func main() {
	var dsn string

	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: POS_POSTGRES_DSN)")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("POS_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("POS_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := store.MigrateUp(ctx, 0); err != nil {
		fail("migrate up failed: %v", err)
	}

	created, err := seedCatalog(postgres.NewProductRepository(store))
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("seed ok: %d created, %d already present\n", created, len(catalog)-created)
}

// seedCatalog добавляет в каталог отсутствующие демо-товары.
// Повторный запуск не создаёт дубликатов: сравниваем по имени.
func seedCatalog(products domain.ProductRepository) (int, error) {
	existing, err := products.List()
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, p := range existing {
		present[p.Name] = true
	}

	now := time.Now().UTC()
	created := 0

	for _, item := range catalog {
		if present[item.name] {
			continue
		}
		price, err := decimal.NewFromString(item.price)
		if err != nil {
			return created, fmt.Errorf("bad price %q for %s: %w", item.price, item.name, err)
		}
		product := domain.Product{
			ID:        uuid.NewString(),
			Name:      item.name,
			Price:     price,
			Stock:     item.stock,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := products.Create(product); err != nil {
			return created, fmt.Errorf("create product %s: %w", item.name, err)
		}
		created++
		fmt.Printf("seeded %-18s price=%s stock=%d\n", item.name, price.StringFixed(2), item.stock)
	}

	return created, nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
