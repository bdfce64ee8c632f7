package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		product.ID, product.Name, product.Price, product.Stock,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID, &product.Name, &product.Price, &product.Stock,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *productRepository) List() ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Price, &product.Stock,
			&product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
