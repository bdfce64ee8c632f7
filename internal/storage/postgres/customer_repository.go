package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

func (r *customerRepository) Create(customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (
			id, first_name, last_name, email, phone_number, zip_code, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		customer.ID, customer.FirstName, customer.LastName, customer.Email,
		customer.PhoneNumber, customer.ZipCode, customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		if mapped := uniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert customer: %w", err)
	}

	return nil
}

func (r *customerRepository) Get(id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var customer domain.Customer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone_number, zip_code, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id).Scan(
		&customer.ID, &customer.FirstName, &customer.LastName, &customer.Email,
		&customer.PhoneNumber, &customer.ZipCode, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}

	return customer, nil
}

func (r *customerRepository) List() ([]domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, email, phone_number, zip_code, created_at, updated_at
		FROM customers
		ORDER BY first_name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(
			&customer.ID, &customer.FirstName, &customer.LastName, &customer.Email,
			&customer.PhoneNumber, &customer.ZipCode, &customer.CreatedAt, &customer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}

	return customers, nil
}

func (r *customerRepository) Update(customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET first_name = $1,
		    last_name = $2,
		    email = $3,
		    phone_number = $4,
		    zip_code = $5,
		    updated_at = $6
		WHERE id = $7
	`,
		customer.FirstName, customer.LastName, customer.Email,
		customer.PhoneNumber, customer.ZipCode, customer.UpdatedAt, customer.ID,
	)
	if err != nil {
		if mapped := uniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update customer: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCustomerNotFound
	}

	return nil
}

func (r *customerRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCustomerNotFound
	}

	return nil
}

func (r *customerRepository) Search(term string, limit int) ([]domain.CustomerLabel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, first_name || ' ' || last_name AS label
		FROM customers
	`
	args := []any{}
	if term = escapeLikePattern(strings.TrimSpace(term)); term != "" {
		query += `
		WHERE first_name || ' ' || last_name ILIKE '%' || $1 || '%'
		   OR last_name ILIKE '%' || $1 || '%'
		   OR email ILIKE '%' || $1 || '%'
		   OR phone_number ILIKE '%' || $1 || '%'
		   OR zip_code ILIKE '%' || $1 || '%'
		`
		args = append(args, term)
		query += fmt.Sprintf(" ORDER BY first_name LIMIT $%d", len(args)+1)
	} else {
		query += " ORDER BY first_name LIMIT $1"
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	defer rows.Close()

	labels := make([]domain.CustomerLabel, 0, limit)
	for rows.Next() {
		var label domain.CustomerLabel
		if err := rows.Scan(&label.ID, &label.Label); err != nil {
			return nil, fmt.Errorf("scan customer label: %w", err)
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer labels: %w", err)
	}

	return labels, nil
}

// escapeLikePattern экранирует метасимволы LIKE/ILIKE, чтобы поисковый ввод
// вида "100%" матчился буквально, а не как wildcard.
func escapeLikePattern(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
