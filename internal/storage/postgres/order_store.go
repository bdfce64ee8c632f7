package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

type orderStore struct {
	db *sql.DB
}

// NewOrderStore создаёт PostgreSQL-реализацию OrderStore.
func NewOrderStore(store *Store) domain.OrderStore {
	return &orderStore{db: store.DB()}
}

// Begin открывает транзакцию размещения заказа. Контекст вызывающей стороны
// ограничивает всю транзакцию.
func (s *orderStore) Begin(ctx context.Context) (domain.OrderTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	return &orderTx{ctx: ctx, tx: tx}, nil
}

func (s *orderStore) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// customer_id обнуляется при удалении клиента (ON DELETE SET NULL).
	var (
		order      domain.Order
		customerID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, order_number, price, quantity, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &customerID, &order.OrderNumber,
		&order.Price, &order.Quantity, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.CustomerID = customerID.String

	items, err := s.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

// List возвращает все заказы с отображаемым именем клиента (left join:
// имя пустое, если клиент удалён).
func (s *orderStore) List() ([]domain.OrderSummary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.customer_id, o.order_number, o.price, o.quantity,
		       o.created_at, o.updated_at,
		       COALESCE(c.first_name || ' ' || c.last_name, '') AS customer_name
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		ORDER BY o.created_at, o.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.OrderSummary, 0)
	for rows.Next() {
		var (
			summary    domain.OrderSummary
			customerID sql.NullString
		)
		if err := rows.Scan(
			&summary.ID, &customerID, &summary.OrderNumber,
			&summary.Price, &summary.Quantity, &summary.CreatedAt, &summary.UpdatedAt,
			&summary.CustomerName,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		summary.CustomerID = customerID.String
		orders = append(orders, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (s *orderStore) loadItems(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, product_price,
		       product_quantity, product_discount, created_at
		FROM product_order
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.LineItem, 0)
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.ProductPrice, &item.Quantity, &item.Discount, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// orderTx реализует транзакционную область размещения поверх *sql.Tx.
// ProductForUpdate блокирует строку товара (SELECT ... FOR UPDATE), поэтому
// параллельные размещения не могут пройти проверку стока по устаревшим данным.
type orderTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *orderTx) ProductForUpdate(id string) (domain.Product, error) {
	var product domain.Product
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&product.ID, &product.Name, &product.Price, &product.Stock,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product for update: %w", err)
	}

	return product, nil
}

func (t *orderTx) InsertOrder(order domain.Order) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO orders (id, customer_id, order_number, price, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		order.ID, order.CustomerID, order.OrderNumber,
		order.Price, order.Quantity, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if mapped := uniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (t *orderTx) InsertLineItem(item domain.LineItem) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO product_order (
			id, order_id, product_id, product_name, product_price,
			product_quantity, product_discount, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		item.ID, item.OrderID, item.ProductID, item.ProductName,
		item.ProductPrice, item.Quantity, item.Discount, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert line item: %w", err)
	}

	return nil
}

func (t *orderTx) UpdateProductStock(productID string, stock int32) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE products
		SET stock = $1, updated_at = $2
		WHERE id = $3
	`, stock, time.Now().UTC(), productID)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (t *orderTx) UpdateOrderTotals(order domain.Order) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE orders
		SET price = $1, quantity = $2, updated_at = $3
		WHERE id = $4
	`, order.Price, order.Quantity, order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("update order totals: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

func (t *orderTx) EnqueueOutbox(msg domain.OutboxMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	_, err := t.tx.ExecContext(t.ctx, insertOutboxSQL,
		msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, now, now,
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox message: %w", err)
	}

	return nil
}

func (t *orderTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

func (t *orderTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback order tx: %w", err)
	}
	return nil
}

var _ domain.OrderStore = (*orderStore)(nil)
var _ domain.OrderTx = (*orderTx)(nil)
