package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// orderStoreInMemory хранит заказы и реализует транзакцию размещения поверх
// in-memory каталога. Транзакции сериализуются мьютексом placeMu: это
// in-memory аналог row-level блокировок Postgres-реализации.
type orderStoreInMemory struct {
	mu      sync.RWMutex
	placeMu sync.Mutex

	orders    map[string]domain.Order
	products  *ProductRepository
	customers domain.CustomerRepository
	outbox    domain.OutboxRepository
}

// NewOrderStore возвращает in-memory store заказов. Репозиторий клиентов нужен
// для отображаемых имён в списке; outbox может быть nil.
func NewOrderStore(products *ProductRepository, customers domain.CustomerRepository, outbox domain.OutboxRepository) domain.OrderStore {
	return &orderStoreInMemory{
		orders:    make(map[string]domain.Order),
		products:  products,
		customers: customers,
		outbox:    outbox,
	}
}

// Begin открывает транзакцию размещения. Блокировка удерживается до
// Commit/Rollback, поэтому одновременные размещения не перегоняют сток.
func (s *orderStoreInMemory) Begin(_ context.Context) (domain.OrderTx, error) {
	s.placeMu.Lock()
	return &orderTxInMemory{
		store:         s,
		stagedStock:   make(map[string]int32),
		stagedOutbox:  nil,
		stagedItems:   nil,
		stagedHeaders: make(map[string]domain.Order),
	}, nil
}

// Get возвращает заказ с позициями или ErrOrderNotFound.
func (s *orderStoreInMemory) Get(id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	// Копия среза, чтобы избежать мутаций извне.
	items := make([]domain.LineItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order, nil
}

// List возвращает все заказы с отображаемым именем клиента.
func (s *orderStoreInMemory) List() ([]domain.OrderSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.OrderSummary, 0, len(s.orders))
	for _, order := range s.orders {
		summary := domain.OrderSummary{Order: order}
		if s.customers != nil {
			if customer, err := s.customers.Get(order.CustomerID); err == nil {
				summary.CustomerName = customer.FullName()
			}
		}
		result = append(result, summary)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// orderTxInMemory накапливает staged-записи и применяет их только на Commit.
// Rollback просто отбрасывает staged-состояние.
type orderTxInMemory struct {
	store *orderStoreInMemory
	done  bool

	stagedHeaders map[string]domain.Order
	stagedItems   []domain.LineItem
	stagedStock   map[string]int32
	stagedOutbox  []domain.OutboxMessage
}

func (tx *orderTxInMemory) ProductForUpdate(id string) (domain.Product, error) {
	product, ok := tx.store.products.get(id)
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if stock, staged := tx.stagedStock[id]; staged {
		product.Stock = stock
	}
	return product, nil
}

func (tx *orderTxInMemory) InsertOrder(order domain.Order) error {
	if _, exists := tx.store.orders[order.ID]; exists {
		return domain.ErrDuplicateOrderNumber
	}
	tx.stagedHeaders[order.ID] = order
	return nil
}

func (tx *orderTxInMemory) InsertLineItem(item domain.LineItem) error {
	tx.stagedItems = append(tx.stagedItems, item)
	return nil
}

func (tx *orderTxInMemory) UpdateProductStock(productID string, stock int32) error {
	if _, ok := tx.store.products.get(productID); !ok {
		return domain.ErrProductNotFound
	}
	tx.stagedStock[productID] = stock
	return nil
}

func (tx *orderTxInMemory) UpdateOrderTotals(order domain.Order) error {
	staged, ok := tx.stagedHeaders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	staged.Price = order.Price
	staged.Quantity = order.Quantity
	staged.UpdatedAt = order.UpdatedAt
	tx.stagedHeaders[order.ID] = staged
	return nil
}

func (tx *orderTxInMemory) EnqueueOutbox(msg domain.OutboxMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	tx.stagedOutbox = append(tx.stagedOutbox, msg)
	return nil
}

func (tx *orderTxInMemory) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true
	defer tx.store.placeMu.Unlock()

	tx.store.mu.Lock()
	for id, order := range tx.stagedHeaders {
		for _, item := range tx.stagedItems {
			if item.OrderID == id {
				order.Items = append(order.Items, item)
			}
		}
		tx.store.orders[id] = order
	}
	tx.store.mu.Unlock()

	for id, stock := range tx.stagedStock {
		tx.store.products.setStock(id, stock)
	}

	if tx.store.outbox != nil {
		for _, msg := range tx.stagedOutbox {
			if _, err := tx.store.outbox.Enqueue(msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tx *orderTxInMemory) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.store.placeMu.Unlock()
	return nil
}

var _ domain.OrderStore = (*orderStoreInMemory)(nil)
var _ domain.OrderTx = (*orderTxInMemory)(nil)
