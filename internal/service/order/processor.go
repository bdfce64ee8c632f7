package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
)

// Причины отклонения размещения для метрик.
const (
	rejectValidation       = "validation"
	rejectCustomerNotFound = "customer_not_found"
	rejectProductNotFound  = "product_not_found"
	rejectOutOfStock       = "out_of_stock"
	rejectStorage          = "storage"
)

// PlaceOrderItem — запрошенная позиция заказа.
type PlaceOrderItem struct {
	ProductID string
	Quantity  int32
	Discount  decimal.Decimal
}

// PlaceOrderInput — запрос на размещение заказа.
type PlaceOrderInput struct {
	CustomerID string
	Items      []PlaceOrderItem
}

// Processor выполняет атомарное размещение заказа: проверка стока, фиксация
// цен позиций, декремент остатков и накопление итогов в одной транзакции.
type Processor struct {
	customers domain.CustomerRepository
	orders    domain.OrderStore
	logger    *log.Entry
	metrics   *metrics.POSMetrics
}

// NewProcessor создаёт рабочий экземпляр процессора.
func NewProcessor(customers domain.CustomerRepository, orders domain.OrderStore, logger *log.Entry) *Processor {
	if logger == nil {
		logger = log.New().WithField("component", "order-processor")
	}
	return &Processor{
		customers: customers,
		orders:    orders,
		logger:    logger,
		metrics:   metrics.NewPOSMetrics(),
	}
}

// NewProcessorWithoutMetrics создаёт процессор без метрик (для тестов).
func NewProcessorWithoutMetrics(customers domain.CustomerRepository, orders domain.OrderStore, logger *log.Entry) *Processor {
	if logger == nil {
		logger = log.New().WithField("component", "order-processor")
	}
	return &Processor{
		customers: customers,
		orders:    orders,
		logger:    logger,
	}
}

// PlaceOrder размещает заказ. Любая ошибка после открытия транзакции приводит
// к полному откату: ни шапки, ни позиций, ни декрементов стока не остаётся.
func (p *Processor) PlaceOrder(ctx context.Context, input PlaceOrderInput) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.RecordPlacementDuration(time.Since(start))
		}
	}()

	if fieldErrs := validateInput(input); len(fieldErrs) > 0 {
		p.reject(rejectValidation)
		return domain.Order{}, fieldErrs
	}

	// Несуществующий клиент — ошибка валидации, как и пустой customer_id:
	// транзакция ещё не открыта, клиент получает карту ошибок по полям.
	if _, err := p.customers.Get(input.CustomerID); err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			p.reject(rejectCustomerNotFound)
			return domain.Order{}, domain.FieldErrors{"customer_id": "customer_id is invalid"}
		}
		p.reject(rejectStorage)
		return domain.Order{}, fmt.Errorf("load customer: %w", err)
	}

	tx, err := p.orders.Begin(ctx)
	if err != nil {
		p.reject(rejectStorage)
		return domain.Order{}, fmt.Errorf("begin order transaction: %w", err)
	}
	// Откат безопасен после Commit; покрывает каждый ранний return ниже.
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.WithError(rbErr).Warn("order transaction rollback failed")
		}
	}()

	now := time.Now().UTC()
	order := domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  input.CustomerID,
		OrderNumber: NewOrderNumber(),
		Price:       decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.InsertOrder(order); err != nil {
		p.reject(rejectStorage)
		return domain.Order{}, fmt.Errorf("insert order header: %w", err)
	}

	for _, item := range input.Items {
		product, err := tx.ProductForUpdate(item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				p.reject(rejectProductNotFound)
				return domain.Order{}, err
			}
			p.reject(rejectStorage)
			return domain.Order{}, fmt.Errorf("lock product %s: %w", item.ProductID, err)
		}

		if item.Quantity > product.Stock {
			p.reject(rejectOutOfStock)
			return domain.Order{}, &domain.OutOfStockError{ProductName: product.Name}
		}

		line := domain.LineItem{
			ID:           uuid.NewString(),
			OrderID:      order.ID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductPrice: product.Price,
			Quantity:     item.Quantity,
			Discount:     item.Discount,
			CreatedAt:    now,
		}
		if err := tx.InsertLineItem(line); err != nil {
			p.reject(rejectStorage)
			return domain.Order{}, fmt.Errorf("insert line item: %w", err)
		}
		if err := tx.UpdateProductStock(product.ID, product.Stock-item.Quantity); err != nil {
			p.reject(rejectStorage)
			return domain.Order{}, fmt.Errorf("update stock for %s: %w", product.ID, err)
		}

		order.Price = order.Price.Add(line.Subtotal())
		order.Quantity += line.Quantity
		order.Items = append(order.Items, line)
	}

	if err := tx.UpdateOrderTotals(order); err != nil {
		p.reject(rejectStorage)
		return domain.Order{}, fmt.Errorf("persist order totals: %w", err)
	}

	if err := p.enqueueCreatedEvent(tx, order); err != nil {
		p.reject(rejectStorage)
		return domain.Order{}, err
	}

	if err := tx.Commit(); err != nil {
		p.reject(rejectStorage)
		return domain.Order{}, fmt.Errorf("commit order transaction: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordOrderPlaced()
		p.metrics.RecordOutboxEvent()
	}
	p.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"customer_id":  order.CustomerID,
		"price":        order.Price.String(),
		"quantity":     order.Quantity,
	}).Info("order placed")

	return order, nil
}

// Details — заказ с позициями и отображаемым именем клиента.
type Details struct {
	Order        domain.Order
	CustomerName string
}

// Get возвращает заказ с позициями и именем клиента. Имя пустое, если клиент
// уже удалён.
func (p *Processor) Get(id string) (Details, error) {
	ord, err := p.orders.Get(id)
	if err != nil {
		return Details{}, err
	}

	details := Details{Order: ord}
	if ord.CustomerID == "" {
		return details, nil
	}

	cust, err := p.customers.Get(ord.CustomerID)
	switch {
	case err == nil:
		details.CustomerName = cust.FullName()
	case errors.Is(err, domain.ErrCustomerNotFound):
	default:
		return Details{}, fmt.Errorf("load order customer: %w", err)
	}

	return details, nil
}

// List возвращает все заказы с отображаемым именем клиента.
func (p *Processor) List() ([]domain.OrderSummary, error) {
	return p.orders.List()
}

// NewOrderNumber генерирует номер заказа: префикс "POS" и уникальный токен.
func NewOrderNumber() string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "POS" + token[:13]
}

func (p *Processor) enqueueCreatedEvent(tx domain.OrderTx, order domain.Order) error {
	payload, err := json.Marshal(map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"customer_id":  order.CustomerID,
		"price":        order.Price.String(),
		"quantity":     order.Quantity,
		"ts":           order.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal order.created payload: %w", err)
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     "order.created",
		Payload:       payload,
	}
	if err := tx.EnqueueOutbox(msg); err != nil {
		return fmt.Errorf("enqueue order.created: %w", err)
	}
	return nil
}

func (p *Processor) reject(reason string) {
	if p.metrics != nil {
		p.metrics.RecordOrderRejected(reason)
	}
}

func validateInput(input PlaceOrderInput) domain.FieldErrors {
	fieldErrs := domain.FieldErrors{}

	if strings.TrimSpace(input.CustomerID) == "" {
		fieldErrs["customer_id"] = "customer_id is required"
	}
	if len(input.Items) == 0 {
		fieldErrs["products"] = "order must contain at least one product"
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			fieldErrs[fmt.Sprintf("products.%d.product_id", i)] = "product_id is required"
		}
		if item.Quantity < 1 {
			fieldErrs[fmt.Sprintf("products.%d.quantity", i)] = "quantity must be at least 1"
		}
		if item.Discount.IsNegative() || item.Discount.GreaterThan(decimal.NewFromInt(100)) {
			fieldErrs[fmt.Sprintf("products.%d.discount", i)] = "discount must be between 0 and 100"
		}
	}

	if len(fieldErrs) == 0 {
		return nil
	}
	return fieldErrs
}
