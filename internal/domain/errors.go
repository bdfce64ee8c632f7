package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствующего номера заказа.
	ErrOrderNumberRequired = errors.New("order_number is required")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one product")
	// Ошибка отрицательного итога заказа.
	ErrPriceNegative = errors.New("order price must be non-negative")
	// Ошибка при некорректном количестве товара (< 1).
	ErrItemQtyInvalid = errors.New("item quantity must be at least 1")
	// Ошибка, если зафиксированная цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка, если скидка вне диапазона [0,100].
	ErrItemDiscountInvalid = errors.New("item discount must be between 0 and 100")
	// Ошибка несоответствия итога заказа и сумм позиций.
	ErrPriceMismatch = errors.New("order price does not match items sum")
	// Ошибка несоответствия количества заказа и сумм позиций.
	ErrQuantityMismatch = errors.New("order quantity does not match items sum")

	// ErrCustomerNotFound возвращается, если клиент не найден в репозитории.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")

	// ErrEmailTaken — email уже занят другим клиентом.
	ErrEmailTaken = errors.New("email has already been taken")
	// ErrPhoneTaken — телефон уже занят другим клиентом.
	ErrPhoneTaken = errors.New("phone_number has already been taken")
	// ErrDuplicateOrderNumber — сгенерированный номер заказа уже существует.
	ErrDuplicateOrderNumber = errors.New("order number already exists")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// OutOfStockError возвращается транзакцией размещения, когда запрошенное
// количество превышает остаток. Текст повторяет контракт API.
type OutOfStockError struct {
	ProductName string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s is out of stock", e.ProductName)
}

// IsOutOfStock проверяет, является ли ошибка нехваткой стока.
func IsOutOfStock(err error) bool {
	var oos *OutOfStockError
	return errors.As(err, &oos)
}

// FieldErrors — карта ошибок валидации по полям запроса; именно в таком виде
// она уходит клиенту в data.errors.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+fe[field])
	}
	return strings.Join(parts, "; ")
}

// IsValidation проверяет, является ли ошибка ошибкой валидации полей,
// и возвращает её карту.
func IsValidation(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
