package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem представляет одну позицию заказа. Имя и цена товара фиксируются
// в момент продажи и не зависят от последующих изменений каталога.
type LineItem struct {
	ID        string
	OrderID   string
	ProductID string
	// ProductName — копия имени товара на момент продажи.
	ProductName string
	// ProductPrice — копия цены за единицу на момент продажи.
	ProductPrice decimal.Decimal
	// Quantity — запрошенное количество, >= 1.
	Quantity int32
	// Discount — скидка на позицию в процентах, [0,100].
	Discount  decimal.Decimal
	CreatedAt time.Time
}

// Subtotal возвращает вклад позиции в итог заказа:
// product_price * quantity * (1 - discount/100).
func (li LineItem) Subtotal() decimal.Decimal {
	unit := li.ProductPrice.Sub(li.ProductPrice.Mul(li.Discount).Div(hundred))
	return unit.Mul(decimal.NewFromInt32(li.Quantity))
}

// Order агрегирует шапку заказа и его позиции.
type Order struct {
	ID         string
	CustomerID string
	// OrderNumber уникален, генерируется при создании ("POS" + токен).
	OrderNumber string
	// Price — накопленный итог по всем позициям.
	Price decimal.Decimal
	// Quantity — суммарное количество единиц товара в заказе.
	Quantity  int32
	Items     []LineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderSummary — строка списка заказов с отображаемым именем клиента.
type OrderSummary struct {
	Order
	CustomerName string
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.OrderNumber == "" {
		errs = append(errs, ErrOrderNumberRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.Price.IsNegative() {
		errs = append(errs, ErrPriceNegative)
	}

	// Сверяем итог заказа с суммой позиций и суммарное количество.
	sum := decimal.Zero
	var qty int32
	for _, item := range o.Items {
		if item.Quantity < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.ProductPrice.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if item.Discount.IsNegative() || item.Discount.GreaterThan(hundred) {
			errs = append(errs, ErrItemDiscountInvalid)
		}
		sum = sum.Add(item.Subtotal())
		qty += item.Quantity
	}
	if !sum.Equal(o.Price) {
		errs = append(errs, ErrPriceMismatch)
	}
	if qty != o.Quantity {
		errs = append(errs, ErrQuantityMismatch)
	}

	return errs
}
