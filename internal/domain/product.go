package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога. Цена и сток мутируются только
// транзакцией размещения заказа; остальное управляется извне (seed, админка).
type Product struct {
	ID   string
	Name string
	// Price — цена за единицу в валюте магазина.
	Price decimal.Decimal
	// Stock — доступный остаток, не может уходить в минус.
	Stock     int32
	CreatedAt time.Time
	UpdatedAt time.Time
}
