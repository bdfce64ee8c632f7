package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

type productResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int32           `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List()
	if err != nil {
		h.writeInternalError(w, err)
		return
	}

	response := make([]productResponse, 0, len(products))
	for _, p := range products {
		response = append(response, newProductResponse(p))
	}
	writeSuccess(w, http.StatusOK, "", response)
}
