package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/order"
)

// OrderService — операции над заказами, нужные транспорту.
type OrderService interface {
	PlaceOrder(ctx context.Context, input order.PlaceOrderInput) (domain.Order, error)
	Get(id string) (order.Details, error)
	List() ([]domain.OrderSummary, error)
}

type orderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
}

type placeOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Products   []orderItemRequest `json:"products"`
}

func (r placeOrderRequest) toInput() order.PlaceOrderInput {
	items := make([]order.PlaceOrderItem, 0, len(r.Products))
	for _, item := range r.Products {
		items = append(items, order.PlaceOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Discount:  item.Discount,
		})
	}
	return order.PlaceOrderInput{CustomerID: r.CustomerID, Items: items}
}

type lineItemResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int32           `json:"quantity"`
	Discount     decimal.Decimal `json:"discount"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type orderResponse struct {
	ID           string             `json:"id"`
	CustomerID   string             `json:"customer_id"`
	CustomerName string             `json:"customer_name,omitempty"`
	OrderNumber  string             `json:"order_number"`
	Price        decimal.Decimal    `json:"price"`
	Quantity     int32              `json:"quantity"`
	Items        []lineItemResponse `json:"products,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func newOrderResponse(o domain.Order) orderResponse {
	items := make([]lineItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, lineItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
			Discount:     item.Discount,
			Subtotal:     item.Subtotal(),
		})
	}
	return orderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		OrderNumber: o.OrderNumber,
		Price:       o.Price,
		Quantity:    o.Quantity,
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidInput, nil)
		return
	}

	placed, err := h.orders.PlaceOrder(r.Context(), req.toInput())
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Order created successfully.", newOrderResponse(placed))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	got, err := h.orders.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	response := newOrderResponse(got.Order)
	response.CustomerName = got.CustomerName
	writeSuccess(w, http.StatusOK, "", response)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.orders.List()
	if err != nil {
		h.writeInternalError(w, err)
		return
	}

	response := make([]orderResponse, 0, len(summaries))
	for _, summary := range summaries {
		item := newOrderResponse(summary.Order)
		item.CustomerName = summary.CustomerName
		response = append(response, item)
	}
	writeSuccess(w, http.StatusOK, "", response)
}

func (h *Handler) writeOrderError(w http.ResponseWriter, err error) {
	if fieldErrs, ok := domain.IsValidation(err); ok {
		writeFailure(w, http.StatusBadRequest, msgInvalidInput, map[string]interface{}{"errors": fieldErrs})
		return
	}
	if domain.IsOutOfStock(err) {
		writeFailure(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		writeFailure(w, http.StatusNotFound, "Product not found", nil)
	case errors.Is(err, domain.ErrOrderNotFound):
		writeFailure(w, http.StatusNotFound, "Order not found", nil)
	default:
		h.writeInternalError(w, err)
	}
}
