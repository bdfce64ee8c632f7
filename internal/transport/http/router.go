package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

const msgInvalidInput = "Please enter valid input data"

const requestTimeout = 30 * time.Second

// Handler объединяет HTTP-обработчики API.
type Handler struct {
	customers CustomerService
	orders    OrderService
	products  domain.ProductRepository
	logger    *log.Entry
}

// NewHandler создаёт обработчик поверх сервисов.
func NewHandler(customers CustomerService, orders OrderService, products domain.ProductRepository, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	return &Handler{
		customers: customers,
		orders:    orders,
		products:  products,
		logger:    logger,
	}
}

// Router собирает chi-маршрутизатор со всеми endpoint'ами API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(h.requestLogger)
	r.Use(httpMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Post("/", h.createCustomer)
			r.Get("/search", h.searchCustomers)
			r.Get("/{id}", h.getCustomer)
			r.Put("/{id}", h.updateCustomer)
			r.Delete("/{id}", h.deleteCustomer)
		})

		r.Get("/products", h.listProducts)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Post("/", h.placeOrder)
			r.Get("/{id}", h.getOrder)
		})
	})

	return r
}

func (h *Handler) writeInternalError(w http.ResponseWriter, err error) {
	h.logger.WithError(err).Error("request failed")
	writeFailure(w, http.StatusInternalServerError, "Something went wrong", nil)
}
