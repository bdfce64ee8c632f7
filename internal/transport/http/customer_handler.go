package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/customer"
)

// CustomerService — операции над клиентами, нужные транспорту.
type CustomerService interface {
	Create(input customer.Input) (domain.Customer, error)
	Get(id string) (domain.Customer, error)
	List() ([]domain.Customer, error)
	Update(id string, input customer.Input) (domain.Customer, error)
	Delete(id string) error
	Search(term string) ([]domain.CustomerLabel, error)
}

type customerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	ZipCode     string `json:"zip_code"`
}

func (r customerRequest) toInput() customer.Input {
	return customer.Input{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		ZipCode:     r.ZipCode,
	}
}

type customerResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	ZipCode     string    `json:"zip_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		ZipCode:     c.ZipCode,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidInput, nil)
		return
	}

	created, err := h.customers.Create(req.toInput())
	if err != nil {
		h.writeCustomerError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Customer created successfully", newCustomerResponse(created))
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	got, err := h.customers.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeCustomerError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", newCustomerResponse(got))
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List()
	if err != nil {
		h.writeInternalError(w, err)
		return
	}

	response := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		response = append(response, newCustomerResponse(c))
	}
	writeSuccess(w, http.StatusOK, "", response)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidInput, nil)
		return
	}

	updated, err := h.customers.Update(chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.writeCustomerError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Customer updated successfully", newCustomerResponse(updated))
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeCustomerError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Customer deleted successfully", nil)
}

func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	labels, err := h.customers.Search(r.URL.Query().Get("search"))
	if err != nil {
		h.writeInternalError(w, err)
		return
	}

	if labels == nil {
		labels = []domain.CustomerLabel{}
	}
	writeSuccess(w, http.StatusOK, "", labels)
}

func (h *Handler) writeCustomerError(w http.ResponseWriter, err error) {
	if fieldErrs, ok := domain.IsValidation(err); ok {
		writeFailure(w, http.StatusBadRequest, msgInvalidInput, map[string]interface{}{"errors": fieldErrs})
		return
	}
	if errors.Is(err, domain.ErrCustomerNotFound) {
		writeFailure(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	h.writeInternalError(w, err)
}
