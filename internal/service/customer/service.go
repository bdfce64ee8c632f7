package customer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
)

// searchLimit ограничивает выдачу typeahead-поиска.
const searchLimit = 100

const maxNameLength = 255

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// Input — данные клиента из запроса на создание или обновление.
type Input struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	ZipCode     string
}

// Service реализует операции над клиентами: CRUD, typeahead-поиск и
// публикацию событий жизненного цикла через outbox.
type Service struct {
	customers domain.CustomerRepository
	outbox    domain.OutboxRepository
	logger    *log.Entry
	metrics   *metrics.POSMetrics
}

// NewService создаёт рабочий экземпляр сервиса.
func NewService(customers domain.CustomerRepository, outbox domain.OutboxRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "customer-service")
	}
	return &Service{
		customers: customers,
		outbox:    outbox,
		logger:    logger,
		metrics:   metrics.NewPOSMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(customers domain.CustomerRepository, outbox domain.OutboxRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "customer-service")
	}
	return &Service{
		customers: customers,
		outbox:    outbox,
		logger:    logger,
	}
}

// Create валидирует и сохраняет нового клиента.
func (s *Service) Create(input Input) (domain.Customer, error) {
	if fieldErrs := validateInput(input); len(fieldErrs) > 0 {
		return domain.Customer{}, fieldErrs
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:          uuid.NewString(),
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		ZipCode:     strings.TrimSpace(input.ZipCode),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.customers.Create(customer); err != nil {
		if fieldErrs := uniquenessFieldErrors(err); fieldErrs != nil {
			return domain.Customer{}, fieldErrs
		}
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	s.recordOperation("create")
	s.emitEvent("customer.created", customer)
	return customer, nil
}

// Get возвращает клиента по идентификатору.
func (s *Service) Get(id string) (domain.Customer, error) {
	return s.customers.Get(id)
}

// List возвращает всех клиентов, упорядоченных по имени.
func (s *Service) List() ([]domain.Customer, error) {
	return s.customers.List()
}

// Update валидирует и перезаписывает существующего клиента. Собственные
// email и телефон клиента не считаются занятыми.
func (s *Service) Update(id string, input Input) (domain.Customer, error) {
	existing, err := s.customers.Get(id)
	if err != nil {
		return domain.Customer{}, err
	}

	if fieldErrs := validateInput(input); len(fieldErrs) > 0 {
		return domain.Customer{}, fieldErrs
	}

	updated := existing
	updated.FirstName = strings.TrimSpace(input.FirstName)
	updated.LastName = strings.TrimSpace(input.LastName)
	updated.Email = strings.ToLower(strings.TrimSpace(input.Email))
	updated.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	updated.ZipCode = strings.TrimSpace(input.ZipCode)
	updated.UpdatedAt = time.Now().UTC()

	if err := s.customers.Update(updated); err != nil {
		if fieldErrs := uniquenessFieldErrors(err); fieldErrs != nil {
			return domain.Customer{}, fieldErrs
		}
		return domain.Customer{}, fmt.Errorf("update customer: %w", err)
	}

	s.recordOperation("update")
	s.emitEvent("customer.updated", updated)
	return updated, nil
}

// Delete удаляет клиента по идентификатору.
func (s *Service) Delete(id string) error {
	customer, err := s.customers.Get(id)
	if err != nil {
		return err
	}

	if err := s.customers.Delete(id); err != nil {
		return err
	}

	s.recordOperation("delete")
	s.emitEvent("customer.deleted", customer)
	return nil
}

// Search выполняет typeahead-поиск клиентов по подстроке.
func (s *Service) Search(term string) ([]domain.CustomerLabel, error) {
	return s.customers.Search(strings.TrimSpace(term), searchLimit)
}

func (s *Service) recordOperation(operation string) {
	if s.metrics != nil {
		s.metrics.RecordCustomerOperation(operation)
	}
}

func (s *Service) emitEvent(eventType string, customer domain.Customer) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"customer_id": customer.ID,
		"email":       customer.Email,
		"full_name":   customer.FullName(),
		"ts":          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.WithError(err).WithField("event", eventType).Error("marshal customer event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "customer",
		AggregateID:   customer.ID,
		EventType:     eventType,
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"customer_id": customer.ID,
			"event":       eventType,
		}).Error("enqueue customer event failed")
	} else if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func uniquenessFieldErrors(err error) domain.FieldErrors {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return domain.FieldErrors{"email": "email has already been taken"}
	case errors.Is(err, domain.ErrPhoneTaken):
		return domain.FieldErrors{"phone_number": "phone_number has already been taken"}
	}
	return nil
}

func validateInput(input Input) domain.FieldErrors {
	fieldErrs := domain.FieldErrors{}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.PhoneNumber)
	zip := strings.TrimSpace(input.ZipCode)

	switch {
	case firstName == "":
		fieldErrs["first_name"] = "first_name is required"
	case len(firstName) > maxNameLength:
		fieldErrs["first_name"] = "first_name must be at most 255 characters"
	}

	switch {
	case lastName == "":
		fieldErrs["last_name"] = "last_name is required"
	case len(lastName) > maxNameLength:
		fieldErrs["last_name"] = "last_name must be at most 255 characters"
	}

	switch {
	case email == "":
		fieldErrs["email"] = "email is required"
	case !emailPattern.MatchString(email):
		fieldErrs["email"] = "email must be a valid email address"
	}

	switch {
	case phone == "":
		fieldErrs["phone_number"] = "phone_number is required"
	case !phonePattern.MatchString(phone):
		fieldErrs["phone_number"] = "phone_number must be exactly 10 digits"
	}

	switch {
	case zip == "":
		fieldErrs["zip_code"] = "zip_code is required"
	case len(zip) != 6:
		fieldErrs["zip_code"] = "zip_code must be exactly 6 characters"
	}

	if len(fieldErrs) == 0 {
		return nil
	}
	return fieldErrs
}
