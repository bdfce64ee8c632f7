package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// customerRepositoryInMemory — простая in-memory реализация CustomerRepository.
type customerRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Customer
}

// NewCustomerRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewCustomerRepository() domain.CustomerRepository {
	return &customerRepositoryInMemory{
		items: make(map[string]domain.Customer),
	}
}

// Create сохраняет нового клиента, проверяя уникальность email и телефона.
func (r *customerRepositoryInMemory) Create(customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(customer, ""); err != nil {
		return err
	}
	r.items[customer.ID] = customer
	return nil
}

// Get возвращает клиента или ErrCustomerNotFound, если его нет.
func (r *customerRepositoryInMemory) Get(id string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.items[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

// List возвращает всех клиентов, упорядоченных по first_name.
func (r *customerRepositoryInMemory) List() ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Customer, 0, len(r.items))
	for _, customer := range r.items {
		result = append(result, customer)
	}
	sortCustomers(result)
	return result, nil
}

// Update перезаписывает клиента, исключая его самого из проверок уникальности.
func (r *customerRepositoryInMemory) Update(customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[customer.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	if err := r.checkUnique(customer, customer.ID); err != nil {
		return err
	}
	r.items[customer.ID] = customer
	return nil
}

// Delete удаляет клиента или возвращает ErrCustomerNotFound.
func (r *customerRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	delete(r.items, id)
	return nil
}

// Search выполняет регистронезависимый substring-поиск и возвращает метки.
func (r *customerRepositoryInMemory) Search(term string, limit int) ([]domain.CustomerLabel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term = strings.ToLower(strings.TrimSpace(term))

	matched := make([]domain.Customer, 0, len(r.items))
	for _, customer := range r.items {
		if term == "" || customerMatches(customer, term) {
			matched = append(matched, customer)
		}
	}
	sortCustomers(matched)

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	labels := make([]domain.CustomerLabel, 0, len(matched))
	for _, customer := range matched {
		labels = append(labels, domain.CustomerLabel{ID: customer.ID, Label: customer.FullName()})
	}
	return labels, nil
}

func (r *customerRepositoryInMemory) checkUnique(customer domain.Customer, excludeID string) error {
	for id, existing := range r.items {
		if id == excludeID {
			continue
		}
		if strings.EqualFold(existing.Email, customer.Email) {
			return domain.ErrEmailTaken
		}
		if existing.PhoneNumber == customer.PhoneNumber {
			return domain.ErrPhoneTaken
		}
	}
	return nil
}

func customerMatches(customer domain.Customer, term string) bool {
	candidates := []string{
		customer.FullName(),
		customer.LastName,
		customer.Email,
		customer.PhoneNumber,
		customer.ZipCode,
	}
	for _, candidate := range candidates {
		if strings.Contains(strings.ToLower(candidate), term) {
			return true
		}
	}
	return false
}

func sortCustomers(customers []domain.Customer) {
	sort.Slice(customers, func(i, j int) bool {
		if customers[i].FirstName != customers[j].FirstName {
			return customers[i].FirstName < customers[j].FirstName
		}
		return customers[i].ID < customers[j].ID
	})
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
