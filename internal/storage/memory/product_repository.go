package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// ProductRepository — in-memory реализация каталога товаров. Экспортируемый
// тип: OrderStore этого же пакета работает с ним напрямую, чтобы декременты
// стока и шапка заказа коммитились атомарно.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory каталог для локальной разработки и тестов.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		items: make(map[string]domain.Product),
	}
}

// Create сохраняет новый товар.
func (r *ProductRepository) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound, если его нет.
func (r *ProductRepository) Get(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает каталог, упорядоченный по имени.
func (r *ProductRepository) List() ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.items))
	for _, product := range r.items {
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// get без блокировки: вызывается из order tx, который уже держит мьютекс стора.
func (r *ProductRepository) get(id string) (domain.Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.items[id]
	return product, ok
}

// setStock перезаписывает остаток при коммите транзакции размещения.
func (r *ProductRepository) setStock(id string, stock int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.items[id]
	if !ok {
		return
	}
	product.Stock = stock
	r.items[id] = product
}

var _ domain.ProductRepository = (*ProductRepository)(nil)
