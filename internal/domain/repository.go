package domain

import "context"

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// Create сохраняет нового клиента. Возвращает ErrEmailTaken/ErrPhoneTaken
	// при нарушении уникальности.
	Create(customer Customer) error
	// Get возвращает клиента по идентификатору или ErrCustomerNotFound.
	Get(id string) (Customer, error)
	// List возвращает всех клиентов, упорядоченных по имени.
	List() ([]Customer, error)
	// Update перезаписывает клиента; сам обновляемый клиент исключается
	// из проверок уникальности.
	Update(customer Customer) error
	// Delete удаляет клиента или возвращает ErrCustomerNotFound.
	Delete(id string) error
	// Search выполняет регистронезависимый substring-поиск по полному имени,
	// фамилии, email, телефону и индексу; упорядочен по first_name.
	Search(term string, limit int) ([]CustomerLabel, error)
}

// ProductRepository описывает требования к хранилищу каталога.
type ProductRepository interface {
	// Create сохраняет новый товар.
	Create(product Product) error
	// Get возвращает товар по идентификатору или ErrProductNotFound.
	Get(id string) (Product, error)
	// List возвращает весь каталог, упорядоченный по имени.
	List() ([]Product, error)
}

// OrderStore объединяет чтение заказов и открытие транзакции размещения.
type OrderStore interface {
	// Begin открывает транзакцию размещения заказа. Вызывающая сторона
	// обязана завершить её Commit либо Rollback.
	Begin(ctx context.Context) (OrderTx, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(id string) (Order, error)
	// List возвращает все заказы с отображаемым именем клиента.
	List() ([]OrderSummary, error)
}

// OrderTx — явная транзакционная область размещения заказа. Все мутации
// становятся видимыми только после Commit; Rollback откатывает всё,
// включая вставленную шапку и декременты стока.
type OrderTx interface {
	// ProductForUpdate читает товар с блокировкой строки до конца транзакции.
	ProductForUpdate(id string) (Product, error)
	// InsertOrder вставляет шапку заказа с нулевыми итогами.
	InsertOrder(order Order) error
	// InsertLineItem вставляет позицию с зафиксированными именем и ценой.
	InsertLineItem(item LineItem) error
	// UpdateProductStock сохраняет новый остаток товара.
	UpdateProductStock(productID string, stock int32) error
	// UpdateOrderTotals сохраняет накопленные итоги шапки.
	UpdateOrderTotals(order Order) error
	// EnqueueOutbox добавляет событие в transactional outbox той же транзакцией.
	EnqueueOutbox(msg OutboxMessage) error
	// Commit фиксирует транзакцию.
	Commit() error
	// Rollback откатывает транзакцию; безопасен после Commit.
	Rollback() error
}
