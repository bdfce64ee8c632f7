package domain

import "time"

// Customer описывает клиента POS-системы.
type Customer struct {
	ID          string
	FirstName   string
	LastName    string
	// Email уникален среди всех клиентов.
	Email string
	// PhoneNumber — ровно 10 цифр, уникален.
	PhoneNumber string
	// ZipCode — ровно 6 символов.
	ZipCode   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName возвращает отображаемое имя клиента ("First Last").
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// CustomerLabel — результат typeahead-поиска: идентификатор и отображаемая метка.
type CustomerLabel struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
