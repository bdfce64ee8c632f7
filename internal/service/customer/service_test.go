package customer

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func newService() (*Service, *memory.OutboxRepository) {
	outbox := memory.NewOutboxRepository()
	return NewServiceWithoutMetrics(memory.NewCustomerRepository(), outbox, nil), outbox
}

func validInput() Input {
	return Input{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane@example.com",
		PhoneNumber: "5550001111",
		ZipCode:     "123456",
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newService()

	created, err := svc.Create(validInput())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Jane Doe", created.FullName())

	got, err := svc.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Email, got.Email)
}

func TestCreateNormalizesEmail(t *testing.T) {
	svc, _ := newService()

	input := validInput()
	input.Email = "  Jane@Example.COM "

	created, err := svc.Create(input)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", created.Email)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService()

	cases := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"missing first name", func(in *Input) { in.FirstName = "" }, "first_name"},
		{"first name too long", func(in *Input) { in.FirstName = strings.Repeat("a", 256) }, "first_name"},
		{"missing last name", func(in *Input) { in.LastName = " " }, "last_name"},
		{"missing email", func(in *Input) { in.Email = "" }, "email"},
		{"malformed email", func(in *Input) { in.Email = "not-an-email" }, "email"},
		{"missing phone", func(in *Input) { in.PhoneNumber = "" }, "phone_number"},
		{"short phone", func(in *Input) { in.PhoneNumber = "55500011" }, "phone_number"},
		{"non-digit phone", func(in *Input) { in.PhoneNumber = "555000111a" }, "phone_number"},
		{"missing zip", func(in *Input) { in.ZipCode = "" }, "zip_code"},
		{"short zip", func(in *Input) { in.ZipCode = "1234" }, "zip_code"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)

			_, err := svc.Create(input)
			require.Error(t, err)

			fieldErrs, ok := domain.IsValidation(err)
			require.True(t, ok, "expected field errors, got %v", err)
			require.Contains(t, fieldErrs, tc.field)
		})
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(validInput())
	require.NoError(t, err)

	dup := validInput()
	dup.PhoneNumber = "5550002222"

	_, err = svc.Create(dup)
	require.Error(t, err)

	fieldErrs, ok := domain.IsValidation(err)
	require.True(t, ok)
	require.Equal(t, "email has already been taken", fieldErrs["email"])
}

func TestCreateDuplicatePhone(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(validInput())
	require.NoError(t, err)

	dup := validInput()
	dup.Email = "other@example.com"

	_, err = svc.Create(dup)
	require.Error(t, err)

	fieldErrs, ok := domain.IsValidation(err)
	require.True(t, ok)
	require.Equal(t, "phone_number has already been taken", fieldErrs["phone_number"])
}

func TestUpdateKeepsOwnUniqueValues(t *testing.T) {
	svc, _ := newService()

	created, err := svc.Create(validInput())
	require.NoError(t, err)

	input := validInput()
	input.FirstName = "Janet"

	updated, err := svc.Update(created.ID, input)
	require.NoError(t, err)
	require.Equal(t, "Janet", updated.FirstName)
	require.Equal(t, created.Email, updated.Email)
}

func TestUpdateRejectsTakenEmail(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(validInput())
	require.NoError(t, err)

	second := validInput()
	second.Email = "other@example.com"
	second.PhoneNumber = "5550002222"
	created, err := svc.Create(second)
	require.NoError(t, err)

	input := second
	input.Email = "jane@example.com"

	_, err = svc.Update(created.ID, input)
	require.Error(t, err)

	fieldErrs, ok := domain.IsValidation(err)
	require.True(t, ok)
	require.Contains(t, fieldErrs, "email")
}

func TestUpdateUnknownCustomer(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Update(uuid.NewString(), validInput())
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := newService()

	created, err := svc.Create(validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(created.ID))

	_, err = svc.Get(created.ID)
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	require.ErrorIs(t, svc.Delete(created.ID), domain.ErrCustomerNotFound)
}

func TestSearch(t *testing.T) {
	svc, _ := newService()

	first, err := svc.Create(validInput())
	require.NoError(t, err)

	second := validInput()
	second.FirstName = "Alan"
	second.LastName = "Smith"
	second.Email = "alan@example.com"
	second.PhoneNumber = "5550002222"
	_, err = svc.Create(second)
	require.NoError(t, err)

	labels, err := svc.Search("jane d")
	require.NoError(t, err)
	require.Len(t, labels, 1)
	require.Equal(t, first.ID, labels[0].ID)
	require.Equal(t, "Jane Doe", labels[0].Label)

	all, err := svc.Search("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Упорядочено по first_name.
	require.Equal(t, "Alan Smith", all[0].Label)
}

func TestLifecycleEventsEnqueued(t *testing.T) {
	svc, outbox := newService()

	created, err := svc.Create(validInput())
	require.NoError(t, err)

	input := validInput()
	input.FirstName = "Janet"
	_, err = svc.Update(created.ID, input)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(created.ID))

	pending, err := outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	require.Equal(t, "customer.created", pending[0].EventType)
	require.Equal(t, "customer.updated", pending[1].EventType)
	require.Equal(t, "customer.deleted", pending[2].EventType)
	for _, msg := range pending {
		require.Equal(t, "customer", msg.AggregateType)
		require.Equal(t, created.ID, msg.AggregateID)
	}
}

func TestValidationFailurePublishesNoEvents(t *testing.T) {
	svc, outbox := newService()

	input := validInput()
	input.Email = "broken"

	_, err := svc.Create(input)
	require.Error(t, err)

	stats, err := outbox.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
}
