package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
	"github.com/vladislavdragonenkov/pos/internal/storage/postgres"
)

// Dependencies содержит хранилища приложения.
type Dependencies struct {
	Customers domain.CustomerRepository
	Products  domain.ProductRepository
	Orders    domain.OrderStore
	Outbox    domain.OutboxRepository
	Logger    *log.Entry

	// Store заполняется только для postgres-драйвера.
	Store *postgres.Store
}

// NewDependencies собирает хранилища по выбранному драйверу.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	switch cfg.StorageDriver {
	case StorageMemory, "":
		products := memory.NewProductRepository()
		customers := memory.NewCustomerRepository()
		outbox := memory.NewOutboxRepository()

		logger.Info("using in-memory storage")
		return &Dependencies{
			Customers: customers,
			Products:  products,
			Orders:    memory.NewOrderStore(products, customers, outbox),
			Outbox:    outbox,
			Logger:    logger,
		}, nil

	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres driver requires POS_POSTGRES_DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		if cfg.AutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("migrations applied")
		}

		logger.Info("using postgres storage")
		return &Dependencies{
			Customers: postgres.NewCustomerRepository(store),
			Products:  postgres.NewProductRepository(store),
			Orders:    postgres.NewOrderStore(store),
			Outbox:    postgres.NewOutboxRepository(store),
			Logger:    logger,
			Store:     store,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d.Store != nil {
		return d.Store.Close()
	}
	return nil
}
