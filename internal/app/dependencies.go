package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/sopilka-store/internal/health"
	"github.com/vladislavdragonenkov/sopilka-store/internal/storage/file"
	"github.com/vladislavdragonenkov/sopilka-store/internal/storage/memory"
	"github.com/vladislavdragonenkov/sopilka-store/internal/storage/postgres"
)

// runtimeDependencies — хранилища витрины, собранные под выбранный драйвер.
type runtimeDependencies struct {
	repo            domain.OrderRepository
	cartRepo        domain.CartRepository
	outboxRepo      domain.OutboxRepository
	timelineRepo    domain.TimelineRepository
	idempotencyRepo domain.IdempotencyRepository

	// storageChecker участвует в /healthz; nil для памяти.
	storageChecker healthcheck.Checker
	closeFn        func() error
}

// initRuntimeDependencies создаёт хранилища согласно cfg.StorageDriver.
// Для postgres при включённом PostgresAutoMigrate схема доводится до
// актуальной версии на старте.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		var cartRepo domain.CartRepository = memory.NewCartRepository()
		if cfg.CartDir != "" {
			fileRepo, err := file.NewCartRepository(cfg.CartDir)
			if err != nil {
				return nil, fmt.Errorf("open cart directory: %w", err)
			}
			cartRepo = fileRepo
			logger.WithField("cart_dir", cfg.CartDir).Info("carts are persisted on disk")
		}

		return &runtimeDependencies{
			repo:            memory.NewOrderRepository(),
			cartRepo:        cartRepo,
			outboxRepo:      memory.NewOutboxRepository(),
			timelineRepo:    memory.NewTimelineRepository(),
			idempotencyRepo: memory.NewIdempotencyRepository(),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage driver requires a DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		checker := healthcheck.NewSimpleChecker("storage", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), storagePingTimeout)
			defer cancel()
			return store.Ping(pingCtx)
		})

		return &runtimeDependencies{
			repo:            postgres.NewOrderRepository(store),
			cartRepo:        postgres.NewCartRepository(store),
			outboxRepo:      postgres.NewOutboxRepository(store),
			timelineRepo:    postgres.NewTimelineRepository(store),
			idempotencyRepo: postgres.NewIdempotencyRepository(store),
			storageChecker:  checker,
			closeFn:         store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.StorageDriver)
	}
}
