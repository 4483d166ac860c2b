// cmd/seeddemo/main.go — loads the demo dataset through the regular services.
// Refuses to run when APP_ENV resolves to production.
// Usage: go run ./cmd/seeddemo
package main

import (
	"context"
	"os"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/config"
	"github.com/sebastiangaticacl/stvaldivia/internal/infra"
	"github.com/sebastiangaticacl/stvaldivia/internal/repository"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	employeeRepo := repository.NewEmployeeRepository(db)
	registerRepo := repository.NewRegisterRepository(db)
	productRepo := repository.NewProductRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	closeRepo := repository.NewCloseRepository(db)

	// No dispatcher or PDF renderer here: seeding should not enqueue jobs or
	// render reports, it only writes rows.
	lockTTL := time.Duration(cfg.LockTTLMinutes) * time.Minute
	registrySvc := service.NewRegistryService(registerRepo, productRepo, employeeRepo, log.Logger)
	inventorySvc := service.NewInventoryService(inventoryRepo, deliveryRepo, saleRepo, productRepo, nil, log.Logger, nil)
	sessionSvc := service.NewSessionService(sessionRepo, registerRepo, lockTTL, nil)
	saleSvc := service.NewSaleService(saleRepo, sessionRepo, registerRepo, productRepo, nil, log.Logger, nil)
	reconcileSvc := service.NewReconcileService(closeRepo, saleRepo, sessionRepo, registerRepo, nil, nil, cfg, log.Logger, nil)
	seeder := service.NewSeedService(registrySvc, inventorySvc, sessionSvc, saleSvc, reconcileSvc, log.Logger, nil)

	if err := seeder.Seed(context.Background(), cfg.Environment()); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
}
