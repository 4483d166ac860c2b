package infra

import (
	"fmt"

	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs
// AutoMigrate for the full schema.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

// RunMigrations creates / updates all tables. Also used by the integration
// test suite against a disposable container.
func RunMigrations(db *gorm.DB) error {
	// gen_random_uuid() needs pgcrypto on Postgres < 13.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&model.Employee{},
		&model.Register{},
		&model.RegisterLock{},
		&model.RegisterSession{},
		&model.Product{},
		&model.PosSale{},
		&model.PosSaleItem{},
		&model.RegisterClose{},
		&model.IngredientCategory{},
		&model.Ingredient{},
		&model.IngredientStock{},
		&model.StockMovement{},
		&model.Recipe{},
		&model.RecipeIngredient{},
		&model.Delivery{},
	)
}
