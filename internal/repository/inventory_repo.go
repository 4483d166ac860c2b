package repository

import (
	"context"

	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	CreateIngredient(ctx context.Context, ing *model.Ingredient) error
	FindIngredientByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error)
	FindIngredientByName(ctx context.Context, name string) (*model.Ingredient, error)
	ListIngredients(ctx context.Context) ([]model.Ingredient, error)
	EnsureCategory(ctx context.Context, name, description string) (*model.IngredientCategory, error)

	// AdjustStockTx applies a signed delta to one (ingredient, location)
	// balance, creating the row on first touch, and returns the new balance.
	// The balance is allowed to go negative.
	AdjustStockTx(tx *gorm.DB, ingredientID uuid.UUID, location string, delta decimal.Decimal) (decimal.Decimal, error)
	FindStock(ctx context.Context, ingredientID uuid.UUID, location string) (*model.IngredientStock, error)
	ListStock(ctx context.Context, location string) ([]model.IngredientStock, error)
	ListNegativeStock(ctx context.Context) ([]model.IngredientStock, error)
	CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error

	CreateRecipeTx(ctx context.Context, tx *gorm.DB, rec *model.Recipe) error
	FindActiveRecipeByProduct(ctx context.Context, productID uuid.UUID) (*model.Recipe, error)
	ListRecipes(ctx context.Context) ([]model.Recipe, error)
	DeactivateRecipesForProductTx(tx *gorm.DB, productID uuid.UUID) error

	DB() *gorm.DB
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) DB() *gorm.DB { return r.db }

// ── Ingredients ──────────────────────────────────────────────────────────────

func (r *inventoryRepo) CreateIngredient(ctx context.Context, ing *model.Ingredient) error {
	return r.db.WithContext(ctx).Create(ing).Error
}

func (r *inventoryRepo) FindIngredientByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := r.db.WithContext(ctx).First(&ing, id).Error
	return &ing, err
}

func (r *inventoryRepo) FindIngredientByName(ctx context.Context, name string) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&ing).Error
	return &ing, err
}

func (r *inventoryRepo) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	var ings []model.Ingredient
	err := r.db.WithContext(ctx).Where("is_active = true").Order("name ASC").Find(&ings).Error
	return ings, err
}

func (r *inventoryRepo) EnsureCategory(ctx context.Context, name, description string) (*model.IngredientCategory, error) {
	cat := &model.IngredientCategory{Name: name, Description: description}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(cat).Error
	if err != nil {
		return nil, err
	}
	var existing model.IngredientCategory
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// ── Stock ────────────────────────────────────────────────────────────────────

func (r *inventoryRepo) AdjustStockTx(tx *gorm.DB, ingredientID uuid.UUID, location string, delta decimal.Decimal) (decimal.Decimal, error) {
	// Create the balance row on first touch, then apply the delta atomically.
	stock := &model.IngredientStock{
		IngredientID: ingredientID,
		Location:     location,
		Quantity:     decimal.Zero,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ingredient_id"}, {Name: "location"}},
		DoNothing: true,
	}).Create(stock).Error; err != nil {
		return decimal.Zero, err
	}

	if err := tx.Model(&model.IngredientStock{}).
		Where("ingredient_id = ? AND location = ?", ingredientID, location).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error; err != nil {
		return decimal.Zero, err
	}

	var updated model.IngredientStock
	if err := tx.Where("ingredient_id = ? AND location = ?", ingredientID, location).
		First(&updated).Error; err != nil {
		return decimal.Zero, err
	}
	return updated.Quantity, nil
}

func (r *inventoryRepo) FindStock(ctx context.Context, ingredientID uuid.UUID, location string) (*model.IngredientStock, error) {
	var s model.IngredientStock
	err := r.db.WithContext(ctx).Preload("Ingredient").
		Where("ingredient_id = ? AND location = ?", ingredientID, location).
		First(&s).Error
	return &s, err
}

func (r *inventoryRepo) ListStock(ctx context.Context, location string) ([]model.IngredientStock, error) {
	var stocks []model.IngredientStock
	q := r.db.WithContext(ctx).Preload("Ingredient")
	if location != "" {
		q = q.Where("location = ?", location)
	}
	err := q.Find(&stocks).Error
	return stocks, err
}

func (r *inventoryRepo) ListNegativeStock(ctx context.Context) ([]model.IngredientStock, error) {
	var stocks []model.IngredientStock
	err := r.db.WithContext(ctx).Preload("Ingredient").
		Where("quantity < 0").Find(&stocks).Error
	return stocks, err
}

func (r *inventoryRepo) CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

// ── Recipes ──────────────────────────────────────────────────────────────────

func (r *inventoryRepo) CreateRecipeTx(ctx context.Context, tx *gorm.DB, rec *model.Recipe) error {
	return tx.WithContext(ctx).Create(rec).Error
}

func (r *inventoryRepo) FindActiveRecipeByProduct(ctx context.Context, productID uuid.UUID) (*model.Recipe, error) {
	var rec model.Recipe
	err := r.db.WithContext(ctx).Preload("Ingredients.Ingredient").
		Where("product_id = ? AND is_active = true", productID).
		First(&rec).Error
	return &rec, err
}

func (r *inventoryRepo) ListRecipes(ctx context.Context) ([]model.Recipe, error) {
	var recs []model.Recipe
	err := r.db.WithContext(ctx).Preload("Ingredients.Ingredient").
		Where("is_active = true").Find(&recs).Error
	return recs, err
}

func (r *inventoryRepo) DeactivateRecipesForProductTx(tx *gorm.DB, productID uuid.UUID) error {
	return tx.Model(&model.Recipe{}).Where("product_id = ?", productID).
		Update("is_active", false).Error
}
