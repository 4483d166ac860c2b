package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"
	"github.com/sebastiangaticacl/stvaldivia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryService interface {
	CreateIngredient(ctx context.Context, req dto.CreateIngredientRequest) (*dto.IngredientResponse, error)
	ListIngredients(ctx context.Context) ([]dto.IngredientResponse, error)
	AdjustStock(ctx context.Context, employee *model.Employee, req dto.AdjustStockRequest) (*dto.StockResponse, error)
	ListStock(ctx context.Context, location string, negativeOnly bool) ([]dto.StockResponse, error)

	CreateRecipe(ctx context.Context, req dto.CreateRecipeRequest) (*dto.RecipeResponse, error)
	ListRecipes(ctx context.Context) ([]dto.RecipeResponse, error)

	Deliver(ctx context.Context, employee *model.Employee, req dto.DeliverRequest) (*dto.DeliveryResponse, error)
	ListDeliveriesBySale(ctx context.Context, saleID uuid.UUID) ([]dto.DeliveryResponse, error)
}

type inventoryService struct {
	repo         repository.InventoryRepository
	deliveryRepo repository.DeliveryRepository
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	jobs         Dispatcher
	log          zerolog.Logger
	now          func() time.Time
}

func NewInventoryService(
	repo repository.InventoryRepository,
	deliveryRepo repository.DeliveryRepository,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	jobs Dispatcher,
	log zerolog.Logger,
	now func() time.Time,
) InventoryService {
	if now == nil {
		now = time.Now
	}
	return &inventoryService{
		repo:         repo,
		deliveryRepo: deliveryRepo,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		jobs:         jobs,
		log:          log,
		now:          now,
	}
}

// ── Ingredients & stock ──────────────────────────────────────────────────────

func (s *inventoryService) CreateIngredient(ctx context.Context, req dto.CreateIngredientRequest) (*dto.IngredientResponse, error) {
	if _, err := s.repo.FindIngredientByName(ctx, req.Name); err == nil {
		return nil, apierror.Conflict(fmt.Sprintf("ingredient %q already exists", req.Name))
	}

	ing := &model.Ingredient{
		Name:        req.Name,
		BaseUnit:    req.BaseUnit,
		PackageSize: req.PackageSize,
		PackageUnit: req.PackageUnit,
		CostPerUnit: req.CostPerUnit,
		IsActive:    true,
	}
	if req.Category != "" {
		cat, err := s.repo.EnsureCategory(ctx, req.Category, "")
		if err != nil {
			return nil, err
		}
		ing.CategoryID = &cat.ID
	}
	if err := s.repo.CreateIngredient(ctx, ing); err != nil {
		return nil, err
	}
	return ingredientToResponse(ing), nil
}

func (s *inventoryService) ListIngredients(ctx context.Context) ([]dto.IngredientResponse, error) {
	ingredients, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.IngredientResponse, len(ingredients))
	for i := range ingredients {
		out[i] = *ingredientToResponse(&ingredients[i])
	}
	return out, nil
}

// AdjustStock applies a manual correction or restock and records the movement.
func (s *inventoryService) AdjustStock(ctx context.Context, employee *model.Employee, req dto.AdjustStockRequest) (*dto.StockResponse, error) {
	ingredientID, err := uuid.Parse(req.IngredientID)
	if err != nil {
		return nil, apierror.Validation("invalid ingredient_id")
	}
	ing, err := s.repo.FindIngredientByID(ctx, ingredientID)
	if err != nil {
		return nil, apierror.NotFound("ingredient not found")
	}
	if req.Quantity.Sign() == 0 {
		return nil, apierror.Validation("quantity must be non-zero")
	}

	movementType := "manual_adjust"
	if req.Quantity.Sign() > 0 {
		movementType = "restock"
	}

	var balance decimal.Decimal
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		balance, err = s.repo.AdjustStockTx(tx, ingredientID, req.Location, req.Quantity)
		if err != nil {
			return err
		}
		return s.repo.CreateMovementTx(tx, &model.StockMovement{
			IngredientID: ingredientID,
			Location:     req.Location,
			Type:         movementType,
			Quantity:     req.Quantity,
			BalanceAfter: balance,
			Reason:       fmt.Sprintf("%s (by %s)", req.Reason, employee.ID),
			CreatedAt:    s.now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("ingredient", ing.Name).
		Str("location", req.Location).
		Str("delta", req.Quantity.String()).
		Str("balance", balance.String()).
		Msg("stock adjusted")

	return &dto.StockResponse{
		IngredientID:   ingredientID.String(),
		IngredientName: ing.Name,
		Location:       req.Location,
		Quantity:       balance,
		Negative:       balance.Sign() < 0,
	}, nil
}

func (s *inventoryService) ListStock(ctx context.Context, location string, negativeOnly bool) ([]dto.StockResponse, error) {
	var rows []model.IngredientStock
	var err error
	if negativeOnly {
		rows, err = s.repo.ListNegativeStock(ctx)
	} else {
		rows, err = s.repo.ListStock(ctx, location)
	}
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockResponse, len(rows))
	for i, row := range rows {
		name := ""
		if row.Ingredient != nil {
			name = row.Ingredient.Name
		}
		out[i] = dto.StockResponse{
			IngredientID:   row.IngredientID.String(),
			IngredientName: name,
			Location:       row.Location,
			Quantity:       row.Quantity,
			Negative:       row.Quantity.Sign() < 0,
		}
	}
	return out, nil
}

// ── Recipes ──────────────────────────────────────────────────────────────────

// CreateRecipe registers a new recipe for a product and retires any previous
// active one, so at most one recipe per product drives deduction.
func (s *inventoryService) CreateRecipe(ctx context.Context, req dto.CreateRecipeRequest) (*dto.RecipeResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation("invalid product_id")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, apierror.NotFound("product not found")
	}

	rec := &model.Recipe{
		ProductID:   productID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	for i, line := range req.Ingredients {
		ingredientID, err := uuid.Parse(line.IngredientID)
		if err != nil {
			return nil, apierror.Validation("invalid ingredient_id")
		}
		if _, err := s.repo.FindIngredientByID(ctx, ingredientID); err != nil {
			return nil, apierror.NotFound(fmt.Sprintf("ingredient %s not found", line.IngredientID))
		}
		if line.QuantityPerPortion.Sign() <= 0 {
			return nil, apierror.Validation("quantity_per_portion must be positive")
		}
		rec.Ingredients = append(rec.Ingredients, model.RecipeIngredient{
			IngredientID:       ingredientID,
			QuantityPerPortion: line.QuantityPerPortion,
			TolerancePercent:   line.TolerancePercent,
			Order:              i,
		})
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.DeactivateRecipesForProductTx(tx, productID); err != nil {
			return err
		}
		return s.repo.CreateRecipeTx(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}
	return recipeToResponse(rec), nil
}

func (s *inventoryService) ListRecipes(ctx context.Context) ([]dto.RecipeResponse, error) {
	recipes, err := s.repo.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RecipeResponse, len(recipes))
	for i := range recipes {
		out[i] = *recipeToResponse(&recipes[i])
	}
	return out, nil
}

// ── Deliveries ───────────────────────────────────────────────────────────────

// Deliver records one unit of a sold item being handed over and deducts its
// recipe from bar stock. Items without a recipe still record the delivery;
// only recipe-backed products touch stock. Insufficient stock never blocks —
// the balance goes negative and a warning is attached for audit.
func (s *inventoryService) Deliver(ctx context.Context, employee *model.Employee, req dto.DeliverRequest) (*dto.DeliveryResponse, error) {
	saleItemID, err := uuid.Parse(req.SaleItemID)
	if err != nil {
		return nil, apierror.Validation("invalid sale_item_id")
	}
	item, err := s.saleRepo.FindItemByID(ctx, saleItemID)
	if err != nil {
		return nil, apierror.NotFound("sale item not found")
	}
	sale, err := s.saleRepo.FindByID(ctx, item.SaleID)
	if err != nil {
		return nil, apierror.NotFound("sale not found")
	}
	if sale.IsCancelled {
		return nil, apierror.Conflict("sale is cancelled")
	}

	delivered, err := s.deliveryRepo.SumDeliveredQty(ctx, saleItemID)
	if err != nil {
		return nil, err
	}
	if delivered >= item.Quantity {
		return nil, apierror.Conflict(fmt.Sprintf(
			"all %d units of %q already delivered", item.Quantity, item.ProductName))
	}

	delivery := &model.Delivery{
		SaleID:     sale.ID,
		SaleItemID: saleItemID,
		ItemName:   item.ProductName,
		Qty:        1,
		Bartender:  employee.Name,
		Location:   req.Location,
		Timestamp:  s.now().UTC(),
	}

	var warnings []string
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.deliveryRepo.CreateTx(tx, delivery); err != nil {
			return err
		}
		warnings, err = s.deductRecipe(ctx, tx, item.ProductID, delivery, req.Location)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("item", item.ProductName).
		Str("bartender", employee.Name).
		Str("location", req.Location).
		Msg("item delivered")

	if len(warnings) > 0 && s.jobs != nil {
		_ = s.jobs.EnqueueAlert(ctx, "NEGATIVE_STOCK", fmt.Sprintf(
			"delivery of %q left negative stock: %s",
			item.ProductName, strings.Join(warnings, "; "),
		), map[string]string{"location": req.Location, "bartender": employee.Name})
	}

	resp := deliveryToResponse(delivery)
	resp.StockWarnings = warnings
	return resp, nil
}

// deductRecipe subtracts quantity_per_portion of each recipe line from the
// location's stock and writes the audit movement. No active recipe means no
// deduction.
func (s *inventoryService) deductRecipe(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delivery *model.Delivery, location string) ([]string, error) {
	rec, err := s.repo.FindActiveRecipeByProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var warnings []string
	for _, line := range rec.Ingredients {
		delta := line.QuantityPerPortion.Neg()
		balance, err := s.repo.AdjustStockTx(tx, line.IngredientID, location, delta)
		if err != nil {
			return nil, err
		}
		if err := s.repo.CreateMovementTx(tx, &model.StockMovement{
			IngredientID: line.IngredientID,
			Location:     location,
			Type:         "delivery",
			Quantity:     delta,
			BalanceAfter: balance,
			Reason:       fmt.Sprintf("delivery of %s", delivery.ItemName),
			ReferenceID:  &delivery.ID,
			CreatedAt:    s.now().UTC(),
		}); err != nil {
			return nil, err
		}
		if balance.Sign() < 0 {
			name := line.IngredientID.String()
			if line.Ingredient != nil {
				name = line.Ingredient.Name
			}
			warnings = append(warnings, fmt.Sprintf("%s at %s", name, balance.String()))
		}
	}
	return warnings, nil
}

func (s *inventoryService) ListDeliveriesBySale(ctx context.Context, saleID uuid.UUID) ([]dto.DeliveryResponse, error) {
	deliveries, err := s.deliveryRepo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DeliveryResponse, len(deliveries))
	for i := range deliveries {
		out[i] = *deliveryToResponse(&deliveries[i])
	}
	return out, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func ingredientToResponse(ing *model.Ingredient) *dto.IngredientResponse {
	return &dto.IngredientResponse{
		ID:          ing.ID.String(),
		Name:        ing.Name,
		BaseUnit:    ing.BaseUnit,
		CostPerUnit: ing.CostPerUnit,
		IsActive:    ing.IsActive,
	}
}

func recipeToResponse(rec *model.Recipe) *dto.RecipeResponse {
	resp := &dto.RecipeResponse{
		ID:        rec.ID.String(),
		ProductID: rec.ProductID.String(),
		Name:      rec.Name,
		IsActive:  rec.IsActive,
	}
	for _, line := range rec.Ingredients {
		name := ""
		if line.Ingredient != nil {
			name = line.Ingredient.Name
		}
		resp.Ingredients = append(resp.Ingredients, dto.RecipeIngredientDetail{
			IngredientID:       line.IngredientID.String(),
			IngredientName:     name,
			QuantityPerPortion: line.QuantityPerPortion,
			TolerancePercent:   line.TolerancePercent,
		})
	}
	return resp
}

func deliveryToResponse(d *model.Delivery) *dto.DeliveryResponse {
	return &dto.DeliveryResponse{
		ID:         d.ID.String(),
		SaleID:     d.SaleID.String(),
		SaleItemID: d.SaleItemID.String(),
		ItemName:   d.ItemName,
		Qty:        d.Qty,
		Bartender:  d.Bartender,
		Location:   d.Location,
		Timestamp:  d.Timestamp.Format(time.RFC3339),
	}
}
