package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inventoryFixture struct {
	svc          service.InventoryService
	repo         *stubInventoryRepo
	deliveryRepo *stubDeliveryRepo
	saleRepo     *stubSaleRepo
	productRepo  *stubProductRepo
	jobs         *stubDispatcher
}

func buildInventorySvc() *inventoryFixture {
	f := &inventoryFixture{
		repo:         newStubInventoryRepo(),
		deliveryRepo: &stubDeliveryRepo{},
		saleRepo:     newStubSaleRepo(),
		productRepo:  newStubProductRepo(),
		jobs:         &stubDispatcher{},
	}
	f.svc = service.NewInventoryService(
		f.repo, f.deliveryRepo, f.saleRepo, f.productRepo,
		f.jobs, zerolog.Nop(), fixedClock(testNight),
	)
	return f
}

func seedIngredient(repo *stubInventoryRepo, name, unit string) *model.Ingredient {
	ing := &model.Ingredient{ID: uuid.New(), Name: name, BaseUnit: unit, IsActive: true}
	_ = repo.CreateIngredient(context.Background(), ing)
	return ing
}

// seedSoldItem stores a sale with one line item and returns the item, so
// delivery tests don't need the sale service.
func seedSoldItem(t *testing.T, repo *stubSaleRepo, product *model.Product, qty int) (*model.PosSale, *model.PosSaleItem) {
	t.Helper()
	sale := &model.PosSale{
		IdempotencyKey: "inv-" + uuid.NewString(),
		RegisterID:     uuid.New(),
		RegisterName:   "BAR-1",
		ShiftDate:      "2025-11-14",
		Items: []model.PosSaleItem{{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    qty,
			UnitPrice:   product.Price,
			Subtotal:    product.Price.Mul(decimal.NewFromInt(int64(qty))),
		}},
	}
	created, err := repo.CreateTx(context.Background(), nil, sale)
	require.NoError(t, err)
	require.True(t, created)
	return sale, &sale.Items[0]
}

func TestCreateIngredient(t *testing.T) {
	f := buildInventorySvc()

	resp, err := f.svc.CreateIngredient(context.Background(), dto.CreateIngredientRequest{
		Name:     "Pisco 35",
		Category: "destilados",
		BaseUnit: "ml",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsActive)

	stored, err := f.repo.FindIngredientByName(context.Background(), "Pisco 35")
	require.NoError(t, err)
	require.NotNil(t, stored.CategoryID)

	// Same name again is a conflict.
	_, err = f.svc.CreateIngredient(context.Background(), dto.CreateIngredientRequest{Name: "Pisco 35", BaseUnit: "ml"})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
}

func TestAdjustStock(t *testing.T) {
	f := buildInventorySvc()
	pisco := seedIngredient(f.repo, "Pisco 35", "ml")
	admin := testEmployee("sofia", "Sofia Reyes", "admin")

	resp, err := f.svc.AdjustStock(context.Background(), admin, dto.AdjustStockRequest{
		IngredientID: pisco.ID.String(),
		Location:     "barra principal",
		Quantity:     decimal.NewFromInt(700),
		Reason:       "recepcion botella",
	})
	require.NoError(t, err)
	assert.Equal(t, "700", resp.Quantity.String())
	assert.False(t, resp.Negative)

	// Negative delta is a manual adjustment; positive is a restock.
	_, err = f.svc.AdjustStock(context.Background(), admin, dto.AdjustStockRequest{
		IngredientID: pisco.ID.String(),
		Location:     "barra principal",
		Quantity:     decimal.NewFromInt(-100),
		Reason:       "derrame",
	})
	require.NoError(t, err)

	require.Len(t, f.repo.movements, 2)
	assert.Equal(t, "restock", f.repo.movements[0].Type)
	assert.Equal(t, "manual_adjust", f.repo.movements[1].Type)
	assert.Equal(t, "600", f.repo.movements[1].BalanceAfter.String())

	// Zero delta is meaningless.
	_, err = f.svc.AdjustStock(context.Background(), admin, dto.AdjustStockRequest{
		IngredientID: pisco.ID.String(),
		Location:     "barra principal",
		Quantity:     decimal.Zero,
		Reason:       "nada",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestListStock_NegativeFilter(t *testing.T) {
	f := buildInventorySvc()
	pisco := seedIngredient(f.repo, "Pisco 35", "ml")
	cola := seedIngredient(f.repo, "Cola", "ml")

	_, err := f.repo.AdjustStockTx(nil, pisco.ID, "barra principal", decimal.NewFromInt(-50))
	require.NoError(t, err)
	_, err = f.repo.AdjustStockTx(nil, cola.ID, "barra principal", decimal.NewFromInt(900))
	require.NoError(t, err)

	all, err := f.svc.ListStock(context.Background(), "", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	neg, err := f.svc.ListStock(context.Background(), "", true)
	require.NoError(t, err)
	require.Len(t, neg, 1)
	assert.Equal(t, pisco.ID.String(), neg[0].IngredientID)
	assert.True(t, neg[0].Negative)
}

func TestCreateRecipe_ReplacesActive(t *testing.T) {
	f := buildInventorySvc()
	piscola := seedProduct(f.productRepo, "Piscola", 6000)
	pisco := seedIngredient(f.repo, "Pisco 35", "ml")
	cola := seedIngredient(f.repo, "Coca-Cola", "ml")

	v1, err := f.svc.CreateRecipe(context.Background(), dto.CreateRecipeRequest{
		ProductID: piscola.ID.String(),
		Name:      "Piscola v1",
		Ingredients: []dto.RecipeIngredientRequest{
			{IngredientID: pisco.ID.String(), QuantityPerPortion: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)
	assert.True(t, v1.IsActive)

	v2, err := f.svc.CreateRecipe(context.Background(), dto.CreateRecipeRequest{
		ProductID: piscola.ID.String(),
		Name:      "Piscola v2",
		Ingredients: []dto.RecipeIngredientRequest{
			{IngredientID: pisco.ID.String(), QuantityPerPortion: decimal.NewFromInt(60)},
			{IngredientID: cola.ID.String(), QuantityPerPortion: decimal.NewFromInt(180)},
		},
	})
	require.NoError(t, err)

	// Only the newest recipe drives deduction.
	active, err := f.repo.FindActiveRecipeByProduct(context.Background(), piscola.ID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, active.ID.String())
	assert.Len(t, active.Ingredients, 2)
}

func TestCreateRecipe_RejectsNonPositivePortion(t *testing.T) {
	f := buildInventorySvc()
	piscola := seedProduct(f.productRepo, "Piscola", 6000)
	pisco := seedIngredient(f.repo, "Pisco 35", "ml")

	_, err := f.svc.CreateRecipe(context.Background(), dto.CreateRecipeRequest{
		ProductID: piscola.ID.String(),
		Name:      "Piscola rota",
		Ingredients: []dto.RecipeIngredientRequest{
			{IngredientID: pisco.ID.String(), QuantityPerPortion: decimal.Zero},
		},
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestDeliver_DeductsRecipe(t *testing.T) {
	f := buildInventorySvc()
	piscola := seedProduct(f.productRepo, "Piscola", 6000)
	pisco := seedIngredient(f.repo, "Pisco 35", "ml")
	cola := seedIngredient(f.repo, "Coca-Cola", "ml")
	bruno := testEmployee("bruno", "Bruno Salas", "bartender")

	_, err := f.svc.CreateRecipe(context.Background(), dto.CreateRecipeRequest{
		ProductID: piscola.ID.String(),
		Name:      "Piscola",
		Ingredients: []dto.RecipeIngredientRequest{
			{IngredientID: pisco.ID.String(), QuantityPerPortion: decimal.NewFromInt(60)},
			{IngredientID: cola.ID.String(), QuantityPerPortion: decimal.NewFromInt(180)},
		},
	})
	require.NoError(t, err)

	_, err = f.repo.AdjustStockTx(nil, pisco.ID, "barra principal", decimal.NewFromInt(700))
	require.NoError(t, err)
	_, err = f.repo.AdjustStockTx(nil, cola.ID, "barra principal", decimal.NewFromInt(1500))
	require.NoError(t, err)

	_, item := seedSoldItem(t, f.saleRepo, piscola, 2)

	resp, err := f.svc.Deliver(context.Background(), bruno, dto.DeliverRequest{
		SaleItemID: item.ID.String(),
		Location:   "barra principal",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Qty)
	assert.Equal(t, "Bruno Salas", resp.Bartender)
	assert.Empty(t, resp.StockWarnings)

	piscoStock, err := f.repo.FindStock(context.Background(), pisco.ID, "barra principal")
	require.NoError(t, err)
	assert.Equal(t, "640", piscoStock.Quantity.String())
	colaStock, err := f.repo.FindStock(context.Background(), cola.ID, "barra principal")
	require.NoError(t, err)
	assert.Equal(t, "1320", colaStock.Quantity.String())

	// Every deduction leaves an audit movement pointing at the delivery.
	require.Len(t, f.repo.movements, 2)
	assert.Equal(t, "delivery", f.repo.movements[0].Type)
	require.NotNil(t, f.repo.movements[0].ReferenceID)
	assert.Equal(t, resp.ID, f.repo.movements[0].ReferenceID.String())
}

func TestDeliver_NegativeStockWarnsButSucceeds(t *testing.T) {
	f := buildInventorySvc()
	piscola := seedProduct(f.productRepo, "Piscola", 6000)
	pisco := seedIngredient(f.repo, "Pisco 35", "ml")
	bruno := testEmployee("bruno", "Bruno Salas", "bartender")

	_, err := f.svc.CreateRecipe(context.Background(), dto.CreateRecipeRequest{
		ProductID: piscola.ID.String(),
		Name:      "Piscola",
		Ingredients: []dto.RecipeIngredientRequest{
			{IngredientID: pisco.ID.String(), QuantityPerPortion: decimal.NewFromInt(60)},
		},
	})
	require.NoError(t, err)

	// Only 40ml on hand; the pour still happens at the bar.
	_, err = f.repo.AdjustStockTx(nil, pisco.ID, "barra principal", decimal.NewFromInt(40))
	require.NoError(t, err)

	_, item := seedSoldItem(t, f.saleRepo, piscola, 1)

	resp, err := f.svc.Deliver(context.Background(), bruno, dto.DeliverRequest{
		SaleItemID: item.ID.String(),
		Location:   "barra principal",
	})
	require.NoError(t, err)
	require.Len(t, resp.StockWarnings, 1)

	stock, err := f.repo.FindStock(context.Background(), pisco.ID, "barra principal")
	require.NoError(t, err)
	assert.Equal(t, "-20", stock.Quantity.String())

	require.Len(t, f.jobs.alerts, 1)
	assert.Equal(t, "NEGATIVE_STOCK", f.jobs.alerts[0].Type)
}

func TestDeliver_OverDeliveryRejected(t *testing.T) {
	f := buildInventorySvc()
	cerveza := seedProduct(f.productRepo, "Cerveza Lata", 4000)
	bruno := testEmployee("bruno", "Bruno Salas", "bartender")

	_, item := seedSoldItem(t, f.saleRepo, cerveza, 2)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Deliver(context.Background(), bruno, dto.DeliverRequest{
			SaleItemID: item.ID.String(),
			Location:   "barra principal",
		})
		require.NoError(t, err)
	}

	// Third unit of a two-unit line.
	_, err := f.svc.Deliver(context.Background(), bruno, dto.DeliverRequest{
		SaleItemID: item.ID.String(),
		Location:   "barra principal",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
}

func TestDeliver_CancelledSaleRejected(t *testing.T) {
	f := buildInventorySvc()
	cerveza := seedProduct(f.productRepo, "Cerveza Lata", 4000)
	bruno := testEmployee("bruno", "Bruno Salas", "bartender")

	sale, item := seedSoldItem(t, f.saleRepo, cerveza, 1)
	now := time.Now()
	sale.IsCancelled = true
	sale.CancelledAt = &now

	_, err := f.svc.Deliver(context.Background(), bruno, dto.DeliverRequest{
		SaleItemID: item.ID.String(),
		Location:   "barra principal",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
}

func TestDeliver_NoRecipeNoDeduction(t *testing.T) {
	f := buildInventorySvc()
	agua := seedProduct(f.productRepo, "Agua Mineral", 2500)
	bruno := testEmployee("bruno", "Bruno Salas", "bartender")

	_, item := seedSoldItem(t, f.saleRepo, agua, 1)

	resp, err := f.svc.Deliver(context.Background(), bruno, dto.DeliverRequest{
		SaleItemID: item.ID.String(),
		Location:   "barra principal",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.StockWarnings)
	assert.Empty(t, f.repo.movements)
}

func TestDeliver_RecipeLookupErrorFailsLoudly(t *testing.T) {
	f := buildInventorySvc()
	piscola := seedProduct(f.productRepo, "Piscola", 6000)
	bruno := testEmployee("bruno", "Bruno Salas", "bartender")

	_, item := seedSoldItem(t, f.saleRepo, piscola, 1)

	// A storage failure on the recipe lookup must not pass for "no recipe".
	f.repo.recipeErr = errors.New("connection reset")
	_, err := f.svc.Deliver(context.Background(), bruno, dto.DeliverRequest{
		SaleItemID: item.ID.String(),
		Location:   "barra principal",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, f.repo.recipeErr)
}

func TestListDeliveriesBySale(t *testing.T) {
	f := buildInventorySvc()
	cerveza := seedProduct(f.productRepo, "Cerveza Lata", 4000)
	bruno := testEmployee("bruno", "Bruno Salas", "bartender")

	sale, item := seedSoldItem(t, f.saleRepo, cerveza, 3)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Deliver(context.Background(), bruno, dto.DeliverRequest{
			SaleItemID: item.ID.String(),
			Location:   "barra principal",
		})
		require.NoError(t, err)
	}

	deliveries, err := f.svc.ListDeliveriesBySale(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Len(t, deliveries, 2)
}
