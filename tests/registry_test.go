package tests

import (
	"context"
	"testing"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/config"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func buildRegistrySvc() (service.RegistryService, *stubRegisterRepo, *stubProductRepo, *stubEmployeeRepo) {
	registerRepo := newStubRegisterRepo()
	productRepo := newStubProductRepo()
	employeeRepo := newStubEmployeeRepo()
	svc := service.NewRegistryService(registerRepo, productRepo, employeeRepo, zerolog.Nop())
	return svc, registerRepo, productRepo, employeeRepo
}

func TestCreateRegister(t *testing.T) {
	svc, _, _, _ := buildRegistrySvc()

	resp, err := svc.CreateRegister(context.Background(), dto.CreateRegisterRequest{
		Code:           "BAR-1",
		Name:           "Barra Principal",
		Type:           "bar",
		Location:       "primer piso",
		PaymentMethods: []string{"cash", "debit"},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsActive)
	assert.Equal(t, []string{"cash", "debit"}, resp.PaymentMethods)
	assert.Equal(t, "active", resp.OperationalStatus)

	// Codes are unique.
	_, err = svc.CreateRegister(context.Background(), dto.CreateRegisterRequest{
		Code:           "BAR-1",
		Name:           "Otra barra",
		Type:           "bar",
		Location:       "segundo piso",
		PaymentMethods: []string{"cash"},
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
}

func TestDeactivateRegister(t *testing.T) {
	svc, registerRepo, _, _ := buildRegistrySvc()
	reg := seedRegister(registerRepo, "BAR-1")

	require.NoError(t, svc.DeactivateRegister(context.Background(), reg.ID))
	assert.False(t, reg.IsActive)

	err := svc.DeactivateRegister(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestCreateProduct_DuplicateName(t *testing.T) {
	svc, _, _, _ := buildRegistrySvc()

	_, err := svc.CreateProduct(context.Background(), dto.CreateProductRequest{
		Name:     "Piscola",
		Category: "trago",
		Price:    decimal.NewFromInt(6000),
		IsKit:    true,
	})
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), dto.CreateProductRequest{
		Name:     "Piscola",
		Category: "trago",
		Price:    decimal.NewFromInt(7000),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
}

func TestCreateEmployee_HashesPIN(t *testing.T) {
	svc, _, _, employeeRepo := buildRegistrySvc()

	_, err := svc.CreateEmployee(context.Background(), dto.CreateEmployeeRequest{
		ID:        "carla",
		Name:      "Carla Montt",
		Cargo:     "cajero",
		PIN:       "4321",
		IsCashier: true,
	})
	require.NoError(t, err)

	stored := employeeRepo.employees["carla"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "4321", stored.PINHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PINHash), []byte("4321")))
}

func TestUpdateEmployee_Partial(t *testing.T) {
	svc, _, _, employeeRepo := buildRegistrySvc()

	_, err := svc.CreateEmployee(context.Background(), dto.CreateEmployeeRequest{
		ID: "bruno", Name: "Bruno Salas", Cargo: "bartender", PIN: "4321", IsBartender: true,
	})
	require.NoError(t, err)
	priorHash := employeeRepo.employees["bruno"].PINHash

	cashier := true
	resp, err := svc.UpdateEmployee(context.Background(), "bruno", dto.UpdateEmployeeRequest{
		IsCashier: &cashier,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsCashier)
	// Untouched fields stay as they were.
	assert.True(t, resp.IsBartender)
	assert.Equal(t, "Bruno Salas", resp.Name)
	assert.Equal(t, priorHash, employeeRepo.employees["bruno"].PINHash)
}

func TestDeactivateEmployee_HiddenFromList(t *testing.T) {
	svc, _, _, _ := buildRegistrySvc()

	_, err := svc.CreateEmployee(context.Background(), dto.CreateEmployeeRequest{
		ID: "carla", Name: "Carla Montt", Cargo: "cajero", PIN: "4321",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateEmployee(context.Background(), "carla"))

	emps, err := svc.ListEmployees(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, emps)
}

// ── Seeding ──────────────────────────────────────────────────────────────────

type seedFixture struct {
	svc           service.SeedService
	registerRepo  *stubRegisterRepo
	productRepo   *stubProductRepo
	employeeRepo  *stubEmployeeRepo
	inventoryRepo *stubInventoryRepo
	sessionRepo   *stubSessionRepo
	saleRepo      *stubSaleRepo
	closeRepo     *stubCloseRepo
	deliveryRepo  *stubDeliveryRepo
}

func buildSeedSvc() *seedFixture {
	f := &seedFixture{
		registerRepo:  newStubRegisterRepo(),
		productRepo:   newStubProductRepo(),
		employeeRepo:  newStubEmployeeRepo(),
		inventoryRepo: newStubInventoryRepo(),
		sessionRepo:   newStubSessionRepo(),
		saleRepo:      newStubSaleRepo(),
		closeRepo:     newStubCloseRepo(),
		deliveryRepo:  &stubDeliveryRepo{},
	}
	log := zerolog.Nop()
	registry := service.NewRegistryService(f.registerRepo, f.productRepo, f.employeeRepo, log)
	inventory := service.NewInventoryService(f.inventoryRepo, f.deliveryRepo, f.saleRepo, f.productRepo, nil, log, nil)
	sessions := service.NewSessionService(f.sessionRepo, f.registerRepo, 30*time.Minute, fixedClock(testNight))
	sales := service.NewSaleService(f.saleRepo, f.sessionRepo, f.registerRepo, f.productRepo, nil, log, fixedClock(testNight))
	reconcile := service.NewReconcileService(
		f.closeRepo, f.saleRepo, f.sessionRepo, f.registerRepo,
		nil, nil, &config.Config{}, log, fixedClock(testNight),
	)
	f.svc = service.NewSeedService(registry, inventory, sessions, sales, reconcile, log, fixedClock(testNight))
	return f
}

func TestSeed_RefusedInProduction(t *testing.T) {
	f := buildSeedSvc()
	err := f.svc.Seed(context.Background(), config.EnvProduction)
	assert.ErrorIs(t, err, service.ErrSeedForbidden)
}

func TestSeed_Local(t *testing.T) {
	f := buildSeedSvc()

	require.NoError(t, f.svc.Seed(context.Background(), config.EnvLocal))

	assert.NotEmpty(t, f.registerRepo.registers)
	assert.NotEmpty(t, f.productRepo.products)
	assert.NotEmpty(t, f.employeeRepo.employees)
	assert.NotEmpty(t, f.inventoryRepo.ingredients)
	assert.NotEmpty(t, f.inventoryRepo.recipes)

	// The dataset carries shift history, not just a catalog: sessions, a
	// ledger with deliveries, and reconciled closes.
	assert.NotEmpty(t, f.sessionRepo.sessions)
	assert.NotEmpty(t, f.saleRepo.sales)
	assert.NotEmpty(t, f.deliveryRepo.deliveries)
	assert.NotEmpty(t, f.closeRepo.closes)

	// One of the closes is deliberately off, so difference reporting has
	// something to show out of the box.
	var badCount int
	for _, c := range f.closeRepo.closes {
		if !c.DifferenceTotal.IsZero() {
			badCount++
		}
	}
	assert.Equal(t, 1, badCount)

	salesBefore := len(f.saleRepo.sales)
	closesBefore := len(f.closeRepo.closes)

	// Re-running skips what already exists instead of failing or duplicating.
	require.NoError(t, f.svc.Seed(context.Background(), config.EnvLocal))
	assert.Len(t, f.saleRepo.sales, salesBefore)
	assert.Len(t, f.closeRepo.closes, closesBefore)
}
