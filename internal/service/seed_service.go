package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/config"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	seedHistoryDays = 14
	seedSalesPerDay = 60
	seedRNGSeed     = 20260131
)

// ErrSeedForbidden is returned when seeding is attempted outside local or
// staging environments.
var ErrSeedForbidden = errors.New("seeding is not allowed in this environment")

// SeedService loads a demo dataset for local development and staging demos.
// It goes through the regular services, so everything it creates respects the
// same rules as production traffic.
type SeedService interface {
	Seed(ctx context.Context, env config.Environment) error
}

type seedService struct {
	registry  RegistryService
	inventory InventoryService
	sessions  SessionService
	sales     SaleService
	reconcile ReconcileService
	log       zerolog.Logger
	now       func() time.Time
}

func NewSeedService(
	registry RegistryService,
	inventory InventoryService,
	sessions SessionService,
	sales SaleService,
	reconcile ReconcileService,
	log zerolog.Logger,
	now func() time.Time,
) SeedService {
	if now == nil {
		now = time.Now
	}
	return &seedService{
		registry:  registry,
		inventory: inventory,
		sessions:  sessions,
		sales:     sales,
		reconcile: reconcile,
		log:       log,
		now:       now,
	}
}

// Seed is idempotent in effect: re-running it skips entities that already
// exist (the create calls return conflicts, which are ignored).
func (s *seedService) Seed(ctx context.Context, env config.Environment) error {
	// The environment is passed in explicitly; callers cannot seed by
	// accident just because a process variable leaked.
	if env != config.EnvLocal && env != config.EnvStaging {
		return ErrSeedForbidden
	}

	s.log.Info().Str("env", string(env)).Msg("seeding demo dataset")

	if err := s.seedEmployees(ctx); err != nil {
		return err
	}
	if err := s.seedRegisters(ctx); err != nil {
		return err
	}
	productIDs, err := s.seedProducts(ctx)
	if err != nil {
		return err
	}
	if err := s.seedInventory(ctx, productIDs); err != nil {
		return err
	}
	if err := s.seedHistory(ctx); err != nil {
		return err
	}

	s.log.Info().Msg("demo dataset ready")
	return nil
}

func (s *seedService) seedEmployees(ctx context.Context) error {
	employees := []dto.CreateEmployeeRequest{
		{ID: "1", Name: "Carla Montt", Cargo: "admin", PIN: "1111", IsCashier: true},
		{ID: "2", Name: "Diego Paredes", Cargo: "cajero", PIN: "2222", IsCashier: true},
		{ID: "3", Name: "Valentina Ruiz", Cargo: "bartender", PIN: "3333", IsBartender: true},
		{ID: "4", Name: "Marco Sanhueza", Cargo: "puerta", PIN: "4444", IsCashier: true},
		{ID: "5", Name: "Javiera Toro", Cargo: "seguridad", PIN: "5555"},
	}
	for _, e := range employees {
		if _, err := s.registry.CreateEmployee(ctx, e); err != nil && !isConflict(err) {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}
	return nil
}

func (s *seedService) seedRegisters(ctx context.Context) error {
	registers := []dto.CreateRegisterRequest{
		{Code: "BAR-1", Name: "Barra Principal", Type: "bar", Location: "barra_principal", PaymentMethods: []string{"cash", "debit", "credit"}},
		{Code: "BAR-2", Name: "Barra Terraza", Type: "bar", Location: "terraza", PaymentMethods: []string{"cash", "debit", "credit"}},
		{Code: "DOOR-1", Name: "Puerta", Type: "door", Location: "entrada", PaymentMethods: []string{"cash", "debit"}},
		{Code: "TEST-1", Name: "Caja de Pruebas", Type: "bar", Location: "barra_principal", PaymentMethods: []string{"cash"}, IsTest: true},
	}
	for _, r := range registers {
		if _, err := s.registry.CreateRegister(ctx, r); err != nil && !isConflict(err) {
			return fmt.Errorf("seed register %s: %w", r.Code, err)
		}
	}
	return nil
}

func (s *seedService) seedProducts(ctx context.Context) (map[string]string, error) {
	products := []dto.CreateProductRequest{
		{Name: "Piscola", Category: "cocktails", Price: decimal.NewFromInt(5000), CostPrice: decimal.NewFromInt(1500), IsKit: true},
		{Name: "Mojito", Category: "cocktails", Price: decimal.NewFromInt(6500), CostPrice: decimal.NewFromInt(2000), IsKit: true},
		{Name: "Cerveza Lata", Category: "beers", Price: decimal.NewFromInt(3500), CostPrice: decimal.NewFromInt(1200), StockQty: 240},
		{Name: "Agua Mineral", Category: "soft", Price: decimal.NewFromInt(2000), CostPrice: decimal.NewFromInt(500), StockQty: 120},
		{Name: "Entrada General", Category: "tickets", Price: decimal.NewFromInt(8000)},
	}
	ids := make(map[string]string, len(products))
	for _, p := range products {
		resp, err := s.registry.CreateProduct(ctx, p)
		if err != nil {
			if isConflict(err) {
				continue
			}
			return nil, fmt.Errorf("seed product %s: %w", p.Name, err)
		}
		ids[p.Name] = resp.ID
	}
	return ids, nil
}

func (s *seedService) seedInventory(ctx context.Context, productIDs map[string]string) error {
	ingredients := []dto.CreateIngredientRequest{
		{Name: "Pisco 35", Category: "spirits", BaseUnit: "ml", CostPerUnit: decimal.NewFromFloat(8.5)},
		{Name: "Ron Blanco", Category: "spirits", BaseUnit: "ml", CostPerUnit: decimal.NewFromFloat(9.0)},
		{Name: "Coca-Cola", Category: "mixers", BaseUnit: "ml", CostPerUnit: decimal.NewFromFloat(0.8)},
		{Name: "Limon", Category: "fresh", BaseUnit: "unidad", CostPerUnit: decimal.NewFromInt(300)},
		{Name: "Hierbabuena", Category: "fresh", BaseUnit: "g", CostPerUnit: decimal.NewFromInt(15)},
	}
	ingredientIDs := make(map[string]string, len(ingredients))
	for _, ing := range ingredients {
		resp, err := s.inventory.CreateIngredient(ctx, ing)
		if err != nil {
			if isConflict(err) {
				continue
			}
			return fmt.Errorf("seed ingredient %s: %w", ing.Name, err)
		}
		ingredientIDs[ing.Name] = resp.ID
	}

	// Opening stock, only for ingredients created this run so a re-run does
	// not load the shelves twice.
	admin := seedActor("1", "Carla Montt", "admin")
	openingStock := map[string]decimal.Decimal{
		"Pisco 35":    decimal.NewFromInt(120000),
		"Ron Blanco":  decimal.NewFromInt(100000),
		"Coca-Cola":   decimal.NewFromInt(400000),
		"Limon":       decimal.NewFromInt(1500),
		"Hierbabuena": decimal.NewFromInt(10000),
	}
	for name, qty := range openingStock {
		id, ok := ingredientIDs[name]
		if !ok {
			continue
		}
		if _, err := s.inventory.AdjustStock(ctx, admin, dto.AdjustStockRequest{
			IngredientID: id,
			Location:     "barra_principal",
			Quantity:     qty,
			Reason:       "carga inicial demo",
		}); err != nil {
			return fmt.Errorf("seed stock %s: %w", name, err)
		}
	}

	recipes := []struct {
		product string
		name    string
		lines   []struct {
			ingredient string
			qty        decimal.Decimal
		}
	}{
		{
			product: "Piscola", name: "Piscola clasica",
			lines: []struct {
				ingredient string
				qty        decimal.Decimal
			}{
				{"Pisco 35", decimal.NewFromInt(60)},
				{"Coca-Cola", decimal.NewFromInt(180)},
			},
		},
		{
			product: "Mojito", name: "Mojito de la casa",
			lines: []struct {
				ingredient string
				qty        decimal.Decimal
			}{
				{"Ron Blanco", decimal.NewFromInt(50)},
				{"Limon", decimal.NewFromInt(1)},
				{"Hierbabuena", decimal.NewFromInt(8)},
			},
		},
	}
	for _, r := range recipes {
		productID, ok := productIDs[r.product]
		if !ok {
			// Product pre-existed this run; recipe was seeded previously.
			continue
		}
		req := dto.CreateRecipeRequest{ProductID: productID, Name: r.name}
		skip := false
		for _, line := range r.lines {
			id, ok := ingredientIDs[line.ingredient]
			if !ok {
				skip = true
				break
			}
			req.Ingredients = append(req.Ingredients, dto.RecipeIngredientRequest{
				IngredientID:       id,
				QuantityPerPortion: line.qty,
			})
		}
		if skip {
			continue
		}
		if _, err := s.inventory.CreateRecipe(ctx, req); err != nil && !isConflict(err) {
			return fmt.Errorf("seed recipe %s: %w", r.name, err)
		}
	}
	return nil
}

// ─── Ledger history ──────────────────────────────────────────────────────────

// seedCounter pairs a register with the employee who works it through the
// generated history.
type seedCounter struct {
	reg     dto.RegisterResponse
	cashier *model.Employee
}

// seedHistory replays two weeks of shift activity through the regular
// services: sessions, idempotency-keyed sales, bar deliveries and register
// closes. The RNG is seeded, so every run produces the same keys and a re-run
// turns into a stream of ignored conflicts instead of duplicate rows.
//
// Today is left mid-shift: only the main bar closes (with a cash count that
// is visibly short, so the difference alerting has data to show), while the
// other registers keep their sessions and leases.
func (s *seedService) seedHistory(ctx context.Context) error {
	registers, err := s.registry.ListRegisters(ctx)
	if err != nil {
		return fmt.Errorf("seed history: list registers: %w", err)
	}
	regByCode := make(map[string]dto.RegisterResponse, len(registers))
	for _, r := range registers {
		regByCode[r.Code] = r
	}

	products, err := s.registry.ListProducts(ctx, "")
	if err != nil {
		return fmt.Errorf("seed history: list products: %w", err)
	}
	prodByName := make(map[string]dto.ProductResponse, len(products))
	for _, p := range products {
		prodByName[p.Name] = p
	}
	barItems := pickSeedProducts(prodByName, "Piscola", "Mojito", "Cerveza Lata", "Agua Mineral")
	doorItems := pickSeedProducts(prodByName, "Entrada General")

	var counters []seedCounter
	if r, ok := regByCode["BAR-1"]; ok {
		counters = append(counters, seedCounter{r, seedActor("2", "Diego Paredes", "cajero")})
	}
	if r, ok := regByCode["BAR-2"]; ok {
		counters = append(counters, seedCounter{r, seedActor("1", "Carla Montt", "admin")})
	}
	if r, ok := regByCode["DOOR-1"]; ok {
		counters = append(counters, seedCounter{r, seedActor("4", "Marco Sanhueza", "puerta")})
	}
	if len(counters) == 0 || len(barItems)+len(doorItems) == 0 {
		return nil
	}
	bartender := seedActor("3", "Valentina Ruiz", "bartender")

	rng := rand.New(rand.NewSource(seedRNGSeed))
	today := s.now().UTC()

	for offset := seedHistoryDays - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		dayStr := day.Format("2006-01-02")
		isToday := offset == 0

		target := seedSalesPerDay
		if wd := day.Weekday(); wd == time.Friday || wd == time.Saturday {
			target = seedSalesPerDay * 8 / 5
		}
		if isToday {
			// The current shift is still running, so only part of the night
			// has happened yet.
			target = seedSalesPerDay * 3 / 5
		}

		sessionIDs := make(map[string]string, len(counters))
		for _, c := range counters {
			id, err := s.openDaySession(ctx, rng, c, dayStr)
			if err != nil {
				return err
			}
			sessionIDs[c.reg.ID] = id
		}

		for i := 0; i < target; i++ {
			c := counters[rng.Intn(len(counters))]
			items, maxLines, maxQty := doorItems, 3, 2
			if c.reg.Type == "bar" {
				items, maxLines, maxQty = barItems, 4, 3
			}
			if len(items) == 0 {
				continue
			}
			if err := s.seedSale(ctx, rng, bartender, c, day, dayStr, i, items, maxLines, maxQty); err != nil {
				return err
			}
		}

		for _, c := range counters {
			if isToday && c.reg.Code != "BAR-1" {
				continue
			}
			if err := s.closeDay(ctx, c, dayStr, sessionIDs[c.reg.ID], isToday); err != nil {
				return err
			}
		}
	}
	return nil
}

// openDaySession opens the register's session for the day, or finds the one a
// previous run already opened.
func (s *seedService) openDaySession(ctx context.Context, rng *rand.Rand, c seedCounter, dayStr string) (string, error) {
	floats := []int64{0, 10000, 20000, 50000}
	resp, err := s.sessions.OpenSession(ctx, c.cashier, dto.OpenSessionRequest{
		RegisterID:  c.reg.ID,
		ShiftDate:   dayStr,
		InitialCash: decimal.NewFromInt(floats[rng.Intn(len(floats))]),
	})
	if err == nil {
		return resp.ID, nil
	}
	if !isConflict(err) {
		return "", fmt.Errorf("seed session %s %s: %w", c.reg.Code, dayStr, err)
	}
	existing, err := s.sessions.ListSessions(ctx, dayStr)
	if err != nil {
		return "", err
	}
	for _, sess := range existing {
		if sess.RegisterID == c.reg.ID {
			return sess.ID, nil
		}
	}
	return "", nil
}

// seedSale records one sale and, for bar registers, walks its units through
// delivery. A small share of sales come out cancelled or as courtesies, the
// way a real night does.
func (s *seedService) seedSale(
	ctx context.Context,
	rng *rand.Rand,
	bartender *model.Employee,
	c seedCounter,
	day time.Time,
	dayStr string,
	seq int,
	items []dto.ProductResponse,
	maxLines, maxQty int,
) error {
	req := dto.RecordSaleRequest{
		IdempotencyKey: fmt.Sprintf("DEMO-%s-%s-%04d", day.Format("20060102"), c.reg.Code, seq),
		RegisterID:     c.reg.ID,
		ShiftDate:      dayStr,
	}
	total := decimal.Zero
	for n := 1 + rng.Intn(maxLines); n > 0; n-- {
		p := items[rng.Intn(len(items))]
		qty := 1 + rng.Intn(maxQty)
		req.Items = append(req.Items, dto.SaleItemRequest{ProductID: p.ID, Quantity: qty})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
	}

	cancelled := rng.Float64() < 0.02
	courtesy := !cancelled && rng.Float64() < 0.01
	if courtesy {
		req.IsCourtesy = true
	} else {
		req.Payment = seedPayment(rng, total, c.reg.PaymentMethods)
	}

	resp, created, err := s.sales.RecordSale(ctx, c.cashier, req)
	if err != nil {
		return fmt.Errorf("seed sale %s: %w", req.IdempotencyKey, err)
	}
	if !created {
		return nil
	}

	if cancelled {
		saleID, err := uuid.Parse(resp.ID)
		if err != nil {
			return err
		}
		_, err = s.sales.CancelSale(ctx, c.cashier, saleID, dto.CancelSaleRequest{
			Reason: "anulada en demo: error de digitacion",
		})
		if err != nil && !isConflict(err) {
			return fmt.Errorf("seed cancel %s: %w", req.IdempotencyKey, err)
		}
		return nil
	}

	if c.reg.Type != "bar" {
		return nil
	}
	for _, item := range resp.Items {
		for u := 0; u < item.Quantity; u++ {
			_, err := s.inventory.Deliver(ctx, bartender, dto.DeliverRequest{
				SaleItemID: item.ID,
				Location:   "barra_principal",
			})
			if err != nil && !isConflict(err) {
				return fmt.Errorf("seed delivery %s: %w", item.ProductName, err)
			}
		}
	}
	return nil
}

// closeDay reconciles a register for the day. Historical days count exactly
// what the ledger expects; the forced day comes out 15.000 CLP short in cash.
func (s *seedService) closeDay(ctx context.Context, c seedCounter, dayStr, sessionID string, forceDifference bool) error {
	registerID, err := uuid.Parse(c.reg.ID)
	if err != nil {
		return err
	}
	expected, err := s.reconcile.ComputeExpected(ctx, registerID, dayStr)
	if err != nil {
		return fmt.Errorf("seed close %s %s: %w", c.reg.Code, dayStr, err)
	}

	actual := dto.ActualCount{Cash: expected.Cash, Debit: expected.Debit, Credit: expected.Credit}
	if forceDifference {
		gap := decimal.NewFromInt(15000)
		if expected.Cash.GreaterThanOrEqual(gap) {
			actual.Cash = expected.Cash.Sub(gap)
		} else {
			actual.Cash = expected.Cash.Add(gap)
		}
	}

	notes := "cierre demo"
	_, err = s.reconcile.CloseRegister(ctx, c.cashier, dto.CloseRegisterRequest{
		RegisterID: c.reg.ID,
		ShiftDate:  dayStr,
		Actual:     actual,
		Notes:      &notes,
	})
	if err != nil && !isConflict(err) {
		return fmt.Errorf("seed close %s %s: %w", c.reg.Code, dayStr, err)
	}

	if sessionID != "" {
		_, err = s.sessions.CloseSession(ctx, c.cashier.ID, dto.CloseSessionRequest{SessionID: sessionID})
		if err != nil && !isConflict(err) {
			return fmt.Errorf("seed close session %s %s: %w", c.reg.Code, dayStr, err)
		}
	}
	return nil
}

func seedActor(id, name, cargo string) *model.Employee {
	return &model.Employee{ID: id, Name: name, Cargo: cargo, IsActive: true}
}

func pickSeedProducts(byName map[string]dto.ProductResponse, names ...string) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(names))
	for _, n := range names {
		if p, ok := byName[n]; ok {
			out = append(out, p)
		}
	}
	return out
}

// seedPayment settles the whole total on one of the register's declared
// methods.
func seedPayment(rng *rand.Rand, total decimal.Decimal, methods []string) dto.PaymentBreakdown {
	method := "cash"
	if len(methods) > 0 {
		method = methods[rng.Intn(len(methods))]
	}
	switch method {
	case "debit":
		return dto.PaymentBreakdown{Debit: total}
	case "credit":
		return dto.PaymentBreakdown{Credit: total}
	default:
		return dto.PaymentBreakdown{Cash: total}
	}
}

func isConflict(err error) bool {
	return apierror.IsKind(err, apierror.KindConflict)
}
