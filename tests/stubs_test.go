package tests

import (
	"context"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"
	"github.com/sebastiangaticacl/stvaldivia/internal/repository"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory repositories ───────────────────────────────────────────────────
//
// The stubs mirror the ON CONFLICT DO NOTHING semantics of the real
// repositories: Create* returns created=false on a duplicate key instead of
// an error. Tx variants accept and ignore a nil *gorm.DB.

type stubRegisterRepo struct {
	registers map[uuid.UUID]*model.Register
	codeIdx   map[string]*model.Register
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{
		registers: make(map[uuid.UUID]*model.Register),
		codeIdx:   make(map[string]*model.Register),
	}
}

func (r *stubRegisterRepo) Create(_ context.Context, reg *model.Register) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	r.registers[reg.ID] = reg
	r.codeIdx[reg.Code] = reg
	return nil
}

func (r *stubRegisterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Register, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return reg, nil
}

func (r *stubRegisterRepo) FindByCode(_ context.Context, code string) (*model.Register, error) {
	reg, ok := r.codeIdx[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return reg, nil
}

func (r *stubRegisterRepo) List(_ context.Context) ([]model.Register, error) {
	out := make([]model.Register, 0, len(r.registers))
	for _, reg := range r.registers {
		out = append(out, *reg)
	}
	return out, nil
}

func (r *stubRegisterRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if reg, ok := r.registers[id]; ok {
		reg.IsActive = false
	}
	return nil
}

var _ repository.RegisterRepository = (*stubRegisterRepo)(nil)

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
	nameIdx  map[string]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		nameIdx:  make(map[string]*model.Product),
	}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	r.nameIdx[p.Name] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindByName(_ context.Context, name string) (*model.Product, error) {
	p, ok := r.nameIdx[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) List(_ context.Context, category string) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if category == "" || p.Category == category {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

type stubEmployeeRepo struct {
	employees map[string]*model.Employee
}

func newStubEmployeeRepo() *stubEmployeeRepo {
	return &stubEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (r *stubEmployeeRepo) Create(_ context.Context, e *model.Employee) error {
	r.employees[e.ID] = e
	return nil
}

func (r *stubEmployeeRepo) FindByID(_ context.Context, id string) (*model.Employee, error) {
	e, ok := r.employees[id]
	if !ok || e.Deleted {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubEmployeeRepo) Update(_ context.Context, e *model.Employee) error {
	r.employees[e.ID] = e
	return nil
}

func (r *stubEmployeeRepo) List(_ context.Context, includeInactive bool) ([]model.Employee, error) {
	var out []model.Employee
	for _, e := range r.employees {
		if e.Deleted {
			continue
		}
		if !includeInactive && !e.IsActive {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *stubEmployeeRepo) Deactivate(_ context.Context, id string) error {
	if e, ok := r.employees[id]; ok {
		e.IsActive = false
		e.Deleted = true
	}
	return nil
}

var _ repository.EmployeeRepository = (*stubEmployeeRepo)(nil)

type stubSessionRepo struct {
	sessions   map[uuid.UUID]*model.RegisterSession
	dayIdx     map[string]*model.RegisterSession
	locks      map[uuid.UUID]*model.RegisterLock
	replaceErr error
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{
		sessions: make(map[uuid.UUID]*model.RegisterSession),
		dayIdx:   make(map[string]*model.RegisterSession),
		locks:    make(map[uuid.UUID]*model.RegisterLock),
	}
}

func sessionDayKey(registerID uuid.UUID, shiftDate string) string {
	return registerID.String() + "|" + shiftDate
}

func (r *stubSessionRepo) CreateSession(_ context.Context, s *model.RegisterSession) (bool, error) {
	key := sessionDayKey(s.RegisterID, s.ShiftDate)
	if _, exists := r.dayIdx[key]; exists {
		return false, nil
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	r.dayIdx[key] = s
	return true, nil
}

func (r *stubSessionRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.RegisterSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSessionRepo) FindSessionByRegisterDay(_ context.Context, registerID uuid.UUID, shiftDate string) (*model.RegisterSession, error) {
	s, ok := r.dayIdx[sessionDayKey(registerID, shiftDate)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSessionRepo) UpdateSession(_ context.Context, s *model.RegisterSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRepo) IncrementTicketCountTx(_ *gorm.DB, id uuid.UUID) error {
	s, ok := r.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.TicketCount++
	return nil
}

func (r *stubSessionRepo) ListSessions(_ context.Context, shiftDate string) ([]model.RegisterSession, error) {
	var out []model.RegisterSession
	for _, s := range r.sessions {
		if shiftDate == "" || s.ShiftDate == shiftDate {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) InsertLock(_ context.Context, l *model.RegisterLock) (bool, error) {
	if _, exists := r.locks[l.RegisterID]; exists {
		return false, nil
	}
	cp := *l
	r.locks[l.RegisterID] = &cp
	return true, nil
}

func (r *stubSessionRepo) FindLock(_ context.Context, registerID uuid.UUID) (*model.RegisterLock, error) {
	l, ok := r.locks[registerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (r *stubSessionRepo) ReplaceLock(_ context.Context, l *model.RegisterLock, prevExpiresAt time.Time) (bool, error) {
	if r.replaceErr != nil {
		return false, r.replaceErr
	}
	existing, ok := r.locks[l.RegisterID]
	if !ok || !existing.ExpiresAt.Equal(prevExpiresAt) {
		return false, nil
	}
	cp := *l
	r.locks[l.RegisterID] = &cp
	return true, nil
}

func (r *stubSessionRepo) DeleteLock(_ context.Context, registerID uuid.UUID) error {
	delete(r.locks, registerID)
	return nil
}

func (r *stubSessionRepo) ListLocks(_ context.Context) ([]model.RegisterLock, error) {
	var out []model.RegisterLock
	for _, l := range r.locks {
		out = append(out, *l)
	}
	return out, nil
}

func (r *stubSessionRepo) DB() *gorm.DB { return nil }

var _ repository.SessionRepository = (*stubSessionRepo)(nil)

type stubSaleRepo struct {
	sales  map[uuid.UUID]*model.PosSale
	keyIdx map[string]*model.PosSale
	items  map[uuid.UUID]*model.PosSaleItem
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{
		sales:  make(map[uuid.UUID]*model.PosSale),
		keyIdx: make(map[string]*model.PosSale),
		items:  make(map[uuid.UUID]*model.PosSaleItem),
	}
}

func (r *stubSaleRepo) CreateTx(_ context.Context, _ *gorm.DB, s *model.PosSale) (bool, error) {
	if _, exists := r.keyIdx[s.IdempotencyKey]; exists {
		return false, nil
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Items {
		if s.Items[i].ID == uuid.Nil {
			s.Items[i].ID = uuid.New()
		}
		s.Items[i].SaleID = s.ID
		r.items[s.Items[i].ID] = &s.Items[i]
	}
	r.sales[s.ID] = s
	r.keyIdx[s.IdempotencyKey] = s
	return true, nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PosSale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.PosSale, error) {
	s, ok := r.keyIdx[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) FindItemByID(_ context.Context, id uuid.UUID) (*model.PosSaleItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return it, nil
}

func (r *stubSaleRepo) Cancel(_ context.Context, s *model.PosSale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.PosSale, int64, error) {
	var out []model.PosSale
	for _, s := range r.sales {
		if filter.ShiftDate != "" && s.ShiftDate != filter.ShiftDate {
			continue
		}
		if filter.RegisterID != "" && s.RegisterID.String() != filter.RegisterID {
			continue
		}
		switch filter.Status {
		case "active":
			if s.IsCancelled {
				continue
			}
		case "cancelled":
			if !s.IsCancelled {
				continue
			}
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) SumByPaymentMethod(_ context.Context, registerID uuid.UUID, shiftDate string) (decimal.Decimal, decimal.Decimal, decimal.Decimal, int, error) {
	cash, debit, credit := decimal.Zero, decimal.Zero, decimal.Zero
	count := 0
	for _, s := range r.sales {
		if s.RegisterID != registerID || s.ShiftDate != shiftDate || s.IsCancelled {
			continue
		}
		cash = cash.Add(s.PaymentCash)
		debit = debit.Add(s.PaymentDebit)
		credit = credit.Add(s.PaymentCredit)
		count++
	}
	return cash, debit, credit, count, nil
}

func (r *stubSaleRepo) ListUnsynced(_ context.Context, limit int) ([]model.PosSale, error) {
	var out []model.PosSale
	for _, s := range r.sales {
		if s.SyncedToPhpPos || s.IsTest || s.IsCancelled {
			continue
		}
		out = append(out, *s)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubSaleRepo) MarkSynced(_ context.Context, id uuid.UUID) error {
	if s, ok := r.sales[id]; ok {
		s.SyncedToPhpPos = true
	}
	return nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

type stubCloseRepo struct {
	closes map[uuid.UUID]*model.RegisterClose
	dayIdx map[string]*model.RegisterClose
}

func newStubCloseRepo() *stubCloseRepo {
	return &stubCloseRepo{
		closes: make(map[uuid.UUID]*model.RegisterClose),
		dayIdx: make(map[string]*model.RegisterClose),
	}
}

func (r *stubCloseRepo) Create(_ context.Context, c *model.RegisterClose) (bool, error) {
	key := sessionDayKey(c.RegisterID, c.ShiftDate)
	if _, exists := r.dayIdx[key]; exists {
		return false, nil
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.closes[c.ID] = c
	r.dayIdx[key] = c
	return true, nil
}

func (r *stubCloseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RegisterClose, error) {
	c, ok := r.closes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCloseRepo) FindByRegisterDay(_ context.Context, registerID uuid.UUID, shiftDate string) (*model.RegisterClose, error) {
	c, ok := r.dayIdx[sessionDayKey(registerID, shiftDate)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCloseRepo) List(_ context.Context, shiftDate string, _, _ int) ([]model.RegisterClose, int64, error) {
	var out []model.RegisterClose
	for _, c := range r.closes {
		if shiftDate == "" || c.ShiftDate == shiftDate {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.CloseRepository = (*stubCloseRepo)(nil)

type stubInventoryRepo struct {
	ingredients map[uuid.UUID]*model.Ingredient
	nameIdx     map[string]*model.Ingredient
	categories  map[string]*model.IngredientCategory
	stock       map[string]*model.IngredientStock
	movements   []model.StockMovement
	recipes     map[uuid.UUID]*model.Recipe
	recipeErr   error
}

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{
		ingredients: make(map[uuid.UUID]*model.Ingredient),
		nameIdx:     make(map[string]*model.Ingredient),
		categories:  make(map[string]*model.IngredientCategory),
		stock:       make(map[string]*model.IngredientStock),
		recipes:     make(map[uuid.UUID]*model.Recipe),
	}
}

func stockKey(ingredientID uuid.UUID, location string) string {
	return ingredientID.String() + "|" + location
}

func (r *stubInventoryRepo) CreateIngredient(_ context.Context, ing *model.Ingredient) error {
	if ing.ID == uuid.Nil {
		ing.ID = uuid.New()
	}
	r.ingredients[ing.ID] = ing
	r.nameIdx[ing.Name] = ing
	return nil
}

func (r *stubInventoryRepo) FindIngredientByID(_ context.Context, id uuid.UUID) (*model.Ingredient, error) {
	ing, ok := r.ingredients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ing, nil
}

func (r *stubInventoryRepo) FindIngredientByName(_ context.Context, name string) (*model.Ingredient, error) {
	ing, ok := r.nameIdx[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ing, nil
}

func (r *stubInventoryRepo) ListIngredients(_ context.Context) ([]model.Ingredient, error) {
	var out []model.Ingredient
	for _, ing := range r.ingredients {
		out = append(out, *ing)
	}
	return out, nil
}

func (r *stubInventoryRepo) EnsureCategory(_ context.Context, name, description string) (*model.IngredientCategory, error) {
	if cat, ok := r.categories[name]; ok {
		return cat, nil
	}
	cat := &model.IngredientCategory{ID: uuid.New(), Name: name, Description: description}
	r.categories[name] = cat
	return cat, nil
}

func (r *stubInventoryRepo) AdjustStockTx(_ *gorm.DB, ingredientID uuid.UUID, location string, delta decimal.Decimal) (decimal.Decimal, error) {
	key := stockKey(ingredientID, location)
	row, ok := r.stock[key]
	if !ok {
		row = &model.IngredientStock{
			ID:           uuid.New(),
			IngredientID: ingredientID,
			Location:     location,
			Quantity:     decimal.Zero,
		}
		r.stock[key] = row
	}
	row.Quantity = row.Quantity.Add(delta)
	return row.Quantity, nil
}

func (r *stubInventoryRepo) FindStock(_ context.Context, ingredientID uuid.UUID, location string) (*model.IngredientStock, error) {
	row, ok := r.stock[stockKey(ingredientID, location)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (r *stubInventoryRepo) ListStock(_ context.Context, location string) ([]model.IngredientStock, error) {
	var out []model.IngredientStock
	for _, row := range r.stock {
		if location == "" || row.Location == location {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) ListNegativeStock(_ context.Context) ([]model.IngredientStock, error) {
	var out []model.IngredientStock
	for _, row := range r.stock {
		if row.Quantity.Sign() < 0 {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) CreateMovementTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubInventoryRepo) CreateRecipeTx(_ context.Context, _ *gorm.DB, rec *model.Recipe) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	for i := range rec.Ingredients {
		if rec.Ingredients[i].ID == uuid.Nil {
			rec.Ingredients[i].ID = uuid.New()
		}
		rec.Ingredients[i].RecipeID = rec.ID
	}
	r.recipes[rec.ID] = rec
	return nil
}

func (r *stubInventoryRepo) FindActiveRecipeByProduct(_ context.Context, productID uuid.UUID) (*model.Recipe, error) {
	if r.recipeErr != nil {
		return nil, r.recipeErr
	}
	for _, rec := range r.recipes {
		if rec.ProductID == productID && rec.IsActive {
			return rec, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInventoryRepo) ListRecipes(_ context.Context) ([]model.Recipe, error) {
	var out []model.Recipe
	for _, rec := range r.recipes {
		out = append(out, *rec)
	}
	return out, nil
}

func (r *stubInventoryRepo) DeactivateRecipesForProductTx(_ *gorm.DB, productID uuid.UUID) error {
	for _, rec := range r.recipes {
		if rec.ProductID == productID {
			rec.IsActive = false
		}
	}
	return nil
}

func (r *stubInventoryRepo) DB() *gorm.DB { return nil }

var _ repository.InventoryRepository = (*stubInventoryRepo)(nil)

type stubDeliveryRepo struct {
	deliveries []model.Delivery
}

func (r *stubDeliveryRepo) CreateTx(_ *gorm.DB, d *model.Delivery) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.deliveries = append(r.deliveries, *d)
	return nil
}

func (r *stubDeliveryRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]model.Delivery, error) {
	var out []model.Delivery
	for _, d := range r.deliveries {
		if d.SaleID == saleID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *stubDeliveryRepo) SumDeliveredQty(_ context.Context, saleItemID uuid.UUID) (int, error) {
	total := 0
	for _, d := range r.deliveries {
		if d.SaleItemID == saleItemID {
			total += d.Qty
		}
	}
	return total, nil
}

var _ repository.DeliveryRepository = (*stubDeliveryRepo)(nil)

// ── Dispatcher stub ──────────────────────────────────────────────────────────

type capturedAlert struct {
	Type    string
	Message string
	Fields  map[string]string
}

// stubDispatcher records enqueued jobs instead of touching Redis.
type stubDispatcher struct {
	alerts    []capturedAlert
	saleSyncs []uuid.UUID
	emails    []string
}

func (d *stubDispatcher) EnqueueAlert(_ context.Context, alertType, message string, fields map[string]string) error {
	d.alerts = append(d.alerts, capturedAlert{Type: alertType, Message: message, Fields: fields})
	return nil
}

func (d *stubDispatcher) EnqueueSaleSync(_ context.Context, saleID uuid.UUID) error {
	d.saleSyncs = append(d.saleSyncs, saleID)
	return nil
}

func (d *stubDispatcher) EnqueueEmail(_ context.Context, _ []string, subject, _ string) error {
	d.emails = append(d.emails, subject)
	return nil
}

var _ service.Dispatcher = (*stubDispatcher)(nil)

// ── Fixtures ─────────────────────────────────────────────────────────────────

func seedRegister(repo *stubRegisterRepo, code string) *model.Register {
	reg := &model.Register{
		ID:                uuid.New(),
		Code:              code,
		Name:              code,
		Type:              "bar",
		Location:          "barra principal",
		PaymentMethods:    `["cash","debit","credit"]`,
		OperationalStatus: "active",
		IsActive:          true,
	}
	_ = repo.Create(context.Background(), reg)
	return reg
}

func seedProduct(repo *stubProductRepo, name string, price float64) *model.Product {
	p := &model.Product{
		ID:       uuid.New(),
		Name:     name,
		Category: "trago",
		Price:    decimal.NewFromFloat(price),
		IsActive: true,
	}
	_ = repo.Create(context.Background(), p)
	return p
}

func testEmployee(id, name, cargo string) *model.Employee {
	return &model.Employee{ID: id, Name: name, Cargo: cargo, IsActive: true}
}

// fixedClock returns a deterministic now func for lease and shift-date tests.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
