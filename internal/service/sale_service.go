package service

import (
	"context"
	"fmt"
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

type SaleService interface {
	RecordSale(ctx context.Context, employee *model.Employee, req dto.RecordSaleRequest) (*dto.SaleResponse, bool, error)
	CancelSale(ctx context.Context, employee *model.Employee, saleID uuid.UUID, req dto.CancelSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo         repository.SaleRepository
	sessionRepo  repository.SessionRepository
	registerRepo repository.RegisterRepository
	productRepo  repository.ProductRepository
	jobs         Dispatcher
	log          zerolog.Logger
	now          func() time.Time
}

func NewSaleService(
	repo repository.SaleRepository,
	sessionRepo repository.SessionRepository,
	registerRepo repository.RegisterRepository,
	productRepo repository.ProductRepository,
	jobs Dispatcher,
	log zerolog.Logger,
	now func() time.Time,
) SaleService {
	if now == nil {
		now = time.Now
	}
	return &saleService{
		repo:         repo,
		sessionRepo:  sessionRepo,
		registerRepo: registerRepo,
		productRepo:  productRepo,
		jobs:         jobs,
		log:          log,
		now:          now,
	}
}

// runTx wraps fn in a transaction. With a nil DB (in-memory repos in unit
// tests) fn runs directly against a nil tx, which the test repos ignore.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// RecordSale appends a sale to the ledger. The bool result reports whether the
// row was created by this call: false means the idempotency key had already
// been used and the previously recorded sale is returned unchanged.
func (s *saleService) RecordSale(ctx context.Context, employee *model.Employee, req dto.RecordSaleRequest) (*dto.SaleResponse, bool, error) {
	registerID, err := uuid.Parse(req.RegisterID)
	if err != nil {
		return nil, false, apierror.Validation("invalid register_id")
	}
	reg, err := s.registerRepo.FindByID(ctx, registerID)
	if err != nil {
		return nil, false, apierror.NotFound("register not found")
	}
	if !reg.IsActive {
		return nil, false, apierror.Validation(fmt.Sprintf("register %s is inactive", reg.Code))
	}

	day := req.ShiftDate
	if day == "" {
		day = OperatingDay(s.now())
	}

	sale, err := s.buildSale(ctx, employee, reg, day, req)
	if err != nil {
		return nil, false, err
	}

	// A sale does not require an open session; when one exists for the
	// register/day it is linked and its ticket counter advanced.
	sess, sessErr := s.sessionRepo.FindSessionByRegisterDay(ctx, registerID, day)
	if sessErr == nil && sess.Status == model.SessionOpen {
		sale.RegisterSessionID = &sess.ID
	}

	var created bool
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		created, err = s.repo.CreateTx(ctx, tx, sale)
		if err != nil {
			return err
		}
		if created && sale.RegisterSessionID != nil {
			return s.sessionRepo.IncrementTicketCountTx(tx, *sale.RegisterSessionID)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !created {
		// Duplicate submission: hand back whatever the first call recorded.
		prior, err := s.repo.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		s.log.Info().
			Str("idempotency_key", req.IdempotencyKey).
			Str("sale_id", prior.ID.String()).
			Msg("duplicate sale submission, returning prior sale")
		return saleToResponse(prior), false, nil
	}

	s.log.Info().
		Str("sale_id", sale.ID.String()).
		Str("register", reg.Code).
		Str("shift_date", day).
		Str("total", sale.TotalAmount.String()).
		Msg("sale recorded")

	if s.jobs != nil && !sale.IsTest {
		if err := s.jobs.EnqueueSaleSync(ctx, sale.ID); err != nil {
			// The monitor cron re-enqueues unsynced sales, so a queue hiccup
			// here costs latency, not data.
			s.log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("failed to enqueue pos sync")
		}
	}

	return saleToResponse(sale), true, nil
}

// buildSale resolves products, snapshots them into line items and settles the
// monetary fields.
func (s *saleService) buildSale(ctx context.Context, employee *model.Employee, reg *model.Register, day string, req dto.RecordSaleRequest) (*model.PosSale, error) {
	items := make([]model.PosSaleItem, 0, len(req.Items))
	itemsTotal := decimal.Zero
	for _, it := range req.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, apierror.Validation("invalid product_id")
		}
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, apierror.NotFound(fmt.Sprintf("product %s not found", it.ProductID))
		}
		if !product.IsActive {
			return nil, apierror.Validation(fmt.Sprintf("product %q is inactive", product.Name))
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, model.PosSaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
		itemsTotal = itemsTotal.Add(subtotal)
	}

	paid := req.Payment.Total()
	total := paid
	if req.IsCourtesy || req.NoRevenue {
		// Courtesies and no-revenue sales settle at zero regardless of the
		// breakdown the terminal sent.
		if paid.Sign() != 0 {
			return nil, apierror.Validation("courtesy and no-revenue sales must carry a zero payment")
		}
		total = decimal.Zero
	} else if paid.Sign() <= 0 {
		return nil, apierror.Validation("payment total must be positive")
	}

	// Each non-zero component must be a method the register declares.
	for method, amount := range map[string]decimal.Decimal{
		"cash":   req.Payment.Cash,
		"debit":  req.Payment.Debit,
		"credit": req.Payment.Credit,
	} {
		if amount.Sign() != 0 && !reg.AcceptsMethod(method) {
			return nil, apierror.Validation(fmt.Sprintf("register %s does not accept %s", reg.Code, method))
		}
	}

	return &model.PosSale{
		IdempotencyKey:  req.IdempotencyKey,
		RegisterID:      reg.ID,
		RegisterName:    reg.Code,
		EmployeeID:      employee.ID,
		EmployeeName:    employee.Name,
		ShiftDate:       day,
		TotalAmount:     total,
		PaymentCash:     req.Payment.Cash,
		PaymentDebit:    req.Payment.Debit,
		PaymentCredit:   req.Payment.Credit,
		AdjustmentTotal: total.Sub(itemsTotal),
		IsCourtesy:      req.IsCourtesy,
		IsTest:          req.IsTest || reg.IsTest,
		NoRevenue:       req.NoRevenue,
		CreatedAt:       s.now().UTC(),
		Items:           items,
	}, nil
}

// CancelSale flags a sale as cancelled. The row survives for audit; from this
// point it no longer counts toward expected totals.
func (s *saleService) CancelSale(ctx context.Context, employee *model.Employee, saleID uuid.UUID, req dto.CancelSaleRequest) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		return nil, apierror.NotFound("sale not found")
	}
	if sale.IsCancelled {
		return nil, apierror.Conflict("sale is already cancelled")
	}

	now := s.now().UTC()
	sale.IsCancelled = true
	sale.CancelledAt = &now
	sale.CancelledBy = &employee.ID
	sale.CancelledReason = &req.Reason
	if err := s.repo.Cancel(ctx, sale); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("sale_id", sale.ID.String()).
		Str("cancelled_by", employee.ID).
		Str("reason", req.Reason).
		Msg("sale cancelled")

	// A cancellation after the register already closed skews the books for
	// that day; flag it for a supervisor instead of blocking.
	if s.jobs != nil {
		_ = s.jobs.EnqueueAlert(ctx, "SALE_CANCELLED", fmt.Sprintf("sale %s cancelled: %s", sale.ID, req.Reason), map[string]string{
			"register":   sale.RegisterName,
			"shift_date": sale.ShiftDate,
			"amount":     sale.TotalAmount.String(),
		})
	}

	return saleToResponse(sale), nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("sale not found")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.ShiftDate == "" {
		filter.ShiftDate = OperatingDay(s.now())
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, len(sales))
	for i := range sales {
		out[i] = *saleToResponse(&sales[i])
	}
	return &dto.SaleListResponse{Data: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func saleToResponse(s *model.PosSale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = dto.SaleItemResponse{
			ID:          it.ID.String(),
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}
	resp := &dto.SaleResponse{
		ID:              s.ID.String(),
		IdempotencyKey:  s.IdempotencyKey,
		RegisterID:      s.RegisterID.String(),
		RegisterName:    s.RegisterName,
		EmployeeID:      s.EmployeeID,
		ShiftDate:       s.ShiftDate,
		TotalAmount:     s.TotalAmount,
		Payment:         dto.PaymentBreakdown{Cash: s.PaymentCash, Debit: s.PaymentDebit, Credit: s.PaymentCredit},
		AdjustmentTotal: s.AdjustmentTotal,
		IsCourtesy:      s.IsCourtesy,
		IsTest:          s.IsTest,
		NoRevenue:       s.NoRevenue,
		IsCancelled:     s.IsCancelled,
		CancelledReason: s.CancelledReason,
		Items:           items,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
	if s.RegisterSessionID != nil {
		id := s.RegisterSessionID.String()
		resp.SessionID = &id
	}
	return resp
}
