package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/config"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"
	"github.com/sebastiangaticacl/stvaldivia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ReconcileService interface {
	// ComputeExpected replays the ledger for one register and operating day.
	// Pure read: calling it any number of times changes nothing.
	ComputeExpected(ctx context.Context, registerID uuid.UUID, shiftDate string) (*dto.ExpectedTotals, error)
	CloseRegister(ctx context.Context, employee *model.Employee, req dto.CloseRegisterRequest) (*dto.CloseResponse, error)
	GetClose(ctx context.Context, id uuid.UUID) (*dto.CloseResponse, error)
	GetCloseByRegisterDay(ctx context.Context, registerID uuid.UUID, shiftDate string) (*dto.CloseResponse, error)
	ListCloses(ctx context.Context, shiftDate string, page, limit int) ([]dto.CloseResponse, int64, error)
}

// ClosePDFRenderer writes a printable close report. Wired to the fpdf-backed
// renderer in production, nil in unit tests.
type ClosePDFRenderer interface {
	RenderCloseReport(c *model.RegisterClose) (path string, err error)
}

type reconcileService struct {
	closeRepo    repository.CloseRepository
	saleRepo     repository.SaleRepository
	sessionRepo  repository.SessionRepository
	registerRepo repository.RegisterRepository
	jobs         Dispatcher
	pdf          ClosePDFRenderer
	cfg          *config.Config
	log          zerolog.Logger
	now          func() time.Time
}

func NewReconcileService(
	closeRepo repository.CloseRepository,
	saleRepo repository.SaleRepository,
	sessionRepo repository.SessionRepository,
	registerRepo repository.RegisterRepository,
	jobs Dispatcher,
	pdf ClosePDFRenderer,
	cfg *config.Config,
	log zerolog.Logger,
	now func() time.Time,
) ReconcileService {
	if now == nil {
		now = time.Now
	}
	return &reconcileService{
		closeRepo:    closeRepo,
		saleRepo:     saleRepo,
		sessionRepo:  sessionRepo,
		registerRepo: registerRepo,
		jobs:         jobs,
		pdf:          pdf,
		cfg:          cfg,
		log:          log,
		now:          now,
	}
}

func (s *reconcileService) ComputeExpected(ctx context.Context, registerID uuid.UUID, shiftDate string) (*dto.ExpectedTotals, error) {
	if shiftDate == "" {
		shiftDate = OperatingDay(s.now())
	}
	cash, debit, credit, count, err := s.saleRepo.SumByPaymentMethod(ctx, registerID, shiftDate)
	if err != nil {
		return nil, err
	}
	return &dto.ExpectedTotals{
		Cash:       cash,
		Debit:      debit,
		Credit:     credit,
		Total:      cash.Add(debit).Add(credit),
		SalesCount: count,
	}, nil
}

// CloseRegister writes the terminal reconciliation record for the day. All
// diffs follow actual − expected. A difference beyond the configured threshold
// flags an anomaly and notifies a supervisor, but never blocks the close.
func (s *reconcileService) CloseRegister(ctx context.Context, employee *model.Employee, req dto.CloseRegisterRequest) (*dto.CloseResponse, error) {
	registerID, err := uuid.Parse(req.RegisterID)
	if err != nil {
		return nil, apierror.Validation("invalid register_id")
	}
	reg, err := s.registerRepo.FindByID(ctx, registerID)
	if err != nil {
		return nil, apierror.NotFound("register not found")
	}

	day := req.ShiftDate
	if day == "" {
		day = OperatingDay(s.now())
	}

	expected, err := s.ComputeExpected(ctx, registerID, day)
	if err != nil {
		return nil, err
	}

	diffCash := req.Actual.Cash.Sub(expected.Cash)
	diffDebit := req.Actual.Debit.Sub(expected.Debit)
	diffCredit := req.Actual.Credit.Sub(expected.Credit)

	rc := &model.RegisterClose{
		RegisterID:      registerID,
		RegisterName:    reg.Code,
		ShiftDate:       day,
		EmployeeID:      employee.ID,
		EmployeeName:    employee.Name,
		ExpectedCash:    expected.Cash,
		ExpectedDebit:   expected.Debit,
		ExpectedCredit:  expected.Credit,
		ActualCash:      req.Actual.Cash,
		ActualDebit:     req.Actual.Debit,
		ActualCredit:    req.Actual.Credit,
		DiffCash:        diffCash,
		DiffDebit:       diffDebit,
		DiffCredit:      diffCredit,
		DifferenceTotal: diffCash.Add(diffDebit).Add(diffCredit),
		TotalSales:      expected.SalesCount,
		TotalAmount:     expected.Total,
		Notes:           req.Notes,
		Status:          "closed",
		ClosedAt:        s.now().UTC(),
	}
	if sess, err := s.sessionRepo.FindSessionByRegisterDay(ctx, registerID, day); err == nil {
		rc.OpenedAt = &sess.OpenedAt
	}

	created, err := s.closeRepo.Create(ctx, rc)
	if err != nil {
		return nil, err
	}
	if !created {
		// First close wins and stays immutable; corrections go through a new
		// adjustment record, never through rewriting this row.
		return nil, apierror.Conflict(fmt.Sprintf("register %s already closed for %s", reg.Code, day))
	}

	anomaly := s.flagAnomaly(ctx, rc)

	s.log.Info().
		Str("register", reg.Code).
		Str("shift_date", day).
		Str("difference_total", rc.DifferenceTotal.String()).
		Bool("anomaly", anomaly).
		Msg("register closed")

	if s.pdf != nil {
		if path, err := s.pdf.RenderCloseReport(rc); err != nil {
			s.log.Warn().Err(err).Msg("close report pdf failed")
		} else {
			s.log.Info().Str("path", path).Msg("close report written")
		}
	}

	resp := closeToResponse(rc)
	resp.AnomalyFlagged = anomaly
	return resp, nil
}

// flagAnomaly compares |difference_total| against the alert threshold and, on
// breach, queues a supervisor alert. Soft anomaly: never an error for the
// cashier.
func (s *reconcileService) flagAnomaly(ctx context.Context, rc *model.RegisterClose) bool {
	threshold := decimal.NewFromFloat(s.cfg.DifferenceAlertThreshold)
	if threshold.Sign() <= 0 || rc.DifferenceTotal.Abs().LessThan(threshold) {
		return false
	}
	if s.jobs != nil {
		_ = s.jobs.EnqueueAlert(ctx, "CLOSE_DIFFERENCE", fmt.Sprintf(
			"register %s closed %s with a difference of %s",
			rc.RegisterName, rc.ShiftDate, rc.DifferenceTotal.StringFixed(2),
		), map[string]string{
			"register":    rc.RegisterName,
			"shift_date":  rc.ShiftDate,
			"diff_cash":   rc.DiffCash.StringFixed(2),
			"diff_debit":  rc.DiffDebit.StringFixed(2),
			"diff_credit": rc.DiffCredit.StringFixed(2),
			"closed_by":   rc.EmployeeID,
		})
	}
	return true
}

func (s *reconcileService) GetClose(ctx context.Context, id uuid.UUID) (*dto.CloseResponse, error) {
	rc, err := s.closeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("close not found")
	}
	return closeToResponse(rc), nil
}

func (s *reconcileService) GetCloseByRegisterDay(ctx context.Context, registerID uuid.UUID, shiftDate string) (*dto.CloseResponse, error) {
	if shiftDate == "" {
		shiftDate = OperatingDay(s.now())
	}
	rc, err := s.closeRepo.FindByRegisterDay(ctx, registerID, shiftDate)
	if err != nil {
		return nil, apierror.NotFound("close not found")
	}
	return closeToResponse(rc), nil
}

func (s *reconcileService) ListCloses(ctx context.Context, shiftDate string, page, limit int) ([]dto.CloseResponse, int64, error) {
	closes, total, err := s.closeRepo.List(ctx, shiftDate, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.CloseResponse, len(closes))
	for i := range closes {
		out[i] = *closeToResponse(&closes[i])
	}
	return out, total, nil
}

func closeToResponse(c *model.RegisterClose) *dto.CloseResponse {
	return &dto.CloseResponse{
		ID:              c.ID.String(),
		RegisterID:      c.RegisterID.String(),
		RegisterName:    c.RegisterName,
		ShiftDate:       c.ShiftDate,
		EmployeeID:      c.EmployeeID,
		ExpectedCash:    c.ExpectedCash,
		ExpectedDebit:   c.ExpectedDebit,
		ExpectedCredit:  c.ExpectedCredit,
		ActualCash:      c.ActualCash,
		ActualDebit:     c.ActualDebit,
		ActualCredit:    c.ActualCredit,
		DiffCash:        c.DiffCash,
		DiffDebit:       c.DiffDebit,
		DiffCredit:      c.DiffCredit,
		DifferenceTotal: c.DifferenceTotal,
		TotalSales:      c.TotalSales,
		TotalAmount:     c.TotalAmount,
		Notes:           c.Notes,
		Status:          c.Status,
		ClosedAt:        c.ClosedAt.Format(time.RFC3339),
	}
}
