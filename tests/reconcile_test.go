package tests

import (
	"context"
	"testing"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/config"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcileFixture struct {
	svc          service.ReconcileService
	closeRepo    *stubCloseRepo
	saleRepo     *stubSaleRepo
	sessionRepo  *stubSessionRepo
	registerRepo *stubRegisterRepo
	jobs         *stubDispatcher
}

func buildReconcileSvc(threshold float64) *reconcileFixture {
	f := &reconcileFixture{
		closeRepo:    newStubCloseRepo(),
		saleRepo:     newStubSaleRepo(),
		sessionRepo:  newStubSessionRepo(),
		registerRepo: newStubRegisterRepo(),
		jobs:         &stubDispatcher{},
	}
	cfg := &config.Config{DifferenceAlertThreshold: threshold}
	f.svc = service.NewReconcileService(
		f.closeRepo, f.saleRepo, f.sessionRepo, f.registerRepo,
		f.jobs, nil, cfg, zerolog.Nop(), fixedClock(testNight),
	)
	return f
}

// seedLedger inserts raw ledger rows so expected totals can be replayed
// without going through the sale service.
func seedLedger(t *testing.T, repo *stubSaleRepo, registerID uuid.UUID, day string, rows []model.PosSale) {
	t.Helper()
	for i := range rows {
		rows[i].RegisterID = registerID
		rows[i].ShiftDate = day
		created, err := repo.CreateTx(context.Background(), nil, &rows[i])
		require.NoError(t, err)
		require.True(t, created)
	}
}

func TestComputeExpected(t *testing.T) {
	f := buildReconcileSvc(0)
	reg := seedRegister(f.registerRepo, "BAR-1")

	seedLedger(t, f.saleRepo, reg.ID, "2025-11-14", []model.PosSale{
		{IdempotencyKey: "e-1", PaymentCash: decimal.NewFromInt(12000)},
		{IdempotencyKey: "e-2", PaymentCash: decimal.NewFromInt(6000), PaymentDebit: decimal.NewFromInt(8000)},
		{IdempotencyKey: "e-3", PaymentCredit: decimal.NewFromInt(15000)},
		{IdempotencyKey: "e-4", PaymentCash: decimal.NewFromInt(9000), IsCancelled: true},
	})

	exp, err := f.svc.ComputeExpected(context.Background(), reg.ID, "2025-11-14")
	require.NoError(t, err)
	// Cancelled rows never count.
	assert.Equal(t, "18000", exp.Cash.String())
	assert.Equal(t, "8000", exp.Debit.String())
	assert.Equal(t, "15000", exp.Credit.String())
	assert.Equal(t, "41000", exp.Total.String())
	assert.Equal(t, 3, exp.SalesCount)

	// Replaying is a pure read: a second call returns the same numbers.
	again, err := f.svc.ComputeExpected(context.Background(), reg.ID, "2025-11-14")
	require.NoError(t, err)
	assert.Equal(t, exp, again)
}

func TestCloseRegister_DiffIsActualMinusExpected(t *testing.T) {
	f := buildReconcileSvc(0)
	reg := seedRegister(f.registerRepo, "BAR-1")

	seedLedger(t, f.saleRepo, reg.ID, "2025-11-14", []model.PosSale{
		{IdempotencyKey: "c-1", PaymentCash: decimal.NewFromInt(20000), PaymentDebit: decimal.NewFromInt(5000)},
	})

	resp, err := f.svc.CloseRegister(context.Background(), testEmployee("carla", "Carla Montt", "cajero"), dto.CloseRegisterRequest{
		RegisterID: reg.ID.String(),
		ShiftDate:  "2025-11-14",
		Actual: dto.ActualCount{
			Cash:  decimal.NewFromInt(19900), // 100 short
			Debit: decimal.NewFromInt(5000),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "-100", resp.DiffCash.String())
	assert.Equal(t, "0", resp.DiffDebit.String())
	assert.Equal(t, "0", resp.DiffCredit.String())
	assert.Equal(t, "-100", resp.DifferenceTotal.String())
	assert.Equal(t, 1, resp.TotalSales)
	assert.False(t, resp.AnomalyFlagged)
}

func TestCloseRegister_SecondCloseConflicts(t *testing.T) {
	f := buildReconcileSvc(0)
	reg := seedRegister(f.registerRepo, "BAR-1")
	carla := testEmployee("carla", "Carla Montt", "cajero")

	first, err := f.svc.CloseRegister(context.Background(), carla, dto.CloseRegisterRequest{
		RegisterID: reg.ID.String(),
		ShiftDate:  "2025-11-14",
		Actual:     dto.ActualCount{Cash: decimal.NewFromInt(1000)},
	})
	require.NoError(t, err)

	_, err = f.svc.CloseRegister(context.Background(), testEmployee("diego", "Diego Paz", "cajero"), dto.CloseRegisterRequest{
		RegisterID: reg.ID.String(),
		ShiftDate:  "2025-11-14",
		Actual:     dto.ActualCount{Cash: decimal.NewFromInt(9999)},
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))

	// The first close stays immutable.
	kept, err := f.svc.GetCloseByRegisterDay(context.Background(), reg.ID, "2025-11-14")
	require.NoError(t, err)
	assert.Equal(t, first.ID, kept.ID)
	assert.Equal(t, "1000", kept.ActualCash.String())
}

func TestCloseRegister_AnomalyThreshold(t *testing.T) {
	f := buildReconcileSvc(5000)
	reg := seedRegister(f.registerRepo, "BAR-1")

	seedLedger(t, f.saleRepo, reg.ID, "2025-11-14", []model.PosSale{
		{IdempotencyKey: "a-1", PaymentCash: decimal.NewFromInt(50000)},
	})

	// Shortage of 6000 breaches the 5000 threshold. The close still succeeds.
	resp, err := f.svc.CloseRegister(context.Background(), testEmployee("carla", "Carla Montt", "cajero"), dto.CloseRegisterRequest{
		RegisterID: reg.ID.String(),
		ShiftDate:  "2025-11-14",
		Actual:     dto.ActualCount{Cash: decimal.NewFromInt(44000)},
	})
	require.NoError(t, err)
	assert.True(t, resp.AnomalyFlagged)

	require.Len(t, f.jobs.alerts, 1)
	assert.Equal(t, "CLOSE_DIFFERENCE", f.jobs.alerts[0].Type)
	assert.Equal(t, "-6000.00", f.jobs.alerts[0].Fields["diff_cash"])
}

func TestCloseRegister_SurplusBelowThresholdNotFlagged(t *testing.T) {
	f := buildReconcileSvc(5000)
	reg := seedRegister(f.registerRepo, "BAR-1")

	seedLedger(t, f.saleRepo, reg.ID, "2025-11-14", []model.PosSale{
		{IdempotencyKey: "s-1", PaymentCash: decimal.NewFromInt(50000)},
	})

	resp, err := f.svc.CloseRegister(context.Background(), testEmployee("carla", "Carla Montt", "cajero"), dto.CloseRegisterRequest{
		RegisterID: reg.ID.String(),
		ShiftDate:  "2025-11-14",
		Actual:     dto.ActualCount{Cash: decimal.NewFromInt(51000)},
	})
	require.NoError(t, err)
	assert.Equal(t, "1000", resp.DifferenceTotal.String())
	assert.False(t, resp.AnomalyFlagged)
	assert.Empty(t, f.jobs.alerts)
}

func TestCloseRegister_CarriesSessionOpenedAt(t *testing.T) {
	f := buildReconcileSvc(0)
	reg := seedRegister(f.registerRepo, "BAR-1")

	openedAt := testNight.Add(-4 * time.Hour)
	created, err := f.sessionRepo.CreateSession(context.Background(), &model.RegisterSession{
		RegisterID: reg.ID,
		ShiftDate:  "2025-11-14",
		Status:     model.SessionOpen,
		OpenedAt:   openedAt,
	})
	require.NoError(t, err)
	require.True(t, created)

	_, err = f.svc.CloseRegister(context.Background(), testEmployee("carla", "Carla Montt", "cajero"), dto.CloseRegisterRequest{
		RegisterID: reg.ID.String(),
		ShiftDate:  "2025-11-14",
		Actual:     dto.ActualCount{},
	})
	require.NoError(t, err)

	rc, err := f.closeRepo.FindByRegisterDay(context.Background(), reg.ID, "2025-11-14")
	require.NoError(t, err)
	require.NotNil(t, rc.OpenedAt)
	assert.Equal(t, openedAt, *rc.OpenedAt)
}

func TestGetClose_NotFound(t *testing.T) {
	f := buildReconcileSvc(0)
	_, err := f.svc.GetClose(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestListCloses(t *testing.T) {
	f := buildReconcileSvc(0)
	regA := seedRegister(f.registerRepo, "BAR-1")
	regB := seedRegister(f.registerRepo, "BAR-2")
	carla := testEmployee("carla", "Carla Montt", "cajero")

	for _, reg := range []uuid.UUID{regA.ID, regB.ID} {
		_, err := f.svc.CloseRegister(context.Background(), carla, dto.CloseRegisterRequest{
			RegisterID: reg.String(),
			ShiftDate:  "2025-11-14",
			Actual:     dto.ActualCount{},
		})
		require.NoError(t, err)
	}

	closes, total, err := f.svc.ListCloses(context.Background(), "2025-11-14", 1, 50)
	require.NoError(t, err)
	assert.Len(t, closes, 2)
	assert.EqualValues(t, 2, total)
}
