package repository

import (
	"context"

	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	// CreateTx inserts sale + items atomically with ON CONFLICT DO NOTHING on
	// idempotency_key. created=false means a sale with that key already exists
	// and the caller must fetch and return it ("insert; on conflict, fetch" —
	// never check-then-act).
	CreateTx(ctx context.Context, tx *gorm.DB, s *model.PosSale) (created bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.PosSale, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.PosSale, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.PosSaleItem, error)
	Cancel(ctx context.Context, s *model.PosSale) error
	List(ctx context.Context, filter dto.SaleFilter) ([]model.PosSale, int64, error)
	// SumByPaymentMethod replays the ledger for one (register, day): elementwise
	// sums of the payment breakdowns of non-cancelled sales, plus their count.
	SumByPaymentMethod(ctx context.Context, registerID uuid.UUID, shiftDate string) (cash, debit, credit decimal.Decimal, count int, err error)
	ListUnsynced(ctx context.Context, limit int) ([]model.PosSale, error)
	MarkSynced(ctx context.Context, id uuid.UUID) error
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(ctx context.Context, tx *gorm.DB, s *model.PosSale) (bool, error) {
	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PosSale, error) {
	var s model.PosSale
	err := r.db.WithContext(ctx).Preload("Items").First(&s, id).Error
	return &s, err
}

func (r *saleRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.PosSale, error) {
	var s model.PosSale
	err := r.db.WithContext(ctx).Preload("Items").Where("idempotency_key = ?", key).First(&s).Error
	return &s, err
}

func (r *saleRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*model.PosSaleItem, error) {
	var item model.PosSaleItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	return &item, err
}

func (r *saleRepo) Cancel(ctx context.Context, s *model.PosSale) error {
	return r.db.WithContext(ctx).Model(&model.PosSale{}).Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"is_cancelled":     s.IsCancelled,
			"cancelled_at":     s.CancelledAt,
			"cancelled_by":     s.CancelledBy,
			"cancelled_reason": s.CancelledReason,
		}).Error
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.PosSale, int64, error) {
	var sales []model.PosSale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.PosSale{})
	switch filter.Status {
	case "cancelled":
		q = q.Where("is_cancelled = true")
	case "all":
	default:
		q = q.Where("is_cancelled = false")
	}
	if filter.RegisterID != "" {
		q = q.Where("register_id = ?", filter.RegisterID)
	}
	if filter.ShiftDate != "" {
		q = q.Where("shift_date = ?", filter.ShiftDate)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) SumByPaymentMethod(ctx context.Context, registerID uuid.UUID, shiftDate string) (decimal.Decimal, decimal.Decimal, decimal.Decimal, int, error) {
	var row struct {
		Cash   decimal.Decimal
		Debit  decimal.Decimal
		Credit decimal.Decimal
		Count  int
	}
	err := r.db.WithContext(ctx).Model(&model.PosSale{}).
		Select("COALESCE(SUM(payment_cash),0) AS cash, COALESCE(SUM(payment_debit),0) AS debit, COALESCE(SUM(payment_credit),0) AS credit, COUNT(*) AS count").
		Where("register_id = ? AND shift_date = ? AND is_cancelled = false", registerID, shiftDate).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, 0, err
	}
	return row.Cash, row.Debit, row.Credit, row.Count, nil
}

func (r *saleRepo) ListUnsynced(ctx context.Context, limit int) ([]model.PosSale, error) {
	var sales []model.PosSale
	err := r.db.WithContext(ctx).Preload("Items").
		Where("synced_to_phppos = false AND is_test = false").
		Order("created_at ASC").Limit(limit).
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) MarkSynced(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.PosSale{}).Where("id = ?", id).
		Update("synced_to_phppos", true).Error
}
