package repository

import (
	"context"

	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryRepository interface {
	CreateTx(tx *gorm.DB, d *model.Delivery) error
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Delivery, error)
	// SumDeliveredQty reports how many units of a sale item have already been
	// dispensed, so over-delivery can be rejected.
	SumDeliveredQty(ctx context.Context, saleItemID uuid.UUID) (int, error)
}

type deliveryRepo struct{ db *gorm.DB }

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository { return &deliveryRepo{db: db} }

func (r *deliveryRepo) CreateTx(tx *gorm.DB, d *model.Delivery) error {
	return tx.Create(d).Error
}

func (r *deliveryRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Delivery, error) {
	var deliveries []model.Delivery
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).
		Order("timestamp ASC").Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepo) SumDeliveredQty(ctx context.Context, saleItemID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Delivery{}).
		Where("sale_item_id = ?", saleItemID).
		Select("COALESCE(SUM(qty),0)").Scan(&total).Error
	return int(total), err
}
