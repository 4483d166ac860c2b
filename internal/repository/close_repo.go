package repository

import (
	"context"

	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CloseRepository interface {
	// Create inserts with ON CONFLICT DO NOTHING on (register_id, shift_date).
	// created=false means the register was already closed for that day — the
	// first close's values are never touched.
	Create(ctx context.Context, c *model.RegisterClose) (created bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.RegisterClose, error)
	FindByRegisterDay(ctx context.Context, registerID uuid.UUID, shiftDate string) (*model.RegisterClose, error)
	List(ctx context.Context, shiftDate string, page, limit int) ([]model.RegisterClose, int64, error)
}

type closeRepo struct{ db *gorm.DB }

func NewCloseRepository(db *gorm.DB) CloseRepository { return &closeRepo{db: db} }

func (r *closeRepo) Create(ctx context.Context, c *model.RegisterClose) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "register_id"}, {Name: "shift_date"}},
		DoNothing: true,
	}).Create(c)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *closeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RegisterClose, error) {
	var c model.RegisterClose
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *closeRepo) FindByRegisterDay(ctx context.Context, registerID uuid.UUID, shiftDate string) (*model.RegisterClose, error) {
	var c model.RegisterClose
	err := r.db.WithContext(ctx).
		Where("register_id = ? AND shift_date = ?", registerID, shiftDate).
		First(&c).Error
	return &c, err
}

func (r *closeRepo) List(ctx context.Context, shiftDate string, page, limit int) ([]model.RegisterClose, int64, error) {
	var closes []model.RegisterClose
	var total int64

	q := r.db.WithContext(ctx).Model(&model.RegisterClose{})
	if shiftDate != "" {
		q = q.Where("shift_date = ?", shiftDate)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("closed_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&closes).Error
	return closes, total, err
}
