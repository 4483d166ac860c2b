package repository

import (
	"context"

	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegisterRepository interface {
	Create(ctx context.Context, reg *model.Register) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Register, error)
	FindByCode(ctx context.Context, code string) (*model.Register, error)
	List(ctx context.Context) ([]model.Register, error)
	// Deactivate only — register identity is immutable once sales reference it.
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) Create(ctx context.Context, reg *model.Register) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *registerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Register, error) {
	var reg model.Register
	err := r.db.WithContext(ctx).First(&reg, id).Error
	return &reg, err
}

func (r *registerRepo) FindByCode(ctx context.Context, code string) (*model.Register, error) {
	var reg model.Register
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&reg).Error
	return &reg, err
}

func (r *registerRepo) List(ctx context.Context) ([]model.Register, error) {
	var regs []model.Register
	err := r.db.WithContext(ctx).Order("code ASC").Find(&regs).Error
	return regs, err
}

func (r *registerRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Register{}).Where("id = ?", id).
		Update("is_active", false).Error
}
