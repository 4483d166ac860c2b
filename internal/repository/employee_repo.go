package repository

import (
	"context"

	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"gorm.io/gorm"
)

type EmployeeRepository interface {
	Create(ctx context.Context, e *model.Employee) error
	FindByID(ctx context.Context, id string) (*model.Employee, error)
	Update(ctx context.Context, e *model.Employee) error
	List(ctx context.Context, includeInactive bool) ([]model.Employee, error)
	// Deactivate soft-deletes: employees referenced by sales are never removed.
	Deactivate(ctx context.Context, id string) error
}

type employeeRepo struct{ db *gorm.DB }

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository { return &employeeRepo{db: db} }

func (r *employeeRepo) Create(ctx context.Context, e *model.Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *employeeRepo) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	var e model.Employee
	err := r.db.WithContext(ctx).Where("id = ? AND deleted = false", id).First(&e).Error
	return &e, err
}

func (r *employeeRepo) Update(ctx context.Context, e *model.Employee) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *employeeRepo) List(ctx context.Context, includeInactive bool) ([]model.Employee, error) {
	var emps []model.Employee
	q := r.db.WithContext(ctx).Where("deleted = false")
	if !includeInactive {
		q = q.Where("is_active = true")
	}
	err := q.Order("name ASC").Find(&emps).Error
	return emps, err
}

func (r *employeeRepo) Deactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.Employee{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "deleted": true}).Error
}
