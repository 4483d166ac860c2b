package repository

import (
	"context"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	// CreateSession inserts with ON CONFLICT DO NOTHING on the
	// (register_id, shift_date) unique index. Returns created=false when a
	// session already exists — the caller decides that this is a conflict.
	CreateSession(ctx context.Context, s *model.RegisterSession) (created bool, err error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.RegisterSession, error)
	FindSessionByRegisterDay(ctx context.Context, registerID uuid.UUID, shiftDate string) (*model.RegisterSession, error)
	UpdateSession(ctx context.Context, s *model.RegisterSession) error
	IncrementTicketCountTx(tx *gorm.DB, id uuid.UUID) error
	ListSessions(ctx context.Context, shiftDate string) ([]model.RegisterSession, error)

	// Locks — leases keyed by register_id. Uniqueness is enforced by the
	// primary key; expiry is evaluated by the service at acquisition time.
	InsertLock(ctx context.Context, l *model.RegisterLock) (created bool, err error)
	FindLock(ctx context.Context, registerID uuid.UUID) (*model.RegisterLock, error)
	// ReplaceLock transfers an expired lease; the expires_at guard makes the
	// takeover a compare-and-swap so racing claimants cannot both win.
	ReplaceLock(ctx context.Context, l *model.RegisterLock, prevExpiresAt time.Time) (replaced bool, err error)
	DeleteLock(ctx context.Context, registerID uuid.UUID) error
	ListLocks(ctx context.Context) ([]model.RegisterLock, error)

	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) CreateSession(ctx context.Context, s *model.RegisterSession) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "register_id"}, {Name: "shift_date"}},
		DoNothing: true,
	}).Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.RegisterSession, error) {
	var s model.RegisterSession
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) FindSessionByRegisterDay(ctx context.Context, registerID uuid.UUID, shiftDate string) (*model.RegisterSession, error) {
	var s model.RegisterSession
	err := r.db.WithContext(ctx).
		Where("register_id = ? AND shift_date = ?", registerID, shiftDate).
		First(&s).Error
	return &s, err
}

func (r *sessionRepo) UpdateSession(ctx context.Context, s *model.RegisterSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) IncrementTicketCountTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.RegisterSession{}).Where("id = ?", id).
		Update("ticket_count", gorm.Expr("ticket_count + 1")).Error
}

func (r *sessionRepo) ListSessions(ctx context.Context, shiftDate string) ([]model.RegisterSession, error) {
	var sessions []model.RegisterSession
	q := r.db.WithContext(ctx)
	if shiftDate != "" {
		q = q.Where("shift_date = ?", shiftDate)
	}
	err := q.Order("opened_at DESC").Find(&sessions).Error
	return sessions, err
}

// ── Locks ────────────────────────────────────────────────────────────────────

func (r *sessionRepo) InsertLock(ctx context.Context, l *model.RegisterLock) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "register_id"}},
		DoNothing: true,
	}).Create(l)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) FindLock(ctx context.Context, registerID uuid.UUID) (*model.RegisterLock, error) {
	var l model.RegisterLock
	err := r.db.WithContext(ctx).Where("register_id = ?", registerID).First(&l).Error
	return &l, err
}

func (r *sessionRepo) ReplaceLock(ctx context.Context, l *model.RegisterLock, prevExpiresAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.RegisterLock{}).
		Where("register_id = ? AND expires_at = ?", l.RegisterID, prevExpiresAt).
		Updates(map[string]interface{}{
			"employee_id":   l.EmployeeID,
			"employee_name": l.EmployeeName,
			"session_id":    l.SessionID,
			"locked_at":     l.LockedAt,
			"expires_at":    l.ExpiresAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) DeleteLock(ctx context.Context, registerID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.RegisterLock{}, "register_id = ?", registerID).Error
}

func (r *sessionRepo) ListLocks(ctx context.Context) ([]model.RegisterLock, error) {
	var locks []model.RegisterLock
	err := r.db.WithContext(ctx).Find(&locks).Error
	return locks, err
}
