package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"
	"github.com/sebastiangaticacl/stvaldivia/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionService interface {
	OpenSession(ctx context.Context, employee *model.Employee, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	CloseSession(ctx context.Context, employeeID string, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, shiftDate string) ([]dto.SessionResponse, error)

	AcquireLock(ctx context.Context, employee *model.Employee, req dto.AcquireLockRequest) (*dto.LockResponse, error)
	ReleaseLock(ctx context.Context, registerID uuid.UUID, employeeID string) error
	ListLocks(ctx context.Context) ([]dto.LockResponse, error)
}

type sessionService struct {
	repo         repository.SessionRepository
	registerRepo repository.RegisterRepository
	lockTTL      time.Duration
	now          func() time.Time
}

// NewSessionService builds the session manager. now is injectable for lease
// expiry tests; pass nil for time.Now.
func NewSessionService(repo repository.SessionRepository, registerRepo repository.RegisterRepository, lockTTL time.Duration, now func() time.Time) SessionService {
	if now == nil {
		now = time.Now
	}
	return &sessionService{repo: repo, registerRepo: registerRepo, lockTTL: lockTTL, now: now}
}

// OperatingDay returns the shift date to attribute work to when the terminal
// does not send one. The operating day is the calendar day the shift started,
// so callers crossing midnight must send shift_date explicitly.
func OperatingDay(now time.Time) string {
	return now.Format("2006-01-02")
}

// ── Sessions ─────────────────────────────────────────────────────────────────

func (s *sessionService) OpenSession(ctx context.Context, employee *model.Employee, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	registerID, err := uuid.Parse(req.RegisterID)
	if err != nil {
		return nil, apierror.Validation("invalid register_id")
	}
	reg, err := s.registerRepo.FindByID(ctx, registerID)
	if err != nil {
		return nil, apierror.NotFound("register not found")
	}
	if !reg.IsActive {
		return nil, apierror.Validation(fmt.Sprintf("register %s is inactive", reg.Code))
	}

	day := req.ShiftDate
	if day == "" {
		day = OperatingDay(s.now())
	}

	sess := &model.RegisterSession{
		RegisterID:         registerID,
		ShiftDate:          day,
		OpenedByEmployeeID: employee.ID,
		OpenedByName:       employee.Name,
		Status:             model.SessionOpen,
		InitialCash:        req.InitialCash,
		OpenedAt:           s.now().UTC(),
	}

	// Insert-on-conflict: when two cashiers race to open the same register/day,
	// exactly one insert wins at the storage layer.
	created, err := s.repo.CreateSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, apierror.Conflict(fmt.Sprintf("register %s already has a session for %s", reg.Code, day))
	}

	// Opening a shift also takes the register lease for the cashier.
	s.takeLockForSession(ctx, registerID, employee, sess.ID)

	return sessionToResponse(sess), nil
}

func (s *sessionService) CloseSession(ctx context.Context, employeeID string, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, apierror.Validation("invalid session_id")
	}
	sess, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("session not found")
	}
	if sess.Status != model.SessionOpen {
		return nil, apierror.Conflict("session is not open")
	}

	now := s.now().UTC()
	sess.Status = model.SessionClosed
	sess.ClosedAt = &now
	sess.ClosedBy = &employeeID
	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	// Closing releases the lease; a failure here only leaves a lock that
	// expires on its own.
	_ = s.repo.DeleteLock(ctx, sess.RegisterID)

	return sessionToResponse(sess), nil
}

func (s *sessionService) GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	sess, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("session not found")
	}
	return sessionToResponse(sess), nil
}

func (s *sessionService) ListSessions(ctx context.Context, shiftDate string) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.ListSessions(ctx, shiftDate)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = *sessionToResponse(&sessions[i])
	}
	return out, nil
}

// ── Locks ────────────────────────────────────────────────────────────────────

// AcquireLock grants the register lease. The lease is a row keyed by
// register_id: expiry is compared at read time, never swept in the background.
// An expired lease is reclaimable by any employee, last writer wins.
func (s *sessionService) AcquireLock(ctx context.Context, employee *model.Employee, req dto.AcquireLockRequest) (*dto.LockResponse, error) {
	registerID, err := uuid.Parse(req.RegisterID)
	if err != nil {
		return nil, apierror.Validation("invalid register_id")
	}
	if _, err := s.registerRepo.FindByID(ctx, registerID); err != nil {
		return nil, apierror.NotFound("register not found")
	}

	ttl := s.lockTTL
	if req.TTLMinutes > 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}
	now := s.now().UTC()
	lock := &model.RegisterLock{
		RegisterID:   registerID,
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		LockedAt:     now,
		ExpiresAt:    now.Add(ttl),
	}

	created, err := s.repo.InsertLock(ctx, lock)
	if err != nil {
		return nil, err
	}
	if created {
		return lockToResponse(lock), nil
	}

	existing, err := s.repo.FindLock(ctx, registerID)
	if err != nil {
		return nil, err
	}
	if existing.EmployeeID == employee.ID {
		// Re-acquisition by the holder renews the lease.
		replaced, err := s.repo.ReplaceLock(ctx, lock, existing.ExpiresAt)
		if err != nil {
			return nil, err
		}
		if !replaced {
			return nil, apierror.Conflict("register lock is being contended, retry")
		}
		return lockToResponse(lock), nil
	}
	if !existing.Expired(now) {
		return nil, apierror.Conflict(fmt.Sprintf("register is locked by %s", existing.EmployeeName))
	}

	// Expired lease: take over with a compare-and-swap on the old expiry so
	// only one of several racing claimants succeeds.
	replaced, err := s.repo.ReplaceLock(ctx, lock, existing.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if !replaced {
		return nil, apierror.Conflict("register lock was just taken by someone else")
	}
	return lockToResponse(lock), nil
}

func (s *sessionService) ReleaseLock(ctx context.Context, registerID uuid.UUID, employeeID string) error {
	lock, err := s.repo.FindLock(ctx, registerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if lock.EmployeeID != employeeID && !lock.Expired(s.now().UTC()) {
		return apierror.Conflict("lock is held by another employee")
	}
	return s.repo.DeleteLock(ctx, registerID)
}

func (s *sessionService) ListLocks(ctx context.Context) ([]dto.LockResponse, error) {
	locks, err := s.repo.ListLocks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LockResponse, len(locks))
	for i := range locks {
		out[i] = *lockToResponse(&locks[i])
	}
	return out, nil
}

// takeLockForSession is best-effort: an existing valid lock by another
// employee is left alone and surfaced by the monitor, not fought over here.
func (s *sessionService) takeLockForSession(ctx context.Context, registerID uuid.UUID, employee *model.Employee, sessionID uuid.UUID) {
	now := s.now().UTC()
	lock := &model.RegisterLock{
		RegisterID:   registerID,
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		SessionID:    &sessionID,
		LockedAt:     now,
		ExpiresAt:    now.Add(s.lockTTL),
	}
	if created, err := s.repo.InsertLock(ctx, lock); err != nil || created {
		return
	}
	if existing, err := s.repo.FindLock(ctx, registerID); err == nil {
		if existing.EmployeeID == employee.ID || existing.Expired(now) {
			_, _ = s.repo.ReplaceLock(ctx, lock, existing.ExpiresAt)
		}
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func sessionToResponse(s *model.RegisterSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:          s.ID.String(),
		RegisterID:  s.RegisterID.String(),
		ShiftDate:   s.ShiftDate,
		OpenedBy:    s.OpenedByEmployeeID,
		Status:      s.Status,
		InitialCash: s.InitialCash,
		TicketCount: s.TicketCount,
		OpenedAt:    s.OpenedAt.Format(time.RFC3339),
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}

func lockToResponse(l *model.RegisterLock) *dto.LockResponse {
	return &dto.LockResponse{
		RegisterID:   l.RegisterID.String(),
		EmployeeID:   l.EmployeeID,
		EmployeeName: l.EmployeeName,
		LockedAt:     l.LockedAt.Format(time.RFC3339),
		ExpiresAt:    l.ExpiresAt.Format(time.RFC3339),
	}
}
