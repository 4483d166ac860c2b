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

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload carried by authenticated requests.
type Claims struct {
	EmployeeID  string `json:"employee_id"`
	Name        string `json:"name"`
	Cargo       string `json:"cargo"`
	IsCashier   bool   `json:"is_cashier"`
	IsBartender bool   `json:"is_bartender"`
	TokenType   string `json:"token_type"` // access | refresh
	jwt.RegisteredClaims
}

type AuthService interface {
	// Login verifies an employee id + PIN pair and issues the token pair.
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.LoginResponse, error)
	// ValidateToken parses an access token and returns its claims.
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	repo repository.EmployeeRepository
	cfg  *config.Config
	log  zerolog.Logger
	now  func() time.Time
}

func NewAuthService(repo repository.EmployeeRepository, cfg *config.Config, log zerolog.Logger, now func() time.Time) AuthService {
	if now == nil {
		now = time.Now
	}
	return &authService{repo: repo, cfg: cfg, log: log, now: now}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	emp, err := s.repo.FindByID(ctx, req.EmployeeID)
	if err != nil {
		// Same message for unknown id and wrong PIN.
		return nil, apierror.Validation("invalid credentials")
	}
	if !emp.IsActive {
		return nil, apierror.Validation("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PINHash), []byte(req.PIN)); err != nil {
		s.log.Warn().Str("employee_id", req.EmployeeID).Msg("failed login attempt")
		return nil, apierror.Validation("invalid credentials")
	}
	return s.issueTokens(emp)
}

func (s *authService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.LoginResponse, error) {
	claims, err := s.parse(req.RefreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, apierror.Validation("invalid refresh token")
	}
	emp, err := s.repo.FindByID(ctx, claims.EmployeeID)
	if err != nil || !emp.IsActive {
		return nil, apierror.Validation("invalid refresh token")
	}
	return s.issueTokens(emp)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "access" {
		return nil, fmt.Errorf("not an access token")
	}
	return claims, nil
}

func (s *authService) issueTokens(emp *model.Employee) (*dto.LoginResponse, error) {
	accessTTL := time.Duration(s.cfg.JWTExpirationHours) * time.Hour
	refreshTTL := time.Duration(s.cfg.JWTRefreshHours) * time.Hour

	access, err := s.sign(emp, "access", accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(emp, "refresh", refreshTTL)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(accessTTL.Seconds()),
		Employee:     *employeeToResponse(emp),
	}, nil
}

func (s *authService) sign(emp *model.Employee, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		EmployeeID:  emp.ID,
		Name:        emp.Name,
		Cargo:       emp.Cargo,
		IsCashier:   emp.IsCashier,
		IsBartender: emp.IsBartender,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   emp.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// HashPIN produces the bcrypt hash stored in pin_hash.
func HashPIN(pin string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	return string(b), err
}

func employeeToResponse(e *model.Employee) *dto.EmployeeResponse {
	return &dto.EmployeeResponse{
		ID:          e.ID,
		Name:        e.Name,
		Cargo:       e.Cargo,
		IsCashier:   e.IsCashier,
		IsBartender: e.IsBartender,
		IsActive:    e.IsActive,
	}
}
