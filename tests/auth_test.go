package tests

import (
	"context"
	"testing"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/config"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAuthSvc(t *testing.T) (service.AuthService, *stubEmployeeRepo) {
	t.Helper()
	repo := newStubEmployeeRepo()
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 12,
		JWTRefreshHours:    72,
	}
	svc := service.NewAuthService(repo, cfg, zerolog.Nop(), nil)

	hash, err := service.HashPIN("4321")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &model.Employee{
		ID:        "carla",
		Name:      "Carla Montt",
		Cargo:     "cajero",
		PINHash:   hash,
		IsCashier: true,
		IsActive:  true,
	}))
	return svc, repo
}

func TestLogin(t *testing.T) {
	svc, _ := buildAuthSvc(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{EmployeeID: "carla", PIN: "4321"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 12*3600, resp.ExpiresIn)
	assert.Equal(t, "cajero", resp.Employee.Cargo)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "carla", claims.EmployeeID)
	assert.True(t, claims.IsCashier)
}

func TestLogin_WrongPIN(t *testing.T) {
	svc, _ := buildAuthSvc(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{EmployeeID: "carla", PIN: "0000"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLogin_UnknownEmployeeSameMessage(t *testing.T) {
	svc, _ := buildAuthSvc(t)

	// Unknown id and wrong PIN are indistinguishable to the caller.
	_, err := svc.Login(context.Background(), dto.LoginRequest{EmployeeID: "ghost", PIN: "4321"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid credentials")
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestLogin_InactiveEmployee(t *testing.T) {
	svc, repo := buildAuthSvc(t)
	repo.employees["carla"].IsActive = false

	_, err := svc.Login(context.Background(), dto.LoginRequest{EmployeeID: "carla", PIN: "4321"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestRefresh(t *testing.T) {
	svc, _ := buildAuthSvc(t)

	login, err := svc.Login(context.Background(), dto.LoginRequest{EmployeeID: "carla", PIN: "4321"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// An access token is not accepted where a refresh token is expected.
	_, err = svc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: login.AccessToken})
	require.Error(t, err)
}

func TestValidateToken_RejectsRefreshToken(t *testing.T) {
	svc, _ := buildAuthSvc(t)

	login, err := svc.Login(context.Background(), dto.LoginRequest{EmployeeID: "carla", PIN: "4321"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.RefreshToken)
	require.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc, _ := buildAuthSvc(t)
	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
}
