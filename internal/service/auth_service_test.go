package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/service"
	"ledgerflow/mocks"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		AccessTokenExpiry: 15 * time.Minute,
		Issuer:            "ledgerflow-test",
	}
}

func setupAuthService() (service.AuthService, *mocks.MockUserRepo, *mocks.MockTenantRepo) {
	userRepo := new(mocks.MockUserRepo)
	tenantRepo := new(mocks.MockTenantRepo)
	svc := service.NewAuthService(userRepo, tenantRepo, jwtConfig())
	return svc, userRepo, tenantRepo
}

func testTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:       uuid.New(),
		Name:     "Bistro Nord",
		Slug:     "bistro-nord",
		IsActive: true,
	}
}

func testUser(t *testing.T, tenantID uuid.UUID, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        "owner@bistro-nord.example",
		PasswordHash: string(hash),
		FullName:     "Owner",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, userRepo, tenantRepo := setupAuthService()

	tenant := testTenant()
	user := testUser(t, tenant.ID, "correct-horse-battery")

	tenantRepo.On("GetBySlug", mock.Anything, "bistro-nord").Return(tenant, nil)
	userRepo.On("GetByEmail", mock.Anything, tenant.ID, user.Email).Return(user, nil)

	out, err := svc.Login(context.Background(), service.LoginInput{
		TenantSlug: "bistro-nord",
		Email:      user.Email,
		Password:   "correct-horse-battery",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), out.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, claims.TenantID)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, userRepo, tenantRepo := setupAuthService()

	tenant := testTenant()
	user := testUser(t, tenant.ID, "correct-horse-battery")

	tenantRepo.On("GetBySlug", mock.Anything, "bistro-nord").Return(tenant, nil)
	userRepo.On("GetByEmail", mock.Anything, tenant.ID, user.Email).Return(user, nil)

	_, err := svc.Login(context.Background(), service.LoginInput{
		TenantSlug: "bistro-nord",
		Email:      user.Email,
		Password:   "wrong",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownTenantSlug(t *testing.T) {
	svc, _, tenantRepo := setupAuthService()

	tenantRepo.On("GetBySlug", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	_, err := svc.Login(context.Background(), service.LoginInput{
		TenantSlug: "nope",
		Email:      "a@b.example",
		Password:   "whatever1",
	})

	// Tenant existence must not leak through the error.
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveTenant(t *testing.T) {
	svc, _, tenantRepo := setupAuthService()

	tenant := testTenant()
	tenant.IsActive = false
	tenantRepo.On("GetBySlug", mock.Anything, tenant.Slug).Return(tenant, nil)

	_, err := svc.Login(context.Background(), service.LoginInput{
		TenantSlug: tenant.Slug,
		Email:      "a@b.example",
		Password:   "whatever1",
	})

	assert.ErrorIs(t, err, domain.ErrTenantInactive)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	svc, userRepo, tenantRepo := setupAuthService()

	tenant := testTenant()
	user := testUser(t, tenant.ID, "correct-horse-battery")
	user.IsActive = false

	tenantRepo.On("GetBySlug", mock.Anything, tenant.Slug).Return(tenant, nil)
	userRepo.On("GetByEmail", mock.Anything, tenant.ID, user.Email).Return(user, nil)

	_, err := svc.Login(context.Background(), service.LoginInput{
		TenantSlug: tenant.Slug,
		Email:      user.Email,
		Password:   "correct-horse-battery",
	})

	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	svc, userRepo, tenantRepo := setupAuthService()

	tenant := testTenant()
	user := testUser(t, tenant.ID, "correct-horse-battery")
	tenantRepo.On("GetBySlug", mock.Anything, tenant.Slug).Return(tenant, nil)
	userRepo.On("GetByEmail", mock.Anything, tenant.ID, user.Email).Return(user, nil)

	out, err := svc.Login(context.Background(), service.LoginInput{
		TenantSlug: tenant.Slug,
		Email:      user.Email,
		Password:   "correct-horse-battery",
	})
	require.NoError(t, err)

	other := service.NewAuthService(userRepo, tenantRepo, config.JWTConfig{
		Secret:            "a-different-secret",
		AccessTokenExpiry: time.Minute,
	})
	_, err = other.ValidateToken(out.AccessToken)
	assert.Error(t, err)
}

func TestAuthService_ValidateToken_Garbage(t *testing.T) {
	svc, _, _ := setupAuthService()

	_, err := svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}
