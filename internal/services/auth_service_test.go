package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/jewelry-backend/internal/config"
	"github.com/javajoker/jewelry-backend/internal/models"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

func newTestAuth(t *testing.T) *AuthService {
	cfg := testConfig()
	cfg.JWT = config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1, RefreshTokenTTL: 24}
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	return NewAuthService(newTestDB(t), cfg)
}

func TestLoginAndRefresh(t *testing.T) {
	svc := newTestAuth(t)

	staff, err := svc.CreateStaff(&CreateStaffRequest{
		Username: "counter_one",
		Email:    "Counter@Jewelry.local",
		Password: "Sparkle#2026",
		Role:     models.UserRoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, "counter@jewelry.local", staff.Email)

	resp, err := svc.Login(&LoginRequest{Email: "counter@jewelry.local", Password: "Sparkle#2026"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.NotNil(t, resp.User.LastLoginAt)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, staff.ID.String(), claims.UserID)
	assert.Equal(t, "staff", claims.Role)

	refreshed, err := svc.RefreshToken(resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, refreshed.User.ID)

	_, err = svc.Login(&LoginRequest{Email: "counter@jewelry.local", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&LoginRequest{Email: "nobody@jewelry.local", Password: "Sparkle#2026"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSuspendedAccount(t *testing.T) {
	svc := newTestAuth(t)

	user, err := svc.CreateStaff(&CreateStaffRequest{
		Username: "former",
		Email:    "former@jewelry.local",
		Password: "Sparkle#2026",
		Role:     models.UserRoleStaff,
	})
	require.NoError(t, err)
	require.NoError(t, svc.db.Model(user).Update("status", models.UserStatusSuspended).Error)

	_, err = svc.Login(&LoginRequest{Email: "former@jewelry.local", Password: "Sparkle#2026"})
	assert.ErrorIs(t, err, ErrAccountSuspended)
}

func TestCreateStaffRejectsDuplicates(t *testing.T) {
	svc := newTestAuth(t)

	req := &CreateStaffRequest{Username: "owner", Email: "owner@jewelry.local", Password: "Sparkle#2026", Role: models.UserRoleAdmin}
	_, err := svc.CreateStaff(req)
	require.NoError(t, err)

	_, err = svc.CreateStaff(req)
	assert.ErrorIs(t, err, ErrUserExists)

	weak := &CreateStaffRequest{Username: "weak", Email: "weak@jewelry.local", Password: "password", Role: models.UserRoleStaff}
	_, err = svc.CreateStaff(weak)
	assert.Error(t, err)
}
