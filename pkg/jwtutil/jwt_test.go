package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/pkg/config"
)

func initTestConfig(t *testing.T) {
	t.Helper()
	Initialize(config.JWTConfig{
		AccessSecret:  "access-test-secret",
		RefreshSecret: "refresh-test-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	initTestConfig(t)

	partnerID := "6f9c2f0e-8a1b-4d5c-9e7f-0123456789ab"
	token, err := GenerateAccessToken("user-1", model.RolePartner, &partnerID)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, model.RolePartner, claims.Role)
	require.NotNil(t, claims.PartnerID)
	assert.Equal(t, partnerID, *claims.PartnerID)
}

func TestMasterTokenHasNoPartner(t *testing.T) {
	initTestConfig(t)

	token, err := GenerateAccessToken("user-2", model.RoleMaster, nil)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMaster, claims.Role)
	assert.Nil(t, claims.PartnerID)
}

// Access and refresh tokens are signed with different secrets and must not be
// interchangeable.
func TestSecretsAreNotInterchangeable(t *testing.T) {
	initTestConfig(t)

	refresh, err := GenerateRefreshToken("user-3", model.RoleMaster, nil)
	require.NoError(t, err)

	_, err = ValidateAccessToken(refresh)
	assert.Error(t, err)

	claims, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-3", claims.UserID)
}
