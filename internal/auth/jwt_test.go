package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomgo/reviews/pkg/middleware"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.GenerateAccessToken("42", "mod@example.com", "staff", middleware.PermissionManageProducts)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, []string{middleware.PermissionManageProducts}, claims.Permissions)
	assert.Equal(t, "user-service", claims.Issuer)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	other, err := NewJWTManager("other-secret", time.Hour).GenerateAccessToken("1", "a@b.c", "customer")
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(other)
	assert.Error(t, err)

	expired, err := NewJWTManager("test-secret", -time.Minute).GenerateAccessToken("1", "a@b.c", "customer")
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(none)
	assert.Error(t, err)

	_, err = m.ValidateAccessToken("garbage")
	assert.Error(t, err)
}

func TestJWTManager_TokenValidator(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	token, err := m.GenerateAccessToken("7", "admin@example.com", middleware.RoleAdmin)
	require.NoError(t, err)

	claims, err := m.TokenValidator()(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.UserID)
	assert.True(t, claims.HasPermission(middleware.PermissionManageProducts))

	_, err = m.TokenValidator()("bad")
	assert.Error(t, err)
}
