package services

import (
	"audit-service/internal/models"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 0)
	account := &models.Account{ID: "acc-1", Role: models.RoleAdmin, State: models.RegionHQ}

	token, issued, err := svc.GenerateNewToken(account)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, issued.ExpiresAt.Sub(issued.IssuedAt.Time))

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, models.RegionHQ, claims.State)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_Expired(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }

	token, _, err := svc.GenerateNewToken(&models.Account{ID: "acc-1", Role: models.RoleOfficer, State: "ABIA"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("one", time.Hour).GenerateNewToken(&models.Account{ID: "a", Role: models.RoleOfficer})
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Hour).VerifyToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	claims := models.Claims{
		UserID: "a",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewJWTService("secret", time.Hour).VerifyToken(unsigned)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = NewJWTService("secret", time.Hour).VerifyToken(hs512)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestJWTService_Malformed(t *testing.T) {
	_, err := NewJWTService("secret", time.Hour).VerifyToken("not.a.token")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}
