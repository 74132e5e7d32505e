package auth

import (
	"testing"
	"time"

	"musicbingo/models"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := models.User{Name: "Ana", Role: models.RoleGuest}

	token, expiresAt, err := issuer.GenerateToken("client-1", user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := issuer.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "client-1", claims.ClientID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, models.RoleGuest, claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := models.User{Name: "Ana", Role: models.RoleHost}

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewTokenIssuer("other", time.Hour).GenerateToken("c", user)
		require.NoError(t, err)
		_, err = issuer.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewTokenIssuer("secret", time.Hour)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := old.GenerateToken("c", user)
		require.NoError(t, err)
		_, err = issuer.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
		_, err = issuer.ParseToken("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := &models.ClientClaims{ClientID: "c", Name: "Ana", Role: models.RoleHost}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		token, _, err := issuer.GenerateToken("c", models.User{Name: "Ana", Role: "Admin"})
		require.NoError(t, err)
		_, err = issuer.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
