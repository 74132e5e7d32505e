package auth

import (
	"errors"
	"fmt"
	"time"

	"musicbingo/models"

	jwt "github.com/dgrijalva/jwt-go"
)

const DefaultTokenTTL = 72 * time.Hour

var ErrInvalidToken = errors.New("invalid identity token")

// TokenIssuer signs and verifies the identity tokens handed out at login.
// A token only names the client; it proves nothing about the person.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken issues a token for the client id and identity.
func (i *TokenIssuer) GenerateToken(clientID string, user models.User) (string, time.Time, error) {
	expiresAt := i.now().Add(i.ttl)
	claims := &models.ClientClaims{
		ClientID: clientID,
		Name:     user.Name,
		Role:     user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  i.now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken verifies the signature and expiry and returns the claims.
func (i *TokenIssuer) ParseToken(tokenString string) (*models.ClientClaims, error) {
	claims := &models.ClientClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ClientID == "" || claims.Name == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
