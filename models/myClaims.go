package models

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// ClientClaims はゲートウェイが発行するJWTクレームの構造体定義です。
type ClientClaims struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	jwt.StandardClaims
}
