package dto

import "github.com/golang-jwt/jwt/v5"

// AuthClaims are the claims of a player bearer token
type AuthClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
