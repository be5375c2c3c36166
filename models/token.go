package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of the access token. It lives in models so that
// services, middleware and the ws handshake can share it without import cycles.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
