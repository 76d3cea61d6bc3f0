package models

import "github.com/golang-jwt/jwt/v5"

// Claims defines the structure of the session JWT claims. AccessToken is
// the platform token obtained by the (external) connect flow; the engine
// only carries it, it never refreshes it.
type Claims struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
	jwt.RegisteredClaims
}
