package model

import "time"

type AuthClaims struct {
	Subject   string    `json:"sub"`
	Type      string    `json:"typ"`
	TokenID   string    `json:"jti"`
	ExpiresAt time.Time `json:"exp"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token" yaml:"access_token"`
	TokenType   string    `json:"token_type" yaml:"token_type"`
	ExpiresIn   int64     `json:"expires_in" yaml:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at" yaml:"expires_at"`
}
