package model

import "time"

type RegisterRequest struct {
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=8,max=128"`
	Name              string `json:"name" binding:"required,min=1,max=64"`
	PreferredLanguage string `json:"preferredLanguage" binding:"omitempty,oneof=zh en"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GoogleAuthRequest carries either a verified-at-Google ID token (one-tap /
// gsi flow) or an authorization code (redirect flow). Exactly one is needed.
type GoogleAuthRequest struct {
	IDToken string `json:"idToken"`
	Code    string `json:"code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	User      PublicUser    `json:"user"`
	Tokens    TokenResponse `json:"tokens"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
}

// AuthStatusResponse reports which credential flows the deployment supports.
type AuthStatusResponse struct {
	JWTConfigured    bool `json:"jwtConfigured"`
	GoogleConfigured bool `json:"googleConfigured"`
}

// GoogleClaims is the projection of a verified Google ID token that the auth
// service consumes. Verification itself is delegated to the OIDC library.
type GoogleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}
