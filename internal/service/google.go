package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/pengzhou/bz-studypal-api/internal/config"
	"github.com/pengzhou/bz-studypal-api/internal/model"
)

const googleIssuer = "https://accounts.google.com"

// googleVerifier validates Google credentials against the public OIDC
// discovery document. Token-verification protocol details stay inside the
// oidc library.
type googleVerifier struct {
	verifier *oidc.IDTokenVerifier
	oauth    oauth2.Config
}

// NewGoogleVerifier returns nil (not an error) when no client id is
// configured, so the rest of the service can run without OAuth.
func NewGoogleVerifier(ctx context.Context, cfg config.GoogleConfig) (GoogleVerifier, error) {
	if cfg.ClientID == "" {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover google oidc provider: %w", err)
	}

	return &googleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

func (g *googleVerifier) Verify(ctx context.Context, rawIDToken string) (*model.GoogleClaims, error) {
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}

	var claims model.GoogleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// ExchangeCode completes the redirect flow: the authorization code is traded
// for a token set and the embedded ID token verified as usual.
func (g *googleVerifier) ExchangeCode(ctx context.Context, code string) (*model.GoogleClaims, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("token response missing id_token")
	}
	return g.Verify(ctx, rawIDToken)
}
