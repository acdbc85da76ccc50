// Package google verifies Google sign-in credentials and turns them into a
// profile the auth service can log in with.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/Domenick1991/rmtravel/config"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
)

const Issuer = "https://accounts.google.com"

var ErrMissingClaims = errors.New("google id_token missing required claims")

type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// New discovers Google's OIDC metadata. It performs a network round-trip.
func New(ctx context.Context, cfg config.GoogleConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google client id is required")
	}

	oidcProvider, err := oidc.NewProvider(ctx, Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return NewWithVerifier(verifier, oauthCfg), nil
}

func NewWithVerifier(verifier *oidc.IDTokenVerifier, oauthCfg *oauth2.Config) *Provider {
	return &Provider{oauthConfig: oauthCfg, verifier: verifier}
}

// VerifyCredential checks an ID token posted by the sign-in button.
func (p *Provider) VerifyCredential(ctx context.Context, rawIDToken string) (auth.GoogleProfile, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return auth.GoogleProfile{}, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return auth.GoogleProfile{}, fmt.Errorf("google id_token claims parse failed: %w", err)
	}
	if claims.Subject == "" || claims.Email == "" {
		return auth.GoogleProfile{}, ErrMissingClaims
	}

	return auth.GoogleProfile{
		Email:      claims.Email,
		FirstName:  claims.GivenName,
		LastName:   claims.FamilyName,
		ExternalID: claims.Subject,
		Verified:   claims.EmailVerified,
	}, nil
}

// AuthCodeURL starts the redirect flow.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the redirect flow and verifies the returned ID token.
func (p *Provider) Exchange(ctx context.Context, code string) (auth.GoogleProfile, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return auth.GoogleProfile{}, fmt.Errorf("google token exchange failed: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return auth.GoogleProfile{}, errors.New("google did not return id_token")
	}
	return p.VerifyCredential(ctx, rawIDToken)
}
