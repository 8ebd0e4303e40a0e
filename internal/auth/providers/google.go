package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/constants"
	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/requester"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// GoogleProvider exchanges OAuth codes with Google and trusts only the verified id_token subject.
type GoogleProvider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	requester    *requester.HTTPRequester
}

// NewGoogleProvider performs OIDC discovery against the issuer (provider.base_url overrides it).
func NewGoogleProvider(ctx context.Context, cfg *config.ProviderConfig, r *requester.HTTPRequester) (*GoogleProvider, error) {
	issuer := googleIssuer
	if cfg.BaseURL != "" {
		issuer = strings.TrimRight(cfg.BaseURL, "/")
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, r.Client()), issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return newGoogleProvider(cfg, provider.Endpoint(), provider.Verifier(&oidc.Config{ClientID: cfg.AppID}), r), nil
}

func newGoogleProvider(cfg *config.ProviderConfig, endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier, r *requester.HTTPRequester) *GoogleProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = constants.GoogleScopes
	}
	return &GoogleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		verifier:  verifier,
		requester: r,
	}
}

func (p *GoogleProvider) Name() string { return string(config.ProviderGoogle) }

func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*models.ExternalIdentity, error) {
	ctx = withClient(ctx, p.requester)

	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, exchangeError("google", "Google", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, autherr.New(autherr.MalformedProviderResponse, "google token response has no id_token")
	}

	idToken, err := p.verifier.Verify(oidc.ClientContext(ctx, p.requester.Client()), rawIDToken)
	if err != nil {
		return nil, autherr.Wrap(autherr.MalformedProviderResponse, err, "google id_token failed verification")
	}
	if idToken.Subject == "" {
		return nil, autherr.New(autherr.MalformedProviderResponse, "google id_token is missing sub")
	}

	return &models.ExternalIdentity{
		SubjectID: idToken.Subject,
	}, nil
}
