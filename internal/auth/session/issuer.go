// Package session implements the login flow: code exchange with the identity
// provider, user resolution against the store and session token minting.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/constants"
	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/brizzai/miniauth/internal/auth/providers"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/logger"
	"github.com/brizzai/miniauth/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Stage is a step of a login attempt. Failures are reported with the stage they happened in.
type Stage string

const (
	StageReceived          Stage = "received"
	StageCodeExtracted     Stage = "code_extracted"
	StageIdentityExchanged Stage = "identity_exchanged"
	StageUserResolved      Stage = "user_resolved"
	StageTokenMinted       Stage = "token_minted"
)

// Observer receives login outcomes; *metrics.Metrics implements it.
type Observer interface {
	ObserveLogin(provider, outcome string, elapsed time.Duration)
	ObserveUserCreated()
}

// Issuer runs one login attempt end to end. It holds no per-request state.
type Issuer struct {
	provider providers.Provider
	resolver *UserResolver
	minter   *Minter
	observer Observer
	cfgErr   error
}

type IssuerParams struct {
	fx.In

	Provider       providers.Provider
	Store          store.UserStore
	ProviderConfig *config.ProviderConfig
	TokenConfig    *config.TokenConfig
	StoreConfig    *config.StoreConfig
	Observer       Observer `optional:"true"`
}

// NewIssuer validates configuration once. An incomplete configuration does not
// prevent construction; every login then fails fast with ConfigurationMissing.
func NewIssuer(p IssuerParams) *Issuer {
	cfgErr := ValidateConfig(p.ProviderConfig, p.TokenConfig)
	if cfgErr != nil {
		logger.Error("Login configuration incomplete, logins will be refused", zap.Error(cfgErr))
	}

	ttl, ok := ParseExpiry(p.TokenConfig.ExpiresIn)
	if !ok && strings.TrimSpace(p.TokenConfig.ExpiresIn) != "" {
		logger.Warn("Unparsable token.expires_in, using default",
			zap.String("expires_in", p.TokenConfig.ExpiresIn),
			zap.Duration("default", ttl),
		)
	}

	var timeout time.Duration
	if p.StoreConfig != nil {
		timeout = p.StoreConfig.Timeout
	}

	return &Issuer{
		provider: p.Provider,
		resolver: NewUserResolver(p.Store, timeout),
		minter:   NewMinter(p.TokenConfig.Secret, ttl),
		observer: p.Observer,
		cfgErr:   cfgErr,
	}
}

// Ready reports the configuration error every login would fail with, if any.
func (i *Issuer) Ready() error {
	return i.cfgErr
}

// Login exchanges req.Code for an identity, resolves the local user and mints a token.
// Errors are *autherr.Error values; nothing is retried.
func (i *Issuer) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	start := time.Now()
	stage := StageReceived

	result, created, err := i.login(ctx, req, &stage)

	outcome := "success"
	if err != nil {
		kind := autherr.KindOf(err)
		outcome = kind.String()
		fields := []zap.Field{
			zap.String("provider", i.provider.Name()),
			zap.String("stage", string(stage)),
			zap.String("kind", outcome),
			zap.Error(err),
		}
		if kind.HTTPStatus() >= 500 {
			logger.Error("Login failed", fields...)
		} else {
			logger.Info("Login rejected", fields...)
		}
	} else {
		logger.Info("Login succeeded",
			zap.String("provider", i.provider.Name()),
			zap.Int64("user_id", result.UserID),
			zap.Bool("created", created),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	if i.observer != nil {
		i.observer.ObserveLogin(i.provider.Name(), outcome, time.Since(start))
		if created {
			i.observer.ObserveUserCreated()
		}
	}
	return result, err
}

func (i *Issuer) login(ctx context.Context, req models.LoginRequest, stage *Stage) (*models.LoginResult, bool, error) {
	if i.cfgErr != nil {
		return nil, false, i.cfgErr
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, false, autherr.New(autherr.MissingCode, constants.MissingCodeMessage)
	}
	*stage = StageCodeExtracted

	identity, err := i.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, false, err
	}
	if identity == nil || identity.SubjectID == "" {
		return nil, false, autherr.New(autherr.MalformedProviderResponse, "%s returned no subject", i.provider.Name())
	}
	*stage = StageIdentityExchanged
	logger.Debug("Identity exchanged",
		zap.String("provider", i.provider.Name()),
		zap.Bool("has_union_id", identity.UnionID != ""),
	)

	user, created, err := i.resolver.Resolve(ctx, identity.SubjectID)
	if err != nil {
		return nil, false, err
	}
	*stage = StageUserResolved

	token, _, err := i.minter.Mint(user.ID)
	if err != nil {
		return nil, created, err
	}
	*stage = StageTokenMinted

	return &models.LoginResult{
		Token:  token,
		UserID: user.ID,
		UserInfo: models.UserInfo{
			ID:        user.ID,
			NickName:  user.NickName,
			AvatarURL: user.AvatarURL,
		},
	}, created, nil
}

// Module provides the Issuer
var Module = fx.Module("session",
	fx.Provide(NewIssuer),
)
