package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/requester"
	"go.uber.org/fx"
)

// ErrInvalidProvider indicates an unsupported identity provider was specified
var ErrInvalidProvider = fmt.Errorf("unsupported identity provider")

const discoveryTimeout = 15 * time.Second

// New builds the provider selected by cfg.Name
func New(cfg *config.ProviderConfig, r *requester.HTTPRequester) (Provider, error) {
	switch cfg.Name {
	case config.ProviderWeChat, "":
		return NewWeChatProvider(cfg, r), nil
	case config.ProviderGitHub:
		return NewGitHubProvider(cfg, r), nil
	case config.ProviderGoogle:
		ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
		defer cancel()
		provider, err := NewGoogleProvider(ctx, cfg, r)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize provider %s: %w", cfg.Name, err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, cfg.Name)
	}
}

// Module provides the configured identity provider
var Module = fx.Module("providers",
	fx.Provide(New),
)
