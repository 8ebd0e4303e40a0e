package providers

import (
	"context"
	"net/http"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/models"
)

// Provider defines the interface that all identity providers must implement
type Provider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// ExchangeCode trades a one-time authorization code for the user's stable identity.
	// Failures are *autherr.Error values of kind ProviderRejected, ProviderUnreachable
	// or MalformedProviderResponse. The code is consumed once this is called.
	ExchangeCode(ctx context.Context, code string) (*models.ExternalIdentity, error)
}

// statusError classifies a non-2xx provider status: upstream faults are transient,
// anything else means the provider did not honor its contract.
func statusError(provider string, status int) error {
	if status >= http.StatusInternalServerError {
		return autherr.New(autherr.ProviderUnreachable, "%s returned status %d", provider, status)
	}
	return autherr.New(autherr.MalformedProviderResponse, "%s returned unexpected status %d", provider, status)
}
