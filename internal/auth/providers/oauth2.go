package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/requester"
	"golang.org/x/oauth2"
)

// withClient makes x/oauth2 and go-oidc use the requester's transport and timeout
func withClient(ctx context.Context, r *requester.HTTPRequester) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, r.Client())
}

// exchangeError maps an oauth2 token-endpoint failure onto the login taxonomy.
func exchangeError(provider, display string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= http.StatusInternalServerError {
			return autherr.Wrap(autherr.ProviderUnreachable, err, "%s token endpoint failed", provider)
		}
		reason := retrieveErr.ErrorDescription
		if reason == "" {
			reason = retrieveErr.ErrorCode
		}
		if reason == "" && retrieveErr.Response != nil {
			reason = http.StatusText(retrieveErr.Response.StatusCode)
		}
		return autherr.Wrap(autherr.ProviderRejected, err, "%s登录失败: %s", display, reason)
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return autherr.Wrap(autherr.ProviderUnreachable, err, "%s token endpoint unreachable", provider)
	}
	return autherr.Wrap(autherr.MalformedProviderResponse, err, "%s token response is invalid", provider)
}
