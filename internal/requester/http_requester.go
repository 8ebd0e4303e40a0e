package requester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/logger"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second

	// maxResponseBytes bounds what is read from an identity provider
	maxResponseBytes = 1 << 20
)

// HTTPRequester executes outbound calls to identity providers
type HTTPRequester struct {
	client *http.Client
}

type HTTPRequesterParams struct {
	fx.In

	ProviderConfig *config.ProviderConfig
}

// NewHTTPRequester creates an HTTPRequester with a pooled transport and the provider timeout
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	timeout := defaultTimeout
	if params.ProviderConfig != nil && params.ProviderConfig.Timeout > 0 {
		timeout = params.ProviderConfig.Timeout
	}

	return &HTTPRequester{
		client: &http.Client{
			Transport: cleanhttp.DefaultPooledTransport(),
			Timeout:   timeout,
		},
	}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// Client returns the underlying client, for libraries that drive their own requests
func (r *HTTPRequester) Client() *http.Client {
	return r.client
}

// Do builds and executes req. A returned error always means the exchange did not
// complete at the transport level; HTTP error statuses are reported in the Response.
func (r *HTTPRequester) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := BuildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		// *url.Error embeds the full URL, which carries credentials for some providers
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("request failed: %s %s%s: %w", urlErr.Op, httpReq.URL.Host, httpReq.URL.Path, urlErr.Err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logger.Debug("provider response",
		zap.String("host", httpReq.URL.Host),
		zap.String("path", httpReq.URL.Path),
		zap.Int("status", resp.StatusCode),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}
