package requester

import (
	"net/http"
	"net/url"
)

// Request describes an outbound call to an identity provider
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// IsSuccess reports a 2xx status
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
