// Package autherr classifies login failures and maps them onto HTTP responses.
package autherr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the failure class of a login attempt.
type Kind int

const (
	Internal Kind = iota
	ConfigurationMissing
	MissingCode
	ProviderRejected
	ProviderUnreachable
	MalformedProviderResponse
	StorePersistenceError
	SigningFailure
)

// InternalMessage is what clients see for every server-side failure.
const InternalMessage = "服务器内部错误"

func (k Kind) String() string {
	switch k {
	case ConfigurationMissing:
		return "configuration_missing"
	case MissingCode:
		return "missing_code"
	case ProviderRejected:
		return "provider_rejected"
	case ProviderUnreachable:
		return "provider_unreachable"
	case MalformedProviderResponse:
		return "malformed_provider_response"
	case StorePersistenceError:
		return "store_persistence_error"
	case SigningFailure:
		return "signing_failure"
	default:
		return "internal"
	}
}

// HTTPStatus is 400 for client-attributable failures and 500 otherwise.
func (k Kind) HTTPStatus() int {
	switch k {
	case MissingCode, ProviderRejected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified login failure. Message is safe to show to clients for the
// kinds that expose it (see Public); Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error without an underlying cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Public returns the message a client may see for err. Provider credentials and
// store details never leave the process.
func Public(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return InternalMessage
	}
	switch e.Kind {
	case MissingCode, ProviderRejected, ConfigurationMissing:
		return e.Message
	default:
		return InternalMessage
	}
}
