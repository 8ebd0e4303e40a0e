package autherr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{MissingCode, http.StatusBadRequest},
		{ProviderRejected, http.StatusBadRequest},
		{ConfigurationMissing, http.StatusInternalServerError},
		{ProviderUnreachable, http.StatusInternalServerError},
		{MalformedProviderResponse, http.StatusInternalServerError},
		{StorePersistenceError, http.StatusInternalServerError},
		{SigningFailure, http.StatusInternalServerError},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.HTTPStatus())
		})
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ProviderUnreachable, cause, "exchange failed")

	assert.Equal(t, ProviderUnreachable, KindOf(err))
	assert.Equal(t, ProviderUnreachable, KindOf(fmt.Errorf("outer: %w", err)))
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, ProviderUnreachable))
	assert.False(t, Is(err, ProviderRejected))
	assert.False(t, Is(nil, Internal))
	assert.Equal(t, Internal, KindOf(cause))
	assert.NoError(t, Wrap(StorePersistenceError, nil, "nothing"))
}

func TestPublic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing code", New(MissingCode, "code不能为空"), "code不能为空"},
		{"rejected", New(ProviderRejected, "微信登录失败: %s", "invalid code"), "微信登录失败: invalid code"},
		{"configuration", New(ConfigurationMissing, "服务端未配置token.secret"), "服务端未配置token.secret"},
		{"store details hidden", Wrap(StorePersistenceError, errors.New("disk I/O error"), "failed to create user"), InternalMessage},
		{"unclassified", errors.New("boom"), InternalMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Public(tt.err))
		})
	}
}
