package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	got    models.LoginRequest
	result *models.LoginResult
	err    error
}

func (s *stubService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	s.got = req
	return s.result, s.err
}

func TestExtractLoginRequest(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     string
		wantCode string
		wantNick string
	}{
		{
			name:     "json body",
			target:   "/api/auth/login",
			body:     `{"code":"body-code","nickName":"小明"}`,
			wantCode: "body-code",
			wantNick: "小明",
		},
		{
			name:     "body wins over query",
			target:   "/api/auth/login?code=query-code",
			body:     `{"code":"body-code"}`,
			wantCode: "body-code",
		},
		{
			name:     "query when body has no code",
			target:   "/api/auth/login?code=query-code",
			body:     `{"nickName":"小明"}`,
			wantCode: "query-code",
			wantNick: "小明",
		},
		{
			name:     "query when body is empty",
			target:   "/api/auth/login?code=query-code",
			wantCode: "query-code",
		},
		{
			name:     "query when body is not json",
			target:   "/api/auth/login?code=query-code",
			body:     `code=form-code`,
			wantCode: "query-code",
		},
		{
			name:   "no code anywhere",
			target: "/api/auth/login",
			body:   `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			req := extractLoginRequest(r)

			assert.Equal(t, tt.wantCode, req.Code)
			if tt.wantNick == "" {
				assert.Nil(t, req.NickName)
			} else {
				require.NotNil(t, req.NickName)
				assert.Equal(t, tt.wantNick, *req.NickName)
			}
		})
	}
}

func TestHandleLogin_Success(t *testing.T) {
	nick := "小明"
	svc := &stubService{result: &models.LoginResult{
		Token:    "jwt",
		UserID:   12,
		UserInfo: models.UserInfo{ID: 12, NickName: &nick},
	}}

	w := httptest.NewRecorder()
	NewHandler(svc).HandleLogin(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"code":"abc"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.got.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{
		"ok": true,
		"data": {
			"token": "jwt",
			"userId": 12,
			"userInfo": {"id": 12, "nickName": "小明", "avatarUrl": null}
		},
		"message": "登录成功"
	}`, w.Body.String())
}

func TestHandleLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing code", autherr.New(autherr.MissingCode, "code不能为空"), http.StatusBadRequest, "code不能为空"},
		{"provider rejected", autherr.New(autherr.ProviderRejected, "微信登录失败: invalid code"), http.StatusBadRequest, "微信登录失败: invalid code"},
		{"configuration", autherr.New(autherr.ConfigurationMissing, "服务端未配置token.secret"), http.StatusInternalServerError, "服务端未配置token.secret"},
		{"unreachable", autherr.Wrap(autherr.ProviderUnreachable, errors.New("dial tcp: i/o timeout"), "exchange failed"), http.StatusInternalServerError, autherr.InternalMessage},
		{"store", autherr.Wrap(autherr.StorePersistenceError, errors.New("database is locked"), "failed"), http.StatusInternalServerError, autherr.InternalMessage},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, autherr.InternalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHandler(&stubService{err: tt.err}).HandleLogin(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.NotContains(t, body, "data")
		})
	}
}
