package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGitHub struct {
	tokenStatus int
	tokenBody   string
	userStatus  int
	userBody    string
}

func (f fakeGitHub) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "gh-code", r.PostForm.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
		}
		_, _ = w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/api/v3/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_token", r.Header.Get("Authorization"))
		if f.userStatus != 0 {
			w.WriteHeader(f.userStatus)
		}
		_, _ = w.Write([]byte(f.userBody))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGitHubProvider_ExchangeCode(t *testing.T) {
	const okToken = `{"access_token":"gho_token","token_type":"bearer","scope":"read:user"}`

	tests := []struct {
		name     string
		fake     fakeGitHub
		subject  string
		wantKind autherr.Kind
		public   string
	}{
		{
			name:    "success",
			fake:    fakeGitHub{tokenBody: okToken, userBody: `{"id":583231,"login":"octocat"}`},
			subject: "583231",
		},
		{
			name: "bad verification code",
			fake: fakeGitHub{
				tokenStatus: http.StatusBadRequest,
				tokenBody:   `{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`,
			},
			wantKind: autherr.ProviderRejected,
			public:   "GitHub登录失败: The code passed is incorrect or expired.",
		},
		{
			name:     "token endpoint down",
			fake:     fakeGitHub{tokenStatus: http.StatusServiceUnavailable, tokenBody: `{}`},
			wantKind: autherr.ProviderUnreachable,
		},
		{
			name:     "user lookup rejected",
			fake:     fakeGitHub{tokenBody: okToken, userStatus: http.StatusUnauthorized, userBody: `{"message":"Bad credentials"}`},
			wantKind: autherr.MalformedProviderResponse,
		},
		{
			name:     "user without id",
			fake:     fakeGitHub{tokenBody: okToken, userBody: `{"login":"ghost"}`},
			wantKind: autherr.MalformedProviderResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := tt.fake.serve(t)
			p := NewGitHubProvider(&config.ProviderConfig{
				AppID:     "gh-client",
				AppSecret: "gh-secret",
				BaseURL:   server.URL + "/",
			}, newRequester(time.Second))

			identity, err := p.ExchangeCode(context.Background(), "gh-code")
			if tt.subject == "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, autherr.KindOf(err))
				if tt.public != "" {
					assert.Equal(t, tt.public, autherr.Public(err))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.subject, identity.SubjectID)
		})
	}
}

func TestGitHubProvider_DefaultEndpoints(t *testing.T) {
	p := NewGitHubProvider(&config.ProviderConfig{AppID: "id"}, newRequester(time.Second))

	assert.Equal(t, "https://github.com/login/oauth/access_token", p.oauth2Config.Endpoint.TokenURL)
	assert.Equal(t, githubAPIBaseURL, p.apiBaseURL)
	assert.NotEmpty(t, p.oauth2Config.Scopes)
}
