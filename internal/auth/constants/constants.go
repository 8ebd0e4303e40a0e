package constants

import "time"

const (
	// DefaultPort is the default port for the login server
	DefaultPort = 3000

	// LoginPath is the route of the login endpoint
	LoginPath = "/api/auth/login"

	// MetricsPath exposes prometheus metrics
	MetricsPath = "/metrics"

	// CodeQueryParam is the query parameter carrying the authorization code
	CodeQueryParam = "code"

	// GrantType sent on every code exchange
	GrantType = "authorization_code"

	// DefaultTokenTTL applies when token.expires_in is unset or unparsable
	DefaultTokenTTL = 7 * 24 * time.Hour

	// MaxLoginBodyBytes caps the JSON body read from the client
	MaxLoginBodyBytes = 64 << 10
)

// WeChat mini-program endpoints
const (
	WeChatBaseURL         = "https://api.weixin.qq.com"
	WeChatCode2SessionURI = "/sns/jscode2session"
)

// Client-facing messages
const (
	LoginSucceededMessage = "登录成功"
	MissingCodeMessage    = "code不能为空"
)

// GitHub and Google OAuth scopes
var (
	GitHubScopes = []string{"read:user"}
	GoogleScopes = []string{"openid", "profile"}
)
