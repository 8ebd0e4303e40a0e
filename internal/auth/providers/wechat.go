package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/constants"
	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/logger"
	"github.com/brizzai/miniauth/internal/requester"
	"go.uber.org/zap"
)

// WeChatProvider exchanges mini-program login codes through jscode2session.
type WeChatProvider struct {
	appID     string
	appSecret string
	baseURL   string
	requester *requester.HTTPRequester
}

type code2SessionResponse struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	UnionID    string `json:"unionid"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

func NewWeChatProvider(cfg *config.ProviderConfig, r *requester.HTTPRequester) *WeChatProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = constants.WeChatBaseURL
	}
	return &WeChatProvider{
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		requester: r,
	}
}

func (p *WeChatProvider) Name() string { return string(config.ProviderWeChat) }

func (p *WeChatProvider) ExchangeCode(ctx context.Context, code string) (*models.ExternalIdentity, error) {
	resp, err := p.requester.Do(ctx, &requester.Request{
		URL: p.baseURL + constants.WeChatCode2SessionURI,
		Query: url.Values{
			"appid":      {p.appID},
			"secret":     {p.appSecret},
			"js_code":    {code},
			"grant_type": {constants.GrantType},
		},
	})
	if err != nil {
		return nil, autherr.Wrap(autherr.ProviderUnreachable, err, "wechat code exchange failed")
	}
	if !resp.IsSuccess() {
		return nil, statusError("wechat", resp.StatusCode)
	}

	var body code2SessionResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, autherr.Wrap(autherr.MalformedProviderResponse, err, "wechat response is not valid JSON")
	}

	// errcode must be checked before any identity field is trusted
	if body.ErrCode != 0 {
		logger.Warn("wechat rejected login code",
			zap.Int("errcode", body.ErrCode),
			zap.String("errmsg", body.ErrMsg),
		)
		return nil, autherr.New(autherr.ProviderRejected, "微信登录失败: %s", body.ErrMsg)
	}
	if body.OpenID == "" {
		return nil, autherr.New(autherr.MalformedProviderResponse, "wechat response is missing openid")
	}

	return &models.ExternalIdentity{
		SubjectID:  body.OpenID,
		UnionID:    body.UnionID,
		SessionKey: body.SessionKey,
	}, nil
}
