package providers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/constants"
	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/requester"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIBaseURL = "https://api.github.com"

// GitHubProvider exchanges OAuth codes with GitHub; the subject is the numeric account id.
type GitHubProvider struct {
	oauth2Config *oauth2.Config
	apiBaseURL   string
	requester    *requester.HTTPRequester
}

func NewGitHubProvider(cfg *config.ProviderConfig, r *requester.HTTPRequester) *GitHubProvider {
	endpoint := github.Endpoint
	apiBaseURL := githubAPIBaseURL
	if cfg.BaseURL != "" {
		// GitHub Enterprise layout: OAuth under the host root, REST API under /api/v3
		base := strings.TrimRight(cfg.BaseURL, "/")
		endpoint = oauth2.Endpoint{
			AuthURL:  base + "/login/oauth/authorize",
			TokenURL: base + "/login/oauth/access_token",
		}
		apiBaseURL = base + "/api/v3"
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = constants.GitHubScopes
	}

	return &GitHubProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		apiBaseURL: apiBaseURL,
		requester:  r,
	}
}

func (p *GitHubProvider) Name() string { return string(config.ProviderGitHub) }

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*models.ExternalIdentity, error) {
	token, err := p.oauth2Config.Exchange(withClient(ctx, p.requester), code)
	if err != nil {
		return nil, exchangeError("github", "GitHub", err)
	}

	resp, err := p.requester.Do(ctx, &requester.Request{
		URL: p.apiBaseURL + "/user",
		Headers: map[string]string{
			"Authorization": "Bearer " + token.AccessToken,
		},
	})
	if err != nil {
		return nil, autherr.Wrap(autherr.ProviderUnreachable, err, "github user lookup failed")
	}
	if !resp.IsSuccess() {
		return nil, statusError("github", resp.StatusCode)
	}

	var gh struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	}
	if err := json.Unmarshal(resp.Body, &gh); err != nil {
		return nil, autherr.Wrap(autherr.MalformedProviderResponse, err, "github user response is not valid JSON")
	}
	if gh.ID == 0 {
		return nil, autherr.New(autherr.MalformedProviderResponse, "github user response is missing id")
	}

	return &models.ExternalIdentity{
		SubjectID: strconv.FormatInt(gh.ID, 10),
	}, nil
}
