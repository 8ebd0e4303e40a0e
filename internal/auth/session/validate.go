package session

import (
	"strings"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/config"
)

// ValidateConfig checks that every credential the login flow needs is present.
// The error names the missing key, never a value.
func ValidateConfig(provider *config.ProviderConfig, token *config.TokenConfig) error {
	required := []struct {
		key   string
		value string
	}{
		{"provider.app_id", provider.AppID},
		{"provider.app_secret", provider.AppSecret},
		{"token.secret", token.Secret},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return autherr.New(autherr.ConfigurationMissing, "服务端未配置%s", r.key)
		}
	}
	return nil
}
