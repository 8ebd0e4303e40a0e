package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("miniauth version %s, commit %s, built at %s", version, commit, date)
}

// ErrInvalidStoreDriver indicates an unsupported user store driver was configured
var ErrInvalidStoreDriver = errors.New("unsupported store driver")

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Token    TokenConfig    `mapstructure:"token" yaml:"token"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	Host            string        `mapstructure:"host" yaml:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowOrigins    []string      `mapstructure:"allow_origins" yaml:"allow_origins"`
	Metrics         bool          `mapstructure:"metrics" yaml:"metrics"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" yaml:"level"`
	Format            string `mapstructure:"format" yaml:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace" yaml:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path" yaml:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file" yaml:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console" yaml:"disable_console"`
}

// ProviderName identifies the upstream identity provider
type ProviderName string

const (
	ProviderWeChat ProviderName = "wechat"
	ProviderGitHub ProviderName = "github"
	ProviderGoogle ProviderName = "google"
)

type ProviderConfig struct {
	Name        ProviderName  `mapstructure:"name" yaml:"name"`
	AppID       string        `mapstructure:"app_id" yaml:"app_id"`
	AppSecret   string        `mapstructure:"app_secret" yaml:"app_secret"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`         // overrides the provider's API host
	RedirectURL string        `mapstructure:"redirect_url" yaml:"redirect_url"` // github, google only
	Scopes      []string      `mapstructure:"scopes" yaml:"scopes"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type TokenConfig struct {
	Secret string `mapstructure:"secret" yaml:"secret"`
	// ExpiresIn is either a number of seconds or a duration expression such as "7d" or "12h".
	ExpiresIn string `mapstructure:"expires_in" yaml:"expires_in"`
}

// StoreDriver selects the user store backend
type StoreDriver string

const (
	StoreDriverSQLite StoreDriver = "sqlite"
	StoreDriverRedis  StoreDriver = "redis"
	StoreDriverMemory StoreDriver = "memory"
)

type StoreConfig struct {
	Driver  StoreDriver   `mapstructure:"driver" yaml:"driver"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SQLite  SQLiteConfig  `mapstructure:"sqlite" yaml:"sqlite"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Password  string `mapstructure:"password" yaml:"password"`
	DB        int    `mapstructure:"db" yaml:"db"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// envAliases binds the variable names used by earlier deployments of the login service.
var envAliases = map[string][]string{
	"provider.app_id":     {"MINIAUTH_PROVIDER_APP_ID", "WECHAT_APP_ID"},
	"provider.app_secret": {"MINIAUTH_PROVIDER_APP_SECRET", "WECHAT_APP_SECRET"},
	"token.secret":        {"MINIAUTH_TOKEN_SECRET", "JWT_SECRET"},
	"token.expires_in":    {"MINIAUTH_TOKEN_EXPIRES_IN", "JWT_EXPIRES_IN"},
}

// InitFlags registers the command line flags understood by Load
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file")
	fs.String("host", "", "Address to listen on")
	fs.Int("port", 0, "Port to listen on")
	fs.String("log-level", "", "Log level (debug|info|warn|error)")
	fs.String("store-driver", "", "User store driver (sqlite|redis|memory)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.metrics", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("provider.name", string(ProviderWeChat))
	v.SetDefault("provider.timeout", "10s")
	v.SetDefault("token.expires_in", "")
	v.SetDefault("store.driver", string(StoreDriverSQLite))
	v.SetDefault("store.timeout", "5s")
	v.SetDefault("store.sqlite.path", "miniauth.db")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.key_prefix", "miniauth:")
}

// Load reads configuration from an optional YAML file, the environment and the given flags.
// Missing credentials are not an error here; they are reported by the login flow so that
// the server can still answer with a configuration error instead of refusing to start.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MINIAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	configFile := ""
	if flags != nil {
		for key, flag := range map[string]string{
			"server.host":   "host",
			"server.port":   "port",
			"logging.level": "log-level",
			"store.driver":  "store-driver",
		} {
			if f := flags.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
		configFile, _ = flags.GetString("config")
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/miniauth")
		if err := v.ReadInConfig(); err != nil {
			// It's OK if no config file exists, only error if it's another problem
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	switch config.Store.Driver {
	case StoreDriverSQLite, StoreDriverRedis, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidStoreDriver, config.Store.Driver)
	}

	return &config, nil
}

// Redacted returns a copy of the config with secret values masked, suitable for printing.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Provider.AppSecret = mask(c.Provider.AppSecret)
	c.Token.Secret = mask(c.Token.Secret)
	c.Store.Redis.Password = mask(c.Store.Redis.Password)
	c.Server.AllowOrigins = append([]string(nil), c.Server.AllowOrigins...)
	c.Provider.Scopes = append([]string(nil), c.Provider.Scopes...)
	return c
}
