package config

import "go.uber.org/fx"

// Module supplies cfg and its sections to the application graph
func Module(cfg *Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
		fx.Provide(
			func(c *Config) *ServerConfig { return &c.Server },
			func(c *Config) *LoggingConfig { return &c.Logging },
			func(c *Config) *ProviderConfig { return &c.Provider },
			func(c *Config) *TokenConfig { return &c.Token },
			func(c *Config) *StoreConfig { return &c.Store },
		),
	)
}
