package store

import (
	"context"
	"fmt"

	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg *config.StoreConfig) (UserStore, error) {
	switch cfg.Driver {
	case config.StoreDriverSQLite, "":
		return OpenSQLite(ctx, cfg.SQLite.Path)
	case config.StoreDriverRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case config.StoreDriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidStoreDriver, cfg.Driver)
	}
}

type params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.StoreConfig
}

func provide(p params) (UserStore, error) {
	s, err := New(context.Background(), p.Config)
	if err != nil {
		return nil, err
	}
	logger.Info("User store opened", zap.String("driver", string(p.Config.Driver)))

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}

// Module provides the configured UserStore and closes it on shutdown
var Module = fx.Module("store",
	fx.Provide(provide),
)
