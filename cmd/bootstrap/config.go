package bootstrap

import (
	"schedcore/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.WebhookConfig { return cfg.Webhook },
		func(cfg config.Config) config.GoogleConfig { return cfg.Google },
	),
)
