package observability

import (
	"go.uber.org/fx"

	"github.com/ventrahq/ventra/internal/config"
	"github.com/ventrahq/ventra/internal/observability/logger"
	"github.com/ventrahq/ventra/internal/observability/metrics"
	"github.com/ventrahq/ventra/internal/observability/tracing"
)

var Module = fx.Module("observability",
	fx.Provide(
		func(cfg config.Config) logger.Config {
			return logger.Config{
				ServiceName:   cfg.AppName,
				Environment:   cfg.Environment,
				Version:       cfg.AppVersion,
				Level:         cfg.LogLevel,
				Format:        cfg.LogFormat,
				IncludeCaller: !cfg.IsProduction(),
			}
		},
		logger.New,
		metrics.New,
		func(cfg config.Config) tracing.Config {
			return tracing.Config{
				Enabled:     cfg.OtelEnabled,
				Endpoint:    cfg.OTLPEndpoint,
				Insecure:    !cfg.IsProduction(),
				ServiceName: cfg.AppName,
				Environment: cfg.Environment,
				Version:     cfg.AppVersion,
			}
		},
		tracing.NewProvider,
	),
)
