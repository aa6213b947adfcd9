package container

import (
	"go.uber.org/fx"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/cache"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/notify"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/stream"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/stream/apistream"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/sync"
)

// Module provides dependency injection configuration
var Module = fx.Options(
	// Configuration
	fx.Provide(config.LoadConfig),

	// Logging
	fx.Provide(logger.NewLogger),

	// Metrics
	fx.Provide(metrics.New),

	// Caching
	fx.Provide(cache.NewFactory),

	// Notifications
	fx.Provide(notify.NewNotifier),

	// Directory access
	fx.Provide(directory.NewLDAPConnector),
	fx.Provide(func(c *directory.LDAPConnector) directory.Connector {
		return c
	}),

	// Output streams
	fx.Provide(stream.NewRegistry),
	fx.Invoke(func(registry *stream.Registry, log *logger.Logger, m *metrics.Metrics, caches *cache.Factory) {
		apistream.Register(registry, log, m, caches)
		registry.Register("csv", func() stream.OutputStream { return stream.NewCSVStream(log) })
		registry.Register("logger", func() stream.OutputStream { return stream.NewLoggerStream(log) })
		registry.Register("sftp", func() stream.OutputStream { return stream.NewSFTPStream(log) })
	}),

	// Sync service
	fx.Provide(sync.NewService),
)
