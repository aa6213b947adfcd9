package cache

import (
	"fmt"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"

	"github.com/go-redis/redis/v8"
)

// Factory opens named cache stores using the backend selected in
// configuration. Each open returns an isolated store that callers own for
// the duration of a run.
type Factory struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	cfg     *config.Config
	client  *redis.Client
}

// NewFactory creates a cache factory for the configured backend. The redis
// client is created lazily so the file backend needs no redis at all.
func NewFactory(log *logger.Logger, m *metrics.Metrics, cfg *config.Config) *Factory {
	return &Factory{logger: log, metrics: m, cfg: cfg}
}

// Open opens the named cache. isMap selects a bidirectional store.
func (f *Factory) Open(name string, isMap bool) (Store, error) {
	switch f.cfg.Cache.Backend {
	case "redis":
		return NewRedisStore(f.logger, f.metrics, f.redisClient(), name, isMap)
	default:
		return NewFileStore(f.logger, f.metrics, f.cfg.Cache.Dir, name, isMap)
	}
}

func (f *Factory) redisClient() *redis.Client {
	if f.client == nil {
		rc := f.cfg.Cache.Redis
		f.client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", rc.Host, rc.Port),
			Password: rc.Password,
			DB:       rc.DB,
		})
	}
	return f.client
}
