package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jimezsa/hackcli/internal/config"
	"github.com/jimezsa/hackcli/internal/metrics"
	"github.com/rs/zerolog"
)

const sqliteFileName = "cache.db"

// Open builds the Store selected by cfg.Backend. Relative default paths are
// placed under dir.
func Open(ctx context.Context, cfg config.CacheConfig, dir string, logger zerolog.Logger, m *metrics.Metrics) (*Store, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	logger = logger.With().Str("backend", backendName(backend)).Logger()

	switch backend {
	case "", "file":
		path := cfg.Path
		if strings.TrimSpace(path) == "" {
			path = filepath.Join(dir, config.CacheFileName)
		}
		kv := NewFile(path, ttl)
		logger.Debug().Str("path", kv.Path()).Msg("opening cache")
		return NewStore(kv, "", ttl, logger, m), nil
	case "redis":
		kv, err := NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return NewStore(kv, cfg.KeyPrefix, ttl, logger, m), nil
	case "sqlite":
		path := cfg.SQLitePath
		if strings.TrimSpace(path) == "" {
			path = filepath.Join(dir, sqliteFileName)
		}
		logger.Debug().Str("path", path).Msg("opening cache")
		kv, err := NewSQLite(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("sqlite cache: %w", err)
		}
		return NewStore(kv, cfg.KeyPrefix, ttl, logger, m), nil
	case "postgres":
		kv, err := NewPostgres(ctx, PostgresOptions{
			DSN:        cfg.PostgresDSN,
			Table:      cfg.PostgresTable,
			ViaBouncer: cfg.ViaBouncer,
		})
		if err != nil {
			return nil, err
		}
		return NewStore(kv, cfg.KeyPrefix, ttl, logger, m), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownBackend, cfg.Backend)
	}
}

func backendName(backend string) string {
	if backend == "" {
		return "file"
	}
	return backend
}
