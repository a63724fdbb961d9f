// Package cache persists the CacheDocument behind a small key/value interface.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jimezsa/hackcli/internal/metrics"
	"github.com/jimezsa/hackcli/internal/models"
	"github.com/rs/zerolog"
)

const (
	PartitionHackathons = "hackathons"
	PartitionLocations  = "locations"

	DefaultTTL = 7 * 24 * time.Hour
)

// ErrCorrupt is returned by a backend whose stored bytes cannot be read back.
var ErrCorrupt = errors.New("cache: corrupt entry")

// KV is the storage a Store needs. Get reports a missing or expired key as
// (nil, false, nil). A ttl of zero means no expiry.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Store loads and saves both partitions of the CacheDocument.
type Store struct {
	kv      KV
	prefix  string
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewStore(kv KV, prefix string, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Store {
	if ttl < 0 {
		ttl = 0
	}
	return &Store{kv: kv, prefix: prefix, ttl: ttl, logger: logger, metrics: m}
}

func (s *Store) key(partition string) string {
	return s.prefix + partition
}

// Load always returns a document with both partitions present. Missing or
// malformed partitions load as empty; only an unreachable backend is an error.
func (s *Store) Load(ctx context.Context) (*models.CacheDocument, error) {
	hackathons, err := s.readPartition(ctx, PartitionHackathons)
	if err != nil {
		s.metrics.Cache("load", err)
		return models.NewCacheDocument(), err
	}
	locations, err := s.readPartition(ctx, PartitionLocations)
	if err != nil {
		s.metrics.Cache("load", err)
		return models.NewCacheDocument(), err
	}

	doc := &models.CacheDocument{
		Hackathons: decodePartition[models.Hackathon](s.logger, s.key(PartitionHackathons), hackathons),
		Locations:  decodePartition[bool](s.logger, s.key(PartitionLocations), locations),
	}
	s.metrics.Cache("load", nil)
	s.logger.Debug().
		Int("hackathons", len(doc.Hackathons)).
		Int("locations", len(doc.Locations)).
		Msg("cache loaded")
	return doc, nil
}

// readPartition returns the raw partition, or nil when it is missing or the
// backend reports it corrupt.
func (s *Store) readPartition(ctx context.Context, partition string) ([]byte, error) {
	key := s.key(partition)
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			s.logger.Error().Err(err).Str("key", key).Msg("cache partition unreadable, starting empty")
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return data, nil
}

// decodePartition never returns a partially decoded map: any decode error
// yields an empty partition.
func decodePartition[V any](logger zerolog.Logger, key string, data []byte) map[string]V {
	if len(data) == 0 {
		return map[string]V{}
	}
	var out map[string]V
	if err := json.Unmarshal(data, &out); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("cache partition malformed, starting empty")
		return map[string]V{}
	}
	if out == nil {
		return map[string]V{}
	}
	return out
}

// Save writes both partitions with the store's TTL.
func (s *Store) Save(ctx context.Context, doc *models.CacheDocument) error {
	if doc == nil {
		doc = models.NewCacheDocument()
	}
	doc.Ensure()

	err := s.savePartition(ctx, PartitionHackathons, doc.Hackathons)
	if err == nil {
		err = s.savePartition(ctx, PartitionLocations, doc.Locations)
	}
	s.metrics.Cache("save", err)
	if err != nil {
		return err
	}
	s.logger.Debug().
		Int("hackathons", len(doc.Hackathons)).
		Int("locations", len(doc.Locations)).
		Msg("cache saved")
	return nil
}

func (s *Store) savePartition(ctx context.Context, partition string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	key := s.key(partition)
	if err := s.kv.Set(ctx, key, data, s.ttl); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Clear replaces both partitions with empty ones.
func (s *Store) Clear(ctx context.Context) error {
	return s.Save(ctx, models.NewCacheDocument())
}

func (s *Store) Close() error {
	return s.kv.Close()
}
