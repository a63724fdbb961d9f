package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jimezsa/hackcli/internal/config"
	"github.com/jimezsa/hackcli/internal/models"
	"github.com/rs/zerolog"
)

// exerciseKV runs the behaviour every backend shares.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "hackathons"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := kv.Set(ctx, "hackathons", []byte(`{"https://a":{"url":"https://a"}}`), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.Set(ctx, "locations", []byte(`{"Vancouver":true}`), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.Set(ctx, "locations", []byte(`{"Vancouver":false}`), time.Hour); err != nil {
		t.Fatalf("Set(overwrite) error = %v", err)
	}

	got, ok, err := kv.Get(ctx, "hackathons")
	if err != nil || !ok {
		t.Fatalf("Get(hackathons) = ok %v, err %v", ok, err)
	}
	var partition map[string]models.Hackathon
	if err := json.Unmarshal(got, &partition); err != nil || partition["https://a"].URL != "https://a" {
		t.Fatalf("unexpected hackathons value %q (err %v)", got, err)
	}

	got, ok, err = kv.Get(ctx, "locations")
	if err != nil || !ok {
		t.Fatalf("Get(locations) = ok %v, err %v", ok, err)
	}
	var locations map[string]bool
	if err := json.Unmarshal(got, &locations); err != nil {
		t.Fatalf("unexpected locations value %q: %v", got, err)
	}
	if v, present := locations["Vancouver"]; !present || v {
		t.Fatalf("overwrite lost: %#v", locations)
	}
}

func TestFileKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data_cache.json")
	kv := NewFile(path, time.Hour)
	exerciseKV(t, kv)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		t.Fatalf("file is not one JSON object: %v", err)
	}
	if len(top) != 2 || top["hackathons"] == nil || top["locations"] == nil {
		t.Fatalf("unexpected top-level keys: %s", data)
	}
}

func TestFileKVExpires(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_cache.json")
	kv := NewFile(path, time.Hour)
	if err := kv.Set(context.Background(), "locations", []byte(`{"Vancouver":true}`), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if _, ok, err := kv.Get(context.Background(), "locations"); err != nil || ok {
		t.Fatalf("expired entry: ok %v, err %v", ok, err)
	}

	forever := NewFile(path, 0)
	if _, ok, err := forever.Get(context.Background(), "locations"); err != nil || !ok {
		t.Fatalf("ttl 0 should never expire: ok %v, err %v", ok, err)
	}
}

func TestFileKVCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_cache.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	kv := NewFile(path, time.Hour)

	if _, _, err := kv.Get(context.Background(), "hackathons"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Get() error = %v, want ErrCorrupt", err)
	}

	store := NewStore(kv, "", time.Hour, zerolog.Nop(), nil)
	doc, err := store.Load(context.Background())
	if err != nil || len(doc.Hackathons) != 0 {
		t.Fatalf("Load() over corrupt file = %+v, %v", doc, err)
	}

	doc.Locations["Vancouver"] = true
	if err := store.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save() over corrupt file error = %v", err)
	}
	reloaded, err := store.Load(context.Background())
	if err != nil || !reloaded.Locations["Vancouver"] {
		t.Fatalf("reload after repair = %+v, %v", reloaded, err)
	}
}

func TestFileKVRejectsNonJSON(t *testing.T) {
	kv := NewFile(filepath.Join(t.TempDir(), "c.json"), 0)
	if err := kv.Set(context.Background(), "k", []byte("{"), 0); err == nil {
		t.Fatalf("Set() error = nil, want invalid JSON error")
	}
}

func TestSQLiteKV(t *testing.T) {
	kv, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestSQLiteKVExpires(t *testing.T) {
	kv, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer kv.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	if err := kv.Set(ctx, "short", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.Set(ctx, "forever", []byte(`{}`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, err := kv.Get(ctx, "short"); err != nil || ok {
		t.Fatalf("expired entry: ok %v, err %v", ok, err)
	}
	if _, ok, err := kv.Get(ctx, "forever"); err != nil || !ok {
		t.Fatalf("no-ttl entry: ok %v, err %v", ok, err)
	}
}

func TestRedisKV(t *testing.T) {
	server := miniredis.RunT(t)
	kv, err := NewRedis("redis://" + server.Addr())
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	defer kv.Close()
	exerciseKV(t, kv)

	if ttl := server.TTL("locations"); ttl != time.Hour {
		t.Fatalf("TTL = %v, want 1h", ttl)
	}
	server.FastForward(2 * time.Hour)
	if _, ok, err := kv.Get(context.Background(), "locations"); err != nil || ok {
		t.Fatalf("expired entry: ok %v, err %v", ok, err)
	}
}

func TestRedisStoreKeys(t *testing.T) {
	server := miniredis.RunT(t)
	kv, err := NewRedis("redis://" + server.Addr())
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	store := NewStore(kv, "cache:", DefaultTTL, zerolog.Nop(), nil)
	defer store.Close()

	doc := models.NewCacheDocument()
	doc.Locations["Vancouver"] = true
	if err := store.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !server.Exists("cache:hackathons") || !server.Exists("cache:locations") {
		t.Fatalf("expected prefixed keys, got %v", server.Keys())
	}
	if ttl := server.TTL("cache:locations"); ttl != DefaultTTL {
		t.Fatalf("TTL = %v, want %v", ttl, DefaultTTL)
	}
}

func TestRedisUnreachable(t *testing.T) {
	server := miniredis.RunT(t)
	kv, err := NewRedis("redis://" + server.Addr())
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	server.Close()

	store := NewStore(kv, "cache:", DefaultTTL, zerolog.Nop(), nil)
	defer store.Close()
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("Load() error = nil, want unreachable error")
	}
}

func TestNewRedisBadURL(t *testing.T) {
	if _, err := NewRedis("http://nope"); err == nil {
		t.Fatalf("NewRedis() error = nil, want scheme error")
	}
}

func TestPostgresKV(t *testing.T) {
	dsn := os.Getenv("HACKCLI_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("HACKCLI_TEST_PG_DSN not set")
	}
	kv, err := NewPostgres(context.Background(), PostgresOptions{DSN: dsn, Table: "hackcli_cache_test"})
	if err != nil {
		t.Fatalf("NewPostgres() error = %v", err)
	}
	defer kv.Close()
	if _, err := kv.pool.Exec(context.Background(), "DELETE FROM "+kv.table); err != nil {
		t.Fatalf("truncate error = %v", err)
	}
	exerciseKV(t, kv)
}

func TestNewPostgresRejectsTableName(t *testing.T) {
	_, err := NewPostgres(context.Background(), PostgresOptions{DSN: "postgres://localhost/db", Table: "x; DROP TABLE y"})
	if err == nil {
		t.Fatalf("NewPostgres() error = nil, want invalid table error")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(ctx, config.CacheConfig{Backend: "file", TTLSeconds: 60}, dir, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("Open(file) error = %v", err)
	}
	if err := store.Save(ctx, models.NewCacheDocument()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, config.CacheFileName)); err != nil {
		t.Fatalf("expected default cache file: %v", err)
	}

	store, err = Open(ctx, config.CacheConfig{Backend: "sqlite"}, dir, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	store.Close()

	server := miniredis.RunT(t)
	store, err = Open(ctx, config.CacheConfig{Backend: "redis", RedisURL: "redis://" + server.Addr(), KeyPrefix: "cache:"}, dir, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("Open(redis) error = %v", err)
	}
	store.Close()

	if _, err := Open(ctx, config.CacheConfig{Backend: "memcached"}, dir, zerolog.Nop(), nil); !errors.Is(err, config.ErrUnknownBackend) {
		t.Fatalf("Open(memcached) error = %v, want ErrUnknownBackend", err)
	}
}
