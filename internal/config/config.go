package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

const (
	DirName         = "hackcli"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
	CacheFileName   = "data_cache.json"
)

var (
	ErrMissingGeocodeKey = errors.New("geocode api key is not set (GOOGLE_API_MAPS_KEY)")
	ErrUnknownBackend    = errors.New("unknown cache backend")
)

// Config contains everything the pipeline and its outer surfaces read.
type Config struct {
	Listings       ListingsConfig `json:"listings" yaml:"listings"`
	Geocode        GeocodeConfig  `json:"geocode" yaml:"geocode"`
	Filters        FilterConfig   `json:"filters" yaml:"filters"`
	Cache          CacheConfig    `json:"cache" yaml:"cache"`
	Server         ServerConfig   `json:"server" yaml:"server"`
	TimeoutSeconds int            `json:"timeout_seconds" yaml:"timeout_seconds"`
}

type ListingsConfig struct {
	BaseURL   string   `json:"base_url" yaml:"base_url"`
	OrderBy   string   `json:"order_by" yaml:"order_by"`
	Statuses  []string `json:"statuses" yaml:"statuses"`
	FirstPage int      `json:"first_page" yaml:"first_page"`
	LastPage  int      `json:"last_page" yaml:"last_page"`
}

type GeocodeConfig struct {
	URL      string `json:"url" yaml:"url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	Division string `json:"division" yaml:"division"`
	Country  string `json:"country" yaml:"country"`
}

type FilterConfig struct {
	// Currencies maps a prize symbol token to its currency code.
	Currencies        map[string]string `json:"currencies" yaml:"currencies"`
	PrizeSeparator    string            `json:"prize_separator" yaml:"prize_separator"`
	OnlineKeyword     string            `json:"online_keyword" yaml:"online_keyword"`
	RegionOnlyPhrases []string          `json:"region_only_phrases" yaml:"region_only_phrases"`
	ExcludedAudiences []string          `json:"excluded_audiences" yaml:"excluded_audiences"`
}

type CacheConfig struct {
	Backend       string `json:"backend" yaml:"backend"`
	Path          string `json:"path" yaml:"path"`
	RedisURL      string `json:"redis_url" yaml:"redis_url"`
	KeyPrefix     string `json:"key_prefix" yaml:"key_prefix"`
	SQLitePath    string `json:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN   string `json:"postgres_dsn" yaml:"postgres_dsn"`
	PostgresTable string `json:"postgres_table" yaml:"postgres_table"`
	ViaBouncer    bool   `json:"via_bouncer" yaml:"via_bouncer"`
	TTLSeconds    int    `json:"ttl_seconds" yaml:"ttl_seconds"`
}

type ServerConfig struct {
	Addr        string `json:"addr" yaml:"addr"`
	AccessToken string `json:"access_token" yaml:"access_token"`
	TokenHeader string `json:"token_header" yaml:"token_header"`
}

func DefaultConfig() Config {
	return Config{
		Listings: ListingsConfig{
			BaseURL:   envString("HACKCLI_LISTINGS_URL", "https://devpost.com/api/hackathons"),
			OrderBy:   "recently-added",
			Statuses:  []string{"upcoming", "open"},
			FirstPage: 1,
			LastPage:  envInt("HACKCLI_LAST_PAGE", 1),
		},
		Geocode: GeocodeConfig{
			URL:      "https://maps.googleapis.com/maps/api/geocode/json",
			APIKey:   envString("HACKCLI_GEOCODE_KEY", envString("GOOGLE_API_MAPS_KEY", "")),
			Division: envString("HACKCLI_TARGET_DIVISION", "British Columbia"),
			Country:  envString("HACKCLI_TARGET_COUNTRY", "CA"),
		},
		Filters: FilterConfig{
			Currencies:        map[string]string{"$": "USD", "CAD": "CAD"},
			OnlineKeyword:     "online",
			RegionOnlyPhrases: []string{"us only"},
			ExcludedAudiences: []string{"ages 13 to 18 only"},
		},
		Cache: CacheConfig{
			Backend:       envString("HACKCLI_CACHE_BACKEND", "file"),
			Path:          envString("HACKCLI_CACHE_PATH", ""),
			RedisURL:      envString("HACKCLI_REDIS_URL", envString("UPSTASH_REDIS_URL", "")),
			KeyPrefix:     "cache:",
			SQLitePath:    envString("HACKCLI_SQLITE_PATH", ""),
			PostgresDSN:   envString("HACKCLI_PG_DSN", ""),
			PostgresTable: "hackcli_cache",
			TTLSeconds:    envInt("HACKCLI_CACHE_TTL", 604800),
		},
		Server: ServerConfig{
			Addr:        ":" + envString("PORT", "8080"),
			AccessToken: envString("HACKCLI_ACCESS_TOKEN", ""),
			TokenHeader: "X-Access-Token",
		},
		TimeoutSeconds: envInt("HACKCLI_TIMEOUT", 30),
	}
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

// ConfigPath returns HACKCLI_CONFIG when set, otherwise the first existing
// config.json / config.yaml / config.yml in the config dir (config.json if none).
func ConfigPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv("HACKCLI_CONFIG")); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{ConfigFileName, "config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

// LoadFile overlays the file at path on the defaults. A missing or empty file
// yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	// a currency table in the file replaces the defaults rather than extending them
	defaultCurrencies := cfg.Filters.Currencies
	cfg.Filters.Currencies = nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json5.Unmarshal(data, &cfg)
	}
	if len(cfg.Filters.Currencies) == 0 {
		cfg.Filters.Currencies = defaultCurrencies
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports configuration that makes serving impossible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Geocode.APIKey) == "" {
		return ErrMissingGeocodeKey
	}
	if strings.TrimSpace(c.Listings.BaseURL) == "" {
		return fmt.Errorf("listings base_url is required")
	}
	if c.Listings.LastPage > 0 && c.Listings.LastPage < c.Listings.FirstPage {
		return fmt.Errorf("listings last_page %d is before first_page %d", c.Listings.LastPage, c.Listings.FirstPage)
	}
	if len(c.Filters.Currencies) == 0 {
		return fmt.Errorf("filters.currencies must name at least one currency")
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", "file", "sqlite":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisURL) == "" {
			return fmt.Errorf("cache backend redis requires redis_url (UPSTASH_REDIS_URL)")
		}
	case "postgres":
		if strings.TrimSpace(c.Cache.PostgresDSN) == "" {
			return fmt.Errorf("cache backend postgres requires postgres_dsn")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Cache.Backend)
	}
	return nil
}

// Init writes default config.json and proxies.txt if they don't already exist.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		// never write secrets picked up from the environment
		cfg.Geocode.APIKey = ""
		cfg.Server.AccessToken = ""
		cfg.Cache.RedisURL = ""
		cfg.Cache.PostgresDSN = ""
		if err := writeConfig(configPath, cfg); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte(""), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func LoadProxies(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("HACKCLI_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
