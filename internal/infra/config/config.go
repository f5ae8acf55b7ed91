package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/airboard/internal/domain/airquality"
	"github.com/yanqian/airboard/internal/domain/dashboard"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Poller    PollerConfig    `yaml:"poller"`
	Store     StoreConfig     `yaml:"store"`
	Stream    StreamConfig    `yaml:"stream"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// UpstreamConfig points at the two data sources.
type UpstreamConfig struct {
	AirQualityBaseURL string        `yaml:"airQualityBaseUrl"`
	DeviceBaseURL     string        `yaml:"deviceBaseUrl"`
	Timeout           time.Duration `yaml:"timeout"`
}

// PollerConfig controls the background refresh loops.
type PollerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// StoreConfig selects where published state lives.
type StoreConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	Timeout time.Duration `yaml:"timeout"`
	Valkey  ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the shared state store.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// StreamConfig bounds the websocket push interval.
type StreamConfig struct {
	DefaultInterval time.Duration `yaml:"defaultInterval"`
	MinInterval     time.Duration `yaml:"minInterval"`
	MaxInterval     time.Duration `yaml:"maxInterval"`
}

// DashboardConfig holds presentation settings.
type DashboardConfig struct {
	Title     string `yaml:"title"`
	MapCenter string `yaml:"mapCenter"`
	MapZoom   int    `yaml:"mapZoom"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("AIR_QUALITY_API_URL"); v != "" {
		cfg.Upstream.AirQualityBaseURL = v
	}
	if v := os.Getenv("DEVICE_API_URL"); v != "" {
		cfg.Upstream.DeviceBaseURL = v
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.Timeout = parsed
		}
	}
	if v := os.Getenv("POLLER_ENABLED"); v != "" {
		cfg.Poller.Enabled = parseBool(v)
	}
	if v := os.Getenv("STORE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Store.TTL = parsed
		}
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Store.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Store.Valkey.Addr = v
	}
	if v := os.Getenv("VALKEY_PREFIX"); v != "" {
		cfg.Store.Valkey.Prefix = v
	}
	if v := os.Getenv("DASHBOARD_TITLE"); v != "" {
		cfg.Dashboard.Title = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             40,
			},
		},
		Upstream: UpstreamConfig{
			AirQualityBaseURL: "https://iqairbackend.thedrop.top",
			DeviceBaseURL:     "https://api.vtbg.com",
			Timeout:           10 * time.Second,
		},
		Poller: PollerConfig{
			Enabled: true,
		},
		Store: StoreConfig{
			TTL:     5 * time.Minute,
			Timeout: 2 * time.Second,
			Valkey: ValkeyConfig{
				Prefix: "airboard",
			},
		},
		Stream: StreamConfig{
			DefaultInterval: 10 * time.Second,
			MinInterval:     time.Second,
			MaxInterval:     time.Minute,
		},
		Dashboard: DashboardConfig{
			Title:     "Air Quality",
			MapCenter: "43.067,25.620",
			MapZoom:   13,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Upstream.AirQualityBaseURL) == "" {
		return errors.New("upstream.airQualityBaseUrl cannot be empty")
	}
	if strings.TrimSpace(c.Upstream.DeviceBaseURL) == "" {
		return errors.New("upstream.deviceBaseUrl cannot be empty")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream.timeout must be positive")
	}
	// A stored state must outlive one refresh cycle or the view drops back to loading.
	if cycle := dashboard.RefreshInterval + c.Upstream.Timeout; c.Store.TTL != 0 && c.Store.TTL <= cycle {
		return fmt.Errorf("store.ttl must be 0 or longer than one refresh cycle (%s)", cycle)
	}
	if c.Store.Valkey.Enabled && strings.TrimSpace(c.Store.Valkey.Addr) == "" {
		return errors.New("store.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Stream.MinInterval <= 0 || c.Stream.MaxInterval < c.Stream.MinInterval {
		return errors.New("stream.minInterval must be positive and not above stream.maxInterval")
	}
	if c.Stream.DefaultInterval < c.Stream.MinInterval || c.Stream.DefaultInterval > c.Stream.MaxInterval {
		return errors.New("stream.defaultInterval must lie within the min/max bounds")
	}
	if _, err := airquality.ParseLocation(c.Dashboard.MapCenter); err != nil {
		return fmt.Errorf("dashboard.mapCenter: %w", err)
	}
	if c.Dashboard.MapZoom < 1 || c.Dashboard.MapZoom > 19 {
		return errors.New("dashboard.mapZoom must be between 1 and 19")
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
