// Package config holds the runtime configuration for the afecciones service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type InvalidationCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	GroupID string
}

// Bounds is the sanity box for accepted ETRS89 / UTM 30 coordinates.
// The thresholds are a coarse guard against obviously wrong input, not
// the true boundary of the supported zone.
type Bounds struct {
	MinX float64 `yaml:"min_x"`
	MaxX float64 `yaml:"max_x"`
	MinY float64 `yaml:"min_y"`
	MaxY float64 `yaml:"max_y"`
}

type Config struct {
	Addr     string
	LogLevel string

	// GeoServerURL is the base of the CARM geoserver hosting the WFS layers.
	GeoServerURL string
	// CatastroURL is the static host serving the per-municipality
	// cadastral shapefile sets.
	CatastroURL string

	Bounds Bounds

	CacheBackend   string // "memory" or "redis"
	RedisAddr      string
	CacheTTL       time.Duration
	CacheSize      int
	CacheOpTimeout time.Duration

	FetchTimeout    time.Duration
	FetchRetries    int
	FetchBackoff    time.Duration
	CatastroTimeout time.Duration

	// QueryWorkers bounds the fan-out across catalog layers. 1 keeps the
	// original strictly sequential behavior.
	QueryWorkers int

	PrefilterEnabled bool
	PrefilterRes     int

	Invalidation InvalidationCfg

	// EndpointOverrides maps a catalog layer id to a replacement WFS URL.
	EndpointOverrides map[string]string
}

func FromEnv() Config {
	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		GeoServerURL: getenv("GEOSERVER_URL", "https://mapas-gis-inter.carm.es/geoserver"),
		CatastroURL:  getenv("CATASTRO_URL", "https://raw.githubusercontent.com/iberiaforestal/AFECCIONES_CARM/main/CATASTRO/"),

		Bounds: Bounds{
			MinX: getfloat("BOUNDS_MIN_X", 500000),
			MaxX: getfloat("BOUNDS_MAX_X", 800000),
			MinY: getfloat("BOUNDS_MIN_Y", 4000000),
			MaxY: getfloat("BOUNDS_MAX_Y", 4800000),
		},

		CacheBackend:   getenv("CACHE_BACKEND", "memory"),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:       getduration("CACHE_TTL", 7*24*time.Hour),
		CacheSize:      getint("CACHE_SIZE", 128),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),

		FetchTimeout:    getduration("FETCH_TIMEOUT", 30*time.Second),
		FetchRetries:    getint("FETCH_RETRIES", 3),
		FetchBackoff:    getduration("FETCH_BACKOFF", 2*time.Second),
		CatastroTimeout: getduration("CATASTRO_TIMEOUT", 100*time.Second),

		QueryWorkers: getint("QUERY_WORKERS", 4),

		PrefilterEnabled: getbool("PREFILTER_ENABLED", true),
		PrefilterRes:     getint("PREFILTER_RES", 5),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "capa-refresh"),
			GroupID: getenv("KAFKA_GROUP_ID", "afecciones-invalidator"),
		},
	}
}

// fileConfig is the YAML overlay. Only set fields override the env config.
type fileConfig struct {
	Addr         string            `yaml:"addr"`
	LogLevel     string            `yaml:"log_level"`
	GeoServerURL string            `yaml:"geoserver_url"`
	CatastroURL  string            `yaml:"catastro_url"`
	Bounds       *Bounds           `yaml:"bounds"`
	CacheBackend string            `yaml:"cache_backend"`
	RedisAddr    string            `yaml:"redis_addr"`
	CacheTTL     string            `yaml:"cache_ttl"`
	QueryWorkers *int              `yaml:"query_workers"`
	Endpoints    map[string]string `yaml:"endpoints"`
}

// ApplyFile overlays a YAML config file on top of cfg.
func ApplyFile(cfg Config, path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.GeoServerURL != "" {
		cfg.GeoServerURL = fc.GeoServerURL
	}
	if fc.CatastroURL != "" {
		cfg.CatastroURL = fc.CatastroURL
	}
	if fc.Bounds != nil {
		cfg.Bounds = *fc.Bounds
	}
	if fc.CacheBackend != "" {
		cfg.CacheBackend = fc.CacheBackend
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.CacheTTL != "" {
		d, err := time.ParseDuration(fc.CacheTTL)
		if err != nil {
			return cfg, fmt.Errorf("parse config %s: cache_ttl: %w", path, err)
		}
		cfg.CacheTTL = d
	}
	if fc.QueryWorkers != nil {
		cfg.QueryWorkers = *fc.QueryWorkers
	}
	if len(fc.Endpoints) > 0 {
		if cfg.EndpointOverrides == nil {
			cfg.EndpointOverrides = map[string]string{}
		}
		for k, v := range fc.Endpoints {
			cfg.EndpointOverrides[k] = v
		}
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
