package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "sitesync.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SITESYNC_PORT")
	setString(&cfg.Server.CORSOrigin, "SITESYNC_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SITESYNC_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SITESYNC_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SITESYNC_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SITESYNC_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SITESYNC_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "SITESYNC_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SITESYNC_LOG_SERVICE")
	setInt64(&cfg.Cache.MaxSizeMB, "SITESYNC_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.CatalogTTL, "SITESYNC_CACHE_CATALOG_TTL")
	setInt(&cfg.Sync.WriteConcurrency, "SITESYNC_WRITE_CONCURRENCY")
	setDuration(&cfg.Sync.HTTPTimeout, "SITESYNC_HTTP_TIMEOUT")
	setDuration(&cfg.Sync.RefreshMargin, "SITESYNC_REFRESH_MARGIN")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Secrets.TokenKey, "SITESYNC_TOKEN_KEY")

	setString(&cfg.Providers.Procore.ClientID, "PROCORE_CLIENT_ID")
	setString(&cfg.Providers.Procore.ClientSecret, "PROCORE_CLIENT_SECRET")
	setString(&cfg.Providers.Procore.BaseURL, "PROCORE_BASE_URL")
	setString(&cfg.Providers.ACC.ClientID, "ACC_CLIENT_ID")
	setString(&cfg.Providers.ACC.ClientSecret, "ACC_CLIENT_SECRET")
	setString(&cfg.Providers.ACC.BaseURL, "ACC_BASE_URL")
	setString(&cfg.Providers.Fieldwire.ClientID, "FIELDWIRE_CLIENT_ID")
	setString(&cfg.Providers.Fieldwire.ClientSecret, "FIELDWIRE_CLIENT_SECRET")
	setString(&cfg.Providers.Fieldwire.BaseURL, "FIELDWIRE_BASE_URL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Sync.WriteConcurrency < 1 {
		return errors.New("sync.write_concurrency must be >= 1")
	}
	if cfg.Sync.RefreshMargin <= 0 {
		return errors.New("sync.refresh_margin must be positive")
	}
	if cfg.Secrets.TokenKey != "" {
		key, err := hex.DecodeString(cfg.Secrets.TokenKey)
		if err != nil || len(key) != 32 {
			return errors.New("secrets.token_key must be 32 bytes, hex-encoded")
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
