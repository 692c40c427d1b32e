package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// configFileEnv names the env var holding an optional YAML config path.
const configFileEnv = "INCOMEWATCH_CONFIG"

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `koanf:"addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// APIKey authenticates against financialmodelingprep.com. May instead come
	// from AWS Secrets Manager when AWSSecretName is set.
	APIKey string `koanf:"api_key"`

	// UpstreamURL is the income-statement endpoint without the symbol.
	UpstreamURL     string        `koanf:"upstream_url"`
	UpstreamTimeout time.Duration `koanf:"upstream_timeout"`

	// FreshnessWindow is how long stored rows are served before a refresh.
	FreshnessWindow time.Duration `koanf:"freshness_window"`

	// DatabaseURL is either a postgres:// URL or a SQLite file path.
	DatabaseURL       string        `koanf:"database_url"`
	DBMaxOpenConns    int           `koanf:"db_max_open_conns"`
	DBMaxIdleConns    int           `koanf:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime"`

	// CORSOrigin is the only browser origin allowed to call the API.
	CORSOrigin string `koanf:"cors_origin"`

	// RedisAddr enables the upstream response cache when non-empty.
	RedisAddr string        `koanf:"redis_addr"`
	RedisTTL  time.Duration `koanf:"redis_ttl"`

	AWSRegion     string `koanf:"aws_region"`
	AWSSecretName string `koanf:"aws_secret_name"`
}

func newConfig() *Config {
	return &Config{
		Addr:              ":5000",
		LogLevel:          "info",
		UpstreamURL:       "https://financialmodelingprep.com/api/v3/income-statement",
		UpstreamTimeout:   10 * time.Second,
		FreshnessWindow:   24 * time.Hour,
		DatabaseURL:       "financial_data.db",
		DBMaxOpenConns:    10,
		DBMaxIdleConns:    5,
		DBConnMaxLifetime: 30 * time.Minute,
		CORSOrigin:        "https://jessica-ix.github.io/ValueGlance-fronend",
		RedisTTL:          time.Hour,
		AWSRegion:         "us-east-1",
	}
}

// loadConfig layers defaults, an optional YAML file and the environment, in
// that order of precedence (low -> high). Env names are the koanf keys in
// upper case: API_KEY, DATABASE_URL, CORS_ORIGIN, REDIS_ADDR, ...
func loadConfig() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(configFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *newConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.UpstreamURL == "" {
		return errors.New("upstream_url must not be empty")
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url must not be empty")
	}
	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("freshness_window must be positive, got %s", c.FreshnessWindow)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream_timeout must be positive, got %s", c.UpstreamTimeout)
	}
	if c.DBMaxOpenConns < 0 || c.DBMaxIdleConns < 0 {
		return errors.New("db connection limits must not be negative")
	}
	return nil
}
