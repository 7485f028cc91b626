package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mvaleed/seedwork/internal/result"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "seedwork.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom is Load reading YAML from path. A missing file is not an error.
// Overrides, typically command-line flags, run after the environment and
// before validation.
func LoadFrom(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, path); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	for _, override := range overrides {
		override(&cfg)
	}

	if r := validate(&cfg); r.IsFailure() {
		return nil, fmt.Errorf("config validate: %w", r.Error())
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
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

// loadEnv overlays non-empty environment variables onto cfg.
func loadEnv(cfg *Config) {
	setString(&cfg.Environment, "ENVIRONMENT")

	setString(&cfg.Server.Addr, "SEEDWORK_HTTP_ADDR")
	setDuration(&cfg.Server.ReadTimeout, "SEEDWORK_HTTP_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "SEEDWORK_HTTP_WRITE_TIMEOUT")
	setDuration(&cfg.Server.IdleTimeout, "SEEDWORK_HTTP_IDLE_TIMEOUT")
	setDuration(&cfg.Server.RequestTimeout, "SEEDWORK_HTTP_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "SEEDWORK_SHUTDOWN_TIMEOUT")
	setString(&cfg.GRPC.Addr, "SEEDWORK_GRPC_ADDR")

	setString(&cfg.Storage.Driver, "SEEDWORK_STORAGE")
	setBool(&cfg.Storage.Migrate, "SEEDWORK_MIGRATE")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SEEDWORK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SEEDWORK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SEEDWORK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SEEDWORK_PG_MAX_CONN_IDLE_TIME")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "SEEDWORK_NATS_STREAM")
	setString(&cfg.NATS.Subject, "SEEDWORK_NATS_SUBJECT")

	setString(&cfg.JWT.Secret, "JWT_SECRET_KEY")
	setString(&cfg.JWT.Issuer, "SEEDWORK_JWT_ISSUER")
	setList(&cfg.JWT.Audience, "SEEDWORK_JWT_AUDIENCE")
	setDuration(&cfg.JWT.AccessTokenTTL, "ACCESS_TOKEN_TTL")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Logging.Service, "SEEDWORK_LOG_SERVICE")

	setInt(&cfg.Query.MaxLimit, "SEEDWORK_QUERY_MAX_LIMIT")
	setInt64(&cfg.Query.ResolverCacheEntries, "SEEDWORK_QUERY_CACHE_ENTRIES")
}

func invalid(field, msg string) result.Error {
	return result.NewError("Config.Invalid", field+" "+msg)
}

// validate reports every problem in cfg at once.
func validate(cfg *Config) result.Result {
	return result.Validate(
		result.Ensure(func() bool { return cfg.Server.Addr != "" },
			invalid("server.addr", "is required")),
		result.Ensure(func() bool { return slices.Contains([]string{"postgres", "memory"}, cfg.Storage.Driver) },
			invalid("storage.driver", "must be postgres or memory")),
		result.Ensure(func() bool { return cfg.Storage.Driver != "postgres" || cfg.Postgres.DSN != "" },
			invalid("postgres.dsn", "is required")),
		result.Ensure(func() bool { return cfg.Postgres.MaxConns >= 1 },
			invalid("postgres.max_conns", "must be >= 1")),
		result.Ensure(func() bool { return cfg.Postgres.MinConns <= cfg.Postgres.MaxConns },
			invalid("postgres.min_conns", "must not exceed max_conns")),
		result.Ensure(func() bool { return cfg.JWT.Secret != "" },
			invalid("jwt.secret", "is required")),
		result.Ensure(func() bool { return !cfg.IsProduction() || cfg.JWT.Secret != insecureSecret },
			invalid("jwt.secret", "must be changed in production")),
		result.Ensure(func() bool { return cfg.JWT.AccessTokenTTL > 0 },
			invalid("jwt.access_token_ttl", "must be positive")),
		result.Ensure(func() bool { return cfg.Logging.Format == "json" || cfg.Logging.Format == "text" },
			invalid("logging.format", "must be json or text")),
		result.Ensure(func() bool { return cfg.Query.MaxLimit >= 1 },
			invalid("query.max_limit", "must be >= 1")),
	)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.Split(v, ",")
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

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
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
