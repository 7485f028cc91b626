package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mvaleed/seedwork/internal/result"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("expected max_conns 25, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.JWT.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected access token ttl 15m, got %v", cfg.JWT.AccessTokenTTL)
	}
	if r := validate(&cfg); r.IsFailure() {
		t.Errorf("expected defaults to be valid, got %v", r.Error())
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  addr: ":9999"
storage:
  driver: memory
postgres:
  max_conns: 40
jwt:
  audience: [web, mobile]
logging:
  level: debug
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":9999" {
		t.Errorf("expected addr :9999, got %s", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected memory driver, got %s", cfg.Storage.Driver)
	}
	if cfg.Postgres.MaxConns != 40 {
		t.Errorf("expected max_conns 40, got %d", cfg.Postgres.MaxConns)
	}
	if len(cfg.JWT.Audience) != 2 || cfg.JWT.Audience[1] != "mobile" {
		t.Errorf("expected audience [web mobile], got %v", cfg.JWT.Audience)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected default shutdown timeout, got %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLMalformed(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "seedwork.yaml")
	if err := os.WriteFile(yamlPath, []byte("logging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("SEEDWORK_PG_MAX_CONNS", "30")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("SEEDWORK_JWT_AUDIENCE", "a,b,c")
	t.Setenv("SEEDWORK_MIGRATE", "true")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("expected env to win over yaml, got %s", cfg.Logging.Level)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("unexpected dsn %s", cfg.Postgres.DSN)
	}
	if cfg.Postgres.MaxConns != 30 {
		t.Errorf("expected max_conns 30, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.JWT.AccessTokenTTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", cfg.JWT.AccessTokenTTL)
	}
	if len(cfg.JWT.Audience) != 3 {
		t.Errorf("expected 3 audiences, got %v", cfg.JWT.Audience)
	}
	if !cfg.Storage.Migrate {
		t.Error("expected migrate to be enabled")
	}
}

func TestEnvIgnoresMalformedValues(t *testing.T) {
	cfg := Defaults()
	t.Setenv("SEEDWORK_PG_MAX_CONNS", "lots")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	loadEnv(&cfg)

	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("expected default max_conns, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.JWT.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected default ttl, got %v", cfg.JWT.AccessTokenTTL)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Environment = "prod"
	cfg.Storage.Driver = "sqlite"
	cfg.Postgres.MaxConns = 0
	cfg.Logging.Format = "xml"

	r := validate(&cfg)
	if r.IsSuccess() {
		t.Fatal("expected validation failure")
	}

	var agg result.AggregateError
	if !errors.As(r.Error(), &agg) {
		t.Fatalf("expected AggregateError, got %T", r.Error())
	}
	// storage.driver, max_conns, min_conns, insecure secret, logging.format
	if len(agg.Errors) != 5 {
		t.Errorf("expected 5 problems, got %d: %v", len(agg.Errors), agg)
	}
	if !strings.Contains(agg.Error(), "must be changed in production") {
		t.Errorf("expected production secret check, got %v", agg)
	}
}

func TestLoadFromWrapsValidation(t *testing.T) {
	t.Setenv("SEEDWORK_STORAGE", "sqlite")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "storage.driver") {
		t.Errorf("expected storage.driver error, got %v", err)
	}
}

func TestOverridesRunBeforeValidation(t *testing.T) {
	t.Setenv("SEEDWORK_STORAGE", "sqlite")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"), func(c *Config) {
		c.Storage.Driver = "memory"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected memory, got %s", cfg.Storage.Driver)
	}
}
