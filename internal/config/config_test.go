package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_SOURCE", "RATE_LIMIT_RPS", "CORS_ORIGINS", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want 8080", cfg.Port)
	}
	if cfg.DataSource != "csv" {
		t.Errorf("DataSource: got %q, want csv", cfg.DataSource)
	}
	if cfg.RateLimitRPS != 20 {
		t.Errorf("RateLimitRPS: got %v, want 20", cfg.RateLimitRPS)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins: got %v", cfg.CORSOrigins)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: got %v", cfg.ShutdownTimeout)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_SOURCE", "SQLITE_PATH", "RATE_LIMIT_RPS", "CORS_ORIGINS", "LOG_DEVELOPMENT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	path := filepath.Join(t.TempDir(), "test.env")
	content := "PORT=9090\nDATA_SOURCE=SQLite\nSQLITE_PATH=/tmp/x.db\nRATE_LIMIT_RPS=2.5\nCORS_ORIGINS=http://a, http://b\nLOG_DEVELOPMENT=true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.Port != "9090" {
		t.Errorf("Port: got %q", cfg.Port)
	}
	if cfg.Driver() != "sqlite3" || cfg.DSN() != "/tmp/x.db" {
		t.Errorf("sqlite source: driver %q dsn %q", cfg.Driver(), cfg.DSN())
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS: got %v", cfg.RateLimitRPS)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b" {
		t.Errorf("CORSOrigins: got %v", cfg.CORSOrigins)
	}
	if !cfg.LogDevelopment {
		t.Error("LogDevelopment should be true")
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		DataSource:       "postgres",
		PostgresHost:     "db",
		PostgresPort:     "5432",
		PostgresUser:     "u",
		PostgresPassword: "p",
		PostgresDB:       "orders",
		PostgresSSLMode:  "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=orders sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
	if cfg.Driver() != "postgres" {
		t.Errorf("Driver: got %q", cfg.Driver())
	}
}
